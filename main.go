package main

import (
	"github.com/findy-network/findy-a2a/cmd"
)

func main() {
	cmd.Execute()
}
