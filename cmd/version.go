package cmd

import (
	"fmt"
	"runtime"

	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of the agency",
	Long: `
Prints the version. With --verbose the Go version and the platform are printed
too.
`,
	RunE: func(_ *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		if !versionVerbose {
			try.To1(fmt.Println(utils.Version))
			return nil
		}
		try.To1(fmt.Printf("findy-a2a %s %s %s/%s\n", utils.Version,
			runtime.Version(), runtime.GOOS, runtime.GOARCH))
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "print build information too")
	rootCmd.AddCommand(versionCmd)
}
