/*
Package agent holds the core packages of the agency. The agent package is
empty itself. All the functionality is inside sub-packages.

Summary of the packages:

	agency   wires an agent and hosts many of them in one process
	aries    decodes and validates the protocol messages
	bus      notifies the record state changes
	comm     agent context, handler registry, processing loop and sender
	didcomm  message envelope and threading
	fault    error codes of the core
	pltype   message type registry
	psm      protocol records and their state machines
	storage  record store contract and its bolt implementation
	trans    http and websocket transports
	utils    runtime settings
	vc       ledger, credential engine and payment network contracts
	wallet   crypto contract and its NaCl box implementation
*/
package agent
