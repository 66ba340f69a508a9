/*
Package main is the application package of findy-a2a, an agency which hosts
agent-to-agent DIDComm agents. The agents speak the Aries protocols:
connections, issue-credential, present-proof, trust ping and routing forward.
Credential and proof messages can carry payment requests, which the payer
settles with a payment receipt.

You can use the agency and its Go packages roughly for three purposes:

1. As a service which hosts many agents in one process. Each agent has its
own store file and endpoint, and the messages between the hosted agents don't
go through the network.

2. As a CLI tool for the offline tasks: creating invitations, listing
connections and inspecting wire messages.

3. As a framework: agent/agency wires one agent from its collaborators, and
the wallet, the ledger, the credential engine and the payment network are
interfaces which can be replaced.

# Sub-packages

	agent    the core: envelope, dispatcher, outbound pipeline, records, storage
	cmd      cobra commands of the CLI
	cmds     the commands as plain structs
	plugins  verifiable credential backends
	protocol handlers and services of the protocols
	server   the http and websocket endpoint
	std      the protocol message models
*/
package main
