package cmd

import (
	"os"

	"github.com/findy-network/findy-a2a/cmds"
	"github.com/findy-network/findy-a2a/cmds/agency"
	"github.com/findy-network/findy-a2a/cmds/connection"
	"github.com/findy-network/findy-a2a/cmds/message"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var agentEnvs = map[string]string{
	"storage-path": "STORAGE_PATH",
	"storage-name": "STORAGE_NAME",
	"storage-key":  "STORAGE_KEY",
	"agent-name":   "AGENT_NAME",
	"vc-plugin":    "VC_PLUGIN",
	"host-address": "HOST_ADDRESS",
}

// agentCmd represents the agent command
var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Parent command for the offline agent tools",
	Long: `
Parent command for the tools which work straight on one agent's store. The
agency must not run because it keeps the store files locked.

Every agent subcommand needs --agent-name and the storage flags which the
agency was started with.
`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agentEnvs, cmd.Name())
	},
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var agentFlags = cmds.Cmd{
	StorageName: agency.DefaultValues.StorageName,
	VCPlugin:    agency.DefaultValues.VCPlugin,
}

var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Creates a connection invitation",
	Long: `
Creates a connection invitation and its connection record, and prints the
invitation JSON.

Example
	findy-a2a agent invitation \
		--agent-name alice \
		--host-address http://localhost:8080 \
		--auto-accept
	`,
	RunE: func(cmd *cobra.Command, args []string) error {
		invCmd.Cmd = agentFlags
		return run(cmd, invCmd)
	},
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Lists the connections",
	Long: `
Lists the agent's connections: id, state, role, their label and alias.

Example
	findy-a2a agent connections --agent-name alice --state connected
	`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listCmd.Cmd = agentFlags
		return run(cmd, listCmd)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Prints the headers of a wire message",
	Long: `
Prints the type, ids, thread and decorators of the message in the file and
validates it. Packed message is unpacked with the agent's wallet.

Example
	findy-a2a agent inspect --packed --agent-name alice msg.bin
	`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		insCmd.Cmd = agentFlags
		insCmd.File = args[0]
		return run(cmd, insCmd)
	},
}

var (
	invCmd  = connection.InvitationCmd{}
	listCmd = connection.ListCmd{}
	insCmd  = message.InspectCmd{}
)

func run(cmd *cobra.Command, c cmds.Command) (err error) {
	defer err2.Handle(&err)

	try.To(c.Validate())
	if !rootFlags.dryRun {
		cmd.SilenceUsage = true
		try.To1(c.Exec(os.Stdout))
	}
	return nil
}

func init() {
	name := agentCmd.Name()
	flags := agentCmd.PersistentFlags()
	flags.StringVar(&agentFlags.StoragePath, "storage-path", "", flagInfo("folder of the agent stores", name, agentEnvs["storage-path"]))
	flags.StringVar(&agentFlags.StorageName, "storage-name", agentFlags.StorageName, flagInfo("base name of the agent store files", name, agentEnvs["storage-name"]))
	flags.StringVar(&agentFlags.StorageKey, "storage-key", "", flagInfo("SHA-256 32 bytes in hex ascii", name, agentEnvs["storage-key"]))
	flags.StringVar(&agentFlags.AgentName, "agent-name", "", flagInfo("name of the hosted agent", name, agentEnvs["agent-name"]))
	flags.StringVar(&agentFlags.VCPlugin, "vc-plugin", agentFlags.VCPlugin, flagInfo("verifiable credential plugin", name, agentEnvs["vc-plugin"]))
	flags.StringVar(&agentFlags.HostAddr, "host-address", "", flagInfo("scheme, host and port of the agency", name, agentEnvs["host-address"]))

	f := invitationCmd.Flags()
	f.StringVar(&invCmd.Alias, "alias", "", "our alias of the connection")
	f.BoolVar(&invCmd.AutoAccept, "auto-accept", false, "accept the connection request automatically")
	f.BoolVar(&invCmd.MultiParty, "multi-party", false, "invitation can be used many times")

	connectionsCmd.Flags().StringVar(&listCmd.State, "state", "", "invited, negotiating or connected, empty for all")
	inspectCmd.Flags().BoolVar(&insCmd.Packed, "packed", false, "file is packed for the agent")

	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(invitationCmd, connectionsCmd, inspectCmd)
}
