package cmd

import (
	"os"

	"github.com/findy-network/findy-a2a/cmds/agency"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// AgencyCmd represents the agency command
var AgencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Parent command for starting and pinging agency",
	Long: `
Parent command for starting and pinging agency
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var agencyStartEnvs = map[string]string{
	"host-address": "HOST_ADDRESS",
	"host-scheme":  "HOST_SCHEME",
	"host-port":    "HOST_PORT",
	"server-port":  "SERVER_PORT",
	"service-name": "SERVICE_NAME",
	"timeout":      "TIMEOUT",
	"storage-path": "STORAGE_PATH",
	"storage-name": "STORAGE_NAME",
	"storage-key":  "STORAGE_KEY",
	"backup-path":  "BACKUP_PATH",
	"backup-time":  "BACKUP_TIME",
	"max-depth":    "MAX_DEPTH",
	"media-type":   "MEDIA_TYPE",
	"vc-plugin":    "VC_PLUGIN",
	"agents":       "AGENTS",
	"version-info": "VERSION_INFO",
}

// startAgencyCmd represents the agency start subcommand
var startAgencyCmd = &cobra.Command{
	Use:   "start",
	Short: "Command for starting agency",
	Long: `
Starts the agency server which hosts the named agents. Each agent gets its
own store file and its endpoint is <host>/<service-name>/<agent>.

Example
	findy-a2a agency start \
		--host-address agency.example.com \
		--host-port 443 \
		--host-scheme https \
		--storage-path /var/lib/findy \
		--backup-path /var/backups/findy \
		--agents alice,bob
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agencyStartEnvs, "AGENCY")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		try.To(aCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(aCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var agencyPingEnvs = map[string]string{
	"base-address": "PING_BASE_ADDRESS",
}

// pingAgencyCmd represents the agency ping subcommand
var pingAgencyCmd = &cobra.Command{
	Use:   "ping",
	Short: "Command for pinging agency",
	Long: `
Pings agency.
If agency works fine, ping ok with server's host address is printed.

Example
	findy-a2a agency ping \
		--base-address http://localhost:8080
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agencyPingEnvs, "AGENCY")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		try.To(paCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(paCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var (
	aCmd  = agency.DefaultValues
	paCmd = agency.PingCmd{}
)

func init() {
	aCmd.VersionInfo = "findy-a2a v. " + rootCmd.Version

	name := AgencyCmd.Name()
	flags := startAgencyCmd.Flags()
	flags.StringVar(&aCmd.HostAddr, "host-address", aCmd.HostAddr, flagInfo("host address", name, agencyStartEnvs["host-address"]))
	flags.StringVar(&aCmd.HostScheme, "host-scheme", aCmd.HostScheme, flagInfo("scheme of the agency's host address", name, agencyStartEnvs["host-scheme"]))
	flags.UintVar(&aCmd.HostPort, "host-port", aCmd.HostPort, flagInfo("host port", name, agencyStartEnvs["host-port"]))
	flags.UintVar(&aCmd.ServerPort, "server-port", aCmd.ServerPort, flagInfo("server port", name, agencyStartEnvs["server-port"]))
	flags.StringVar(&aCmd.ServiceName, "service-name", aCmd.ServiceName, flagInfo("URL path of the agent endpoints", name, agencyStartEnvs["service-name"]))
	flags.DurationVar(&aCmd.Timeout, "timeout", aCmd.Timeout, flagInfo("timeout of the outbound requests", name, agencyStartEnvs["timeout"]))
	flags.StringVar(&aCmd.StoragePath, "storage-path", aCmd.StoragePath, flagInfo("folder of the agent stores", name, agencyStartEnvs["storage-path"]))
	flags.StringVar(&aCmd.StorageName, "storage-name", aCmd.StorageName, flagInfo("base name of the agent store files", name, agencyStartEnvs["storage-name"]))
	flags.StringVar(&aCmd.StorageKey, "storage-key", "", flagInfo("SHA-256 32 bytes in hex ascii", name, agencyStartEnvs["storage-key"]))
	flags.StringVar(&aCmd.BackupPath, "backup-path", "", flagInfo("folder for the store backups, empty for none", name, agencyStartEnvs["backup-path"]))
	flags.StringVar(&aCmd.BackupTime, "backup-time", aCmd.BackupTime, flagInfo("time to start the store backups in HH:MM[:SS]", name, agencyStartEnvs["backup-time"]))
	flags.IntVar(&aCmd.MaxDepth, "max-depth", aCmd.MaxDepth, flagInfo("max nested messages in one wire message", name, agencyStartEnvs["max-depth"]))
	flags.StringVar(&aCmd.MediaType, "media-type", aCmd.MediaType, flagInfo("content type of the outbound messages", name, agencyStartEnvs["media-type"]))
	flags.StringVar(&aCmd.VCPlugin, "vc-plugin", aCmd.VCPlugin, flagInfo("verifiable credential plugin, empty for none", name, agencyStartEnvs["vc-plugin"]))
	flags.StringSliceVar(&aCmd.Agents, "agents", aCmd.Agents, flagInfo("names of the hosted agents", name, agencyStartEnvs["agents"]))
	flags.StringVar(&aCmd.VersionInfo, "version-info", aCmd.VersionInfo, flagInfo("version info of the /version", name, agencyStartEnvs["version-info"]))

	p := pingAgencyCmd.Flags()
	p.StringVar(&paCmd.BaseAddr, "base-address", "http://localhost:8080", flagInfo("base address of agency", name, agencyPingEnvs["base-address"]))
	p.DurationVar(&paCmd.Timeout, "timeout", 0, "ping timeout, default 3s")

	rootCmd.AddCommand(AgencyCmd)
	AgencyCmd.AddCommand(startAgencyCmd)
	AgencyCmd.AddCommand(pingAgencyCmd)
}
