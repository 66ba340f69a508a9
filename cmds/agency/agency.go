package agency

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-a2a/agent/agency"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/trans"
	"github.com/findy-network/findy-a2a/agent/utils"
	"github.com/findy-network/findy-a2a/cmds"
	"github.com/findy-network/findy-a2a/plugins"
	_ "github.com/findy-network/findy-a2a/plugins/memvc" // install vc plugins
	"github.com/findy-network/findy-a2a/server"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Cmd struct {
	ServiceName string
	HostAddr    string
	HostScheme  string
	HostPort    uint
	ServerPort  uint
	Timeout     time.Duration

	StoragePath string
	StorageName string
	StorageKey  string
	BackupPath  string
	BackupTime  string

	MaxDepth  int
	MediaType string
	VCPlugin  string
	Agents    []string

	VersionInfo string

	ag     *agency.Agency
	stores map[string]*bolt.Store
}

var DefaultValues = Cmd{
	ServiceName: utils.DefaultService,
	HostAddr:    "localhost",
	HostScheme:  "http",
	HostPort:    8080,
	ServerPort:  8080,
	Timeout:     utils.HTTPReqTimeout,
	StorageName: "findy-a2a",
	BackupTime:  "04:00",
	MaxDepth:    utils.DefaultMaxDepth,
	MediaType:   trans.MediaType,
	VCPlugin:    "mem",
	Agents:      []string{"agent"},
}

var (
	cron = gocron.NewScheduler(time.Now().Location())
)

func (c *Cmd) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if c.HostAddr == "" {
		return errors.New("host address cannot be empty")
	}
	if c.ServerPort == 0 {
		return errors.New("server port cannot be zero")
	}
	if c.StorageName == "" {
		return errors.New("storage name cannot be empty")
	}
	if err := cmds.ValidateKey(c.StorageKey); err != nil {
		return err
	}
	if c.BackupPath == "" {
		glog.Warning("backup path is empty, no backups")
	} else if err := cmds.ValidateTime(c.BackupTime); err != nil {
		return fmt.Errorf("backup time: %w", err)
	}
	if c.MaxDepth < 1 {
		return errors.New("max depth must be positive")
	}
	if len(c.Agents) == 0 {
		return errors.New("at least one agent is needed")
	}
	for _, name := range c.Agents {
		if name == "" || strings.ContainsAny(name, "/ ") {
			return fmt.Errorf("invalid agent name %q", name)
		}
	}
	if c.VCPlugin != "" {
		found := false
		for _, n := range plugins.Names() {
			found = found || n == c.VCPlugin
		}
		if !found {
			return fmt.Errorf("no vc plugin %q, have %v", c.VCPlugin, plugins.Names())
		}
	}
	return nil
}

func (c *Cmd) Exec(_ io.Writer) (r cmds.Result, err error) {
	return nil, StartAgency(c)
}

func (c *Cmd) PreRun() {
	utils.Settings.SetVersionInfo(c.VersionInfo)
}

// Setup sets the runtime settings and builds the agency with its agents.
func (c *Cmd) Setup(ctx context.Context) (err error) {
	defer err2.Handle(&err, "setup")

	c.printStartupArgs()
	c.setRuntimeSettings()

	h := &trans.HTTP{
		Timeout:   utils.Settings.Timeout(),
		MediaType: utils.Settings.MediaType(),
	}
	ws := &trans.WebSocket{HandshakeTimeout: utils.Settings.Timeout()}
	c.ag = agency.NewAgency(trans.NewMux(h, ws))
	c.stores = make(map[string]*bolt.Store, len(c.Agents))

	var p plugins.Plugin
	if c.VCPlugin != "" {
		p = try.To1(plugins.GetPlugin(c.VCPlugin))
	}
	for _, name := range c.Agents {
		store := try.To1(bolt.Open(bolt.Config{
			Key:      c.StorageKey,
			FileName: utils.Settings.StorageFileName(name),
			FilePath: c.StoragePath,
		}))
		c.stores[name] = store

		cfg := agency.Config{
			Label:     name,
			Endpoint:  utils.Settings.Endpoint(name),
			MaxDepth:  utils.Settings.MaxDepth(),
			Store:     store,
			Transport: c.ag,
		}
		if p != nil {
			cfg.Ledger, cfg.Engine, cfg.Payments = p.Ledger(), p.Engine(), p.Payments()
		}
		a := try.To1(agency.New(ctx, cfg))
		c.ag.Add(a)
		fmt.Println("agent", name, "at", a.Endpoint)
	}
	return nil
}

// Run blocks in the http server.
func (c *Cmd) Run(ctx context.Context) (err error) {
	defer err2.Handle(&err, "run")

	c.startBackupTasks()
	go c.ag.Run(ctx)
	return server.StartHTTPServer(c.ag)
}

func (c *Cmd) startBackupTasks() {
	if c.BackupPath == "" {
		return
	}
	glog.V(1).Infoln("store backup time:", c.BackupTime)
	_, err := cron.Every(1).Day().At(c.BackupTime).Do(c.Backup)
	if err != nil {
		glog.Warningln("store backup start error:", err)
	}
	cron.StartAsync()
}

// Backup copies every agent's store to the backup path.
func (c *Cmd) Backup() {
	now := time.Now()
	for name, s := range c.stores {
		if err := s.Backup(utils.Settings.BackupFile(name, now)); err != nil {
			glog.Errorf("backup %s: %v", name, err)
		}
	}
}

func StartAgency(serverCmd *Cmd) (err error) {
	defer err2.Handle(&err, "start agency")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer serverCmd.closeAll()
	try.To(serverCmd.Setup(ctx))
	try.To(serverCmd.Run(ctx))
	return nil
}

func (c *Cmd) printStartupArgs() {
	fmt.Println(
		"Storage path:", c.StoragePath,
		"\nStorage name:", c.StorageName,
		"\nHost address:", c.HostAddr,
		"\nHost port:", c.HostPort,
		"\nServer port:", c.ServerPort,
		"\nVC plugin:", c.VCPlugin)
}

func (c *Cmd) setRuntimeSettings() {
	if c.HostPort == 0 {
		c.HostPort = c.ServerPort
	}
	utils.Settings.SetServiceName(c.ServiceName)
	utils.Settings.SetHostAddr(c.HostAddr)
	utils.Settings.BuildHostAddr(c.HostScheme, c.HostPort)
	utils.Settings.SetServerPort(c.ServerPort)
	utils.Settings.SetTimeout(c.Timeout)
	utils.Settings.SetStorage(c.StoragePath, c.StorageName)
	utils.Settings.SetStorageKey(c.StorageKey)
	utils.Settings.SetBackup(c.BackupPath, c.BackupTime)
	utils.Settings.SetMaxDepth(c.MaxDepth)
	utils.Settings.SetMediaType(c.MediaType)
	utils.Settings.SetVCPlugin(c.VCPlugin)
}

func (c *Cmd) closeAll() {
	cron.Stop()
	for name, s := range c.stores {
		if err := s.Close(); err != nil {
			glog.Errorf("close %s: %v", name, err)
		}
	}
}

// ParseLoggingArgs sets the glog flags from the string, e.g. "-v=3
// -logtostderr".
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Fields(s)...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}
