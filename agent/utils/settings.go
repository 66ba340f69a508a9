package utils

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang/glog"
)

const (
	HTTPReqTimeout  = 1 * time.Minute
	DefaultMaxDepth = 16
	DefaultService  = "a2a"
)

var Settings = &Hub{}

// Hub has the runtime settings of the agency. The CLI fills it and the
// server and the agent wiring read it.
type Hub struct {
	hostAddr    string        // host address seen from the internet, with scheme and port
	serviceName string        // name of the URL path for the inbound messages
	serverPort  uint          // port to listen
	timeout     time.Duration // timeout for the http requests
	versionInfo string        // version in free format

	storageName string // bolt file name without extension
	storagePath string
	storageKey  string // hex encoded store key, empty for plain storage

	backupPath string // where the daily bolt backups go, empty for no backups
	backupTime string // "HH:MM" for the backups

	maxDepth  int    // max nested messages per wire message
	mediaType string // content type of the outbound messages
	vcPlugin  string // name of the verifiable credential plugin
	label     string // default label of the hosted agents
}

func (h *Hub) HostAddr() string {
	return h.hostAddr
}

// SetHostAddr sets the host name of this agency. The host name is used in the
// endpoints.
func (h *Hub) SetHostAddr(ipName string) {
	h.hostAddr = ipName
}

// BuildHostAddr builds the full host address from the scheme, the host name
// set earlier and the port the world sees.
func (h *Hub) BuildHostAddr(scheme string, hostPort uint) {
	if hostPort != 80 {
		h.hostAddr = fmt.Sprintf("%s://%s:%v", scheme, h.hostAddr, hostPort)
	} else {
		h.hostAddr = fmt.Sprintf("%s://%s", scheme, h.hostAddr)
	}
}

func (h *Hub) ServiceName() string {
	if h.serviceName == "" {
		if glog.V(3) {
			glog.Info("service name is empty, using ", DefaultService)
		}
		return DefaultService
	}
	return h.serviceName
}

// SetServiceName sets the service name of this agency. It's the URL path of
// the endpoints.
func (h *Hub) SetServiceName(n string) {
	h.serviceName = n
}

// Endpoint returns the endpoint of the hosted agent.
func (h *Hub) Endpoint(agentName string) string {
	return fmt.Sprintf("%s/%s/%s", h.hostAddr, h.ServiceName(), agentName)
}

func (h *Hub) ServerPort() uint {
	return h.serverPort
}

func (h *Hub) SetServerPort(port uint) {
	h.serverPort = port
}

func (h *Hub) Timeout() time.Duration {
	if h.timeout == 0 {
		return HTTPReqTimeout
	}
	return h.timeout
}

// SetTimeout sets the default timeout for HTTP and WS requests.
func (h *Hub) SetTimeout(to time.Duration) {
	h.timeout = to
}

func (h *Hub) VersionInfo() string {
	return h.versionInfo
}

// SetVersionInfo sets current version info of this agency.
func (h *Hub) SetVersionInfo(info string) {
	h.versionInfo = info
}

// StorageFileName returns the bolt file name of the agent, without the path
// and the extension. Every hosted agent has its own file.
func (h *Hub) StorageFileName(agentName string) string {
	return h.storageName + "_" + agentName
}

func (h *Hub) StorageName() string {
	return h.storageName
}

func (h *Hub) StoragePath() string {
	return h.storagePath
}

func (h *Hub) SetStorage(path, name string) {
	h.storagePath = path
	h.storageName = name
}

func (h *Hub) StorageKey() string {
	return h.storageKey
}

func (h *Hub) SetStorageKey(key string) {
	h.storageKey = key
}

func (h *Hub) BackupPath() string {
	return h.backupPath
}

func (h *Hub) BackupTime() string {
	return h.backupTime
}

func (h *Hub) SetBackup(path, at string) {
	h.backupPath = path
	h.backupTime = at
}

// BackupFile returns the backup file name of the agent for the time.
func (h *Hub) BackupFile(agentName string, t time.Time) string {
	return filepath.Join(h.backupPath, fmt.Sprintf("%s_%s.bolt",
		h.StorageFileName(agentName), t.Format("2006-01-02_15-04")))
}

func (h *Hub) MaxDepth() int {
	if h.maxDepth <= 0 {
		return DefaultMaxDepth
	}
	return h.maxDepth
}

func (h *Hub) SetMaxDepth(depth int) {
	h.maxDepth = depth
}

func (h *Hub) MediaType() string {
	return h.mediaType
}

func (h *Hub) SetMediaType(mt string) {
	h.mediaType = mt
}

func (h *Hub) VCPlugin() string {
	return h.vcPlugin
}

func (h *Hub) SetVCPlugin(name string) {
	h.vcPlugin = name
}

func (h *Hub) Label() string {
	return h.label
}

func (h *Hub) SetLabel(label string) {
	h.label = label
}
