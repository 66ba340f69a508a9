/*
Package bus broadcasts the state changes of the stored records. Listeners
register with a key and get every notification until they are removed.
*/
package bus

import (
	"sync"

	"github.com/golang/glog"
)

// Notify tells that a record was persisted in a state.
type Notify struct {
	RecordType   string
	ID           string
	State        string
	ConnectionID string
}

type NotifyChan chan Notify

// listener buffer, a full listener drops notifications
const bufSize = 32

type Station struct {
	lk        sync.Mutex
	listeners map[string]NotifyChan
}

func New() *Station {
	return &Station{listeners: make(map[string]NotifyChan)}
}

// AddListener adds a listener with the key and returns its channel. An old
// listener with the same key is replaced and its channel closed.
func (s *Station) AddListener(key string) <-chan Notify {
	s.lk.Lock()
	defer s.lk.Unlock()

	if old, ok := s.listeners[key]; ok {
		glog.V(3).Infoln("listener REPLACE:", key)
		close(old)
	}
	glog.V(3).Infoln("listener ADD:", key)
	c := make(NotifyChan, bufSize)
	s.listeners[key] = c
	return c
}

// RmListener removes the listener and closes its channel.
func (s *Station) RmListener(key string) {
	s.lk.Lock()
	defer s.lk.Unlock()

	if c, ok := s.listeners[key]; ok {
		glog.V(3).Infoln("listener REMOVE:", key)
		delete(s.listeners, key)
		close(c)
	}
}

// Broadcast sends the notification to all listeners. It never blocks.
func (s *Station) Broadcast(n Notify) {
	s.lk.Lock()
	defer s.lk.Unlock()

	for key, c := range s.listeners {
		select {
		case c <- n:
		default:
			glog.Warningf("listener %s full, dropping %s/%s", key, n.RecordType, n.ID)
		}
	}
}
