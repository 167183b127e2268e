package mqttserver

import (
	"net"
	"strings"

	"github.com/hashicorp/go-hclog"
	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
)

// StationHook limits the embedded broker to its one job: the
// dashboard publishes, everyone else listens.
type StationHook struct {
	mqtt.HookBase

	l hclog.Logger
}

func newHook(l hclog.Logger) *StationHook {
	sh := new(StationHook)
	sh.l = l
	return sh
}

// Provides flags which methods the server will invoke this hook for.
// Adding or removing methods in this file requires updating this
// value!
func (sh *StationHook) Provides(b byte) bool {
	provides := map[byte]struct{}{
		mqtt.OnACLCheck:            struct{}{},
		mqtt.OnConnectAuthenticate: struct{}{},
		mqtt.OnConnect:             struct{}{},
		mqtt.OnDisconnect:          struct{}{},
		mqtt.OnStarted:             struct{}{},
	}
	_, ok := provides[b]
	return ok
}

// ID identifies this hook in the listing.
func (sh *StationHook) ID() string {
	return "StationHook"
}

// OnStarted happens after the listeners are bound and the server is
// ready to process connections.
func (sh *StationHook) OnStarted() {
	sh.l.Info("Ready for connections")
}

// OnConnect fires when a client connects, and we use this to forcibly
// clear all state for clients connecting to the server.
func (sh *StationHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	sh.l.Debug("Client Connect", "client", cl.ID)
	cl.ClearInflights()
	return nil
}

// OnDisconnect fires when a client is disconnected for any reason.
func (sh *StationHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	sh.l.Info("Client Disconnected", "client", cl.ID, "expired", expire)
}

// OnConnectAuthenticate allows anyone on the network to connect; what
// they can then do is decided by OnACLCheck below.
func (sh *StationHook) OnConnectAuthenticate(cl *mqtt.Client, pk packets.Packet) bool {
	return true
}

// OnACLCheck permits writes only from the station itself.  Remote
// clients get read access to the basestation topics and nothing else;
// the topic namespace is not theirs to publish into.
func (sh *StationHook) OnACLCheck(cl *mqtt.Client, topic string, write bool) bool {
	host, _, err := net.SplitHostPort(cl.Net.Remote)
	if err != nil {
		return false
	}

	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}

	if write {
		sh.l.Warn("Rejected remote publish", "client", cl.ID, "topic", topic)
		return false
	}
	return strings.HasPrefix(topic, "basestation/")
}
