// Package mqttserver embeds a broker in the dashboard so rovers on
// the farm network can subscribe to the station feeds without any
// external MQTT infrastructure.
package mqttserver

import (
	"github.com/hashicorp/go-hclog"
	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Server binds the server's methods.
type Server struct {
	l hclog.Logger
	s *mqtt.Server
}

// NewServer returns a broker that is ready to serve.
func NewServer(opts ...Option) (*Server, error) {
	x := Server{
		l: hclog.NewNullLogger(),
		s: mqtt.New(&mqtt.Options{InlineClient: true}),
	}

	for _, o := range opts {
		if err := o(&x); err != nil {
			return nil, err
		}
	}
	x.s.AddHook(newHook(x.l), nil)
	return &x, nil
}

// Serve binds and serves mqtt on the bound socket.  An error will be
// returned if the server cannot initialize.
func (s *Server) Serve(bind string) error {
	s.l.Info("MQTT is starting")
	l := listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: bind,
	})
	if err := s.s.AddListener(l); err != nil {
		return err
	}

	return s.s.Serve()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.l.Info("Stopping...")
	return s.s.Close()
}
