// Package mdns announces the dashboard on the local network so field
// tablets can find the station without knowing its address.
package mdns

import (
	"net"
	"strconv"

	"github.com/hashicorp/go-sockaddr"
	"github.com/hashicorp/mdns"
)

// Server wraps the underlying mDNS implementation to provide a
// simplified interface.
type Server struct {
	*mdns.Server
}

// NewServer advertises the dashboard's bind address as a
// _basestation._tcp service.
func NewServer(bind string) (*Server, error) {
	lAddr, _ := sockaddr.GetPrivateIP()

	_, portStr, err := net.SplitHostPort(bind)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	info := []string{"GNSS RTK Base Station Dashboard"}
	service, err := mdns.NewMDNSService("basestation", "_basestation._tcp", "", "", port, []net.IP{net.ParseIP(lAddr)}, info)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, err
	}

	return &Server{server}, nil
}
