package receiver

import (
	"fmt"
	"net"

	"github.com/pion/logging"
)

// Server runs a TCP and a UDP receiver concurrently on the same
// host:port (spec.md §4.6).
type Server struct {
	TCP *TCPServer
	UDP *UDPServer

	stats *Stats
}

// Listen binds both a TCP listener and a UDP socket on addr and wraps them
// with the DC-09 handlers described by cfg.
func Listen(addr string, cfg Config, factory logging.LoggerFactory) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("receiver: tcp listen: %w", err)
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("receiver: udp listen: %w", err)
	}

	stats := &Stats{}
	return &Server{
		TCP:   NewTCPServer(listener, cfg, factory, stats),
		UDP:   NewUDPServer(conn, cfg, factory, stats),
		stats: stats,
	}, nil
}

// Stats returns a snapshot of the frames this server has parsed, NAK'd, and
// discarded since it started, combined across both transports.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Run blocks serving both transports, returning the first error either
// produces. The other transport keeps running; callers that want a full
// shutdown should call Close once Run returns.
func (s *Server) Run() error {
	errCh := make(chan error, 2)
	go func() { errCh <- s.TCP.Run() }()
	go func() { errCh <- s.UDP.Run() }()
	return <-errCh
}

// Close shuts down both transports.
func (s *Server) Close() error {
	tcpErr := s.TCP.Close()
	udpErr := s.UDP.Close()
	if tcpErr != nil {
		return tcpErr
	}
	return udpErr
}
