package receiver

import (
	"net"

	"github.com/pion/logging"
)

// outboundDatagram pairs a response frame with the address to send it to.
type outboundDatagram struct {
	response string
	addr     net.Addr
}

// UDPServer reads datagrams from a shared socket, parses and responds to
// each independently, and serializes writes through a single sender
// goroutine (spec.md §4.6 "UDP handler").
type UDPServer struct {
	conn  net.PacketConn
	cfg   Config
	log   logging.LeveledLogger
	stats *Stats

	outbound chan outboundDatagram
	done     chan struct{}
}

// NewUDPServer wraps conn with the DC-09 datagram handler.
func NewUDPServer(conn net.PacketConn, cfg Config, factory logging.LoggerFactory, stats *Stats) *UDPServer {
	s := &UDPServer{
		conn:  conn,
		cfg:   cfg,
		stats: stats,
		// Deeply buffered rather than truly unbounded (Go channels have no
		// unbounded variant); sized far beyond what a single-socket test
		// harness is expected to have in flight at once (spec.md §4.6).
		outbound: make(chan outboundDatagram, 4096),
		done:     make(chan struct{}),
	}
	if factory != nil {
		s.log = factory.NewLogger("receiver-udp")
	}
	return s
}

// Run starts the sender goroutine and reads datagrams synchronously, one at
// a time, until the socket is closed, at which point it returns the read
// error. Parsing and response synthesis happen inline in this loop; only
// the write is handed off to the sender goroutine, so writes stay ordered
// by arrival even though the socket itself serves many peers.
func (s *UDPServer) Run() error {
	go s.sendLoop()
	defer close(s.done)

	buf := make([]byte, 1536)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		s.handleDatagram(frame, addr)
	}
}

// Close closes the socket, causing Run's read loop and the sender
// goroutine to unwind.
func (s *UDPServer) Close() error {
	return s.conn.Close()
}

func (s *UDPServer) handleDatagram(raw []byte, addr net.Addr) {
	response, ok := buildDatagramResponse(raw, addr, s.cfg, s.log, s.stats)
	if !ok {
		return
	}
	select {
	case s.outbound <- outboundDatagram{response: response, addr: addr}:
	case <-s.done:
	}
}

func buildDatagramResponse(raw []byte, addr net.Addr, cfg Config, log logging.LeveledLogger, stats *Stats) (string, bool) {
	var sb nopWriteRecorder
	if !processFrame(&sb, addr, raw, cfg, log, stats) {
		return "", false
	}
	return sb.written, true
}

// nopWriteRecorder captures the single response processFrame writes,
// without driving an actual net.Conn — the UDP path hands the response to
// the sender goroutine instead of writing it directly.
type nopWriteRecorder struct {
	written string
}

func (r *nopWriteRecorder) Write(p []byte) (int, error) {
	r.written = string(p)
	return len(p), nil
}

func (s *UDPServer) sendLoop() {
	for {
		select {
		case dg := <-s.outbound:
			if _, err := s.conn.WriteTo([]byte(dg.response), dg.addr); err != nil && s.log != nil {
				s.log.Errorf("%v: %v", dg.addr, err)
			}
		case <-s.done:
			return
		}
	}
}
