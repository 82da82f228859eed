package receiver

import (
	"errors"
	"io"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/pion/logging"

	"github.com/fioletoven/dc09harness/pkg/codec"
)

// TCPServer accepts DC-09 connections, parsing and responding to one frame
// read at a time; a malformed frame or parse failure closes the connection
// (spec.md §4.6 "TCP connection handler").
type TCPServer struct {
	listener net.Listener
	cfg      Config
	log      logging.LeveledLogger
	stats    *Stats

	mu      sync.Mutex
	tasks   []chan struct{} // closed when its connection handler returns
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewTCPServer wraps listener with the DC-09 per-connection handler.
func NewTCPServer(listener net.Listener, cfg Config, factory logging.LoggerFactory, stats *Stats) *TCPServer {
	s := &TCPServer{
		listener: listener,
		cfg:      cfg,
		stats:    stats,
		closeCh:  make(chan struct{}),
	}
	if factory != nil {
		s.log = factory.NewLogger("receiver-tcp")
	}
	return s
}

// Run accepts connections until the listener is closed. It always returns
// a non-nil error (net.ErrClosed once Close is called, as per net.Listener).
func (s *TCPServer) Run() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}

		done := make(chan struct{})
		s.mu.Lock()
		s.tasks = append(s.tasks, done)
		if len(s.tasks) > 1000 {
			s.pruneFinishedLocked()
		}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer close(done)
			s.handleConn(conn)
		}()
	}
}

// pruneFinishedLocked drops task handles whose connection already closed.
// Called with mu held.
func (s *TCPServer) pruneFinishedLocked() {
	live := s.tasks[:0]
	for _, done := range s.tasks {
		select {
		case <-done:
		default:
			live = append(live, done)
		}
	}
	s.tasks = live
}

// Close closes the listener, causing Run to return.
func (s *TCPServer) Close() error {
	return s.listener.Close()
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	addr := conn.RemoteAddr()
	buf := make([]byte, 1536)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.log != nil {
				s.log.Debugf("%v: read error: %v", addr, err)
			}
			return
		}
		if n == 0 {
			return
		}

		if !processFrame(conn, addr, buf[:n], s.cfg, s.log, s.stats) {
			return
		}
	}
}

// processFrame parses one frame and writes the matching response. It
// returns false when the connection should be closed (malformed input).
func processFrame(w io.Writer, addr net.Addr, raw []byte, cfg Config, log logging.LeveledLogger, stats *Stats) bool {
	if !utf8.Valid(raw) {
		if log != nil {
			log.Errorf("%v: received invalid UTF-8 sequence", addr)
		}
		stats.recordDiscarded()
		return false
	}
	frame := string(raw)

	account, err := codec.ParseAccount(frame)
	if err != nil {
		if log != nil {
			log.Errorf("%v: %v: %q", addr, err, frame)
		}
		stats.recordDiscarded()
		return false
	}

	key, _ := cfg.KeyFor(account)

	msg, err := codec.Parse(frame, key)
	if err != nil {
		if log != nil {
			log.Errorf("%v: %v: %q", addr, err, frame)
		}
		stats.recordDiscarded()
		return false
	}
	if log != nil {
		log.Infof("%v -> %q", addr, frame)
	}
	stats.recordParsed()

	response, err := BuildResponse(msg, key, cfg)
	if err != nil {
		if log != nil {
			log.Errorf("%v: %v", addr, err)
		}
		stats.recordDiscarded()
		return false
	}
	if cfg.SendNAK {
		stats.recordNAK()
	}

	if log != nil {
		log.Infof("%v <- %q", addr, response)
	}
	if _, err := w.Write([]byte(response)); err != nil {
		if log != nil {
			log.Warnf("%v: write failed: %v", addr, err)
		}
		return false
	}
	return true
}
