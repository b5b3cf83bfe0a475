package dcc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a DCC connection
type Status int32

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

// DefaultTimeout bounds how long a connection may stay Connecting
const DefaultTimeout = 60 * time.Second

var (
	// ErrAlreadyStarted is returned when a connection is started twice
	ErrAlreadyStarted = errors.New("dcc connection already started")
	// ErrTimeout is the Disconnected reason when no peer showed up in time
	ErrTimeout = errors.New("dcc connection timed out")
	// ErrNoTransfer is returned when a connection is started without a transfer
	ErrNoTransfer = errors.New("dcc connection has no transfer")
)

// session holds what both roles share: status, the peer socket, the
// worker's lifetime and the events
type session struct {
	Transfer *Transfer
	Timeout  time.Duration

	OnConnected    func()
	OnDisconnected func(reason error)

	status atomic.Int32

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
	cancel   context.CancelFunc
	timer    *time.Timer
	done     chan struct{}
	once     *sync.Once
	err      error
}

// Status returns the current state
func (s *session) Status() Status {
	return Status(s.status.Load())
}

// Err returns the error that ended the last session, if any
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the worker has exited. It must not be called from
// OnDisconnected.
func (s *session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// begin moves Disconnected to Connecting and prepares the worker context.
// A session whose previous worker is still running cannot be started.
func (s *session) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	if s.Transfer == nil {
		return nil, nil, ErrNoTransfer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
		default:
			return nil, nil, ErrAlreadyStarted
		}
	}
	if !s.status.CompareAndSwap(int32(Disconnected), int32(Connecting)) {
		return nil, nil, ErrAlreadyStarted
	}
	s.Transfer.stopped.Store(false)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.once = &sync.Once{}
	s.err = nil
	return ctx, s.done, nil
}

// id names the transfer in log lines
func (s *session) id() string {
	if s.Transfer == nil {
		return "-"
	}
	return s.id()
}

// armTimeout force-disconnects if the session is still Connecting after
// Timeout
func (s *session) armTimeout() {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		if s.Status() == Connecting {
			log.Printf("DCC transfer %s: no connection after %v", s.id(), timeout)
			s.setErr(ErrTimeout)
			s.DisconnectForce()
		}
	})
	s.mu.Lock()
	s.timer = timer
	s.mu.Unlock()
}

func (s *session) stopTimer() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
}

func (s *session) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// connected records the peer socket. It fails when the session was
// disconnected while the socket was being set up.
func (s *session) connected(conn net.Conn) bool {
	s.stopTimer()
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	if !s.status.CompareAndSwap(int32(Connecting), int32(Connected)) {
		conn.Close()
		return false
	}
	if s.OnConnected != nil {
		s.OnConnected()
	}
	return true
}

// finish runs once per session when it ends for any reason
func (s *session) finish() {
	s.mu.Lock()
	once := s.once
	s.mu.Unlock()
	if once == nil {
		return
	}
	once.Do(func() {
		s.status.Store(int32(Disconnected))
		if s.OnDisconnected != nil {
			s.OnDisconnected(s.Err())
		}
	})
}

// closeSockets closes the listener and peer socket, if open
func (s *session) closeSockets() {
	s.mu.Lock()
	listener, conn := s.listener, s.conn
	s.listener, s.conn = nil, nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if conn != nil {
		conn.Close()
	}
}

// Disconnect ends the session cooperatively: a running transfer stops after
// its current chunk, a pending listener is closed.
func (s *session) Disconnect() {
	if s.Status() == Disconnected {
		return
	}
	if s.Transfer != nil {
		s.Transfer.Stop()
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if s.Status() == Connecting && listener != nil {
		listener.Close()
	}
	s.finish()
}

// DisconnectForce aborts the worker by cancelling its context and closing
// both sockets
func (s *session) DisconnectForce() {
	s.stopTimer()
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.closeSockets()
	s.finish()
}

// ServerConnection is the listening role: it waits for one peer and sends
// the transfer's file to it
type ServerConnection struct {
	session
	Port int
}

// NewServerConnection prepares to serve transfer on port. Port 0 picks a
// free port; see Addr.
func NewServerConnection(port int, transfer *Transfer) *ServerConnection {
	s := &ServerConnection{Port: port}
	s.Transfer = transfer
	s.Timeout = DefaultTimeout
	return s
}

// Addr returns the listening address while Connecting
func (s *ServerConnection) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Send starts listening and returns; a worker goroutine accepts one peer
// and runs the transfer. Listen failures are returned after cleanup.
func (s *ServerConnection) Send(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort("", strconv.Itoa(s.Port)))
	if err != nil {
		err = fmt.Errorf("failed to listen on port %d: %w", s.Port, err)
		log.Printf("DCC transfer %s: %v", s.id(), err)
		s.setErr(err)
		s.finish()
		close(done)
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.Printf("DCC transfer %s: listening on %s", s.id(), listener.Addr())
	s.armTimeout()
	go s.run(ctx, listener, done)
	return nil
}

func (s *ServerConnection) run(ctx context.Context, listener net.Listener, done chan struct{}) {
	defer func() {
		s.closeSockets()
		listener.Close()
		s.finish()
		close(done)
	}()

	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() == nil && s.Status() != Disconnected {
			err = fmt.Errorf("failed to accept: %w", err)
			log.Printf("DCC transfer %s: %v", s.id(), err)
			s.setErr(err)
		}
		return
	}
	// only one peer per transfer
	listener.Close()

	if !s.connected(conn) {
		return
	}
	log.Printf("DCC transfer %s: peer %s connected", s.id(), conn.RemoteAddr())
	if err := s.Transfer.Send(conn); err != nil {
		log.Printf("DCC transfer %s: %v", s.id(), err)
		s.setErr(err)
	}
}

// ClientConnection is the connecting role: it dials the address from a DCC
// SEND offer and receives the file
type ClientConnection struct {
	session
	Address string
	Port    int
}

// NewClientConnection prepares to receive transfer from address:port
func NewClientConnection(address string, port int, transfer *Transfer) *ClientConnection {
	c := &ClientConnection{Address: address, Port: port}
	c.Transfer = transfer
	c.Timeout = DefaultTimeout
	return c
}

// Receive starts a worker goroutine that connects and runs the transfer
func (c *ClientConnection) Receive(ctx context.Context) error {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return err
	}
	c.armTimeout()
	go c.run(ctx, done)
	return nil
}

func (c *ClientConnection) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.closeSockets()
		c.finish()
		close(done)
	}()

	var d net.Dialer
	addr := net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() == nil {
			err = fmt.Errorf("failed to connect to %s: %w", addr, err)
			log.Printf("DCC transfer %s: %v", c.id(), err)
			c.setErr(err)
		}
		return
	}
	if !c.connected(conn) {
		return
	}
	log.Printf("DCC transfer %s: connected to %s", c.id(), addr)
	if err := c.Transfer.Receive(conn); err != nil {
		log.Printf("DCC transfer %s: %v", c.id(), err)
		c.setErr(err)
	}
}
