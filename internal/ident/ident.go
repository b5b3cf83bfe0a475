// Package ident answers RFC 1413 ident queries, which some IRC networks
// make while a client registers.
package ident

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPort is the well-known ident port
const DefaultPort = 113

const (
	replyFormat = "%s : USERID : UNIX : %s\r\n"
	readTimeout = 30 * time.Second
	defaultName = "nebo"
)

// ErrRunning is returned when Start is called on a running service
var ErrRunning = errors.New("ident service already running")

// Service is one ident responder. Each IRC client owns its own.
type Service struct {
	Port int
	// StopAfterFirstAnswer stops the listener once one query was answered
	StopAfterFirstAnswer bool

	mu       sync.Mutex
	userName string
	nick     string
	listener net.Listener
	done     chan struct{}
}

// New returns a stopped service for the default port
func New() *Service {
	return &Service{Port: DefaultPort}
}

// SetUser sets the identity reported in replies
func (s *Service) SetUser(userName, nick string) {
	s.mu.Lock()
	s.userName, s.nick = userName, nick
	s.mu.Unlock()
}

// Name is the lowercased user name, falling back to the nick and then to a
// fixed name
func (s *Service) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.userName
	if name == "" {
		name = s.nick
	}
	if name == "" {
		name = defaultName
	}
	return strings.ToLower(name)
}

// Running reports whether the listener is open
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Addr returns the listening address, or nil when stopped
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start opens the listener and serves queries in the background. It
// returns once the service is listening or ctx expires.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort("", strconv.Itoa(s.Port)))
	if err != nil {
		return fmt.Errorf("failed to open ident listener on port %d: %w", s.Port, err)
	}
	s.listener = listener
	s.done = make(chan struct{})
	go s.serve(listener, s.done)
	log.Printf("Ident listening on %s", listener.Addr())
	return nil
}

// Stop closes the listener and waits for the serving goroutine
func (s *Service) Stop() {
	s.mu.Lock()
	listener, done := s.listener, s.done
	s.listener = nil
	s.mu.Unlock()
	if listener == nil {
		return
	}
	listener.Close()
	<-done
	log.Println("Ident stopped")
}

func (s *Service) serve(listener net.Listener, done chan struct{}) {
	defer close(done)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("Ident accept failed: %v", err)
			}
			return
		}
		if err := s.answer(conn); err != nil {
			log.Printf("Error processing ident request: %v", err)
			continue
		}
		if s.StopAfterFirstAnswer {
			s.mu.Lock()
			if s.listener == listener {
				s.listener = nil
			}
			s.mu.Unlock()
			listener.Close()
			return
		}
	}
}

func (s *Service) answer(conn net.Conn) error {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(readTimeout))

	request, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && request == "" {
		return fmt.Errorf("failed to read request: %w", err)
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return errors.New("empty request")
	}
	_, err = fmt.Fprintf(conn, replyFormat, request, s.Name())
	return err
}
