// Package irc is the protocol state machine: it registers with the server,
// keeps channels, peers and queries in sync with what arrives, and sends
// typed messages.
package irc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalnet/nebo/internal/ident"
	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/dalnet/nebo/internal/irc/transport"
	"github.com/dalnet/nebo/internal/metrics"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const identStartTimeout = 5 * time.Second

// Options configures one Client
type Options struct {
	Nick          string
	AlternateNick string
	UserName      string
	RealName      string
	Password      string
	Invisible     bool

	Connection transport.Options
	Invoker    transport.Invoker

	// Ident starts an ident responder for the duration of registration
	Ident     bool
	IdentPort int

	// VersionReply answers CTCP VERSION; empty uses the build version
	VersionReply string
	Debug        bool
}

// SendingEvent is passed to OnMessageSending. Setting Cancel drops the
// message without error.
type SendingEvent struct {
	Message messages.Message
	Cancel  bool
}

// Client is one connection's protocol state. Events run on the connection's
// read goroutine, or through Options.Invoker.
type Client struct {
	OnConnecting     func()
	OnConnected      func()
	OnDisconnected   func(reason error)
	OnReady          func()
	OnMessageParsed  func(msg messages.Message)
	OnMessageSending func(e *SendingEvent)
	OnMessageSent    func(msg messages.Message)

	opts     Options
	conn     *transport.Connection
	parser   *messages.Parser
	handlers *messages.Conduit
	conduit  *messages.Conduit
	support  *support.ServerSupport
	ident    *ident.Service

	user     *model.User
	peers    model.UserCollection
	channels model.ChannelCollection
	queries  model.QueryCollection
	server   model.ServerQuery

	mu         sync.RWMutex
	serverName string

	registered atomic.Bool
	ready      atomic.Bool
}

// NewClient creates a disconnected client
func NewClient(opts Options) (*Client, error) {
	if opts.Nick == "" {
		return nil, errors.New("nick is required")
	}
	if opts.UserName == "" {
		opts.UserName = opts.Nick
	}
	if opts.RealName == "" {
		opts.RealName = opts.Nick
	}

	conn, err := transport.New(opts.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	c := &Client{
		opts:     opts,
		conn:     conn,
		parser:   messages.NewParser(),
		handlers: messages.NewConduit(),
		conduit:  messages.NewConduit(),
		support:  support.New(),
		user:     model.NewUser(opts.Nick),
	}
	c.user.SetUserName(opts.UserName)
	c.user.SetRealName(opts.RealName)
	if opts.Password != "" {
		c.user.SetPassword(opts.Password)
	}

	if opts.Ident {
		c.ident = ident.New()
		if opts.IdentPort != 0 {
			c.ident.Port = opts.IdentPort
		}
	}

	conn.Invoker = opts.Invoker
	conn.OnConnecting = c.onConnecting
	conn.OnConnected = c.onConnected
	conn.OnDisconnected = c.onDisconnected
	conn.OnDataReceived = c.onDataReceived

	c.registerHandlers()
	return c, nil
}

// Messages is the per-kind event registry for host callbacks. The model is
// already updated when these run.
func (c *Client) Messages() *messages.Conduit { return c.conduit }

// Parser exposes the recognizer registry so hosts can add message kinds
func (c *Client) Parser() *messages.Parser { return c.parser }

// Connection returns the underlying line transport
func (c *Client) Connection() *transport.Connection { return c.conn }

// User is the local user
func (c *Client) User() *model.User { return c.user }

func (c *Client) Peers() *model.UserCollection       { return &c.peers }
func (c *Client) Channels() *model.ChannelCollection { return &c.channels }
func (c *Client) Queries() *model.QueryCollection    { return &c.queries }
func (c *Client) ServerQuery() *model.ServerQuery    { return &c.server }

// ServerSupports is the ISUPPORT table announced by the server
func (c *Client) ServerSupports() *support.ServerSupport { return c.support }

// Ident returns the ident responder, or nil when disabled
func (c *Client) Ident() *ident.Service { return c.ident }

// ServerName is the name the server used in its welcome
func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

// Ready reports whether the readiness heuristic has fired since connecting
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Connect starts connecting in the background; registration follows once
// the socket is up
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx)
}

// Disconnect closes the connection without sending QUIT
func (c *Client) Disconnect() {
	c.conn.Disconnect()
}

// Wait blocks until the connection's read goroutine has exited
func (c *Client) Wait() {
	c.conn.Wait()
}

func (c *Client) onConnecting() {
	c.ready.Store(false)
	c.registered.Store(false)
	c.support.Reset()
	if c.OnConnecting != nil {
		c.OnConnecting()
	}
}

func (c *Client) onConnected() {
	log.Printf("Connected to IRC server %s", c.conn.Options().Address())
	c.startIdent()
	c.register()
	if c.OnConnected != nil {
		c.OnConnected()
	}
}

func (c *Client) onDisconnected(reason error) {
	c.stopIdent()
	c.registered.Store(false)
	for _, ch := range c.channels.List() {
		ch.SetOpen(false)
	}
	if reason != nil {
		log.Printf("Disconnected from IRC server: %v", reason)
	} else {
		log.Println("Disconnected from IRC server")
	}
	if c.OnDisconnected != nil {
		c.OnDisconnected(reason)
	}
}

func (c *Client) startIdent() {
	if c.ident == nil {
		return
	}
	c.ident.SetUser(c.opts.UserName, c.user.Nick())
	ctx, cancel := context.WithTimeout(context.Background(), identStartTimeout)
	defer cancel()
	if err := c.ident.Start(ctx); err != nil && !errors.Is(err, ident.ErrRunning) {
		log.Printf("Warning: could not start ident: %v", err)
	}
}

func (c *Client) stopIdent() {
	if c.ident != nil {
		c.ident.Stop()
	}
}

// register sends PASS, NICK and USER
func (c *Client) register() {
	var sequence []messages.Message
	if c.opts.Password != "" {
		sequence = append(sequence, &messages.PasswordMessage{Password: c.opts.Password})
	}
	sequence = append(sequence,
		&messages.NickChangeMessage{NewNick: c.user.Nick()},
		&messages.UserNotificationMessage{
			UserName:  c.opts.UserName,
			RealName:  c.opts.RealName,
			Invisible: c.opts.Invisible,
		},
	)
	for _, msg := range sequence {
		if err := c.Send(msg); err != nil {
			log.Printf("Error sending registration: %v", err)
			return
		}
	}
}

func (c *Client) onDataReceived(line string) {
	msg, err := c.parser.Parse(line)
	if err != nil {
		metrics.LinesDropped.Inc()
		log.Printf("Warning: dropped line %q: %v", line, err)
		return
	}
	if c.opts.Debug {
		log.Printf("<< %s (%s)", line, msg.Kind())
	}
	c.dispatch(msg)
}

// Dispatch runs msg through the model, the journals and the host callbacks
// as if it had been received
func (c *Client) Dispatch(msg messages.Message) {
	if msg != nil {
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg messages.Message) {
	if c.OnMessageParsed != nil {
		c.OnMessageParsed(msg)
	}
	c.handlers.Notify(msg)
	c.route(msg)
	c.conduit.Notify(msg)

	if code := msg.Numeric(); code > 0 && !messages.IsDirect(code) && c.ready.CompareAndSwap(false, true) {
		log.Println("IRC session ready")
		if c.OnReady != nil {
			c.OnReady()
		}
	}
}

// route appends msg to the journal it belongs to: a query when it is
// private to us, every channel it targets, or the server query
func (c *Client) route(msg messages.Message) {
	sender := msg.Sender()
	if q, ok := msg.(messages.QueryTargeted); ok && q.IsQueryToUser(c.user) && !isServer(sender) {
		peer := c.ensurePeer(sender)
		c.queries.Ensure(peer).Journal.Add(msg)
		return
	}

	if ct, ok := msg.(messages.ChannelTargeted); ok {
		routed := false
		for _, ch := range c.channels.List() {
			if ct.IsTargetedAtChannel(ch.Name()) {
				ch.Journal.Add(msg)
				routed = true
			}
		}
		if routed {
			return
		}
	}
	c.server.Journal.Add(msg)
}

// isServer reports whether a sender is a server rather than a user
func isServer(sender *model.User) bool {
	if sender == nil || !sender.IsNickSet() {
		return true
	}
	return sender.UserName() == "" && sender.HostName() == "" && strings.Contains(sender.Nick(), ".")
}

func (c *Client) isSelf(user *model.User) bool {
	return user != nil && c.isSelfNick(user.Nick())
}

func (c *Client) isSelfNick(nick string) bool {
	return nick != "" && model.NickEquals(nick, c.user.Nick())
}

// ensurePeer returns the tracked user for mask, which is self when the nick
// is ours. A copy of mask is stored so messages do not share the peer.
func (c *Client) ensurePeer(mask *model.User) *model.User {
	if c.isSelf(mask) {
		c.user.MergeWith(mask)
		return c.user
	}
	peer := model.NewUser("")
	peer.CopyFrom(mask)
	return c.peers.EnsureUser(peer)
}

// findUser returns self or a known peer with the nick, or nil
func (c *Client) findUser(nick string) *model.User {
	if c.isSelfNick(nick) {
		return c.user
	}
	return c.peers.Find(nick)
}

func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.user.Nick(), c.conn)
}
