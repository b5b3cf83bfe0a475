// Package bridge hosts an IRC client for another chat system: it relays
// channel chat to a sink, answers operator commands and serves DCC file
// offers from the data directory.
package bridge

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/nebo/internal/config"
	"github.com/dalnet/nebo/internal/dcc"
	"github.com/dalnet/nebo/internal/irc"
	"github.com/dalnet/nebo/internal/irc/contacts"
	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/transport"
	"github.com/dalnet/nebo/internal/routing"
	"github.com/dalnet/nebo/internal/storage"
	"github.com/ergochat/irc-go/ircfmt"
)

const timestampFormat = "Mon Jan 02, 2006 15:04:05 GMT"

// Sink receives chat relayed out of IRC
type Sink interface {
	Relay(channel, nick, text string)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(channel, nick, text string)

func (f SinkFunc) Relay(channel, nick, text string) { f(channel, nick, text) }

// LogSink writes relayed chat to the standard logger
type LogSink struct{}

func (LogSink) Relay(channel, nick, text string) {
	log.Printf("[%s] <%s> %s", channel, nick, text)
}

// offer is a DCC SEND waiting for, or serving, its peer
type offer struct {
	nick string
	name string
	port int
	file *os.File
	conn *dcc.ServerConnection
}

// Bridge wires one Client to a sink, operator commands and DCC offers
type Bridge struct {
	client   *irc.Client
	cfg      *config.Config
	sink     Sink
	contacts *contacts.List

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	relay       []string
	audit       []string
	motd        *storage.MOTD
	topology    *routing.Topology
	admins      map[string]bool
	pending     map[string]string
	linksTarget string
	offers      map[int]*offer

	OnShutdown func()
}

// ClientOptions maps the configuration onto client options
func ClientOptions(cfg *config.Config) irc.Options {
	return irc.Options{
		Nick:          cfg.Nick,
		AlternateNick: cfg.Alternate,
		UserName:      cfg.Username,
		RealName:      cfg.IRCName,
		Password:      cfg.ServerPass,
		Invisible:     cfg.Invisible,
		Connection: transport.Options{
			Server:    cfg.Server,
			Port:      cfg.Port,
			TLS:       cfg.TLS,
			Proxy:     cfg.Proxy,
			Encoding:  cfg.Encoding,
			SendRate:  cfg.SendRate,
			SendBurst: cfg.SendBurst,
		},
		Ident:     cfg.Ident,
		IdentPort: cfg.IdentPort,
		Debug:     cfg.Debug,
	}
}

// New loads the bridge's files from the data directory and registers its
// callbacks on client. It must be called before the client connects.
func New(cfg *config.Config, client *irc.Client, sink Sink) *Bridge {
	if sink == nil {
		sink = LogSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		client:  client,
		cfg:     cfg,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
		admins:  make(map[string]bool),
		pending: make(map[string]string),
		offers:  make(map[int]*offer),
	}

	var err error
	if b.relay, err = storage.LoadRelayLog(cfg.DataDir); err != nil {
		log.Printf("Warning: could not load relay log: %v", err)
		b.relay = []string{}
	}
	if b.audit, err = storage.LoadAudit(cfg.DataDir); err != nil {
		log.Printf("Warning: could not load audit: %v", err)
		b.audit = []string{}
	}
	if b.motd, err = storage.LoadMOTD(cfg.DataDir); err != nil {
		log.Printf("Warning: could not load MOTD: %v", err)
		b.motd = &storage.MOTD{}
	}
	if b.topology, err = routing.LoadTopology(cfg.DataDir); err != nil {
		log.Printf("Warning: could not load topology: %v", err)
		b.topology = &routing.Topology{Hubs: make(map[string][]string)}
	}

	b.contacts = contacts.New(client)
	b.contacts.PollInterval = cfg.ContactPollInterval()
	b.contacts.OnChange = b.onContactChange
	for _, nick := range cfg.Contacts {
		if _, err := b.contacts.Add(nick); err != nil {
			log.Printf("Warning: could not add contact %s: %v", nick, err)
		}
	}

	client.OnReady = b.onReady
	b.registerCallbacks()
	return b
}

// Client returns the hosted client
func (b *Bridge) Client() *irc.Client { return b.client }

// Contacts returns the contact list
func (b *Bridge) Contacts() *contacts.List { return b.contacts }

// RelayLog returns the relayed chat lines, newest first
func (b *Bridge) RelayLog() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.relay...)
}

// Audit returns the operator command audit, oldest first
func (b *Bridge) Audit() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.audit...)
}

// Relay sends text from the host into an IRC channel, one message per line
func (b *Bridge) Relay(channel, text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if err := b.client.SendChat(line, channel); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown cancels pending offers and quits with the configured message
func (b *Bridge) Shutdown() {
	b.cancel()
	b.contacts.Close()

	b.mu.Lock()
	offers := make([]*offer, 0, len(b.offers))
	for _, o := range b.offers {
		offers = append(offers, o)
	}
	b.mu.Unlock()
	for _, o := range offers {
		o.conn.DisconnectForce()
	}

	if err := b.client.SendQuit(b.cfg.QuitMessage); err != nil {
		log.Printf("Error sending QUIT: %v", err)
	}
}

func (b *Bridge) registerCallbacks() {
	conduit := b.client.Messages()
	messages.On(conduit, b.onChat)
	messages.On(conduit, b.onAction)
	messages.On(conduit, b.onWhoIsOper)
	messages.On(conduit, b.onWhoIsEnd)
	messages.On(conduit, b.onLinksEnd)
	messages.On(conduit, b.onMotdEnd)
	messages.On(conduit, b.onDccResume)
	messages.On(conduit, b.onNick)
	messages.On(conduit, b.onQuit)
}

func (b *Bridge) onReady() {
	log.Printf("Registered with %s as %s", b.client.ServerName(), b.client.User().Nick())
	if len(b.cfg.Channels) > 0 {
		if err := b.client.SendJoin(b.cfg.Channels...); err != nil {
			log.Printf("Error joining channels: %v", err)
		}
	}
	if err := b.contacts.Start(); err != nil {
		log.Printf("Error tracking contacts: %v", err)
	}
}

func (b *Bridge) onContactChange(user *model.User) {
	log.Printf("Contact %s is now %s", user.Nick(), user.OnlineStatus())
}

func (b *Bridge) onChat(m *messages.ChatMessage) {
	sender := m.Sender().Nick()
	if m.IsQueryToUser(b.client.User()) {
		if strings.HasPrefix(m.Text, "!") {
			b.onCommand(sender, m.Sender().Mask(), m.Text)
		}
		return
	}
	b.relayChat(m.Targets, sender, m.Text)
}

func (b *Bridge) onAction(m *messages.ActionMessage) {
	if m.IsQueryToUser(b.client.User()) {
		return
	}
	b.relayChat(m.Targets, m.Sender().Nick(), "* "+m.Text)
}

// relayChat forwards chat addressed to a configured channel
func (b *Bridge) relayChat(targets []string, nick, text string) {
	text = ircfmt.Strip(text)
	for _, target := range targets {
		channel := b.configuredChannel(target)
		if channel == "" {
			continue
		}
		b.sink.Relay(channel, nick, text)

		timestamp := time.Now().UTC().Format(timestampFormat)
		entry := fmt.Sprintf("[%s] %s <%s> %s", timestamp, channel, nick, text)
		b.mu.Lock()
		b.relay = storage.AddRelayEntry(b.relay, entry)
		relay := b.relay
		b.mu.Unlock()

		if err := storage.SaveRelayLog(b.cfg.DataDir, relay); err != nil {
			log.Printf("Error saving relay log: %v", err)
		}
	}
}

func (b *Bridge) configuredChannel(target string) string {
	fold := b.client.ServerSupports().Fold()
	for _, channel := range b.cfg.Channels {
		if fold(channel) == fold(target) {
			return channel
		}
	}
	return ""
}

// onCommand runs a command from a known operator, or checks the sender
// with WHOIS first
func (b *Bridge) onCommand(nick, hostmask, text string) {
	if peer := b.client.Peers().Find(nick); peer != nil && peer.IrcOperator() {
		b.handleCommand(nick, hostmask, text)
		return
	}

	b.mu.Lock()
	b.pending[strings.ToLower(nick)] = text
	b.mu.Unlock()

	if err := b.client.Send(&messages.WhoIsMessage{Masks: []string{nick}}); err != nil {
		log.Printf("Error sending WHOIS: %v", err)
	}
}

func (b *Bridge) onWhoIsOper(m *messages.WhoIsOperMessage) {
	key := strings.ToLower(m.Nick)
	b.mu.Lock()
	text, ok := b.pending[key]
	delete(b.pending, key)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.handleCommand(m.Nick, b.hostmask(m.Nick), text)
}

func (b *Bridge) onWhoIsEnd(m *messages.WhoIsEndMessage) {
	for _, nick := range m.Nicks {
		key := strings.ToLower(nick)
		b.mu.Lock()
		text, ok := b.pending[key]
		delete(b.pending, key)
		b.mu.Unlock()

		// still pending: no 313 arrived
		if ok {
			if strings.HasPrefix(strings.ToLower(text), "!login") {
				text = "!login"
			}
			b.logCommand(b.hostmask(nick), "USER - "+text)
		}
	}
}

func (b *Bridge) onLinksEnd(*messages.LinksEndMessage) {
	b.mu.Lock()
	target := b.linksTarget
	b.linksTarget = ""
	topology := b.topology
	b.mu.Unlock()
	if target == "" {
		return
	}

	tree := b.client.ServerQuery().Links()
	if tree != nil {
		for _, line := range tree.Lines() {
			b.reply(target, line)
		}
	}
	b.reply(target, "End of server list.")

	if len(topology.Servers) == 0 {
		return
	}
	if missing := topology.Missing(tree); len(missing) > 0 {
		b.reply(target, fmt.Sprintf("Missing servers: %s", strings.Join(missing, ", ")))
	} else {
		b.reply(target, "All expected servers are linked.")
	}
}

func (b *Bridge) onMotdEnd(*messages.MotdEndMessage) {
	motd := &storage.MOTD{
		Server:   b.client.ServerName(),
		Captured: time.Now().UTC(),
		Lines:    b.client.ServerQuery().Motd(),
	}
	b.mu.Lock()
	b.motd = motd
	b.mu.Unlock()

	if err := storage.SaveMOTD(b.cfg.DataDir, motd); err != nil {
		log.Printf("Error saving MOTD: %v", err)
	}
}

// onDccResume accepts a resume request for one of our pending offers
func (b *Bridge) onDccResume(m *messages.DccResumeMessage) {
	b.mu.RLock()
	o := b.offers[m.Port]
	b.mu.RUnlock()
	if o == nil || !strings.EqualFold(o.nick, m.Sender().Nick()) {
		return
	}
	if o.conn.Status() != dcc.Connecting {
		return
	}

	o.conn.Transfer.StartPosition = m.Position
	accept := &messages.DccAcceptMessage{FileName: m.FileName, Port: m.Port, Position: m.Position}
	accept.Targets = []string{o.nick}
	if err := b.client.Send(accept); err != nil {
		log.Printf("Error sending DCC ACCEPT: %v", err)
	}
}

func (b *Bridge) onNick(m *messages.NickChangeMessage) {
	oldKey := strings.ToLower(m.Sender().Nick())
	b.mu.Lock()
	if b.admins[oldKey] {
		delete(b.admins, oldKey)
		b.admins[strings.ToLower(m.NewNick)] = true
	}
	b.mu.Unlock()
}

func (b *Bridge) onQuit(m *messages.QuitMessage) {
	b.mu.Lock()
	delete(b.admins, strings.ToLower(m.Sender().Nick()))
	b.mu.Unlock()
}

func (b *Bridge) hostmask(nick string) string {
	if peer := b.client.Peers().Find(nick); peer != nil {
		return peer.Mask()
	}
	return nick
}

func (b *Bridge) reply(nick, text string) {
	if err := b.client.SendChat(text, nick); err != nil {
		log.Printf("Error sending reply to %s: %v", nick, err)
	}
}

// logCommand appends to the audit and saves it
func (b *Bridge) logCommand(hostmask, command string) {
	timestamp := time.Now().UTC().Format("Mon Jan 02, 2006 at 15:04:05 GMT")
	entry := fmt.Sprintf("%s: %s -> %s", timestamp, hostmask, command)

	b.mu.Lock()
	b.audit = storage.AddAudit(b.audit, entry)
	audit := b.audit
	b.mu.Unlock()

	if err := storage.SaveAudit(b.cfg.DataDir, audit); err != nil {
		log.Printf("Error saving audit: %v", err)
	}
}
