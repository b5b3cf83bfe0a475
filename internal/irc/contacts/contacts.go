// Package contacts tracks whether a list of nicks is online. It uses WATCH
// or MONITOR when the server announces them and falls back to ISON polling.
package contacts

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dalnet/nebo/internal/irc"
	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/transport"
)

// DefaultPollInterval is how often the ISON fallback asks about contacts
const DefaultPollInterval = time.Minute

// Mechanisms reported by List.Mechanism
const (
	Watch   = "watch"
	Monitor = "monitor"
	IsOn    = "ison"
)

const (
	// lineBudget keeps nick lists well inside the 512 byte line limit
	lineBudget = 400
	// maxWatchParams stays under the 15 parameter limit
	maxWatchParams = 14
)

// tracker is one way of learning the presence of contacts
type tracker interface {
	name() string
	start(nicks []string) error
	add(nicks []string) error
	remove(nick string) error
	stop()
}

// List is a contact list on one client. Each contact is a User whose
// OnlineStatus follows the server's notifications; new contacts are Offline
// until the server reports them online.
type List struct {
	PollInterval time.Duration
	OnChange     func(user *model.User)

	client *irc.Client
	users  model.UserCollection

	mu        sync.Mutex
	tracker   tracker
	callbacks []messages.CallbackID
}

// New returns an empty list subscribed to the client's presence replies.
// Nothing is sent before Start.
func New(client *irc.Client) *List {
	l := &List{PollInterval: DefaultPollInterval, client: client}
	conduit := client.Messages()
	l.callbacks = []messages.CallbackID{
		messages.On(conduit, l.onWatchOnline),
		messages.On(conduit, l.onWatchOffline),
		messages.On(conduit, l.onMonitorOnline),
		messages.On(conduit, l.onMonitorOffline),
		messages.On(conduit, l.onIsOnReply),
	}
	return l
}

// Start picks the tracker from what the server supports and subscribes every
// contact. Call it once the client is ready; calling it again, e.g. after a
// reconnect, replaces the previous tracker.
func (l *List) Start() error {
	watches, monitors := l.client.ServerSupports().Presence()
	var t tracker
	switch {
	case watches > 0:
		t = &watchTracker{client: l.client}
	case monitors != 0:
		t = &monitorTracker{client: l.client}
	default:
		t = newIsOnTracker(l)
	}

	l.mu.Lock()
	if l.tracker != nil {
		l.tracker.stop()
	}
	l.tracker = t
	l.mu.Unlock()

	log.Printf("Tracking %d contacts with %s", l.users.Len(), t.name())
	return t.start(l.Nicks())
}

// Close stops the tracker and unsubscribes from the client
func (l *List) Close() {
	l.mu.Lock()
	if l.tracker != nil {
		l.tracker.stop()
		l.tracker = nil
	}
	callbacks := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, id := range callbacks {
		l.client.Messages().RemoveCallback(id)
	}
}

// Mechanism names the active tracker, or "" before Start
func (l *List) Mechanism() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracker == nil {
		return ""
	}
	return l.tracker.name()
}

func (l *List) current() tracker {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tracker
}

// Add starts tracking nick and returns its contact. Adding a known nick
// returns the existing contact.
func (l *List) Add(nick string) (*model.User, error) {
	if existing := l.users.Find(nick); existing != nil {
		return existing, nil
	}
	user := model.NewUser(nick)
	user.SetOnlineStatus(model.Offline)
	if !l.users.Add(user) {
		return l.users.Find(nick), nil
	}
	if t := l.current(); t != nil {
		if err := t.add([]string{nick}); err != nil {
			return user, err
		}
	}
	return user, nil
}

// Remove stops tracking nick. Unknown nicks are ignored.
func (l *List) Remove(nick string) error {
	if l.users.RemoveFirst(nick) == nil {
		return nil
	}
	if t := l.current(); t != nil {
		return t.remove(nick)
	}
	return nil
}

// Find returns the contact with the nick, or nil
func (l *List) Find(nick string) *model.User {
	return l.users.Find(nick)
}

// Users returns the contacts in the order they were added
func (l *List) Users() []*model.User {
	return l.users.List()
}

// Nicks returns the nicks of every contact
func (l *List) Nicks() []string {
	users := l.users.List()
	nicks := make([]string, 0, len(users))
	for _, u := range users {
		nicks = append(nicks, u.Nick())
	}
	return nicks
}

// online marks a contact online unless it is already known to be online or
// away. info fills in the mask when the server sent one.
func (l *List) online(nick string, info *model.User) {
	user := l.users.Find(nick)
	if user == nil {
		return
	}
	user.MergeWith(info)
	if user.OnlineStatus() != model.Offline {
		return
	}
	user.SetOnlineStatus(model.Online)
	l.changed(user)
}

func (l *List) offline(nick string) {
	user := l.users.Find(nick)
	if user == nil || user.OnlineStatus() == model.Offline {
		return
	}
	user.SetOnlineStatus(model.Offline)
	l.changed(user)
}

func (l *List) changed(user *model.User) {
	if l.OnChange != nil {
		l.OnChange(user)
	}
}

func (l *List) onWatchOnline(m *messages.WatchOnlineMessage) {
	if m.User != nil {
		l.online(m.User.Nick(), m.User)
	}
}

func (l *List) onWatchOffline(m *messages.WatchOfflineMessage) {
	if m.User != nil {
		l.offline(m.User.Nick())
	}
}

func (l *List) onMonitorOnline(m *messages.MonitorOnlineMessage) {
	for _, user := range m.Users {
		l.online(user.Nick(), user)
	}
}

func (l *List) onMonitorOffline(m *messages.MonitorOfflineMessage) {
	for _, nick := range m.Nicks {
		l.offline(nick)
	}
}

func (l *List) onIsOnReply(m *messages.IsOnReplyMessage) {
	if t, ok := l.current().(*isOnTracker); ok {
		t.reply(m.Nicks)
	}
}

// chunks splits nicks into groups of at most limit nicks whose joined
// length stays within budget. A limit of 0 means no count limit.
func chunks(nicks []string, budget, limit int) [][]string {
	var out [][]string
	var group []string
	size := 0
	for _, nick := range nicks {
		full := limit > 0 && len(group) == limit
		if len(group) > 0 && (full || size+len(nick)+1 > budget) {
			out = append(out, group)
			group, size = nil, 0
		}
		group = append(group, nick)
		size += len(nick) + 1
	}
	if len(group) > 0 {
		out = append(out, group)
	}
	return out
}

type watchTracker struct {
	client *irc.Client
}

func (t *watchTracker) name() string { return Watch }

func (t *watchTracker) start(nicks []string) error { return t.add(nicks) }

func (t *watchTracker) add(nicks []string) error {
	for _, group := range chunks(nicks, lineBudget, maxWatchParams) {
		if err := t.client.Send(&messages.WatchMessage{Added: group}); err != nil {
			return err
		}
	}
	return nil
}

func (t *watchTracker) remove(nick string) error {
	return t.client.Send(&messages.WatchMessage{Removed: []string{nick}})
}

func (t *watchTracker) stop() {}

type monitorTracker struct {
	client *irc.Client
}

func (t *monitorTracker) name() string { return Monitor }

func (t *monitorTracker) start(nicks []string) error { return t.add(nicks) }

func (t *monitorTracker) add(nicks []string) error {
	for _, group := range chunks(nicks, lineBudget, 0) {
		msg := &messages.MonitorMessage{Action: messages.MonitorAdd, Nicks: group}
		if err := t.client.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *monitorTracker) remove(nick string) error {
	return t.client.Send(&messages.MonitorMessage{Action: messages.MonitorRemove, Nicks: []string{nick}})
}

func (t *monitorTracker) stop() {}

// isOnTracker polls with ISON. Replies arrive in the order the queries were
// sent; each reply settles the oldest outstanding group, and every nick of
// that group missing from the reply is offline.
type isOnTracker struct {
	list   *List
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	waiting [][]string
}

func newIsOnTracker(l *List) *isOnTracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &isOnTracker{list: l, ctx: ctx, cancel: cancel}
}

func (t *isOnTracker) name() string { return IsOn }

func (t *isOnTracker) start([]string) error {
	interval := t.list.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	go t.run(interval)
	return t.poll()
}

func (t *isOnTracker) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			if err := t.poll(); err != nil {
				log.Printf("Error polling contacts: %v", err)
			}
		}
	}
}

// add asks about the new nicks right away instead of waiting for the next
// poll
func (t *isOnTracker) add(nicks []string) error {
	return t.query(nicks)
}

func (t *isOnTracker) remove(string) error { return nil }

func (t *isOnTracker) stop() { t.cancel() }

func (t *isOnTracker) poll() error {
	return t.query(t.list.Nicks())
}

func (t *isOnTracker) query(nicks []string) error {
	client := t.list.client
	if t.ctx.Err() != nil || client.Connection().Status() != transport.Connected {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, group := range chunks(nicks, lineBudget, 0) {
		if err := client.Send(&messages.IsOnMessage{Nicks: group}); err != nil {
			return err
		}
		t.waiting = append(t.waiting, group)
	}
	return nil
}

func (t *isOnTracker) reply(online []string) {
	t.mu.Lock()
	if len(t.waiting) == 0 {
		t.mu.Unlock()
		return
	}
	group := t.waiting[0]
	t.waiting = t.waiting[1:]
	t.mu.Unlock()

	for _, nick := range online {
		t.list.online(nick, nil)
	}
	for _, nick := range group {
		if !containsNick(online, nick) {
			t.list.offline(nick)
		}
	}
}

func containsNick(nicks []string, nick string) bool {
	for _, n := range nicks {
		if model.NickEquals(n, nick) {
			return true
		}
	}
	return false
}
