package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/dalnet/nebo/internal/routing"
)

// Channel is a chat room the client has seen. Channels are never destroyed,
// only closed, so holders of a *Channel keep it across kick and rejoin.
type Channel struct {
	mu           sync.RWMutex
	name         string
	topic        string
	topicSetter  *User
	topicSetTime time.Time
	open         bool
	statuses     map[*User]ChannelStatus
	properties   map[string]string

	Users   UserCollection
	Modes   ModeSet
	Journal Journal
}

// NewChannel creates a closed channel with the given name
func NewChannel(name string) *Channel {
	return &Channel{
		name:       name,
		statuses:   make(map[*User]ChannelStatus),
		properties: make(map[string]string),
	}
}

func (c *Channel) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Channel) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topic
}

func (c *Channel) SetTopic(topic string) {
	c.mu.Lock()
	c.topic = topic
	c.mu.Unlock()
}

// TopicSetter returns who set the topic and when
func (c *Channel) TopicSetter() (*User, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topicSetter, c.topicSetTime
}

func (c *Channel) SetTopicSetter(user *User, at time.Time) {
	c.mu.Lock()
	c.topicSetter = user
	c.topicSetTime = at
	c.mu.Unlock()
}

// Open reports whether the local user is currently a member
func (c *Channel) Open() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

func (c *Channel) SetOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

// Property returns a channel property (IRCX PROP or similar)
func (c *Channel) Property(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.properties[key]
}

func (c *Channel) SetProperty(key, value string) {
	c.mu.Lock()
	c.properties[key] = value
	c.mu.Unlock()
}

// StatusFor returns the member's status. The user must be a member.
func (c *Channel) StatusFor(user *User) (ChannelStatus, error) {
	if user == nil || !c.Users.Contains(user) {
		return StatusNone, fmt.Errorf("user %v is not in channel %s", user, c.Name())
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[user], nil
}

// SetStatusFor records the member's status. Setting StatusNone clears it.
func (c *Channel) SetStatusFor(user *User, status ChannelStatus) error {
	if status == StatusNone {
		c.mu.Lock()
		delete(c.statuses, user)
		c.mu.Unlock()
		return nil
	}
	if user == nil || !c.Users.Contains(user) {
		return fmt.Errorf("user %v is not in channel %s", user, c.Name())
	}
	c.mu.Lock()
	c.statuses[user] = status
	c.mu.Unlock()
	return nil
}

// AddUser adds a member; it is a no-op for existing members
func (c *Channel) AddUser(user *User) {
	c.Users.Add(user)
}

// RemoveUser drops the first member with the nick along with its status
func (c *Channel) RemoveUser(nick string) *User {
	removed := c.Users.RemoveFirst(nick)
	if removed != nil {
		c.mu.Lock()
		delete(c.statuses, removed)
		c.mu.Unlock()
	}
	return removed
}

// Query is a private 1:1 conversation with a peer
type Query struct {
	User    *User
	Journal Journal
}

// ServerQuery collects traffic not addressed to a channel or query, plus
// server-wide state learned along the way.
type ServerQuery struct {
	mu      sync.RWMutex
	motd    []string
	pending []string
	links   *routing.LinkTree
	partial *routing.LinkTree

	Journal Journal
}

// StartMotd begins collecting a new MOTD
func (s *ServerQuery) StartMotd() {
	s.mu.Lock()
	s.pending = []string{}
	s.mu.Unlock()
}

// AddMotdLine appends a line to the MOTD being collected
func (s *ServerQuery) AddMotdLine(line string) {
	s.mu.Lock()
	s.pending = append(s.pending, line)
	s.mu.Unlock()
}

// EndMotd publishes the collected MOTD
func (s *ServerQuery) EndMotd() {
	s.mu.Lock()
	if s.pending != nil {
		s.motd = s.pending
	}
	s.pending = nil
	s.mu.Unlock()
}

// Motd returns the last complete MOTD
func (s *ServerQuery) Motd() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.motd...)
}

// AddLink records one LINKS reply entry
func (s *ServerQuery) AddLink(server, hub string, hops int, description string) {
	s.mu.Lock()
	if s.partial == nil {
		s.partial = routing.NewLinkTree()
	}
	s.partial.Add(server, hub, hops, description)
	s.mu.Unlock()
}

// EndLinks publishes the collected link tree
func (s *ServerQuery) EndLinks() {
	s.mu.Lock()
	if s.partial == nil {
		s.partial = routing.NewLinkTree()
	}
	s.links = s.partial
	s.partial = nil
	s.mu.Unlock()
}

// Links returns the last complete link tree, or nil before any LINKS reply
func (s *ServerQuery) Links() *routing.LinkTree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links
}
