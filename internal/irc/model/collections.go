package model

import (
	"sync"
)

// UserCollection is an ordered set of users, unique by nick (case-insensitive)
type UserCollection struct {
	mu    sync.RWMutex
	users []*User
}

// Find returns the user with the nick, or nil
func (c *UserCollection) Find(nick string) *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(nick)
}

func (c *UserCollection) findLocked(nick string) *User {
	for _, u := range c.users {
		if NickEquals(u.Nick(), nick) {
			return u
		}
	}
	return nil
}

// Contains reports whether this exact user instance is in the collection
func (c *UserCollection) Contains(user *User) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(user) >= 0
}

func (c *UserCollection) indexLocked(user *User) int {
	for i, u := range c.users {
		if u == user {
			return i
		}
	}
	return -1
}

// Add appends the user unless it, or a user with the same nick, is present.
// It returns false when nothing was added.
func (c *UserCollection) Add(user *User) bool {
	if user == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(user) >= 0 || c.findLocked(user.Nick()) != nil {
		return false
	}
	c.users = append(c.users, user)
	return true
}

// EnsureUser returns the known user matching mask's nick, merging any fields
// the known user lacks. Unknown users are added as-is.
func (c *UserCollection) EnsureUser(mask *User) *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.findLocked(mask.Nick()); existing != nil {
		existing.MergeWith(mask)
		return existing
	}
	c.users = append(c.users, mask)
	return mask
}

// EnsureNick is EnsureUser for a bare nick
func (c *UserCollection) EnsureNick(nick string) *User {
	return c.EnsureUser(NewUser(nick))
}

// RemoveFirst removes the first user with the nick and returns it
func (c *UserCollection) RemoveFirst(nick string) *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, u := range c.users {
		if NickEquals(u.Nick(), nick) {
			c.users = append(c.users[:i], c.users[i+1:]...)
			return u
		}
	}
	return nil
}

// Remove removes this exact user instance
func (c *UserCollection) Remove(user *User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(user); i >= 0 {
		c.users = append(c.users[:i], c.users[i+1:]...)
		return true
	}
	return false
}

// List returns a copy of the users in insertion order
func (c *UserCollection) List() []*User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*User(nil), c.users...)
}

// Len returns the number of users
func (c *UserCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// ChannelCollection holds every channel the client has seen
type ChannelCollection struct {
	mu       sync.RWMutex
	channels []*Channel
}

// Find returns the channel with the name (case-insensitive), or nil
func (c *ChannelCollection) Find(name string) *Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if NickEquals(ch.Name(), name) {
			return ch
		}
	}
	return nil
}

// Ensure returns the channel with the name, creating it if needed
func (c *ChannelCollection) Ensure(name string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.channels {
		if NickEquals(ch.Name(), name) {
			return ch
		}
	}
	ch := NewChannel(name)
	c.channels = append(c.channels, ch)
	return ch
}

// List returns a copy of the channels in creation order
func (c *ChannelCollection) List() []*Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Channel(nil), c.channels...)
}

// Names returns the channel names in creation order
func (c *ChannelCollection) Names() []string {
	list := c.List()
	names := make([]string, 0, len(list))
	for _, ch := range list {
		names = append(names, ch.Name())
	}
	return names
}

// Len returns the number of channels
func (c *ChannelCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.channels)
}

// QueryCollection holds private conversations keyed by peer
type QueryCollection struct {
	mu      sync.RWMutex
	queries []*Query
}

// Find returns the query with the peer nick, or nil
func (c *QueryCollection) Find(nick string) *Query {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.queries {
		if NickEquals(q.User.Nick(), nick) {
			return q
		}
	}
	return nil
}

// Ensure returns the query for this peer instance, creating it if needed
func (c *QueryCollection) Ensure(peer *User) *Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.queries {
		if q.User == peer {
			return q
		}
	}
	q := &Query{User: peer}
	c.queries = append(c.queries, q)
	return q
}

// List returns a copy of the queries in creation order
func (c *QueryCollection) List() []*Query {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Query(nil), c.queries...)
}

// Len returns the number of queries
func (c *QueryCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.queries)
}
