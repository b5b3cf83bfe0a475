package messages

import "sync"

// CallbackID identifies a registered callback for removal
type CallbackID uint64

type callback struct {
	id CallbackID
	fn func(Message)
}

// Conduit dispatches messages to the callbacks registered for their kind
type Conduit struct {
	mu        sync.RWMutex
	next      CallbackID
	callbacks map[Kind][]callback
}

// NewConduit returns an empty conduit
func NewConduit() *Conduit {
	return &Conduit{callbacks: make(map[Kind][]callback)}
}

// AddCallback registers fn for messages of kind. Callbacks run in
// registration order.
func (c *Conduit) AddCallback(kind Kind, fn func(Message)) CallbackID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.callbacks[kind] = append(c.callbacks[kind], callback{id: c.next, fn: fn})
	return c.next
}

// RemoveCallback unregisters a callback. Unknown ids are ignored.
func (c *Conduit) RemoveCallback(id CallbackID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for kind, list := range c.callbacks {
		for i, cb := range list {
			if cb.id != id {
				continue
			}
			c.callbacks[kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Notify calls every callback registered for msg's kind. The lock is not
// held while callbacks run, so they may add or remove callbacks.
func (c *Conduit) Notify(msg Message) {
	if msg == nil {
		return
	}
	c.mu.RLock()
	list := c.callbacks[msg.Kind()]
	c.mu.RUnlock()
	for _, cb := range list {
		cb.fn(msg)
	}
}

// Len returns the number of callbacks for kind
func (c *Conduit) Len(kind Kind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.callbacks[kind])
}

// On registers a typed callback for the kind of T, e.g.
//
//	messages.On(c, func(m *messages.JoinMessage) { ... })
func On[T Message](c *Conduit, fn func(T)) CallbackID {
	var zero T
	return c.AddCallback(zero.Kind(), func(msg Message) {
		if typed, ok := msg.(T); ok {
			fn(typed)
		}
	})
}
