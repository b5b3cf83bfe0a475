package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConduitDispatchesByKind(t *testing.T) {
	c := NewConduit()
	var joins, parts int
	On(c, func(m *JoinMessage) { joins++ })
	On(c, func(m *PartMessage) { parts++ })

	c.Notify(NewJoin("#a"))
	c.Notify(NewJoin("#b"))
	c.Notify(NewPart("#a"))
	c.Notify(NewChat("hi", "#a"))
	c.Notify(nil)

	assert.Equal(t, 2, joins)
	assert.Equal(t, 1, parts)
}

func TestConduitRemoveCallback(t *testing.T) {
	c := NewConduit()
	var calls []string
	first := c.AddCallback(KindJoin, func(Message) { calls = append(calls, "first") })
	c.AddCallback(KindJoin, func(Message) { calls = append(calls, "second") })
	assert.Equal(t, 2, c.Len(KindJoin))

	c.Notify(NewJoin("#a"))
	c.RemoveCallback(first)
	c.RemoveCallback(9999)
	c.Notify(NewJoin("#a"))

	assert.Equal(t, []string{"first", "second", "second"}, calls)
	assert.Equal(t, 1, c.Len(KindJoin))
}

func TestConduitCallbackMayUnsubscribe(t *testing.T) {
	c := NewConduit()
	var id CallbackID
	n := 0
	id = On(c, func(*JoinMessage) {
		n++
		c.RemoveCallback(id)
	})
	c.Notify(NewJoin("#a"))
	c.Notify(NewJoin("#a"))
	assert.Equal(t, 1, n)
}
