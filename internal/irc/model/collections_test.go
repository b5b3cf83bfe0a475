package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCollectionEnsureUserReturnsSameInstance(t *testing.T) {
	var peers UserCollection

	first := peers.EnsureUser(ParseUser("alice"))
	second := peers.EnsureUser(ParseUser("ALICE!al@host"))

	assert.Same(t, first, second)
	assert.Equal(t, "al", first.UserName(), "unset fields are merged in")
	assert.Equal(t, 1, peers.Len())
}

func TestUserCollectionRenameKeepsInstance(t *testing.T) {
	var peers UserCollection
	u := peers.EnsureNick("old")

	u.SetNick("new")

	assert.Nil(t, peers.Find("old"))
	assert.Same(t, u, peers.Find("new"))
}

func TestUserCollectionAddIsUnique(t *testing.T) {
	var users UserCollection
	u := NewUser("carol")

	assert.True(t, users.Add(u))
	assert.False(t, users.Add(u))
	assert.False(t, users.Add(NewUser("Carol")))
	assert.False(t, users.Add(nil))
	assert.Equal(t, 1, users.Len())
}

func TestUserCollectionRemoveFirst(t *testing.T) {
	var users UserCollection
	users.Add(NewUser("a"))
	users.Add(NewUser("b"))

	removed := users.RemoveFirst("A")
	require.NotNil(t, removed)
	assert.Equal(t, "a", removed.Nick())
	assert.Nil(t, users.RemoveFirst("zzz"))
	assert.Equal(t, 1, users.Len())
}

func TestChannelCollectionEnsure(t *testing.T) {
	var channels ChannelCollection

	c1 := channels.Ensure("#Test")
	c2 := channels.Ensure("#test")

	assert.Same(t, c1, c2)
	assert.Equal(t, []string{"#Test"}, channels.Names())
	assert.Nil(t, channels.Find("#other"))
}

func TestQueryCollectionEnsure(t *testing.T) {
	var queries QueryCollection
	peer := NewUser("dave")

	q := queries.Ensure(peer)
	assert.Same(t, q, queries.Ensure(peer))
	assert.Same(t, q, queries.Find("DAVE"))
	assert.Equal(t, 1, queries.Len())
}

func TestChannelStatus(t *testing.T) {
	ch := NewChannel("#test")
	u := NewUser("erin")

	_, err := ch.StatusFor(u)
	assert.Error(t, err, "non-members have no status")
	assert.Error(t, ch.SetStatusFor(u, StatusOperator))

	ch.AddUser(u)
	require.NoError(t, ch.SetStatusFor(u, StatusOperator))
	status, err := ch.StatusFor(u)
	require.NoError(t, err)
	assert.Equal(t, StatusOperator, status)

	ch.RemoveUser("erin")
	ch.AddUser(u)
	status, _ = ch.StatusFor(u)
	assert.Equal(t, StatusNone, status, "status is dropped with membership")
}

func TestSplitStatus(t *testing.T) {
	status, nick := SplitStatus("@op")
	assert.Equal(t, StatusOperator, status)
	assert.Equal(t, "op", nick)

	status, nick = SplitStatus("plain")
	assert.Equal(t, StatusNone, status)
	assert.Equal(t, "plain", nick)

	assert.True(t, StatusOperator.Outranks(StatusVoice))
}

func TestJournalOrder(t *testing.T) {
	var j Journal
	j.Add("one")
	j.Add("two")

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Item)
	assert.Equal(t, "two", entries[1].Item)
	assert.False(t, entries[0].Time.IsZero())

	last, ok := j.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last.Item)
}

func TestServerQueryMotdAndLinks(t *testing.T) {
	var sq ServerQuery
	sq.StartMotd()
	sq.AddMotdLine("- hello")
	assert.Empty(t, sq.Motd(), "motd is published on end")
	sq.EndMotd()
	assert.Equal(t, []string{"- hello"}, sq.Motd())

	assert.Nil(t, sq.Links())
	sq.AddLink("hub.example.net", "hub.example.net", 0, "Hub")
	sq.EndLinks()
	require.NotNil(t, sq.Links())
	assert.Equal(t, 1, sq.Links().Len())
}
