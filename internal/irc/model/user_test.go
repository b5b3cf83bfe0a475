package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUser(t *testing.T) {
	tests := []struct {
		mask string
		nick string
		user string
		host string
	}{
		{"nick!user@host.example", "nick", "user", "host.example"},
		{"nick", "nick", "", ""},
		{"@op!~op@127.0.0.1", "op", "~op", "127.0.0.1"},
		{"irc.example.net", "irc.example.net", "", ""},
		{"+v", "v", "", ""},
	}

	for _, tt := range tests {
		u := ParseUser(tt.mask)
		assert.Equal(t, tt.nick, u.Nick(), tt.mask)
		assert.Equal(t, tt.user, u.UserName(), tt.mask)
		assert.Equal(t, tt.host, u.HostName(), tt.mask)
	}
}

func TestUserMergeWithFillsOnlyUnset(t *testing.T) {
	target := NewUser("bob")
	target.SetHostName("old.host")

	source := ParseUser("bob!bobby@new.host")
	source.SetRealName("Bob")

	target.MergeWith(source)

	assert.Equal(t, "old.host", target.HostName(), "set field must not be overwritten")
	assert.Equal(t, "bobby", target.UserName())
	assert.Equal(t, "Bob", target.RealName())
}

func TestUserMergeWithIgnoresUnsetSource(t *testing.T) {
	target := NewUser("bob")
	source := NewUser("")

	target.MergeWith(source)

	assert.Equal(t, "bob", target.Nick())
	assert.False(t, source.IsNickSet())
}

func TestUserCopyFromOverwritesSet(t *testing.T) {
	target := ParseUser("bob!bobby@old.host")
	target.SetRealName("Robert")

	source := NewUser("")
	source.SetHostName("new.host")
	source.SetIrcOperator(true)

	target.CopyFrom(source)

	assert.Equal(t, "bob", target.Nick(), "unset source nick must not clear target")
	assert.Equal(t, "new.host", target.HostName())
	assert.Equal(t, "bobby", target.UserName())
	assert.Equal(t, "Robert", target.RealName())
	assert.True(t, target.IrcOperator())
}

func TestUserCopyFromEmptyValueCounts(t *testing.T) {
	target := NewUser("bob")
	target.SetAwayMessage("lunch")

	source := NewUser("")
	source.SetAwayMessage("")

	target.CopyFrom(source)
	assert.Equal(t, "", target.AwayMessage())
}

func TestUserReset(t *testing.T) {
	u := ParseUser("bob!b@h")
	u.Modes().Add(Mode{Letter: 'i'})
	u.Reset()

	assert.False(t, u.IsNickSet())
	assert.Equal(t, "", u.String())
	assert.Empty(t, u.Modes().List())
}

func TestUserStringAndMask(t *testing.T) {
	u := ParseUser("bob!b@h")
	assert.Equal(t, "bob!b@h", u.String())

	n := NewUser("bob")
	assert.Equal(t, "bob", n.String())
	assert.Equal(t, "bob!*@*", n.Mask())
}

func TestUserIsMatch(t *testing.T) {
	u := ParseUser("Bob!bobby@host.example.com")

	assert.True(t, u.IsMatch(ParseUser("*!*@*.example.com")))
	assert.True(t, u.IsMatch(ParseUser("bob!b?bby@host.example.com")))
	assert.False(t, u.IsMatch(ParseUser("*!*@*.example.org")))
	assert.False(t, u.IsMatch(nil))
}
