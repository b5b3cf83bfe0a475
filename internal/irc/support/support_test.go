package support

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	s := New()

	assert.Equal(t, "(ov)@+", s.ChannelStatuses)
	assert.Equal(t, "#&", s.ChannelTypes)
	assert.Equal(t, 9, s.MaxNickLength)
	assert.Equal(t, 200, s.MaxChannelLength)
	assert.Equal(t, -1, s.MaxKickLength)
	assert.Equal(t, "rfc1459", s.CaseMapping)
	assert.Equal(t, "b", s.ListModes)
	assert.Equal(t, "imnpst", s.FlagModes)
}

func TestLoad(t *testing.T) {
	s := New()
	s.Load([]string{
		"PREFIX=(qaohv)~&@%+",
		"CHANTYPES=#",
		"NICKLEN=30",
		"KICKLEN=180",
		"NETWORK=ExampleNet",
		"ELIST=MU",
		"CHANLIMIT=#:25",
		"EXCEPTS",
		"CASEMAPPING=ascii",
		"FOO=bar",
	})

	assert.Equal(t, "#", s.Types())
	assert.Equal(t, 30, s.MaxNickLength)
	assert.Equal(t, 180, s.MaxKickLength)
	assert.Equal(t, "ExampleNet", s.Network())
	assert.True(t, s.Supports(ListMask))
	assert.True(t, s.Supports(ListUserCount))
	assert.False(t, s.Supports(ListTopic))
	assert.Equal(t, 25, s.ChannelLimits["#"])
	assert.True(t, s.BanExceptions)
	assert.Equal(t, "bar", s.Unknown["FOO"])

	modes, symbols := s.StatusModes()
	assert.Equal(t, "qaohv", modes)
	assert.Equal(t, "~&@%+", symbols)
}

func TestLoadNegationRevertsToDefault(t *testing.T) {
	s := New()
	s.Load([]string{"NICKLEN=30", "CHANTYPES=#", "FOO=bar"})
	s.Load([]string{"-NICKLEN", "-CHANTYPES", "-FOO"})

	assert.Equal(t, 9, s.MaxNickLength)
	assert.Equal(t, "#&", s.ChannelTypes)
	_, ok := s.Unknown["FOO"]
	assert.False(t, ok)
}

func TestPresence(t *testing.T) {
	s := New()
	watches, monitors := s.Presence()
	assert.Equal(t, -1, watches)
	assert.Equal(t, 0, monitors)

	s.Load([]string{"WATCH=128", "MONITOR", "KNOCK"})
	watches, monitors = s.Presence()
	assert.Equal(t, 128, watches)
	assert.Equal(t, -1, monitors)
	assert.True(t, s.Knock)

	s.Load([]string{"MONITOR=100"})
	_, monitors = s.Presence()
	assert.Equal(t, 100, monitors)

	s.Load([]string{"-WATCH", "-MONITOR", "-KNOCK"})
	watches, monitors = s.Presence()
	assert.Equal(t, -1, watches)
	assert.Equal(t, 0, monitors)
	assert.False(t, s.Knock)
}

func TestIsChannelName(t *testing.T) {
	s := New()

	assert.True(t, s.IsChannelName("#test"))
	assert.True(t, s.IsChannelName("&local"))
	assert.False(t, s.IsChannelName("nick"))
	assert.False(t, s.IsChannelName(""))
}

func TestModeTakesArgument(t *testing.T) {
	s := New()
	s.Load([]string{"CHANMODES=beI,k,l,imnpst"})

	tests := []struct {
		letter byte
		adding bool
		want   bool
	}{
		{'o', true, true},
		{'b', false, true},
		{'k', false, true},
		{'l', true, true},
		{'l', false, false},
		{'m', true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.ModeTakesArgument(tt.letter, tt.adding), string(tt.letter))
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Load([]string{"NETWORK=ExampleNet", "WHOX"})
	s.Reset()

	assert.Equal(t, "", s.Network())
	assert.False(t, s.WhoX)
}

func TestCaseMapping(t *testing.T) {
	assert.Equal(t, "nick{}|^", ToLowerRFC1459("NICK[]\\~"))
	assert.Equal(t, "nick{}|~", ToLowerStrictRFC1459("NICK[]\\~"))
	assert.Equal(t, "nick[]\\~", ToLowerASCII("NICK[]\\~"))
	assert.True(t, EqualFold("rfc1459", "Nick[a]", "nick{a}"))
	assert.False(t, EqualFold("ascii", "Nick[a]", "nick{a}"))

	s := New()
	assert.Equal(t, "a{b}", s.Fold()("A[B]"))
}
