package messages

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericClassification(t *testing.T) {
	assert.True(t, IsError(404))
	assert.False(t, IsError(42))
	assert.True(t, IsDirect(1))
	assert.True(t, IsCommandReply(332))
	assert.False(t, IsCommandReply(433))
	assert.True(t, IsError(902))
	assert.False(t, IsError(999))
	assert.False(t, IsDirect(0))
}

func TestParseRejectsBadLines(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("")
	assert.True(t, errors.Is(err, ErrInvalidLine))

	_, err = p.Parse("\r\n")
	assert.True(t, errors.Is(err, ErrInvalidLine))

	_, err = p.Parse("PRIVMSG #a :" + strings.Repeat("x", MaxLineLength))
	assert.True(t, errors.Is(err, ErrInvalidLine))
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		line string
		kind Kind
	}{
		{":nick!user@host JOIN #test", KindJoin},
		{":nick!user@host JOIN :#test", KindJoin},
		{":nick!user@host PRIVMSG #test :hello there", KindChat},
		{":nick!user@host NOTICE me :hi", KindNotice},
		{":nick!user@host PRIVMSG #test :\x01ACTION waves\x01", KindAction},
		{":nick!user@host PRIVMSG me :\x01VERSION\x01", KindVersionRequest},
		{":nick!user@host NOTICE me :\x01VERSION nebo 1.0\x01", KindVersionReply},
		{":nick!user@host PRIVMSG me :\x01CLIENTINFO\x01", KindGenericCtcpRequest},
		{":nick!user@host NOTICE me :\x01TIME now\x01", KindGenericCtcpReply},
		{":nick!user@host PRIVMSG me :\x01DCC SEND file.txt 2130706433 5000 100\x01", KindDccSend},
		{":nick!user@host PRIVMSG me :\x01DCC TSEND file.txt 2130706433 5000 100\x01", KindDccSend},
		{":nick!user@host PRIVMSG me :\x01DCC CHAT chat 2130706433 5000\x01", KindDccChat},
		{":nick!user@host PRIVMSG me :\x01DCC RESUME file.txt 5000 1024\x01", KindDccResume},
		{"PING :irc.example.net", KindPing},
		{":irc.example.net 001 me :Welcome", KindWelcome},
		{":irc.example.net 353 me = #test :@op +voice plain", KindNamesReply},
		{":irc.example.net 404 me #test :Cannot send", KindGenericError},
		{":irc.example.net 250 me :Highest connection count", KindGenericNumeric},
		{":irc.example.net 401 me ghost :No such nick", KindNoSuchNick},
		{":nick!user@host MODE #test +o other", KindChannelMode},
		{":me MODE me +i", KindUserMode},
		{":nick!user@host AWAY :gone", KindAway},
		{":nick!user@host AWAY", KindBack},
		{":server WALLOPS :hello", KindGenericMessage},
		{":irc.example.net 303 me :alice bob", KindIsOnReply},
		{":irc.example.net 600 me alice a host 1700000000 :logged online", KindWatchOnline},
		{":irc.example.net 605 me bob * * 0 :is offline", KindWatchOffline},
		{":irc.example.net 730 me :alice!a@host", KindMonitorOnline},
		{":irc.example.net 731 me :bob", KindMonitorOffline},
		{"MONITOR + alice,bob", KindMonitor},
		{"WATCH +alice -bob", KindWatch},
		{"ISON alice bob", KindIsOn},
	}
	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := p.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, msg.Kind())
		})
	}
}

func TestParseMovesMatchToFront(t *testing.T) {
	p := NewParser()
	require.NotEqual(t, KindNickInUse, order(p.numerics)[0])

	_, err := p.Parse(":irc.example.net 433 * taken :Nickname is already in use")
	require.NoError(t, err)
	assert.Equal(t, KindNickInUse, order(p.numerics)[0])

	_, err = p.Parse(":irc.example.net 001 me :Welcome")
	require.NoError(t, err)
	kinds := order(p.numerics)
	assert.Equal(t, KindWelcome, kinds[0])
	assert.Equal(t, KindNickInUse, kinds[1])
	assert.Len(t, kinds, len(numericFactories))
}

func TestParseFallbackDoesNotReorder(t *testing.T) {
	p := NewParser()
	before := order(p.commands)
	_, err := p.Parse(":server WALLOPS :hello")
	require.NoError(t, err)
	assert.Equal(t, before, order(p.commands))
}

type pongOverride struct {
	PongMessage
}

func (*pongOverride) Kind() Kind { return "CUSTOM_PONG" }

func TestRegisterTakesPrecedence(t *testing.T) {
	p := NewParser()
	p.Register(func() Message { return &pongOverride{} })

	msg, err := p.Parse(":irc.example.net PONG irc.example.net :token")
	require.NoError(t, err)
	assert.Equal(t, Kind("CUSTOM_PONG"), msg.Kind())
	assert.Equal(t, "token", msg.(*pongOverride).Target)
}

func TestParseTolerateShortParams(t *testing.T) {
	p := NewParser()

	msg, err := p.Parse(":nick!u@h JOIN")
	require.NoError(t, err)
	join := msg.(*JoinMessage)
	assert.Empty(t, join.Channels)

	msg, err = p.Parse(":irc.example.net 001")
	require.NoError(t, err)
	welcome := msg.(*WelcomeMessage)
	assert.Equal(t, "", welcome.Target)
	assert.Equal(t, "", welcome.Text)
}

func TestSenderParsed(t *testing.T) {
	msg, err := NewParser().Parse(":nick!user@host.example PRIVMSG #test :hi")
	require.NoError(t, err)
	sender := msg.Sender()
	assert.Equal(t, "nick", sender.Nick())
	assert.Equal(t, "user", sender.UserName())
	assert.Equal(t, "host.example", sender.HostName())
}
