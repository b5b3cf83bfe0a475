package irc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is the far end of a piped client connection
type fakeServer struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func (s *fakeServer) read() {
	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			close(s.lines)
			return
		}
		s.lines <- strings.TrimRight(line, "\r\n")
	}
}

func (s *fakeServer) send(line string) {
	s.t.Helper()
	_, err := s.conn.Write([]byte(line + "\r\n"))
	require.NoError(s.t, err)
}

func (s *fakeServer) expect(want string) {
	s.t.Helper()
	select {
	case line := <-s.lines:
		assert.Equal(s.t, want, line)
	case <-time.After(2 * time.Second):
		s.t.Fatalf("timed out waiting for %q", want)
	}
}

// pipeClient connects a client to a fakeServer; setup runs before Connect
func pipeClient(t *testing.T, opts Options, setup ...func(*Client)) (*Client, *fakeServer) {
	t.Helper()
	remotes := make(chan net.Conn, 1)
	opts.Connection = transport.Options{
		Server: "irc.example.net",
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			client, remote := net.Pipe()
			remotes <- remote
			return client, nil
		},
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	for _, fn := range setup {
		fn(c)
	}
	require.NoError(t, c.Connect(context.Background()))

	srv := &fakeServer{t: t, conn: <-remotes, lines: make(chan string, 64)}
	go srv.read()
	t.Cleanup(func() {
		srv.conn.Close()
		c.Wait()
	})
	return c, srv
}

// offlineClient has no connection; lines are fed straight to the parser
func offlineClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Options{Nick: "me"})
	require.NoError(t, err)
	return c
}

func feed(c *Client, lines ...string) {
	for _, line := range lines {
		c.onDataReceived(line)
	}
}

func TestNewClientRequiresNick(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestRegistration(t *testing.T) {
	_, srv := pipeClient(t, Options{
		Nick:      "me",
		Password:  "secret",
		RealName:  "Me Bot",
		Invisible: true,
	})
	srv.expect("PASS secret")
	srv.expect("NICK me")
	srv.expect("USER me 8 * :Me Bot")
}

func TestAutoPong(t *testing.T) {
	_, srv := pipeClient(t, Options{Nick: "me"})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	srv.send("PING :abc123")
	srv.expect("PONG abc123")
}

func TestNickInUseWhileRegistering(t *testing.T) {
	c, srv := pipeClient(t, Options{Nick: "me"})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	srv.send(":irc.example.net 433 * me :Nickname is already in use")
	srv.expect("NICK me_")
	assert.Equal(t, "me_", c.User().Nick())
}

func TestCtcpVersionReply(t *testing.T) {
	_, srv := pipeClient(t, Options{Nick: "me", VersionReply: "nebo test"})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	srv.send(":bob!b@host PRIVMSG me :\x01VERSION\x01")
	srv.expect("NOTICE bob :\x01VERSION nebo test\x01")

	srv.send(":bob!b@host PRIVMSG me :\x01PING 12345\x01")
	srv.expect("NOTICE bob :\x01PING 12345\x01")
}

func TestWelcomeAndReady(t *testing.T) {
	c := offlineClient(t)
	readies := 0
	c.OnReady = func() { readies++ }

	feed(c, ":irc.example.net 001 me2 :Welcome to the network")
	assert.Equal(t, "irc.example.net", c.ServerName())
	assert.Equal(t, "me2", c.User().Nick())
	assert.False(t, c.Ready(), "direct replies do not make the session ready")

	feed(c, ":irc.example.net 251 me2 :There are 3 users",
		":irc.example.net 375 me2 :- irc.example.net Message of the day -")
	assert.True(t, c.Ready())
	assert.Equal(t, 1, readies)
}

func TestJoinPartInvariant(t *testing.T) {
	c := offlineClient(t)

	feed(c, ":me!u@host JOIN #test")
	ch := c.Channels().Find("#test")
	require.NotNil(t, ch)
	assert.True(t, ch.Open())
	assert.True(t, ch.Users.Contains(c.User()))

	feed(c, ":bob!b@host JOIN #test")
	bob := c.Peers().Find("bob")
	require.NotNil(t, bob)
	assert.True(t, ch.Users.Contains(bob))

	feed(c, ":bob!b@host PART #test :later")
	assert.False(t, ch.Users.Contains(bob))

	feed(c, ":me!u@host PART #test")
	assert.False(t, ch.Open())
	assert.Same(t, ch, c.Channels().Find("#TEST"))

	feed(c, ":me!u@host JOIN #test")
	assert.Same(t, ch, c.Channels().Find("#test"))
	assert.True(t, ch.Open())
}

func TestNickPropagation(t *testing.T) {
	c := offlineClient(t)
	feed(c,
		":me!u@host JOIN #a,#b",
		":bob!b@host JOIN #a",
		":bob!b@host JOIN #b",
	)
	bob := c.Peers().Find("bob")
	require.NotNil(t, bob)

	feed(c, ":bob!b@host NICK robert")
	assert.Same(t, bob, c.Peers().Find("robert"))
	assert.Nil(t, c.Peers().Find("bob"))
	for _, name := range []string{"#a", "#b"} {
		assert.Same(t, bob, c.Channels().Find(name).Users.Find("robert"), name)
	}

	feed(c, ":me!u@host NICK me_away")
	assert.Equal(t, "me_away", c.User().Nick())
	assert.True(t, c.Channels().Find("#a").Users.Contains(c.User()))
}

func TestRouting(t *testing.T) {
	c := offlineClient(t)
	feed(c, ":me!u@host JOIN #a", ":me!u@host JOIN #b")
	a, b := c.Channels().Find("#a"), c.Channels().Find("#b")
	before := a.Journal.Len()

	feed(c, ":bob!b@host PRIVMSG me :hello")
	q := c.Queries().Find("bob")
	require.NotNil(t, q)
	assert.Equal(t, 1, q.Journal.Len())
	assert.Same(t, c.Peers().Find("bob"), q.User)

	feed(c, ":bob!b@host PRIVMSG #a,#b :to both")
	assert.Equal(t, before+1, a.Journal.Len())
	assert.Equal(t, 2, b.Journal.Len())

	server := c.ServerQuery().Journal.Len()
	feed(c,
		":irc.example.net NOTICE me :*** Looking up your hostname",
		":bob!b@host PRIVMSG #unknown :nobody home",
	)
	assert.Equal(t, server+2, c.ServerQuery().Journal.Len())
	assert.Nil(t, c.Peers().Find("irc.example.net"))

	last, ok := q.Journal.Last()
	require.True(t, ok)
	chat, ok := last.Item.(*messages.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", chat.Text)
}

func TestKickQuitKill(t *testing.T) {
	c := offlineClient(t)
	feed(c,
		":me!u@host JOIN #a,#b",
		":bob!b@host JOIN #a,#b",
		":carol!c@host JOIN #a",
		":dave!d@host JOIN #a",
	)
	a, b := c.Channels().Find("#a"), c.Channels().Find("#b")

	feed(c, ":op!o@host KICK #a carol :bye")
	assert.Nil(t, a.Users.Find("carol"))

	feed(c, ":bob!b@host QUIT :gone")
	assert.Nil(t, a.Users.Find("bob"))
	assert.Nil(t, b.Users.Find("bob"))

	feed(c, ":killer!k@host KILL dave :spam")
	assert.Nil(t, a.Users.Find("dave"))

	feed(c, ":op!o@host KICK #b me :out")
	assert.False(t, b.Open())
	assert.True(t, a.Open())

	feed(c, ":killer!k@host KILL me :bye")
	assert.False(t, a.Open())
	assert.Equal(t, 2, c.Channels().Len())
}

func TestNamesAndWho(t *testing.T) {
	c := offlineClient(t)
	feed(c, ":irc.example.net 353 me = #chan :@alice +bob me")
	ch := c.Channels().Find("#chan")
	require.NotNil(t, ch)
	assert.Equal(t, 3, ch.Users.Len())

	alice := c.Peers().Find("alice")
	status, err := ch.StatusFor(alice)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOperator, status)
	status, err = ch.StatusFor(c.Peers().Find("bob"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusVoice, status)
	assert.True(t, ch.Users.Contains(c.User()))

	feed(c, ":irc.example.net 352 me #chan ~carol carol.host irc.example.net carol H*@ :0 Carol Real")
	carol := c.Peers().Find("carol")
	require.NotNil(t, carol)
	assert.True(t, carol.IrcOperator())
	assert.Equal(t, "Carol Real", carol.RealName())
	assert.Equal(t, "carol.host", carol.HostName())
	status, err = ch.StatusFor(carol)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOperator, status)
}

func TestTopic(t *testing.T) {
	c := offlineClient(t)
	feed(c, ":me!u@host JOIN #chan",
		":irc.example.net 332 me #chan :Welcome all",
		":irc.example.net 333 me #chan alice!a@host 1700000000",
	)
	ch := c.Channels().Find("#chan")
	assert.Equal(t, "Welcome all", ch.Topic())
	setter, at := ch.TopicSetter()
	require.NotNil(t, setter)
	assert.Equal(t, "alice", setter.Nick())
	assert.Equal(t, int64(1700000000), at.Unix())

	feed(c, ":bob!b@host TOPIC #chan :New topic")
	assert.Equal(t, "New topic", ch.Topic())
	setter, _ = ch.TopicSetter()
	assert.Same(t, c.Peers().Find("bob"), setter)

	feed(c, ":irc.example.net 331 me #chan :No topic is set")
	assert.Equal(t, "", ch.Topic())
}

func TestNoSuchNickAndChannel(t *testing.T) {
	c := offlineClient(t)
	feed(c, ":me!u@host JOIN #a", ":bob!b@host JOIN #a")

	feed(c, ":irc.example.net 401 me bob :No such nick/channel")
	assert.Nil(t, c.Peers().Find("bob"))
	assert.Nil(t, c.Channels().Find("#a").Users.Find("bob"))

	feed(c, ":irc.example.net 403 me #a :No such channel")
	assert.False(t, c.Channels().Find("#a").Open())
}

func TestModes(t *testing.T) {
	c := offlineClient(t)
	feed(c, ":me!u@host JOIN #chan", ":bob!b@host JOIN #chan")
	ch := c.Channels().Find("#chan")
	bob := c.Peers().Find("bob")

	feed(c, ":op!o@host MODE #chan +ok bob secret")
	status, err := ch.StatusFor(bob)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOperator, status)
	assert.True(t, ch.Modes.Has('k'))

	feed(c, ":op!o@host MODE #chan -o+m bob")
	status, _ = ch.StatusFor(bob)
	assert.Equal(t, model.StatusNone, status)
	assert.True(t, ch.Modes.Has('m'))

	feed(c, ":irc.example.net 324 me #chan +nt")
	assert.Equal(t, []model.Mode{{Letter: 'n'}, {Letter: 't'}}, ch.Modes.List())

	feed(c, ":irc.example.net 221 me +iw", ":me MODE me -w+x")
	assert.True(t, c.User().Modes().Has('i'))
	assert.False(t, c.User().Modes().Has('w'))
	assert.True(t, c.User().Modes().Has('x'))
}

func TestUserDetails(t *testing.T) {
	c := offlineClient(t)
	feed(c,
		":irc.example.net 311 me bob bobuser bob.host * :Bob Real",
		":irc.example.net 312 me bob hub.example.net :The hub",
		":irc.example.net 313 me bob :is an IRC operator",
		":irc.example.net 301 me bob :lunch",
	)
	bob := c.Peers().Find("bob")
	require.NotNil(t, bob)
	assert.Equal(t, "bobuser", bob.UserName())
	assert.Equal(t, "Bob Real", bob.RealName())
	assert.Equal(t, "hub.example.net", bob.ServerName())
	assert.True(t, bob.IrcOperator())
	assert.Equal(t, model.Away, bob.OnlineStatus())
	assert.Equal(t, "lunch", bob.AwayMessage())

	feed(c, ":irc.example.net 306 me :You have been marked as being away")
	assert.Equal(t, model.Away, c.User().OnlineStatus())
	feed(c, ":irc.example.net 305 me :You are no longer marked as being away")
	assert.Equal(t, model.Online, c.User().OnlineStatus())

	feed(c, ":irc.example.net 381 me :You are now an IRC operator")
	assert.True(t, c.User().IrcOperator())
}

func TestServerQueryState(t *testing.T) {
	c := offlineClient(t)
	feed(c,
		":irc.example.net 375 me :- irc.example.net Message of the day -",
		":irc.example.net 372 me :- Be nice",
		":irc.example.net 376 me :End of /MOTD command.",
		":irc.example.net 364 me irc.example.net irc.example.net :0 Home server",
		":irc.example.net 364 me leaf.example.net irc.example.net :1 Leaf",
		":irc.example.net 365 me * :End of /LINKS list.",
	)
	assert.Contains(t, c.ServerQuery().Motd(), "Be nice")
	links := c.ServerQuery().Links()
	require.NotNil(t, links)
	assert.Equal(t, 2, links.Len())
}

func TestHostCallbacksSeeUpdatedModel(t *testing.T) {
	c := offlineClient(t)
	var member bool
	messages.On(c.Messages(), func(m *messages.JoinMessage) {
		ch := c.Channels().Find(m.Channels[0])
		member = ch != nil && ch.Users.Find(m.Sender().Nick()) != nil
	})
	feed(c, ":bob!b@host JOIN #chan")
	assert.True(t, member)
}

func TestUnparseableLineIsDropped(t *testing.T) {
	c := offlineClient(t)
	parsed := 0
	c.OnMessageParsed = func(messages.Message) { parsed++ }
	feed(c, strings.Repeat("x", 600), ":irc.example.net 001 me :hi")
	assert.Equal(t, 1, parsed)
}

func TestSendValidation(t *testing.T) {
	c := offlineClient(t)

	assert.NoError(t, c.Send(nil))

	err := c.SendJoin("nochan")
	require.Error(t, err)
	assert.True(t, errors.Is(err, messages.ErrInvalidMessage))
	var verr *messages.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, messages.KindJoin, verr.Kind)

	assert.ErrorIs(t, c.SendAway(""), messages.ErrInvalidMessage)
	assert.ErrorIs(t, c.SendChat("hi", "#chan"), transport.ErrNotConnected)
}

func TestOverlongKickIsNotWritten(t *testing.T) {
	c, srv := pipeClient(t, Options{Nick: "me"})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	srv.send(":irc.example.net 005 me KICKLEN=10 :are supported by this server")
	require.Eventually(t, func() bool {
		_, _, kickLen, _ := c.ServerSupports().Limits()
		return kickLen == 10
	}, time.Second, 10*time.Millisecond)

	long := &messages.KickMessage{Channels: []string{"#c"}, Nicks: []string{"bob"}, Reason: strings.Repeat("r", 50)}
	err := c.Send(long)
	var verr *messages.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, messages.KindKick, verr.Kind)

	require.NoError(t, c.Send(&messages.KickMessage{Channels: []string{"#c"}, Nicks: []string{"bob"}, Reason: "bye"}))
	srv.expect("KICK #c bob bye")
}

func TestSendingHookCancels(t *testing.T) {
	var sent []messages.Kind
	c, srv := pipeClient(t, Options{Nick: "me"}, func(c *Client) {
		c.OnMessageSent = func(m messages.Message) {
			if m.Kind() == messages.KindChat {
				sent = append(sent, m.Kind())
			}
		}
		c.OnMessageSending = func(e *SendingEvent) {
			if chat, ok := e.Message.(*messages.ChatMessage); ok && strings.Contains(chat.Text, "secret") {
				e.Cancel = true
			}
		}
	})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	assert.NoError(t, c.SendChat("the secret", "#chan"))
	assert.NoError(t, c.SendChat("hello", "#chan"))
	srv.expect("PRIVMSG #chan hello")
	assert.Equal(t, []messages.Kind{messages.KindChat}, sent)

	require.NoError(t, c.SendQuitDefault())
	srv.expect("QUIT Quitting")
}

func TestDisconnectClosesChannels(t *testing.T) {
	disconnected := make(chan struct{})
	c, srv := pipeClient(t, Options{Nick: "me"}, func(c *Client) {
		c.OnDisconnected = func(error) { close(disconnected) }
	})
	srv.expect("NICK me")
	srv.expect("USER me 0 * me")

	joined := make(chan struct{})
	messages.On(c.Messages(), func(*messages.JoinMessage) { close(joined) })
	srv.send(":me!u@host JOIN #chan")
	<-joined

	srv.conn.Close()
	<-disconnected
	assert.False(t, c.Channels().Find("#chan").Open())
}
