package bridge

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dalnet/nebo/internal/config"
	"github.com/dalnet/nebo/internal/irc"
	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func (s *fakeServer) send(lines ...string) {
	s.t.Helper()
	for _, line := range lines {
		_, err := s.conn.Write([]byte(line + "\r\n"))
		require.NoError(s.t, err)
	}
}

func (s *fakeServer) next() string {
	s.t.Helper()
	select {
	case line := <-s.lines:
		return line
	case <-time.After(2 * time.Second):
		s.t.Fatal("timed out waiting for a line")
	}
	return ""
}

func (s *fakeServer) expect(want string) {
	s.t.Helper()
	assert.Equal(s.t, want, s.next())
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Nick = "nebo"
	cfg.Server = "irc.example.net"
	cfg.DataDir = t.TempDir()
	cfg.Channels = []string{"#bridge"}
	cfg.AdminPass = "hunter2"
	return cfg
}

// pipeBridge connects a bridge's client to a fakeServer and consumes the
// registration lines
func pipeBridge(t *testing.T, cfg *config.Config, sink Sink) (*Bridge, *fakeServer) {
	t.Helper()
	remotes := make(chan net.Conn, 1)
	opts := ClientOptions(cfg)
	opts.Connection.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		client, remote := net.Pipe()
		remotes <- remote
		return client, nil
	}
	client, err := irc.NewClient(opts)
	require.NoError(t, err)
	b := New(cfg, client, sink)
	require.NoError(t, client.Connect(context.Background()))

	srv := &fakeServer{t: t, conn: <-remotes, lines: make(chan string, 64)}
	go srv.read()
	t.Cleanup(func() {
		srv.conn.Close()
		client.Wait()
	})

	srv.expect("NICK nebo")
	srv.expect("USER nebo 0 * nebo")
	return b, srv
}

// welcome completes registration; the first reply after 001 marks the
// client ready and it joins the configured channels
func (s *fakeServer) welcome() {
	s.t.Helper()
	s.send(":irc.example.net 001 nebo :Welcome",
		":irc.example.net 251 nebo :There are 3 users")
	s.expect("JOIN #bridge")
}

// verifyOper walks carol through the WHOIS check with her first command
func verifyOper(srv *fakeServer, command string) {
	srv.send(":carol!c@oper.host PRIVMSG nebo :" + command)
	srv.expect("WHOIS carol")
	srv.send(":irc.example.net 313 nebo carol :is an IRC operator")
}

func TestJoinsChannelsWhenReady(t *testing.T) {
	b, srv := pipeBridge(t, testConfig(t), nil)
	assert.False(t, b.Client().Ready())

	srv.welcome()
	assert.True(t, b.Client().Ready())
}

func TestRelaysChannelChat(t *testing.T) {
	relayed := make(chan string, 8)
	sink := SinkFunc(func(channel, nick, text string) {
		relayed <- channel + " " + nick + " " + text
	})
	b, srv := pipeBridge(t, testConfig(t), sink)

	srv.send(":alice!a@host PRIVMSG #other :not relayed",
		":alice!a@host PRIVMSG #Bridge :\x02hello\x02 world",
		":alice!a@host PRIVMSG #bridge :\x01ACTION waves\x01")

	assert.Equal(t, "#bridge alice hello world", <-relayed)
	assert.Equal(t, "#bridge alice * waves", <-relayed)

	assert.Eventually(t, func() bool { return len(b.RelayLog()) == 2 }, time.Second, 10*time.Millisecond)
	assert.True(t, strings.HasSuffix(b.RelayLog()[0], "#bridge <alice> * waves"))

	assert.Eventually(t, func() bool {
		saved, err := storage.LoadRelayLog(b.cfg.DataDir)
		return err == nil && len(saved) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRelayFromHost(t *testing.T) {
	b, srv := pipeBridge(t, testConfig(t), nil)

	require.NoError(t, b.Relay("#bridge", "first line\r\n\nsecond"))
	srv.expect("PRIVMSG #bridge :first line")
	srv.expect("PRIVMSG #bridge second")
}

func TestCommandsRequireOper(t *testing.T) {
	b, srv := pipeBridge(t, testConfig(t), nil)
	srv.welcome()

	srv.send(":bob!b@user.host PRIVMSG nebo :!version")
	srv.expect("WHOIS bob")
	srv.send(":irc.example.net 318 nebo bob :End of /WHOIS list.")

	assert.Eventually(t, func() bool {
		audit := b.Audit()
		return len(audit) == 1 && strings.HasSuffix(audit[0], "bob!b@user.host -> USER - !version")
	}, time.Second, 10*time.Millisecond)

	verifyOper(srv, "!version")
	srv.expect("PRIVMSG carol :nebo version " + irc.Version)
	srv.expect("PRIVMSG carol :Built: " + irc.BuildDate)
	srv.expect("PRIVMSG carol :Commit: " + irc.GitCommit)
	srv.send(":irc.example.net 318 nebo carol :End of /WHOIS list.")

	// known operators skip the WHOIS
	srv.send(":carol!c@oper.host PRIVMSG nebo :!channels")
	srv.expect("PRIVMSG carol :Not in any channels")
}

func TestAdminLogin(t *testing.T) {
	b, srv := pipeBridge(t, testConfig(t), nil)
	srv.welcome()

	verifyOper(srv, "!join #new")
	srv.expect("PRIVMSG carol :Sorry, only my admins can make me join channels")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!login wrong")
	srv.expect("PRIVMSG carol :Password incorrect")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!login hunter2")
	srv.expect("PRIVMSG carol :Password accepted, you are now an admin. Type !help for a list of admin-only commands")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!join #new")
	srv.expect("JOIN #new")

	srv.send(":carol!c@oper.host NICK carol2")
	assert.Eventually(t, func() bool { return b.isAdmin("carol2") }, time.Second, 10*time.Millisecond)

	srv.send(":carol2!c@oper.host QUIT :bye")
	assert.Eventually(t, func() bool { return !b.isAdmin("carol2") }, time.Second, 10*time.Millisecond)

	for _, entry := range b.Audit() {
		assert.NotContains(t, entry, "hunter2")
	}
}

func TestLinksAgainstTopology(t *testing.T) {
	cfg := testConfig(t)
	topology := "# expected layout\nhub.example.net:\nleaf.example.net: hub.example.net\nlost.example.net: hub.example.net\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "topology.txt"), []byte(topology), 0644))
	_, srv := pipeBridge(t, cfg, nil)
	srv.welcome()

	verifyOper(srv, "!links")
	srv.expect("LINKS")
	srv.send(":irc.example.net 364 nebo hub.example.net hub.example.net :0 Hub",
		":irc.example.net 364 nebo leaf.example.net hub.example.net :1 Leaf",
		":irc.example.net 365 nebo * :End of /LINKS list.")

	srv.expect("PRIVMSG carol :hub.example.net (0) Hub")
	srv.expect("PRIVMSG carol :`- leaf.example.net (1) Leaf")
	srv.expect("PRIVMSG carol :End of server list.")
	srv.expect("PRIVMSG carol :Missing servers: lost.example.net")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!uplinks leaf")
	srv.expect("PRIVMSG carol :leaf: hub.example.net")
	srv.send(":carol!c@oper.host PRIVMSG nebo :!uplinks nowhere")
	srv.expect("PRIVMSG carol :No such server found")
}

func TestMotdSnapshot(t *testing.T) {
	cfg := testConfig(t)
	_, srv := pipeBridge(t, cfg, nil)

	srv.send(":irc.example.net 001 nebo :Welcome",
		":irc.example.net 375 nebo :- irc.example.net Message of the day -")
	srv.expect("JOIN #bridge")
	srv.send(":irc.example.net 372 nebo :- Be nice",
		":irc.example.net 376 nebo :End of /MOTD command.")

	assert.Eventually(t, func() bool {
		motd, err := storage.LoadMOTD(cfg.DataDir)
		return err == nil && motd.Server == "irc.example.net" && len(motd.Lines) == 1
	}, time.Second, 10*time.Millisecond)

	verifyOper(srv, "!motd")
	srv.expect("PRIVMSG carol :Be nice")
	line := srv.next()
	assert.True(t, strings.HasPrefix(line, "PRIVMSG carol :MOTD from irc.example.net on "), line)
}

var dccSend = regexp.MustCompile(`^PRIVMSG carol :\x01DCC SEND hello\.txt 2130706433 (\d+) 5\x01$`)

func offerFile(t *testing.T, cfg *config.Config, srv *fakeServer) int {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "hello.txt"), []byte("hello"), 0644))
	srv.welcome()

	verifyOper(srv, "!login hunter2")
	srv.expect("PRIVMSG carol :Password accepted, you are now an admin. Type !help for a list of admin-only commands")
	srv.send(":carol!c@oper.host PRIVMSG nebo :!send hello.txt")

	line := srv.next()
	match := dccSend.FindStringSubmatch(line)
	require.NotNil(t, match, line)
	port, err := strconv.Atoi(match[1])
	require.NoError(t, err)
	return port
}

func receive(t *testing.T, port int, want string) {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	data := make([]byte, len(want))
	_, err = io.ReadFull(conn, data)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	ack := make([]byte, 4)
	binary.BigEndian.PutUint32(ack, uint32(len(want)))
	_, err = conn.Write(ack)
	require.NoError(t, err)
}

func TestSendFileOverDcc(t *testing.T) {
	cfg := testConfig(t)
	cfg.DCC.PublicAddress = "127.0.0.1"
	b, srv := pipeBridge(t, cfg, nil)

	port := offerFile(t, cfg, srv)
	receive(t, port, "hello")

	assert.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.offers) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDccResume(t *testing.T) {
	cfg := testConfig(t)
	cfg.DCC.PublicAddress = "127.0.0.1"
	_, srv := pipeBridge(t, cfg, nil)

	port := offerFile(t, cfg, srv)
	srv.send(":carol!c@oper.host PRIVMSG nebo :\x01DCC RESUME hello.txt " + strconv.Itoa(port) + " 2\x01")
	srv.expect("PRIVMSG carol :\x01DCC ACCEPT hello.txt " + strconv.Itoa(port) + " 2\x01")

	receive(t, port, "llo")
}

func TestSendRefusesEscapes(t *testing.T) {
	cfg := testConfig(t)
	cfg.DCC.PublicAddress = "127.0.0.1"
	_, srv := pipeBridge(t, cfg, nil)
	srv.welcome()

	verifyOper(srv, "!login hunter2")
	srv.expect("PRIVMSG carol :Password accepted, you are now an admin. Type !help for a list of admin-only commands")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!send ../secret")
	srv.expect(`PRIVMSG carol :Error: invalid file name "../secret"`)
	srv.send(":carol!c@oper.host PRIVMSG nebo :!send missing.txt")
	line := srv.next()
	assert.True(t, strings.HasPrefix(line, "PRIVMSG carol :Error opening missing.txt: "), line)
}

func TestShutdown(t *testing.T) {
	cfg := testConfig(t)
	b, srv := pipeBridge(t, cfg, nil)
	shutdown := make(chan struct{})
	b.OnShutdown = func() { close(shutdown) }
	srv.welcome()

	verifyOper(srv, "!shutdown")
	srv.expect("PRIVMSG carol :Sorry, only my admins can shut me down")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!login hunter2")
	srv.expect("PRIVMSG carol :Password accepted, you are now an admin. Type !help for a list of admin-only commands")
	srv.send(":carol!c@oper.host PRIVMSG nebo :!shutdown")
	srv.expect("PRIVMSG carol :Shutting down")
	<-shutdown

	b.Shutdown()
	srv.expect("QUIT :Shutting down")
}

func TestContacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Contacts = []string{"alice", "bob"}
	b, srv := pipeBridge(t, cfg, nil)
	srv.welcome()

	// no WATCH or MONITOR in 005, so the contacts are polled with ISON
	srv.expect("ISON :alice bob")
	srv.send(":irc.example.net 303 nebo :alice")

	verifyOper(srv, "!contacts")
	srv.expect("PRIVMSG carol :alice: online")
	srv.expect("PRIVMSG carol :bob: offline")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!contacts add dave")
	srv.expect("PRIVMSG carol :Sorry, only my admins can change my contacts")

	srv.send(":carol!c@oper.host PRIVMSG nebo :!login hunter2")
	srv.expect("PRIVMSG carol :Password accepted, you are now an admin. Type !help for a list of admin-only commands")
	srv.send(":carol!c@oper.host PRIVMSG nebo :!contacts add dave")
	srv.expect("ISON dave")
	srv.expect("PRIVMSG carol :Added dave to my contacts")
	srv.send(":carol!c@oper.host PRIVMSG nebo :!contacts del bob")
	srv.expect("PRIVMSG carol :Removed bob from my contacts")

	assert.Equal(t, []ContactStatus{
		{Nick: "alice", Status: "online"},
		{Nick: "dave", Status: "offline"},
	}, b.Status().Contacts)
}

func TestStatusEndpoint(t *testing.T) {
	b, srv := pipeBridge(t, testConfig(t), nil)

	joined := make(chan struct{})
	messages.On(b.Client().Messages(), func(*messages.TopicReplyMessage) { close(joined) })
	srv.send(":irc.example.net 001 nebo :Welcome",
		":irc.example.net 005 nebo NETWORK=ExampleNet :are supported by this server",
		":nebo!n@bot.host JOIN #bridge",
		":irc.example.net 332 nebo #bridge :Bridged chat")
	<-joined

	ts := httptest.NewServer(b.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "nebo", status.Nick)
	assert.Equal(t, "irc.example.net", status.Server)
	assert.Equal(t, "ExampleNet", status.Network)
	assert.Equal(t, []ChannelStatus{{Name: "#bridge", Users: 1, Topic: "Bridged chat"}}, status.Channels)
	assert.Empty(t, status.Contacts)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, _ := io.ReadAll(metricsResp.Body)
	assert.Contains(t, string(body), "nebo_irc_lines_received_total")
}
