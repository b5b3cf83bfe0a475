package irc

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/irc/model"
)

// registerHandlers wires the model-mutating handlers. They run before
// routing and before any host callback.
func (c *Client) registerHandlers() {
	h := c.handlers

	// Registration and keepalive
	messages.On(h, c.onWelcome)
	messages.On(h, c.onSupport)
	messages.On(h, c.onPing)
	messages.On(h, c.onNickInUse)

	// Membership
	messages.On(h, c.onJoin)
	messages.On(h, c.onPart)
	messages.On(h, c.onKick)
	messages.On(h, c.onQuit)
	messages.On(h, c.onKill)
	messages.On(h, c.onNick)
	messages.On(h, c.onNames)
	messages.On(h, c.onWho)
	messages.On(h, c.onNoSuchNick)
	messages.On(h, c.onNoSuchChannel)

	// Topic
	messages.On(h, c.onTopic)
	messages.On(h, c.onTopicNone)
	messages.On(h, c.onTopicReply)
	messages.On(h, c.onTopicSet)

	// Modes
	messages.On(h, c.onChannelModeIs)
	messages.On(h, c.onChannelMode)
	messages.On(h, c.onUserModeIs)
	messages.On(h, c.onUserMode)

	// User details
	messages.On(h, c.onUserHostReply)
	messages.On(h, c.onWhoIsUser)
	messages.On(h, c.onWhoIsServer)
	messages.On(h, c.onWhoIsOper)
	messages.On(h, c.onYoureOper)
	messages.On(h, c.onUserAway)
	messages.On(h, c.onSelfAway)
	messages.On(h, c.onSelfUnAway)
	messages.On(h, c.onAway)
	messages.On(h, c.onBack)

	// Server query state
	messages.On(h, c.onLinks)
	messages.On(h, c.onLinksEnd)
	messages.On(h, c.onMotdStart)
	messages.On(h, c.onMotd)
	messages.On(h, c.onMotdEnd)
	messages.On(h, c.onNoMotd)

	// CTCP
	messages.On(h, c.onCtcpVersion)
	messages.On(h, c.onCtcpPing)
}

func (c *Client) onWelcome(m *messages.WelcomeMessage) {
	c.mu.Lock()
	c.serverName = m.Sender().Nick()
	c.mu.Unlock()
	if m.Target != "" && m.Target != "*" && m.Target != c.user.Nick() {
		log.Printf("Server assigned nick %s", m.Target)
		c.user.SetNick(m.Target)
	}
	c.registered.Store(true)
	c.stopIdent()
	log.Printf("Registered with %s as %s", c.ServerName(), c.user.Nick())
}

func (c *Client) onSupport(m *messages.SupportMessage) {
	c.support.Load(m.Tokens)
}

func (c *Client) onPing(m *messages.PingMessage) {
	if err := c.Send(&messages.PongMessage{Target: m.Target}); err != nil {
		log.Printf("Error sending PONG: %v", err)
	}
}

// onNickInUse picks another nick while registering; once registered the
// host decides what to do
func (c *Client) onNickInUse(m *messages.NickInUseMessage) {
	if c.registered.Load() {
		return
	}
	next := c.opts.AlternateNick
	if next == "" || model.NickEquals(next, c.user.Nick()) {
		next = c.user.Nick() + "_"
	}
	log.Printf("Nick in use, switching to alternate: %s", next)
	c.user.SetNick(next)
	if err := c.Send(&messages.NickChangeMessage{NewNick: next}); err != nil {
		log.Printf("Error sending NICK: %v", err)
	}
}

func (c *Client) onJoin(m *messages.JoinMessage) {
	self := c.isSelf(m.Sender())
	user := c.ensurePeer(m.Sender())
	for _, name := range m.Channels {
		ch := c.channels.Ensure(name)
		ch.AddUser(user)
		if self {
			ch.SetOpen(true)
		}
	}
}

func (c *Client) onPart(m *messages.PartMessage) {
	for _, name := range m.Channels {
		c.leave(name, m.Sender().Nick())
	}
}

func (c *Client) onKick(m *messages.KickMessage) {
	for _, pair := range m.Pairs() {
		c.leave(pair[0], pair[1])
	}
}

// leave closes the channel when nick is ours, otherwise drops the member
func (c *Client) leave(channel, nick string) {
	ch := c.channels.Find(channel)
	if ch == nil {
		return
	}
	if c.isSelfNick(nick) {
		ch.SetOpen(false)
		return
	}
	ch.RemoveUser(nick)
}

func (c *Client) onQuit(m *messages.QuitMessage) {
	c.gone(m.Sender().Nick(), false)
}

func (c *Client) onKill(m *messages.KillMessage) {
	c.gone(m.Nick, false)
}

// gone handles a user leaving the network. Self closes every channel; a
// peer leaves every channel, and prune also forgets the peer.
func (c *Client) gone(nick string, prune bool) {
	if c.isSelfNick(nick) {
		for _, ch := range c.channels.List() {
			ch.SetOpen(false)
		}
		return
	}
	for _, ch := range c.channels.List() {
		ch.RemoveUser(nick)
	}
	if prune {
		c.peers.RemoveFirst(nick)
	}
}

func (c *Client) onNick(m *messages.NickChangeMessage) {
	old := m.Sender().Nick()
	if c.isSelfNick(old) {
		c.user.SetNick(m.NewNick)
		return
	}
	peer := c.peers.Find(old)
	if peer == nil {
		return
	}
	// a stale entry under the new nick would shadow the renamed peer
	if stale := c.peers.Find(m.NewNick); stale != nil && stale != peer {
		c.gone(m.NewNick, true)
	}
	peer.SetNick(m.NewNick)
}

func (c *Client) onNames(m *messages.NamesReplyMessage) {
	ch := c.channels.Ensure(m.Channel)
	for _, member := range m.Members() {
		user := c.ensurePeer(member.User)
		ch.AddUser(user)
		c.setStatus(ch, user, member.Status)
	}
}

func (c *Client) onWho(m *messages.WhoReplyMessage) {
	if m.User == nil || !m.User.IsNickSet() {
		return
	}
	user := c.ensurePeer(m.User)
	user.CopyFrom(m.User)
	if m.IsOper {
		user.SetIrcOperator(true)
	}
	ch := c.channels.Find(m.Channel)
	if ch == nil {
		return
	}
	ch.AddUser(user)
	c.setStatus(ch, user, m.Status)
}

func (c *Client) setStatus(ch *model.Channel, user *model.User, status model.ChannelStatus) {
	if err := ch.SetStatusFor(user, status); err != nil {
		log.Printf("Warning: could not set status in %s: %v", ch.Name(), err)
	}
}

func (c *Client) onNoSuchNick(m *messages.NoSuchNickMessage) {
	if c.support.IsChannelName(m.Nick) {
		if ch := c.channels.Find(m.Nick); ch != nil {
			ch.SetOpen(false)
		}
		return
	}
	if !c.isSelfNick(m.Nick) {
		c.gone(m.Nick, true)
	}
}

func (c *Client) onNoSuchChannel(m *messages.NoSuchChannelMessage) {
	if ch := c.channels.Find(m.Channel); ch != nil {
		ch.SetOpen(false)
	}
}

func (c *Client) onTopic(m *messages.TopicMessage) {
	ch := c.channels.Find(m.Channel)
	if ch == nil || !m.HasTopic {
		return
	}
	ch.SetTopic(m.Topic)
	ch.SetTopicSetter(c.ensurePeer(m.Sender()), time.Now().UTC())
}

func (c *Client) onTopicNone(m *messages.TopicNoneMessage) {
	c.channels.Ensure(m.Channel).SetTopic("")
}

func (c *Client) onTopicReply(m *messages.TopicReplyMessage) {
	c.channels.Ensure(m.Channel).SetTopic(m.Topic)
}

func (c *Client) onTopicSet(m *messages.TopicSetMessage) {
	setter := m.Setter
	if setter != nil {
		if known := c.findUser(setter.Nick()); known != nil {
			setter = known
		}
	}
	c.channels.Ensure(m.Channel).SetTopicSetter(setter, m.SetAt)
}

func (c *Client) onChannelModeIs(m *messages.ChannelModeIsMessage) {
	if ch := c.channels.Find(m.Channel); ch != nil {
		ch.Modes.ResetWith(m.ModeList(c.support))
	}
}

// onChannelMode applies incremental changes. Status modes (PREFIX) update
// member statuses instead of the channel's mode set.
func (c *Client) onChannelMode(m *messages.ChannelModeMessage) {
	ch := c.channels.Find(m.Channel)
	if ch == nil || m.Modes == "" {
		return
	}
	statusModes, symbols := c.support.StatusModes()
	args := m.Arguments
	adding := true
	for i := 0; i < len(m.Modes); i++ {
		letter := m.Modes[i]
		switch letter {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}
		var arg string
		if c.support.ModeTakesArgument(letter, adding) && len(args) > 0 {
			arg, args = args[0], args[1:]
		}

		if idx := strings.IndexByte(statusModes, letter); idx >= 0 {
			user := ch.Users.Find(arg)
			if user == nil {
				continue
			}
			status := model.ChannelStatus(symbols[idx : idx+1])
			if !adding {
				status = model.StatusNone
			}
			c.setStatus(ch, user, status)
			continue
		}

		if adding {
			ch.Modes.Add(model.Mode{Letter: letter, Argument: arg})
		} else {
			ch.Modes.Remove(letter, arg)
		}
	}
}

func (c *Client) onUserModeIs(m *messages.UserModeIsMessage) {
	c.user.Modes().ResetWith(parseUserModes(m.Modes))
}

func (c *Client) onUserMode(m *messages.UserModeMessage) {
	if !c.isSelfNick(m.User) {
		return
	}
	adding := true
	for i := 0; i < len(m.ModeChanges); i++ {
		switch letter := m.ModeChanges[i]; letter {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			if adding {
				c.user.Modes().Add(model.Mode{Letter: letter})
			} else {
				c.user.Modes().Remove(letter, "")
			}
		}
	}
}

func parseUserModes(modes string) []model.Mode {
	var list []model.Mode
	for i := 0; i < len(modes); i++ {
		if modes[i] == '+' || modes[i] == '-' {
			continue
		}
		list = append(list, model.Mode{Letter: modes[i]})
	}
	return list
}

func (c *Client) onUserHostReply(m *messages.UserHostReplyMessage) {
	for _, u := range m.Users {
		c.ensurePeer(u).CopyFrom(u)
	}
}

func (c *Client) onWhoIsUser(m *messages.WhoIsUserMessage) {
	if m.User == nil || !m.User.IsNickSet() {
		return
	}
	c.ensurePeer(m.User).CopyFrom(m.User)
}

func (c *Client) onWhoIsServer(m *messages.WhoIsServerMessage) {
	if u := c.findUser(m.Nick); u != nil {
		u.SetServerName(m.Server)
	}
}

func (c *Client) onWhoIsOper(m *messages.WhoIsOperMessage) {
	if u := c.findUser(m.Nick); u != nil {
		u.SetIrcOperator(true)
	}
}

func (c *Client) onYoureOper(*messages.YoureOperMessage) {
	c.user.SetIrcOperator(true)
}

func (c *Client) onUserAway(m *messages.UserAwayMessage) {
	if u := c.findUser(m.Nick); u != nil {
		u.SetOnlineStatus(model.Away)
		u.SetAwayMessage(m.Text)
	}
}

func (c *Client) onSelfAway(*messages.SelfAwayMessage) {
	c.user.SetOnlineStatus(model.Away)
}

func (c *Client) onSelfUnAway(*messages.SelfUnAwayMessage) {
	c.user.SetOnlineStatus(model.Online)
	c.user.SetAwayMessage("")
}

func (c *Client) onAway(m *messages.AwayMessage) {
	if u := c.findUser(m.Sender().Nick()); u != nil {
		u.SetOnlineStatus(model.Away)
		u.SetAwayMessage(m.Reason)
	}
}

func (c *Client) onBack(m *messages.BackMessage) {
	if u := c.findUser(m.Sender().Nick()); u != nil {
		u.SetOnlineStatus(model.Online)
		u.SetAwayMessage("")
	}
}

func (c *Client) onLinks(m *messages.LinksMessage) {
	c.server.AddLink(m.Server, m.Hub, m.Hops, m.Description)
}

func (c *Client) onLinksEnd(*messages.LinksEndMessage) {
	c.server.EndLinks()
}

func (c *Client) onMotdStart(*messages.MotdStartMessage) {
	c.server.StartMotd()
}

func (c *Client) onMotd(m *messages.MotdMessage) {
	c.server.AddMotdLine(m.Text)
}

func (c *Client) onMotdEnd(*messages.MotdEndMessage) {
	c.server.EndMotd()
}

func (c *Client) onNoMotd(*messages.NoMotdMessage) {
	c.server.StartMotd()
	c.server.EndMotd()
}

func (c *Client) onCtcpVersion(m *messages.VersionRequestMessage) {
	if isServer(m.Sender()) {
		return
	}
	response := c.opts.VersionReply
	if response == "" {
		response = fmt.Sprintf("nebo %s (built %s, commit %s)", Version, BuildDate, GitCommit)
	}
	reply := &messages.VersionReplyMessage{Response: response}
	reply.Targets = []string{m.Sender().Nick()}
	if err := c.Send(reply); err != nil {
		log.Printf("Error sending CTCP VERSION reply: %v", err)
	}
}

func (c *Client) onCtcpPing(m *messages.PingRequestMessage) {
	if isServer(m.Sender()) {
		return
	}
	reply := &messages.PingReplyMessage{Timestamp: m.Timestamp}
	reply.Targets = []string{m.Sender().Nick()}
	if err := c.Send(reply); err != nil {
		log.Printf("Error sending CTCP PING reply: %v", err)
	}
}
