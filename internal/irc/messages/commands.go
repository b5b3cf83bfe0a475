package messages

import (
	"strconv"
	"strings"

	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/ergochat/irc-go/ircmsg"
)

const (
	KindPassword       Kind = "PASS"
	KindNickChange     Kind = "NICK"
	KindUserNotify     Kind = "USER"
	KindOper           Kind = "OPER"
	KindQuit           Kind = "QUIT"
	KindJoin           Kind = "JOIN"
	KindPart           Kind = "PART"
	KindKick           Kind = "KICK"
	KindTopic          Kind = "TOPIC"
	KindNames          Kind = "NAMES"
	KindList           Kind = "LIST"
	KindInvite         Kind = "INVITE"
	KindChannelMode    Kind = "MODE_CHANNEL"
	KindUserMode       Kind = "MODE_USER"
	KindChat           Kind = "PRIVMSG"
	KindNotice         Kind = "NOTICE"
	KindAway           Kind = "AWAY"
	KindBack           Kind = "BACK"
	KindPing           Kind = "PING"
	KindPong           Kind = "PONG"
	KindKill           Kind = "KILL"
	KindWho            Kind = "WHO"
	KindWhoIs          Kind = "WHOIS"
	KindUserHost       Kind = "USERHOST"
	KindError          Kind = "ERROR"
	KindGenericMessage Kind = "GENERIC"
)

// PasswordMessage sends the connection password before registration
type PasswordMessage struct {
	Base
	Password string
}

func (*PasswordMessage) Kind() Kind { return KindPassword }

func (msg *PasswordMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "PASS")
}

func (msg *PasswordMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Password = param(m.Params, 0)
}

func (msg *PasswordMessage) Params() (string, []string) {
	return "PASS", []string{msg.Password}
}

func (msg *PasswordMessage) Validate(*support.ServerSupport) error {
	if msg.Password == "" {
		return invalid(KindPassword, "empty password")
	}
	return nil
}

// NickChangeMessage requests or announces a nick change
type NickChangeMessage struct {
	Base
	NewNick string
}

func (*NickChangeMessage) Kind() Kind { return KindNickChange }

func (msg *NickChangeMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "NICK")
}

func (msg *NickChangeMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.NewNick = param(m.Params, 0)
}

func (msg *NickChangeMessage) Params() (string, []string) {
	return "NICK", []string{msg.NewNick}
}

func (msg *NickChangeMessage) Validate(s *support.ServerSupport) error {
	return validateNick(KindNickChange, msg.NewNick, s)
}

// UserNotificationMessage registers the user name and real name
type UserNotificationMessage struct {
	Base
	UserName  string
	RealName  string
	Invisible bool
}

func (*UserNotificationMessage) Kind() Kind { return KindUserNotify }

func (msg *UserNotificationMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "USER")
}

func (msg *UserNotificationMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.UserName = param(m.Params, 0)
	msg.Invisible = param(m.Params, 1) == "8"
	msg.RealName = param(m.Params, 3)
}

func (msg *UserNotificationMessage) Params() (string, []string) {
	mode := "0"
	if msg.Invisible {
		mode = "8"
	}
	return "USER", []string{msg.UserName, mode, "*", msg.RealName}
}

func (msg *UserNotificationMessage) Validate(*support.ServerSupport) error {
	if msg.UserName == "" || strings.ContainsAny(msg.UserName, " @") {
		return invalid(KindUserNotify, "invalid user name %q", msg.UserName)
	}
	return nil
}

// OperMessage requests operator privileges
type OperMessage struct {
	Base
	Name     string
	Password string
}

func (*OperMessage) Kind() Kind { return KindOper }

func (msg *OperMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "OPER")
}

func (msg *OperMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Name = param(m.Params, 0)
	msg.Password = param(m.Params, 1)
}

func (msg *OperMessage) Params() (string, []string) {
	return "OPER", []string{msg.Name, msg.Password}
}

// QuitMessage ends a session
type QuitMessage struct {
	Base
	Reason string
}

func (*QuitMessage) Kind() Kind { return KindQuit }

func (msg *QuitMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "QUIT")
}

func (msg *QuitMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Reason = param(m.Params, 0)
}

func (msg *QuitMessage) Params() (string, []string) {
	if msg.Reason == "" {
		return "QUIT", nil
	}
	return "QUIT", []string{msg.Reason}
}

// JoinMessage joins one or more channels
type JoinMessage struct {
	Base
	Channels []string
	Keys     []string
}

// NewJoin builds a JOIN for the given channels
func NewJoin(channels ...string) *JoinMessage {
	return &JoinMessage{Channels: channels}
}

func (*JoinMessage) Kind() Kind { return KindJoin }

func (msg *JoinMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "JOIN")
}

func (msg *JoinMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channels = splitList(param(m.Params, 0))
	msg.Keys = splitList(param(m.Params, 1))
}

func (msg *JoinMessage) Params() (string, []string) {
	params := []string{joinList(msg.Channels)}
	if len(msg.Keys) > 0 {
		params = append(params, joinList(msg.Keys))
	}
	return "JOIN", params
}

func (msg *JoinMessage) Validate(s *support.ServerSupport) error {
	return validateChannels(KindJoin, msg.Channels, s)
}

func (msg *JoinMessage) IsTargetedAtChannel(name string) bool {
	return containsFold(msg.Channels, name)
}

// PartMessage leaves one or more channels
type PartMessage struct {
	Base
	Channels []string
	Reason   string
}

// NewPart builds a PART for the given channels
func NewPart(channels ...string) *PartMessage {
	return &PartMessage{Channels: channels}
}

func (*PartMessage) Kind() Kind { return KindPart }

func (msg *PartMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "PART")
}

func (msg *PartMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channels = splitList(param(m.Params, 0))
	msg.Reason = param(m.Params, 1)
}

func (msg *PartMessage) Params() (string, []string) {
	params := []string{joinList(msg.Channels)}
	if msg.Reason != "" {
		params = append(params, msg.Reason)
	}
	return "PART", params
}

func (msg *PartMessage) Validate(s *support.ServerSupport) error {
	return validateChannels(KindPart, msg.Channels, s)
}

func (msg *PartMessage) IsTargetedAtChannel(name string) bool {
	return containsFold(msg.Channels, name)
}

// KickMessage removes users from channels. Channels and Nicks pair up by
// index.
type KickMessage struct {
	Base
	Channels []string
	Nicks    []string
	Reason   string
}

func (*KickMessage) Kind() Kind { return KindKick }

func (msg *KickMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "KICK") && len(m.Params) >= 2
}

func (msg *KickMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channels = splitList(param(m.Params, 0))
	msg.Nicks = splitList(param(m.Params, 1))
	msg.Reason = param(m.Params, 2)
}

func (msg *KickMessage) Params() (string, []string) {
	params := []string{joinList(msg.Channels), joinList(msg.Nicks)}
	if msg.Reason != "" {
		params = append(params, msg.Reason)
	}
	return "KICK", params
}

// Validate checks the channels and the comment length against KICKLEN
func (msg *KickMessage) Validate(s *support.ServerSupport) error {
	if err := validateChannels(KindKick, msg.Channels, s); err != nil {
		return err
	}
	if len(msg.Nicks) == 0 {
		return invalid(KindKick, "no nick given")
	}
	if len(msg.Channels) != 1 && len(msg.Channels) != len(msg.Nicks) {
		return invalid(KindKick, "%d channels do not pair with %d nicks", len(msg.Channels), len(msg.Nicks))
	}
	if s != nil {
		if _, _, kickLen, _ := s.Limits(); kickLen >= 0 && len(msg.Reason) > kickLen {
			return invalid(KindKick, "reason is longer than %d", kickLen)
		}
	}
	return nil
}

func (msg *KickMessage) IsTargetedAtChannel(name string) bool {
	return containsFold(msg.Channels, name)
}

// Pairs returns the (channel, nick) pairs. A single channel applies to
// every nick.
func (msg *KickMessage) Pairs() [][2]string {
	var pairs [][2]string
	for i, nick := range msg.Nicks {
		channel := ""
		switch {
		case len(msg.Channels) == 1:
			channel = msg.Channels[0]
		case i < len(msg.Channels):
			channel = msg.Channels[i]
		default:
			continue
		}
		pairs = append(pairs, [2]string{channel, nick})
	}
	return pairs
}

// TopicMessage queries or changes a channel topic
type TopicMessage struct {
	Base
	Channel  string
	Topic    string
	HasTopic bool
}

func (*TopicMessage) Kind() Kind { return KindTopic }

func (msg *TopicMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "TOPIC") && len(m.Params) >= 1
}

func (msg *TopicMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channel = param(m.Params, 0)
	msg.HasTopic = len(m.Params) > 1
	msg.Topic = param(m.Params, 1)
}

func (msg *TopicMessage) Params() (string, []string) {
	if !msg.HasTopic && msg.Topic == "" {
		return "TOPIC", []string{msg.Channel}
	}
	return "TOPIC", []string{msg.Channel, msg.Topic}
}

func (msg *TopicMessage) Validate(s *support.ServerSupport) error {
	if err := validateChannel(KindTopic, msg.Channel, s); err != nil {
		return err
	}
	if s != nil {
		_, _, _, topicLen := s.Limits()
		msg.Topic = truncate(msg.Topic, topicLen)
	}
	return nil
}

func (msg *TopicMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// NamesMessage requests channel membership
type NamesMessage struct {
	Base
	Channels []string
}

func (*NamesMessage) Kind() Kind { return KindNames }

func (msg *NamesMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "NAMES")
}

func (msg *NamesMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channels = splitList(param(m.Params, 0))
}

func (msg *NamesMessage) Params() (string, []string) {
	if len(msg.Channels) == 0 {
		return "NAMES", nil
	}
	return "NAMES", []string{joinList(msg.Channels)}
}

// ListMessage requests the channel list. Negative bounds are unset.
type ListMessage struct {
	Base
	Channels     []string
	MatchMask    string
	NotMask      string
	MinUsers     int
	MaxUsers     int
	OlderThan    int
	YoungerThan  int
	TopicOlder   int
	TopicYounger int
}

// NewList builds a LIST with every option unset
func NewList() *ListMessage {
	return &ListMessage{MinUsers: -1, MaxUsers: -1, OlderThan: -1, YoungerThan: -1, TopicOlder: -1, TopicYounger: -1}
}

func (*ListMessage) Kind() Kind { return KindList }

func (msg *ListMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "LIST")
}

func (msg *ListMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	*msg = ListMessage{Base: msg.Base, MinUsers: -1, MaxUsers: -1, OlderThan: -1, YoungerThan: -1, TopicOlder: -1, TopicYounger: -1}
	for _, p := range m.Params {
		for _, item := range splitList(p) {
			switch {
			case strings.HasPrefix(item, "C<"):
				msg.YoungerThan = atoiDefault(item[2:], -1)
			case strings.HasPrefix(item, "C>"):
				msg.OlderThan = atoiDefault(item[2:], -1)
			case strings.HasPrefix(item, "T<"):
				msg.TopicYounger = atoiDefault(item[2:], -1)
			case strings.HasPrefix(item, "T>"):
				msg.TopicOlder = atoiDefault(item[2:], -1)
			case strings.HasPrefix(item, "<"):
				msg.MaxUsers = atoiDefault(item[1:], -1)
			case strings.HasPrefix(item, ">"):
				msg.MinUsers = atoiDefault(item[1:], -1)
			case strings.HasPrefix(item, "!"):
				msg.NotMask = item[1:]
			case strings.ContainsAny(item, "*?"):
				msg.MatchMask = item
			default:
				msg.Channels = append(msg.Channels, item)
			}
		}
	}
}

func (msg *ListMessage) Params() (string, []string) {
	var options []string
	add := func(prefix string, v int) {
		if v >= 0 {
			options = append(options, prefix+strconv.Itoa(v))
		}
	}
	add("<", msg.MaxUsers)
	add(">", msg.MinUsers)
	add("C<", msg.YoungerThan)
	add("C>", msg.OlderThan)
	add("T<", msg.TopicYounger)
	add("T>", msg.TopicOlder)
	if msg.MatchMask != "" {
		options = append(options, msg.MatchMask)
	}
	if msg.NotMask != "" {
		options = append(options, "!"+msg.NotMask)
	}
	items := append(append([]string(nil), msg.Channels...), options...)
	if len(items) == 0 {
		return "LIST", nil
	}
	return "LIST", []string{joinList(items)}
}

// Validate fails when an extended option is not in the server's ELIST
func (msg *ListMessage) Validate(s *support.ServerSupport) error {
	if s == nil {
		return nil
	}
	check := func(used bool, option support.ExtendedList) error {
		if used && !s.Supports(option) {
			return invalid(KindList, "server does not support extended list option %s", option)
		}
		return nil
	}
	for _, err := range []error{
		check(msg.MinUsers >= 0 || msg.MaxUsers >= 0, support.ListUserCount),
		check(msg.OlderThan >= 0 || msg.YoungerThan >= 0, support.ListCreationTime),
		check(msg.MatchMask != "", support.ListMask),
		check(msg.NotMask != "", support.ListNotMask),
		check(msg.TopicOlder >= 0 || msg.TopicYounger >= 0, support.ListTopic),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// InviteMessage invites a user to a channel
type InviteMessage struct {
	Base
	Nick    string
	Channel string
}

func (*InviteMessage) Kind() Kind { return KindInvite }

func (msg *InviteMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "INVITE") && len(m.Params) >= 2
}

func (msg *InviteMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Nick = param(m.Params, 0)
	msg.Channel = param(m.Params, 1)
}

func (msg *InviteMessage) Params() (string, []string) {
	return "INVITE", []string{msg.Nick, msg.Channel}
}

func (msg *InviteMessage) Validate(s *support.ServerSupport) error {
	return validateChannel(KindInvite, msg.Channel, s)
}

func (msg *InviteMessage) IsQueryToUser(user *model.User) bool {
	return model.NickEquals(user.Nick(), msg.Nick)
}

// ChannelModeMessage changes or queries channel modes
type ChannelModeMessage struct {
	Base
	Channel   string
	Modes     string
	Arguments []string
}

func (*ChannelModeMessage) Kind() Kind { return KindChannelMode }

func (msg *ChannelModeMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "MODE") && len(m.Params) >= 1 && looksLikeChannel(m.Params[0])
}

func (msg *ChannelModeMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Channel = param(m.Params, 0)
	msg.Modes = param(m.Params, 1)
	msg.Arguments = nil
	if len(m.Params) > 2 {
		msg.Arguments = append([]string(nil), m.Params[2:]...)
	}
}

func (msg *ChannelModeMessage) Params() (string, []string) {
	params := []string{msg.Channel}
	if msg.Modes != "" {
		params = append(params, msg.Modes)
		params = append(params, msg.Arguments...)
	}
	return "MODE", params
}

func (msg *ChannelModeMessage) Validate(s *support.ServerSupport) error {
	return validateChannel(KindChannelMode, msg.Channel, s)
}

func (msg *ChannelModeMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// UserModeMessage changes or queries a user's modes
type UserModeMessage struct {
	Base
	User        string
	ModeChanges string
}

func (*UserModeMessage) Kind() Kind { return KindUserMode }

func (msg *UserModeMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "MODE") && len(m.Params) >= 1 && !looksLikeChannel(m.Params[0])
}

func (msg *UserModeMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.User = param(m.Params, 0)
	msg.ModeChanges = param(m.Params, 1)
}

func (msg *UserModeMessage) Params() (string, []string) {
	if msg.ModeChanges == "" {
		return "MODE", []string{msg.User}
	}
	return "MODE", []string{msg.User, msg.ModeChanges}
}

// looksLikeChannel uses the common channel prefixes; inbound parsing runs
// before ISUPPORT is known
func looksLikeChannel(name string) bool {
	return name != "" && strings.ContainsRune("#&!+", rune(name[0]))
}

// TextMessage is the shared shape of PRIVMSG and NOTICE
type TextMessage struct {
	Base
	Targets []string
	Text    string
}

func (msg *TextMessage) parseText(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Targets = splitList(param(m.Params, 0))
	msg.Text = param(m.Params, 1)
}

func (msg *TextMessage) validateText(kind Kind) error {
	if len(msg.Targets) == 0 {
		return invalid(kind, "no target given")
	}
	if strings.ContainsAny(msg.Text, "\r\n") {
		return invalid(kind, "text contains a line break")
	}
	return nil
}

func (msg *TextMessage) IsTargetedAtChannel(name string) bool {
	return containsFold(msg.Targets, name)
}

func (msg *TextMessage) IsQueryToUser(user *model.User) bool {
	for _, target := range msg.Targets {
		if model.NickEquals(user.Nick(), target) {
			return true
		}
	}
	return false
}

// ChatMessage is a PRIVMSG without CTCP payload
type ChatMessage struct {
	TextMessage
}

// NewChat builds a PRIVMSG to target
func NewChat(text string, targets ...string) *ChatMessage {
	return &ChatMessage{TextMessage{Targets: targets, Text: text}}
}

func (*ChatMessage) Kind() Kind { return KindChat }

func (msg *ChatMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "PRIVMSG") && len(m.Params) >= 2
}

func (msg *ChatMessage) Parse(m *ircmsg.Message) { msg.parseText(m) }

func (msg *ChatMessage) Params() (string, []string) {
	return "PRIVMSG", []string{joinList(msg.Targets), msg.Text}
}

func (msg *ChatMessage) Validate(*support.ServerSupport) error {
	return msg.validateText(KindChat)
}

// NoticeMessage is a NOTICE without CTCP payload
type NoticeMessage struct {
	TextMessage
}

// NewNotice builds a NOTICE to target
func NewNotice(text string, targets ...string) *NoticeMessage {
	return &NoticeMessage{TextMessage{Targets: targets, Text: text}}
}

func (*NoticeMessage) Kind() Kind { return KindNotice }

func (msg *NoticeMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "NOTICE") && len(m.Params) >= 2
}

func (msg *NoticeMessage) Parse(m *ircmsg.Message) { msg.parseText(m) }

func (msg *NoticeMessage) Params() (string, []string) {
	return "NOTICE", []string{joinList(msg.Targets), msg.Text}
}

func (msg *NoticeMessage) Validate(*support.ServerSupport) error {
	return msg.validateText(KindNotice)
}

// AwayMessage marks a user away. Inbound it comes from away-notify.
type AwayMessage struct {
	Base
	Reason string
}

func (*AwayMessage) Kind() Kind { return KindAway }

func (msg *AwayMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "AWAY") && len(m.Params) > 0 && m.Params[0] != ""
}

func (msg *AwayMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Reason = param(m.Params, 0)
}

func (msg *AwayMessage) Params() (string, []string) {
	return "AWAY", []string{msg.Reason}
}

func (msg *AwayMessage) Validate(s *support.ServerSupport) error {
	if msg.Reason == "" {
		return invalid(KindAway, "empty away reason, use BACK")
	}
	if s != nil {
		msg.Reason = truncate(msg.Reason, s.AwayLength())
	}
	return nil
}

// BackMessage clears away status (AWAY without a reason)
type BackMessage struct {
	Base
}

func (*BackMessage) Kind() Kind { return KindBack }

func (msg *BackMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "AWAY") && (len(m.Params) == 0 || m.Params[0] == "")
}

func (msg *BackMessage) Parse(m *ircmsg.Message) { msg.parseBase(m) }

func (msg *BackMessage) Params() (string, []string) {
	return "AWAY", nil
}

// PingMessage is a keepalive request
type PingMessage struct {
	Base
	Target string
}

func (*PingMessage) Kind() Kind { return KindPing }

func (msg *PingMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "PING")
}

func (msg *PingMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Target = param(m.Params, 0)
}

func (msg *PingMessage) Params() (string, []string) {
	return "PING", []string{msg.Target}
}

// PongMessage answers a PING with the same target
type PongMessage struct {
	Base
	Target string
}

func (*PongMessage) Kind() Kind { return KindPong }

func (msg *PongMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "PONG")
}

func (msg *PongMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	// servers send "PONG server :token"
	msg.Target = param(m.Params, len(m.Params)-1)
}

func (msg *PongMessage) Params() (string, []string) {
	return "PONG", []string{msg.Target}
}

// KillMessage disconnects a user from the network
type KillMessage struct {
	Base
	Nick   string
	Reason string
}

func (*KillMessage) Kind() Kind { return KindKill }

func (msg *KillMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "KILL") && len(m.Params) >= 1
}

func (msg *KillMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Nick = param(m.Params, 0)
	msg.Reason = param(m.Params, 1)
}

func (msg *KillMessage) Params() (string, []string) {
	return "KILL", []string{msg.Nick, msg.Reason}
}

// WhoMessage queries users matching a mask
type WhoMessage struct {
	Base
	Mask     string
	OperOnly bool
}

func (*WhoMessage) Kind() Kind { return KindWho }

func (msg *WhoMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "WHO")
}

func (msg *WhoMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Mask = param(m.Params, 0)
	msg.OperOnly = param(m.Params, 1) == "o"
}

func (msg *WhoMessage) Params() (string, []string) {
	if msg.OperOnly {
		return "WHO", []string{msg.Mask, "o"}
	}
	return "WHO", []string{msg.Mask}
}

// WhoIsMessage queries details about users
type WhoIsMessage struct {
	Base
	Server string
	Masks  []string
}

func (*WhoIsMessage) Kind() Kind { return KindWhoIs }

func (msg *WhoIsMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "WHOIS")
}

func (msg *WhoIsMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Server = ""
	switch len(m.Params) {
	case 0:
		msg.Masks = nil
	case 1:
		msg.Masks = splitList(m.Params[0])
	default:
		msg.Server = m.Params[0]
		msg.Masks = splitList(m.Params[1])
	}
}

func (msg *WhoIsMessage) Params() (string, []string) {
	if msg.Server != "" {
		return "WHOIS", []string{msg.Server, joinList(msg.Masks)}
	}
	return "WHOIS", []string{joinList(msg.Masks)}
}

// UserHostMessage asks for the masks of up to five nicks
type UserHostMessage struct {
	Base
	Nicks []string
}

func (*UserHostMessage) Kind() Kind { return KindUserHost }

func (msg *UserHostMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "USERHOST")
}

func (msg *UserHostMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Nicks = append([]string(nil), m.Params...)
}

func (msg *UserHostMessage) Params() (string, []string) {
	return "USERHOST", msg.Nicks
}

func (msg *UserHostMessage) Validate(*support.ServerSupport) error {
	if len(msg.Nicks) == 0 || len(msg.Nicks) > 5 {
		return invalid(KindUserHost, "expected 1 to 5 nicks, got %d", len(msg.Nicks))
	}
	return nil
}

// ErrorMessage is the server's final word before closing the link
type ErrorMessage struct {
	Base
	Reason string
}

func (*ErrorMessage) Kind() Kind { return KindError }

func (msg *ErrorMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "ERROR")
}

func (msg *ErrorMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Reason = param(m.Params, 0)
}

func (msg *ErrorMessage) Params() (string, []string) {
	return "ERROR", []string{msg.Reason}
}

// GenericMessage holds any command without a recognizer
type GenericMessage struct {
	Base
	Command string
}

func (*GenericMessage) Kind() Kind { return KindGenericMessage }

func (msg *GenericMessage) CanParse(m *ircmsg.Message) bool {
	return m.Command != ""
}

func (msg *GenericMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Command = m.Command
}

func (msg *GenericMessage) Params() (string, []string) {
	return msg.Command, msg.Raw
}
