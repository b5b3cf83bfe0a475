package messages

import (
	"strconv"
	"strings"
	"time"

	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/ergochat/irc-go/ircmsg"
)

const (
	KindWelcome       Kind = "RPL_WELCOME"
	KindSupport       Kind = "RPL_ISUPPORT"
	KindUserModeIs    Kind = "RPL_UMODEIS"
	KindUserAway      Kind = "RPL_AWAY"
	KindUserHostReply Kind = "RPL_USERHOST"
	KindSelfUnAway    Kind = "RPL_UNAWAY"
	KindSelfAway      Kind = "RPL_NOWAWAY"
	KindWhoIsUser     Kind = "RPL_WHOISUSER"
	KindWhoIsServer   Kind = "RPL_WHOISSERVER"
	KindWhoIsOper     Kind = "RPL_WHOISOPERATOR"
	KindWhoIsEnd      Kind = "RPL_ENDOFWHOIS"
	KindChannelModeIs Kind = "RPL_CHANNELMODEIS"
	KindTopicNone     Kind = "RPL_NOTOPIC"
	KindTopicReply    Kind = "RPL_TOPIC"
	KindTopicSet      Kind = "RPL_TOPICWHOTIME"
	KindWhoReply      Kind = "RPL_WHOREPLY"
	KindNamesReply    Kind = "RPL_NAMREPLY"
	KindLinks         Kind = "RPL_LINKS"
	KindLinksEnd      Kind = "RPL_ENDOFLINKS"
	KindNamesEnd      Kind = "RPL_ENDOFNAMES"
	KindMotd          Kind = "RPL_MOTD"
	KindMotdStart     Kind = "RPL_MOTDSTART"
	KindMotdEnd       Kind = "RPL_ENDOFMOTD"
	KindYoureOper     Kind = "RPL_YOUREOPER"

	KindNoSuchNick    Kind = "ERR_NOSUCHNICK"
	KindNoSuchChannel Kind = "ERR_NOSUCHCHANNEL"
	KindNoMotd        Kind = "ERR_NOMOTD"
	KindNickInUse     Kind = "ERR_NICKNAMEINUSE"
)

// WelcomeMessage (001) confirms registration. Target is our nick as the
// server sees it.
type WelcomeMessage struct {
	NumericBase
	Text string
}

func (*WelcomeMessage) Kind() Kind { return KindWelcome }

func (msg *WelcomeMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplWelcome)
}

func (msg *WelcomeMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *WelcomeMessage) Params() (string, []string) {
	return msg.numericParams(RplWelcome, msg.Text)
}

// SupportMessage (005) announces server capabilities as KEY[=VALUE] tokens
type SupportMessage struct {
	NumericBase
	Tokens []string
	Text   string
}

func (*SupportMessage) Kind() Kind { return KindSupport }

func (msg *SupportMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplISupport) && len(m.Params) >= 2
}

func (msg *SupportMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Tokens, msg.Text = nil, ""
	if len(m.Params) < 2 {
		return
	}
	rest := m.Params[1:]
	if last := rest[len(rest)-1]; strings.Contains(last, " ") {
		msg.Text = last
		rest = rest[:len(rest)-1]
	}
	msg.Tokens = append([]string(nil), rest...)
}

func (msg *SupportMessage) Params() (string, []string) {
	params := append([]string(nil), msg.Tokens...)
	if msg.Text != "" {
		params = append(params, msg.Text)
	}
	return msg.numericParams(RplISupport, params...)
}

// UserModeIsMessage (221) reports our user modes
type UserModeIsMessage struct {
	NumericBase
	Modes string
}

func (*UserModeIsMessage) Kind() Kind { return KindUserModeIs }

func (msg *UserModeIsMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplUModeIs)
}

func (msg *UserModeIsMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Modes = param(m.Params, 1)
}

func (msg *UserModeIsMessage) Params() (string, []string) {
	return msg.numericParams(RplUModeIs, msg.Modes)
}

// UserAwayMessage (301) carries another user's away message
type UserAwayMessage struct {
	NumericBase
	Nick string
	Text string
}

func (*UserAwayMessage) Kind() Kind { return KindUserAway }

func (msg *UserAwayMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplAway) && len(m.Params) >= 2
}

func (msg *UserAwayMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nick = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *UserAwayMessage) Params() (string, []string) {
	return msg.numericParams(RplAway, msg.Nick, msg.Text)
}

// UserHostReplyMessage (302) answers USERHOST with nick[*]=(+|-)user@host
// entries
type UserHostReplyMessage struct {
	NumericBase
	Users []*model.User
}

func (*UserHostReplyMessage) Kind() Kind { return KindUserHostReply }

func (msg *UserHostReplyMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplUserHost)
}

func (msg *UserHostReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Users = nil
	for _, entry := range strings.Fields(param(m.Params, 1)) {
		if user := parseUserHost(entry); user != nil {
			msg.Users = append(msg.Users, user)
		}
	}
}

func parseUserHost(entry string) *model.User {
	nick, rest, ok := strings.Cut(entry, "=")
	if !ok || nick == "" || rest == "" {
		return nil
	}
	user := model.NewUser(strings.TrimSuffix(nick, "*"))
	user.SetIrcOperator(strings.HasSuffix(nick, "*"))
	if rest[0] == '-' {
		user.SetOnlineStatus(model.Away)
	} else {
		user.SetOnlineStatus(model.Online)
	}
	if userName, host, ok := strings.Cut(rest[1:], "@"); ok {
		user.SetUserName(userName)
		user.SetHostName(host)
	}
	return user
}

func (msg *UserHostReplyMessage) Params() (string, []string) {
	entries := make([]string, 0, len(msg.Users))
	for _, user := range msg.Users {
		var b strings.Builder
		b.WriteString(user.Nick())
		if user.IrcOperator() {
			b.WriteByte('*')
		}
		b.WriteByte('=')
		if user.OnlineStatus() == model.Away {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
		b.WriteString(user.UserName())
		b.WriteByte('@')
		b.WriteString(user.HostName())
		entries = append(entries, b.String())
	}
	return msg.numericParams(RplUserHost, strings.Join(entries, " "))
}

// SelfUnAwayMessage (305) confirms we are no longer away
type SelfUnAwayMessage struct {
	NumericBase
	Text string
}

func (*SelfUnAwayMessage) Kind() Kind { return KindSelfUnAway }

func (msg *SelfUnAwayMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplUnAway)
}

func (msg *SelfUnAwayMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *SelfUnAwayMessage) Params() (string, []string) {
	return msg.numericParams(RplUnAway, msg.Text)
}

// SelfAwayMessage (306) confirms we are marked away
type SelfAwayMessage struct {
	NumericBase
	Text string
}

func (*SelfAwayMessage) Kind() Kind { return KindSelfAway }

func (msg *SelfAwayMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplNowAway)
}

func (msg *SelfAwayMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *SelfAwayMessage) Params() (string, []string) {
	return msg.numericParams(RplNowAway, msg.Text)
}

// WhoIsUserMessage (311) carries nick, user, host and real name
type WhoIsUserMessage struct {
	NumericBase
	User *model.User
}

func (*WhoIsUserMessage) Kind() Kind { return KindWhoIsUser }

func (msg *WhoIsUserMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplWhoisUser) && len(m.Params) >= 4
}

func (msg *WhoIsUserMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.User = model.NewUser(param(m.Params, 1))
	msg.User.SetUserName(param(m.Params, 2))
	msg.User.SetHostName(param(m.Params, 3))
	if len(m.Params) > 5 {
		msg.User.SetRealName(m.Params[5])
	}
}

func (msg *WhoIsUserMessage) Params() (string, []string) {
	user := msg.User
	if user == nil {
		user = model.NewUser("")
	}
	return msg.numericParams(RplWhoisUser, user.Nick(), user.UserName(), user.HostName(), "*", user.RealName())
}

// WhoIsServerMessage (312) names the server a user is connected to
type WhoIsServerMessage struct {
	NumericBase
	Nick   string
	Server string
	Info   string
}

func (*WhoIsServerMessage) Kind() Kind { return KindWhoIsServer }

func (msg *WhoIsServerMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplWhoisServer) && len(m.Params) >= 3
}

func (msg *WhoIsServerMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nick = param(m.Params, 1)
	msg.Server = param(m.Params, 2)
	msg.Info = param(m.Params, 3)
}

func (msg *WhoIsServerMessage) Params() (string, []string) {
	return msg.numericParams(RplWhoisServer, msg.Nick, msg.Server, msg.Info)
}

// WhoIsOperMessage (313) marks a user as an IRC operator
type WhoIsOperMessage struct {
	NumericBase
	Nick string
	Text string
}

func (*WhoIsOperMessage) Kind() Kind { return KindWhoIsOper }

func (msg *WhoIsOperMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplWhoisOperator) && len(m.Params) >= 2
}

func (msg *WhoIsOperMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nick = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *WhoIsOperMessage) Params() (string, []string) {
	return msg.numericParams(RplWhoisOperator, msg.Nick, msg.Text)
}

// WhoIsEndMessage (318) ends a WHOIS reply
type WhoIsEndMessage struct {
	NumericBase
	Nicks []string
	Text  string
}

func (*WhoIsEndMessage) Kind() Kind { return KindWhoIsEnd }

func (msg *WhoIsEndMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplEndOfWhois)
}

func (msg *WhoIsEndMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nicks = splitList(param(m.Params, 1))
	msg.Text = param(m.Params, 2)
}

func (msg *WhoIsEndMessage) Params() (string, []string) {
	return msg.numericParams(RplEndOfWhois, joinList(msg.Nicks), msg.Text)
}

// ChannelModeIsMessage (324) reports a channel's current modes
type ChannelModeIsMessage struct {
	NumericBase
	Channel   string
	Modes     string
	Arguments []string
}

func (*ChannelModeIsMessage) Kind() Kind { return KindChannelModeIs }

func (msg *ChannelModeIsMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplChannelModeIs) && len(m.Params) >= 3
}

func (msg *ChannelModeIsMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Modes = param(m.Params, 2)
	msg.Arguments = nil
	if len(m.Params) > 3 {
		msg.Arguments = append([]string(nil), m.Params[3:]...)
	}
}

func (msg *ChannelModeIsMessage) Params() (string, []string) {
	return msg.numericParams(RplChannelModeIs, append([]string{msg.Channel, msg.Modes}, msg.Arguments...)...)
}

func (msg *ChannelModeIsMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// ModeList expands the reply into modes, using s to decide which letters
// take an argument
func (msg *ChannelModeIsMessage) ModeList(s *support.ServerSupport) []model.Mode {
	var modes []model.Mode
	args := msg.Arguments
	for i := 0; i < len(msg.Modes); i++ {
		letter := msg.Modes[i]
		if letter == '+' || letter == '-' {
			continue
		}
		mode := model.Mode{Letter: letter}
		if s != nil && s.ModeTakesArgument(letter, true) && len(args) > 0 {
			mode.Argument, args = args[0], args[1:]
		}
		modes = append(modes, mode)
	}
	return modes
}

// TopicNoneMessage (331) reports that a channel has no topic
type TopicNoneMessage struct {
	NumericBase
	Channel string
	Text    string
}

func (*TopicNoneMessage) Kind() Kind { return KindTopicNone }

func (msg *TopicNoneMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplNoTopic) && len(m.Params) >= 2
}

func (msg *TopicNoneMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *TopicNoneMessage) Params() (string, []string) {
	return msg.numericParams(RplNoTopic, msg.Channel, msg.Text)
}

func (msg *TopicNoneMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// TopicReplyMessage (332) carries a channel's topic
type TopicReplyMessage struct {
	NumericBase
	Channel string
	Topic   string
}

func (*TopicReplyMessage) Kind() Kind { return KindTopicReply }

func (msg *TopicReplyMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplTopic) && len(m.Params) >= 2
}

func (msg *TopicReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Topic = param(m.Params, 2)
}

func (msg *TopicReplyMessage) Params() (string, []string) {
	return msg.numericParams(RplTopic, msg.Channel, msg.Topic)
}

func (msg *TopicReplyMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// TopicSetMessage (333) names who set the topic and when
type TopicSetMessage struct {
	NumericBase
	Channel string
	Setter  *model.User
	SetAt   time.Time
}

func (*TopicSetMessage) Kind() Kind { return KindTopicSet }

func (msg *TopicSetMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplTopicWhoTime) && len(m.Params) >= 3
}

func (msg *TopicSetMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Setter = model.ParseUser(param(m.Params, 2))
	msg.SetAt = time.Time{}
	if secs, err := strconv.ParseInt(param(m.Params, 3), 10, 64); err == nil {
		msg.SetAt = time.Unix(secs, 0).UTC()
	}
}

func (msg *TopicSetMessage) Params() (string, []string) {
	setter := ""
	if msg.Setter != nil {
		setter = msg.Setter.String()
	}
	at := "0"
	if !msg.SetAt.IsZero() {
		at = strconv.FormatInt(msg.SetAt.Unix(), 10)
	}
	return msg.numericParams(RplTopicWhoTime, msg.Channel, setter, at)
}

func (msg *TopicSetMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// WhoReplyMessage (352) describes one user matched by WHO. Flags is kept as
// received; only the operator marker and channel status are interpreted.
type WhoReplyMessage struct {
	NumericBase
	Channel  string
	User     *model.User
	Flags    string
	IsOper   bool
	Status   model.ChannelStatus
	HopCount int
}

func (*WhoReplyMessage) Kind() Kind { return KindWhoReply }

func (msg *WhoReplyMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplWhoReply) && len(m.Params) >= 7
}

func (msg *WhoReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.User = model.NewUser(param(m.Params, 5))
	msg.User.SetUserName(param(m.Params, 2))
	msg.User.SetHostName(param(m.Params, 3))
	msg.User.SetServerName(param(m.Params, 4))
	msg.Flags = param(m.Params, 6)
	msg.IsOper = strings.Contains(msg.Flags, "*")
	msg.Status = model.StatusNone
	for i := 0; i < len(msg.Flags); i++ {
		if status := model.ChannelStatus(msg.Flags[i : i+1]); model.IsStatusSymbol(string(status)) {
			msg.Status = status
			break
		}
	}
	msg.HopCount = 0
	if len(m.Params) >= 8 {
		hops, real, _ := strings.Cut(m.Params[7], " ")
		msg.HopCount = atoiDefault(hops, 0)
		msg.User.SetRealName(real)
	}
	if msg.IsOper {
		msg.User.SetIrcOperator(true)
	}
}

func (msg *WhoReplyMessage) Params() (string, []string) {
	user := msg.User
	if user == nil {
		user = model.NewUser("")
	}
	return msg.numericParams(RplWhoReply, msg.Channel, user.UserName(), user.HostName(), user.ServerName(),
		user.Nick(), msg.Flags, strconv.Itoa(msg.HopCount)+" "+user.RealName())
}

func (msg *WhoReplyMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// NamesReplyMessage (353) lists channel members with their status symbols
type NamesReplyMessage struct {
	NumericBase
	Visibility string
	Channel    string
	Names      []string
}

func (*NamesReplyMessage) Kind() Kind { return KindNamesReply }

func (msg *NamesReplyMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplNamReply) && len(m.Params) >= 3
}

func (msg *NamesReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	if len(m.Params) >= 4 {
		msg.Visibility = m.Params[1]
		msg.Channel = m.Params[2]
		msg.Names = strings.Fields(m.Params[3])
		return
	}
	// some servers omit the visibility token
	msg.Visibility = ""
	msg.Channel = param(m.Params, 1)
	msg.Names = strings.Fields(param(m.Params, 2))
}

func (msg *NamesReplyMessage) Params() (string, []string) {
	visibility := msg.Visibility
	if visibility == "" {
		visibility = "="
	}
	return msg.numericParams(RplNamReply, visibility, msg.Channel, strings.Join(msg.Names, " "))
}

func (msg *NamesReplyMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// Member is one entry of a NAMES reply
type Member struct {
	User   *model.User
	Status model.ChannelStatus
}

// Members splits each name into its highest status and user. Names may be
// plain nicks or full masks (userhost-in-names).
func (msg *NamesReplyMessage) Members() []Member {
	members := make([]Member, 0, len(msg.Names))
	for _, name := range msg.Names {
		status := model.StatusNone
		for len(name) > 1 && model.IsStatusSymbol(name[:1]) {
			if s := model.ChannelStatus(name[:1]); s.Outranks(status) {
				status = s
			}
			name = name[1:]
		}
		members = append(members, Member{User: model.ParseUser(name), Status: status})
	}
	return members
}

// LinksMessage (364) is one server of the LINKS tree
type LinksMessage struct {
	NumericBase
	Server      string
	Hub         string
	Hops        int
	Description string
}

func (*LinksMessage) Kind() Kind { return KindLinks }

func (msg *LinksMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplLinks) && len(m.Params) >= 3
}

func (msg *LinksMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Server = param(m.Params, 1)
	msg.Hub = param(m.Params, 2)
	hops, description, _ := strings.Cut(param(m.Params, 3), " ")
	msg.Hops = atoiDefault(hops, 0)
	msg.Description = description
}

func (msg *LinksMessage) Params() (string, []string) {
	return msg.numericParams(RplLinks, msg.Server, msg.Hub, strconv.Itoa(msg.Hops)+" "+msg.Description)
}

// LinksEndMessage (365) ends the LINKS tree
type LinksEndMessage struct {
	NumericBase
	Mask string
	Text string
}

func (*LinksEndMessage) Kind() Kind { return KindLinksEnd }

func (msg *LinksEndMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplEndOfLinks)
}

func (msg *LinksEndMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Mask = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *LinksEndMessage) Params() (string, []string) {
	return msg.numericParams(RplEndOfLinks, msg.Mask, msg.Text)
}

// NamesEndMessage (366) ends a NAMES reply
type NamesEndMessage struct {
	NumericBase
	Channel string
	Text    string
}

func (*NamesEndMessage) Kind() Kind { return KindNamesEnd }

func (msg *NamesEndMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplEndOfNames) && len(m.Params) >= 2
}

func (msg *NamesEndMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *NamesEndMessage) Params() (string, []string) {
	return msg.numericParams(RplEndOfNames, msg.Channel, msg.Text)
}

func (msg *NamesEndMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// MotdMessage (372) is one MOTD line. Text has the "- " marker removed.
type MotdMessage struct {
	NumericBase
	Text string
}

func (*MotdMessage) Kind() Kind { return KindMotd }

func (msg *MotdMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplMotd)
}

func (msg *MotdMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	text := param(m.Params, 1)
	if strings.HasPrefix(text, "- ") {
		text = text[2:]
	} else if text == "-" {
		text = ""
	}
	msg.Text = text
}

func (msg *MotdMessage) Params() (string, []string) {
	return msg.numericParams(RplMotd, "- "+msg.Text)
}

// MotdStartMessage (375) opens the MOTD
type MotdStartMessage struct {
	NumericBase
	Text string
}

func (*MotdStartMessage) Kind() Kind { return KindMotdStart }

func (msg *MotdStartMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplMotdStart)
}

func (msg *MotdStartMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *MotdStartMessage) Params() (string, []string) {
	return msg.numericParams(RplMotdStart, msg.Text)
}

// MotdEndMessage (376) closes the MOTD
type MotdEndMessage struct {
	NumericBase
	Text string
}

func (*MotdEndMessage) Kind() Kind { return KindMotdEnd }

func (msg *MotdEndMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplEndOfMotd)
}

func (msg *MotdEndMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *MotdEndMessage) Params() (string, []string) {
	return msg.numericParams(RplEndOfMotd, msg.Text)
}

// YoureOperMessage (381) confirms a successful OPER
type YoureOperMessage struct {
	NumericBase
	Text string
}

func (*YoureOperMessage) Kind() Kind { return KindYoureOper }

func (msg *YoureOperMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplYoureOper)
}

func (msg *YoureOperMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *YoureOperMessage) Params() (string, []string) {
	return msg.numericParams(RplYoureOper, msg.Text)
}

// NoSuchNickMessage (401) reports an unknown nick
type NoSuchNickMessage struct {
	NumericBase
	Nick string
	Text string
}

func (*NoSuchNickMessage) Kind() Kind { return KindNoSuchNick }

func (msg *NoSuchNickMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, ErrNoSuchNick) && len(m.Params) >= 2
}

func (msg *NoSuchNickMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nick = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *NoSuchNickMessage) Params() (string, []string) {
	return msg.numericParams(ErrNoSuchNick, msg.Nick, msg.Text)
}

// NoSuchChannelMessage (403) reports an unknown channel
type NoSuchChannelMessage struct {
	NumericBase
	Channel string
	Text    string
}

func (*NoSuchChannelMessage) Kind() Kind { return KindNoSuchChannel }

func (msg *NoSuchChannelMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, ErrNoSuchChannel) && len(m.Params) >= 2
}

func (msg *NoSuchChannelMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Channel = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *NoSuchChannelMessage) Params() (string, []string) {
	return msg.numericParams(ErrNoSuchChannel, msg.Channel, msg.Text)
}

func (msg *NoSuchChannelMessage) IsTargetedAtChannel(name string) bool {
	return support.EqualFold("rfc1459", msg.Channel, name)
}

// NoMotdMessage (422) means the server has no MOTD
type NoMotdMessage struct {
	NumericBase
	Text string
}

func (*NoMotdMessage) Kind() Kind { return KindNoMotd }

func (msg *NoMotdMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, ErrNoMotd)
}

func (msg *NoMotdMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Text = param(m.Params, 1)
}

func (msg *NoMotdMessage) Params() (string, []string) {
	return msg.numericParams(ErrNoMotd, msg.Text)
}

// NickInUseMessage (433) rejects a nick change or registration nick
type NickInUseMessage struct {
	NumericBase
	Nick string
	Text string
}

func (*NickInUseMessage) Kind() Kind { return KindNickInUse }

func (msg *NickInUseMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, ErrNicknameInUse) && len(m.Params) >= 2
}

func (msg *NickInUseMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nick = param(m.Params, 1)
	msg.Text = param(m.Params, 2)
}

func (msg *NickInUseMessage) Params() (string, []string) {
	return msg.numericParams(ErrNicknameInUse, msg.Nick, msg.Text)
}
