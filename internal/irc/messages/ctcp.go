package messages

import (
	"strings"

	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/ergochat/irc-go/ircmsg"
)

const (
	KindAction             Kind = "CTCP_ACTION"
	KindVersionRequest     Kind = "CTCP_VERSION"
	KindVersionReply       Kind = "CTCP_VERSION_REPLY"
	KindPingRequest        Kind = "CTCP_PING"
	KindPingReply          Kind = "CTCP_PING_REPLY"
	KindGenericCtcpRequest Kind = "CTCP_REQUEST"
	KindGenericCtcpReply   Kind = "CTCP_REPLY"
)

const ctcpDelimiter = "\x01"

// isCtcpLine reports whether m is a PRIVMSG or NOTICE carrying a CTCP payload
func isCtcpLine(m *ircmsg.Message) bool {
	if !isCommand(m, "PRIVMSG") && !isCommand(m, "NOTICE") {
		return false
	}
	return len(m.Params) >= 2 && strings.HasPrefix(m.Params[1], ctcpDelimiter)
}

// splitCtcp unwraps "\x01COMMAND data\x01" into its command and data. The
// closing delimiter is optional.
func splitCtcp(text string) (command, data string) {
	text = strings.TrimPrefix(text, ctcpDelimiter)
	text = strings.TrimSuffix(text, ctcpDelimiter)
	command, data, _ = strings.Cut(text, " ")
	return strings.ToUpper(command), data
}

// canParseCtcp matches the IRC command (PRIVMSG for requests, NOTICE for
// replies) and the CTCP command
func canParseCtcp(m *ircmsg.Message, ircCommand, ctcpCommand string) bool {
	if !isCtcpLine(m) || !isCommand(m, ircCommand) {
		return false
	}
	command, _ := splitCtcp(m.Params[1])
	return command == ctcpCommand
}

// CtcpBase holds the fields shared by CTCP requests and replies
type CtcpBase struct {
	Base
	Targets []string
	Command string
	Data    string
}

func (c *CtcpBase) parseCtcp(m *ircmsg.Message) {
	c.parseBase(m)
	c.Targets = splitList(param(m.Params, 0))
	c.Command, c.Data = splitCtcp(param(m.Params, 1))
}

// ctcpParams formats the payload inside ircCommand. An empty data string
// sends the bare command.
func (c *CtcpBase) ctcpParams(ircCommand, command, data string) (string, []string) {
	payload := command
	if data != "" {
		payload += " " + data
	}
	return ircCommand, []string{joinList(c.Targets), ctcpDelimiter + payload + ctcpDelimiter}
}

func (c *CtcpBase) IsTargetedAtChannel(name string) bool {
	return containsFold(c.Targets, name)
}

func (c *CtcpBase) IsQueryToUser(user *model.User) bool {
	for _, target := range c.Targets {
		if model.NickEquals(user.Nick(), target) {
			return true
		}
	}
	return false
}

// ActionMessage is a "/me" emote
type ActionMessage struct {
	CtcpBase
	Text string
}

// NewAction builds an ACTION to target
func NewAction(text string, targets ...string) *ActionMessage {
	return &ActionMessage{CtcpBase: CtcpBase{Targets: targets}, Text: text}
}

func (*ActionMessage) Kind() Kind { return KindAction }

func (msg *ActionMessage) CanParse(m *ircmsg.Message) bool {
	return canParseCtcp(m, "PRIVMSG", "ACTION")
}

func (msg *ActionMessage) Parse(m *ircmsg.Message) {
	msg.parseCtcp(m)
	msg.Text = msg.Data
}

func (msg *ActionMessage) Params() (string, []string) {
	return msg.ctcpParams("PRIVMSG", "ACTION", msg.Text)
}

// VersionRequestMessage asks a client for its version
type VersionRequestMessage struct {
	CtcpBase
}

func (*VersionRequestMessage) Kind() Kind { return KindVersionRequest }

func (msg *VersionRequestMessage) CanParse(m *ircmsg.Message) bool {
	return canParseCtcp(m, "PRIVMSG", "VERSION")
}

func (msg *VersionRequestMessage) Parse(m *ircmsg.Message) { msg.parseCtcp(m) }

func (msg *VersionRequestMessage) Params() (string, []string) {
	return msg.ctcpParams("PRIVMSG", "VERSION", "")
}

// VersionReplyMessage answers a VERSION request
type VersionReplyMessage struct {
	CtcpBase
	Response string
}

func (*VersionReplyMessage) Kind() Kind { return KindVersionReply }

func (msg *VersionReplyMessage) CanParse(m *ircmsg.Message) bool {
	return canParseCtcp(m, "NOTICE", "VERSION")
}

func (msg *VersionReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseCtcp(m)
	msg.Response = msg.Data
}

func (msg *VersionReplyMessage) Params() (string, []string) {
	return msg.ctcpParams("NOTICE", "VERSION", msg.Response)
}

// PingRequestMessage measures round trip time; the peer echoes Timestamp
type PingRequestMessage struct {
	CtcpBase
	Timestamp string
}

func (*PingRequestMessage) Kind() Kind { return KindPingRequest }

func (msg *PingRequestMessage) CanParse(m *ircmsg.Message) bool {
	return canParseCtcp(m, "PRIVMSG", "PING")
}

func (msg *PingRequestMessage) Parse(m *ircmsg.Message) {
	msg.parseCtcp(m)
	msg.Timestamp = msg.Data
}

func (msg *PingRequestMessage) Params() (string, []string) {
	return msg.ctcpParams("PRIVMSG", "PING", msg.Timestamp)
}

// PingReplyMessage echoes a CTCP PING timestamp
type PingReplyMessage struct {
	CtcpBase
	Timestamp string
}

func (*PingReplyMessage) Kind() Kind { return KindPingReply }

func (msg *PingReplyMessage) CanParse(m *ircmsg.Message) bool {
	return canParseCtcp(m, "NOTICE", "PING")
}

func (msg *PingReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseCtcp(m)
	msg.Timestamp = msg.Data
}

func (msg *PingReplyMessage) Params() (string, []string) {
	return msg.ctcpParams("NOTICE", "PING", msg.Timestamp)
}

// GenericCtcpRequestMessage holds any CTCP request without a recognizer
type GenericCtcpRequestMessage struct {
	CtcpBase
}

func (*GenericCtcpRequestMessage) Kind() Kind { return KindGenericCtcpRequest }

func (msg *GenericCtcpRequestMessage) CanParse(m *ircmsg.Message) bool {
	return isCtcpLine(m) && isCommand(m, "PRIVMSG")
}

func (msg *GenericCtcpRequestMessage) Parse(m *ircmsg.Message) { msg.parseCtcp(m) }

func (msg *GenericCtcpRequestMessage) Params() (string, []string) {
	return msg.ctcpParams("PRIVMSG", msg.Command, msg.Data)
}

// GenericCtcpReplyMessage holds any CTCP reply without a recognizer
type GenericCtcpReplyMessage struct {
	CtcpBase
}

func (*GenericCtcpReplyMessage) Kind() Kind { return KindGenericCtcpReply }

func (msg *GenericCtcpReplyMessage) CanParse(m *ircmsg.Message) bool {
	return isCtcpLine(m) && isCommand(m, "NOTICE")
}

func (msg *GenericCtcpReplyMessage) Parse(m *ircmsg.Message) { msg.parseCtcp(m) }

func (msg *GenericCtcpReplyMessage) Params() (string, []string) {
	return msg.ctcpParams("NOTICE", msg.Command, msg.Data)
}
