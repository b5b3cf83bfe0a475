package messages

import (
	"strconv"
	"strings"

	"github.com/dalnet/nebo/internal/dcc"
	"github.com/ergochat/irc-go/ircmsg"
)

const (
	KindDccSend   Kind = "DCC_SEND"
	KindDccChat   Kind = "DCC_CHAT"
	KindDccGet    Kind = "DCC_GET"
	KindDccResume Kind = "DCC_RESUME"
	KindDccAccept Kind = "DCC_ACCEPT"
)

// dccArgs splits DCC data into arguments. A double-quoted argument may
// contain spaces.
func dccArgs(data string) []string {
	var args []string
	for {
		data = strings.TrimLeft(data, " ")
		if data == "" {
			return args
		}
		if data[0] == '"' {
			if end := strings.IndexByte(data[1:], '"'); end >= 0 {
				args = append(args, data[1:end+1])
				data = data[end+2:]
				continue
			}
		}
		arg, rest, _ := strings.Cut(data, " ")
		args = append(args, arg)
		data = rest
	}
}

func quoteFileName(name string) string {
	if strings.Contains(name, " ") {
		return `"` + name + `"`
	}
	return name
}

// dccVerb splits "TSSEND" into its flags and base verb
func dccVerb(token string) (verb string, turbo, secure bool) {
	token = strings.ToUpper(token)
	for len(token) > 1 {
		switch token[0] {
		case 'T':
			turbo = true
		case 'S':
			// SEND itself starts with S
			if token == "SEND" {
				return token, turbo, secure
			}
			secure = true
		default:
			return token, turbo, secure
		}
		token = token[1:]
	}
	return token, turbo, secure
}

func dccFlags(turbo, secure bool) string {
	flags := ""
	if turbo {
		flags += "T"
	}
	if secure {
		flags += "S"
	}
	return flags
}

// canParseDcc matches a PRIVMSG "\x01DCC <verb> ..." with the given base verb
func canParseDcc(m *ircmsg.Message, verb string, minArgs int) bool {
	if !canParseCtcp(m, "PRIVMSG", "DCC") {
		return false
	}
	_, data := splitCtcp(m.Params[1])
	args := dccArgs(data)
	if len(args) < minArgs+1 {
		return false
	}
	v, _, _ := dccVerb(args[0])
	return v == verb
}

// DccBase holds the flags shared by DCC requests
type DccBase struct {
	CtcpBase
	Turbo  bool
	Secure bool
}

// parseDcc returns the arguments after the verb
func (d *DccBase) parseDcc(m *ircmsg.Message) []string {
	d.parseCtcp(m)
	args := dccArgs(d.Data)
	if len(args) == 0 {
		return nil
	}
	_, d.Turbo, d.Secure = dccVerb(args[0])
	return args[1:]
}

func (d *DccBase) dccParams(verb string, args ...string) (string, []string) {
	data := dccFlags(d.Turbo, d.Secure) + verb
	if len(args) > 0 {
		data += " " + strings.Join(args, " ")
	}
	return d.ctcpParams("PRIVMSG", "DCC", data)
}

// DccSendMessage offers a file. Address is a dotted IPv4 address (or
// whatever the peer sent if it was not the decimal form). Size is -1 when
// the offer does not carry one.
type DccSendMessage struct {
	DccBase
	FileName string
	Address  string
	Port     int
	Size     int64
}

func (*DccSendMessage) Kind() Kind { return KindDccSend }

func (msg *DccSendMessage) CanParse(m *ircmsg.Message) bool {
	return canParseDcc(m, "SEND", 3)
}

func (msg *DccSendMessage) Parse(m *ircmsg.Message) {
	args := msg.parseDcc(m)
	msg.FileName = param(args, 0)
	msg.Address = dcc.DecodeAddress(param(args, 1))
	msg.Port = atoiDefault(param(args, 2), 0)
	msg.Size = -1
	if size, err := strconv.ParseInt(param(args, 3), 10, 64); err == nil {
		msg.Size = size
	}
}

func (msg *DccSendMessage) Params() (string, []string) {
	args := []string{quoteFileName(msg.FileName), dcc.EncodeAddress(msg.Address), strconv.Itoa(msg.Port)}
	if msg.Size >= 0 {
		args = append(args, strconv.FormatInt(msg.Size, 10))
	}
	return msg.dccParams("SEND", args...)
}

// DccChatMessage offers a direct chat connection
type DccChatMessage struct {
	DccBase
	Address string
	Port    int
}

func (*DccChatMessage) Kind() Kind { return KindDccChat }

func (msg *DccChatMessage) CanParse(m *ircmsg.Message) bool {
	return canParseDcc(m, "CHAT", 3)
}

func (msg *DccChatMessage) Parse(m *ircmsg.Message) {
	args := msg.parseDcc(m)
	msg.Address = dcc.DecodeAddress(param(args, 1))
	msg.Port = atoiDefault(param(args, 2), 0)
}

func (msg *DccChatMessage) Params() (string, []string) {
	return msg.dccParams("CHAT", "chat", dcc.EncodeAddress(msg.Address), strconv.Itoa(msg.Port))
}

// DccGetMessage asks a peer to send a file
type DccGetMessage struct {
	DccBase
	FileName string
}

func (*DccGetMessage) Kind() Kind { return KindDccGet }

func (msg *DccGetMessage) CanParse(m *ircmsg.Message) bool {
	return canParseDcc(m, "GET", 1)
}

func (msg *DccGetMessage) Parse(m *ircmsg.Message) {
	args := msg.parseDcc(m)
	msg.FileName = param(args, 0)
}

func (msg *DccGetMessage) Params() (string, []string) {
	return msg.dccParams("GET", quoteFileName(msg.FileName))
}

// DccResumeMessage asks the sender to restart an offer at Position
type DccResumeMessage struct {
	DccBase
	FileName string
	Port     int
	Position int64
}

func (*DccResumeMessage) Kind() Kind { return KindDccResume }

func (msg *DccResumeMessage) CanParse(m *ircmsg.Message) bool {
	return canParseDcc(m, "RESUME", 3)
}

func (msg *DccResumeMessage) Parse(m *ircmsg.Message) {
	args := msg.parseDcc(m)
	msg.FileName = param(args, 0)
	msg.Port = atoiDefault(param(args, 1), 0)
	msg.Position, _ = strconv.ParseInt(param(args, 2), 10, 64)
}

func (msg *DccResumeMessage) Params() (string, []string) {
	return msg.dccParams("RESUME", quoteFileName(msg.FileName), strconv.Itoa(msg.Port), strconv.FormatInt(msg.Position, 10))
}

// DccAcceptMessage confirms a RESUME
type DccAcceptMessage struct {
	DccBase
	FileName string
	Port     int
	Position int64
}

func (*DccAcceptMessage) Kind() Kind { return KindDccAccept }

func (msg *DccAcceptMessage) CanParse(m *ircmsg.Message) bool {
	return canParseDcc(m, "ACCEPT", 3)
}

func (msg *DccAcceptMessage) Parse(m *ircmsg.Message) {
	args := msg.parseDcc(m)
	msg.FileName = param(args, 0)
	msg.Port = atoiDefault(param(args, 1), 0)
	msg.Position, _ = strconv.ParseInt(param(args, 2), 10, 64)
}

func (msg *DccAcceptMessage) Params() (string, []string) {
	return msg.dccParams("ACCEPT", quoteFileName(msg.FileName), strconv.Itoa(msg.Port), strconv.FormatInt(msg.Position, 10))
}
