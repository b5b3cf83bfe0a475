package messages

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dalnet/nebo/internal/metrics"
	"github.com/ergochat/irc-go/ircmsg"
)

// Factory creates an empty message of one kind
type Factory func() Message

// recognizer keeps a prototype for CanParse so matching allocates nothing
type recognizer struct {
	proto  Message
	create Factory
}

func newRecognizers(factories []Factory) []*recognizer {
	list := make([]*recognizer, 0, len(factories))
	for _, f := range factories {
		list = append(list, &recognizer{proto: f(), create: f})
	}
	return list
}

// Parser turns protocol lines into typed messages. Recognizers are tried
// in order within their shape; a recognizer that matches moves to the front
// of its list.
type Parser struct {
	mu       sync.Mutex
	custom   []*recognizer
	numerics []*recognizer
	ctcps    []*recognizer
	commands []*recognizer
}

// NewParser returns a parser holding the built-in catalog
func NewParser() *Parser {
	return &Parser{
		numerics: newRecognizers(numericFactories),
		ctcps:    newRecognizers(ctcpFactories),
		commands: newRecognizers(commandFactories),
	}
}

// Register adds a host-defined recognizer, tried before the built-in ones
func (p *Parser) Register(f Factory) {
	p.mu.Lock()
	p.custom = append(p.custom, &recognizer{proto: f(), create: f})
	p.mu.Unlock()
}

// Parse decodes one line. The only error is ErrInvalidLine, for lines the
// tokenizer rejects; every tokenized line yields some message.
func (p *Parser) Parse(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 || len(line) > MaxLineLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidLine, len(line))
	}
	raw, err := ircmsg.ParseLine(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	return p.ParseMessage(&raw), nil
}

// ParseMessage picks the recognizer for an already tokenized line
func (p *Parser) ParseMessage(raw *ircmsg.Message) Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg := match(p.custom, raw); msg != nil {
		return msg
	}

	var fallback Message
	switch {
	case isNumericCommand(raw.Command):
		if msg := match(p.numerics, raw); msg != nil {
			return msg
		}
		code, _ := strconv.Atoi(raw.Command)
		if IsError(code) {
			fallback = &GenericErrorMessage{}
		} else {
			fallback = &GenericNumericMessage{}
		}
	case isCtcpLine(raw):
		if msg := match(p.ctcps, raw); msg != nil {
			return msg
		}
		if isCommand(raw, "NOTICE") {
			fallback = &GenericCtcpReplyMessage{}
		} else {
			fallback = &GenericCtcpRequestMessage{}
		}
	default:
		if msg := match(p.commands, raw); msg != nil {
			return msg
		}
		fallback = &GenericMessage{}
	}

	metrics.ParseFallbacks.WithLabelValues(string(fallback.Kind())).Inc()
	fallback.Parse(raw)
	return fallback
}

func match(list []*recognizer, raw *ircmsg.Message) Message {
	for i, r := range list {
		if !r.proto.CanParse(raw) {
			continue
		}
		if i > 0 {
			copy(list[1:i+1], list[:i])
			list[0] = r
		}
		msg := r.create()
		msg.Parse(raw)
		return msg
	}
	return nil
}

// order returns the kinds of one list, front first; used by tests
func order(list []*recognizer) []Kind {
	kinds := make([]Kind, len(list))
	for i, r := range list {
		kinds[i] = r.proto.Kind()
	}
	return kinds
}

var numericFactories = []Factory{
	func() Message { return &WelcomeMessage{} },
	func() Message { return &SupportMessage{} },
	func() Message { return &UserModeIsMessage{} },
	func() Message { return &UserAwayMessage{} },
	func() Message { return &UserHostReplyMessage{} },
	func() Message { return &IsOnReplyMessage{} },
	func() Message { return &SelfUnAwayMessage{} },
	func() Message { return &SelfAwayMessage{} },
	func() Message { return &WhoIsUserMessage{} },
	func() Message { return &WhoIsServerMessage{} },
	func() Message { return &WhoIsOperMessage{} },
	func() Message { return &WhoIsEndMessage{} },
	func() Message { return &ChannelModeIsMessage{} },
	func() Message { return &TopicNoneMessage{} },
	func() Message { return &TopicReplyMessage{} },
	func() Message { return &TopicSetMessage{} },
	func() Message { return &WhoReplyMessage{} },
	func() Message { return &NamesReplyMessage{} },
	func() Message { return &LinksMessage{} },
	func() Message { return &LinksEndMessage{} },
	func() Message { return &NamesEndMessage{} },
	func() Message { return &MotdMessage{} },
	func() Message { return &MotdStartMessage{} },
	func() Message { return &MotdEndMessage{} },
	func() Message { return &YoureOperMessage{} },
	func() Message { return &WatchOnlineMessage{} },
	func() Message { return &WatchOfflineMessage{} },
	func() Message { return &MonitorOnlineMessage{} },
	func() Message { return &MonitorOfflineMessage{} },
	func() Message { return &NoSuchNickMessage{} },
	func() Message { return &NoSuchChannelMessage{} },
	func() Message { return &NoMotdMessage{} },
	func() Message { return &NickInUseMessage{} },
}

var ctcpFactories = []Factory{
	func() Message { return &ActionMessage{} },
	func() Message { return &VersionRequestMessage{} },
	func() Message { return &VersionReplyMessage{} },
	func() Message { return &PingRequestMessage{} },
	func() Message { return &PingReplyMessage{} },
	func() Message { return &DccSendMessage{} },
	func() Message { return &DccChatMessage{} },
	func() Message { return &DccGetMessage{} },
	func() Message { return &DccResumeMessage{} },
	func() Message { return &DccAcceptMessage{} },
}

var commandFactories = []Factory{
	func() Message { return &ChatMessage{} },
	func() Message { return &NoticeMessage{} },
	func() Message { return &PingMessage{} },
	func() Message { return &PongMessage{} },
	func() Message { return &JoinMessage{} },
	func() Message { return &PartMessage{} },
	func() Message { return &QuitMessage{} },
	func() Message { return &NickChangeMessage{} },
	func() Message { return &KickMessage{} },
	func() Message { return &TopicMessage{} },
	func() Message { return &ChannelModeMessage{} },
	func() Message { return &UserModeMessage{} },
	func() Message { return &InviteMessage{} },
	func() Message { return &AwayMessage{} },
	func() Message { return &BackMessage{} },
	func() Message { return &KillMessage{} },
	func() Message { return &ErrorMessage{} },
	func() Message { return &PasswordMessage{} },
	func() Message { return &UserNotificationMessage{} },
	func() Message { return &OperMessage{} },
	func() Message { return &NamesMessage{} },
	func() Message { return &ListMessage{} },
	func() Message { return &WhoMessage{} },
	func() Message { return &WhoIsMessage{} },
	func() Message { return &UserHostMessage{} },
	func() Message { return &IsOnMessage{} },
	func() Message { return &MonitorMessage{} },
	func() Message { return &WatchMessage{} },
}
