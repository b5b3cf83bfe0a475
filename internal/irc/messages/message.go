// Package messages decodes IRC protocol lines into typed messages and
// formats typed messages back into lines.
package messages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/ergochat/irc-go/ircmsg"
)

// MaxLineLength is the protocol limit for one line, including CRLF
const MaxLineLength = 512

var (
	// ErrInvalidLine is returned for lines that cannot be tokenized
	ErrInvalidLine = errors.New("invalid IRC line")
	// ErrInvalidMessage is wrapped by outbound validation failures
	ErrInvalidMessage = errors.New("invalid IRC message")
)

// Kind names a concrete message type, e.g. "JOIN" or "RPL_NAMREPLY"
type Kind string

// Message is implemented by every recognized message kind
type Message interface {
	// Kind identifies the concrete type; it must not depend on field values
	Kind() Kind
	// Numeric is the reply code, or 0 for commands
	Numeric() int
	// Sender is the user or server the message came from
	Sender() *model.User
	// RawParams are the parameters exactly as received
	RawParams() []string
	// CanParse checks the structural minimum without extracting fields
	CanParse(m *ircmsg.Message) bool
	// Parse extracts fields; missing parameters leave fields at zero values
	Parse(m *ircmsg.Message)
	// Params returns the command and parameters to format
	Params() (command string, params []string)
	// Validate checks an outbound message against the server's capabilities
	Validate(s *support.ServerSupport) error
}

// ChannelTargeted is implemented by messages addressed to channels
type ChannelTargeted interface {
	IsTargetedAtChannel(name string) bool
}

// QueryTargeted is implemented by messages that can be private to a user
type QueryTargeted interface {
	IsQueryToUser(user *model.User) bool
}

// Base carries the fields every message has
type Base struct {
	Source *model.User
	Raw    []string
	Tags   map[string]string
}

func (b *Base) Sender() *model.User {
	if b.Source == nil {
		b.Source = model.NewUser("")
	}
	return b.Source
}

func (b *Base) RawParams() []string {
	return b.Raw
}

func (b *Base) Numeric() int {
	return 0
}

func (b *Base) Validate(*support.ServerSupport) error {
	return nil
}

func (b *Base) parseBase(m *ircmsg.Message) {
	b.Source = model.ParseUser(m.Source)
	b.Raw = append([]string(nil), m.Params...)
	if tags := m.AllTags(); len(tags) > 0 {
		b.Tags = tags
	}
}

// Format renders a message as a protocol line without the trailing CRLF
func Format(msg Message) (string, error) {
	command, params := msg.Params()
	source := ""
	if sender := msg.Sender(); sender != nil && sender.IsNickSet() {
		source = sender.String()
	}
	raw := ircmsg.MakeMessage(nil, source, command, params...)
	line, err := raw.Line()
	if err != nil {
		return "", fmt.Errorf("failed to format %s: %w", msg.Kind(), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// MustFormat is Format for messages known to be well formed, as in tests
func MustFormat(msg Message) string {
	line, err := Format(msg)
	if err != nil {
		panic(err)
	}
	return line
}

// String renders msg for logs
func String(msg Message) string {
	line, err := Format(msg)
	if err != nil {
		return fmt.Sprintf("%s %v", msg.Kind(), msg.RawParams())
	}
	return line
}

func isCommand(m *ircmsg.Message, command string) bool {
	return strings.EqualFold(m.Command, command)
}

func param(params []string, i int) string {
	if i < len(params) {
		return params[i]
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if support.EqualFold("rfc1459", item, name) {
			return true
		}
	}
	return false
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
