package messages

import (
	"fmt"
	"strings"

	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/ergochat/irc-go/ircutils"
)

// ValidationError reports an outbound message the server would reject
type ValidationError struct {
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMessage
}

func invalid(kind Kind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// validateChannel checks prefix, forbidden characters and CHANNELLEN
func validateChannel(kind Kind, name string, s *support.ServerSupport) error {
	if name == "" {
		return invalid(kind, "empty channel name")
	}
	if strings.ContainsAny(name, " ,\x07") {
		return invalid(kind, "channel name %q contains a forbidden character", name)
	}
	if s == nil {
		return nil
	}
	if !s.IsChannelName(name) {
		return invalid(kind, "channel name %q must start with one of %q", name, s.Types())
	}
	if _, maxLen, _, _ := s.Limits(); maxLen > 0 && len(name) > maxLen {
		return invalid(kind, "channel name %q is longer than %d", name, maxLen)
	}
	return nil
}

func validateChannels(kind Kind, names []string, s *support.ServerSupport) error {
	if len(names) == 0 {
		return invalid(kind, "no channel given")
	}
	for _, name := range names {
		if err := validateChannel(kind, name, s); err != nil {
			return err
		}
	}
	return nil
}

func validateNick(kind Kind, nick string, s *support.ServerSupport) error {
	if nick == "" {
		return invalid(kind, "empty nick")
	}
	if strings.ContainsAny(nick, " ,*?!@") || strings.HasPrefix(nick, ":") {
		return invalid(kind, "nick %q contains a forbidden character", nick)
	}
	if s == nil {
		return nil
	}
	if maxLen, _, _, _ := s.Limits(); maxLen > 0 && len(nick) > maxLen {
		return invalid(kind, "nick %q is longer than %d", nick, maxLen)
	}
	return nil
}

// truncate shortens text to limit bytes without splitting a UTF-8 sequence.
// A limit below zero means unlimited.
func truncate(text string, limit int) string {
	if limit < 0 || len(text) <= limit {
		return text
	}
	return ircutils.TruncateUTF8Safe(text, limit)
}
