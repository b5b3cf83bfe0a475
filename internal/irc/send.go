package irc

import (
	"fmt"
	"log"

	"github.com/dalnet/nebo/internal/irc/messages"
	"github.com/dalnet/nebo/internal/metrics"
)

// DefaultQuitReason is sent by SendQuitDefault
const DefaultQuitReason = "Quitting"

// Send validates, formats and writes msg on the caller's goroutine. A nil
// message is ignored, as is one cancelled by OnMessageSending. Validation
// failures wrap messages.ErrInvalidMessage and nothing is written.
func (c *Client) Send(msg messages.Message) error {
	if msg == nil {
		return nil
	}
	if c.OnMessageSending != nil {
		e := &SendingEvent{Message: msg}
		c.OnMessageSending(e)
		if e.Cancel {
			return nil
		}
	}

	if err := msg.Validate(c.support); err != nil {
		metrics.SendRejected.WithLabelValues(string(msg.Kind())).Inc()
		return fmt.Errorf("failed to send %s: %w", msg.Kind(), err)
	}
	line, err := messages.Format(msg)
	if err != nil {
		return err
	}
	if err := c.conn.Write(line); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Kind(), err)
	}
	if c.opts.Debug {
		log.Printf(">> %s", line)
	}
	if c.OnMessageSent != nil {
		c.OnMessageSent(msg)
	}
	return nil
}

// SendChat sends a PRIVMSG to each target
func (c *Client) SendChat(text string, targets ...string) error {
	return c.Send(messages.NewChat(text, targets...))
}

// SendNotice sends a NOTICE to each target
func (c *Client) SendNotice(text string, targets ...string) error {
	return c.Send(messages.NewNotice(text, targets...))
}

// SendAction sends a CTCP ACTION ("/me") to each target
func (c *Client) SendAction(text string, targets ...string) error {
	return c.Send(messages.NewAction(text, targets...))
}

// SendJoin joins the channels
func (c *Client) SendJoin(channels ...string) error {
	return c.Send(messages.NewJoin(channels...))
}

// SendPart leaves the channels
func (c *Client) SendPart(channels ...string) error {
	return c.Send(messages.NewPart(channels...))
}

// SendNick asks for a new nick; the model changes when the server confirms
func (c *Client) SendNick(nick string) error {
	return c.Send(&messages.NickChangeMessage{NewNick: nick})
}

// SendAway marks the local user away
func (c *Client) SendAway(reason string) error {
	return c.Send(&messages.AwayMessage{Reason: reason})
}

// SendBack clears the away status
func (c *Client) SendBack() error {
	return c.Send(&messages.BackMessage{})
}

// SendQuit leaves the server; it closes the connection after replying
func (c *Client) SendQuit(reason string) error {
	return c.Send(&messages.QuitMessage{Reason: reason})
}

// SendQuitDefault is SendQuit with DefaultQuitReason
func (c *Client) SendQuitDefault() error {
	return c.SendQuit(DefaultQuitReason)
}

// SendCommand sends a command the catalog has no type for, e.g. LINKS
func (c *Client) SendCommand(command string, params ...string) error {
	msg := &messages.GenericMessage{Command: command}
	msg.Raw = params
	return c.Send(msg)
}
