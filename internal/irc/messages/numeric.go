package messages

import (
	"fmt"
	"strconv"

	"github.com/ergochat/irc-go/ircmsg"
)

// Reply codes with a recognizer in the catalog
const (
	RplWelcome       = 1
	RplISupport      = 5
	RplUModeIs       = 221
	RplAway          = 301
	RplUserHost      = 302
	RplIsOn          = 303
	RplUnAway        = 305
	RplNowAway       = 306
	RplWhoisUser     = 311
	RplWhoisServer   = 312
	RplWhoisOperator = 313
	RplEndOfWhois    = 318
	RplChannelModeIs = 324
	RplNoTopic       = 331
	RplTopic         = 332
	RplTopicWhoTime  = 333
	RplWhoReply      = 352
	RplNamReply      = 353
	RplLinks         = 364
	RplEndOfLinks    = 365
	RplEndOfNames    = 366
	RplMotd          = 372
	RplMotdStart     = 375
	RplEndOfMotd     = 376
	RplYoureOper     = 381
	RplLogOn         = 600
	RplLogOff        = 601
	RplNowOn         = 604
	RplNowOff        = 605
	RplMonOnline     = 730
	RplMonOffline    = 731

	ErrNoSuchNick    = 401
	ErrNoSuchChannel = 403
	ErrNoMotd        = 422
	ErrNicknameInUse = 433
)

// IsDirect reports whether a code is a direct (pre-registration) reply
func IsDirect(code int) bool {
	return code > 0 && code < 100
}

// IsError reports whether a code is in one of the error bands
func IsError(code int) bool {
	return (code >= 400 && code <= 599) || (code >= 900 && code <= 998)
}

// IsCommandReply reports whether a code is a reply to a command
func IsCommandReply(code int) bool {
	return code >= 100 && code <= 999 && !IsError(code)
}

// isNumericCommand reports whether a command token is a 3-digit code
func isNumericCommand(command string) bool {
	if len(command) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if command[i] < '0' || command[i] > '9' {
			return false
		}
	}
	return true
}

// NumericBase is embedded by every numeric reply. Target is the first
// parameter, the nick the reply is addressed to.
type NumericBase struct {
	Base
	Code   int
	Target string
}

func (n *NumericBase) Numeric() int {
	return n.Code
}

func (n *NumericBase) canParseCode(m *ircmsg.Message, code int) bool {
	if !isNumericCommand(m.Command) {
		return false
	}
	c, _ := strconv.Atoi(m.Command)
	return c == code
}

func (n *NumericBase) parseNumeric(m *ircmsg.Message) {
	n.parseBase(m)
	n.Code, _ = strconv.Atoi(m.Command)
	n.Target = param(m.Params, 0)
}

// numericParams prepends the code and target to params
func (n *NumericBase) numericParams(code int, params ...string) (string, []string) {
	target := n.Target
	if target == "" {
		target = "*"
	}
	return fmt.Sprintf("%03d", code), append([]string{target}, params...)
}

// GenericNumericMessage holds any non-error reply without a recognizer
type GenericNumericMessage struct {
	NumericBase
	Data []string
}

const KindGenericNumeric Kind = "GENERIC_NUMERIC"

func (*GenericNumericMessage) Kind() Kind { return KindGenericNumeric }

func (msg *GenericNumericMessage) CanParse(m *ircmsg.Message) bool {
	return isNumericCommand(m.Command)
}

func (msg *GenericNumericMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Data = nil
	if len(m.Params) > 1 {
		msg.Data = append([]string(nil), m.Params[1:]...)
	}
}

func (msg *GenericNumericMessage) Params() (string, []string) {
	return msg.numericParams(msg.Code, msg.Data...)
}

// GenericErrorMessage holds any error reply without a recognizer
type GenericErrorMessage struct {
	NumericBase
	Data []string
}

const KindGenericError Kind = "GENERIC_ERROR"

func (*GenericErrorMessage) Kind() Kind { return KindGenericError }

func (msg *GenericErrorMessage) CanParse(m *ircmsg.Message) bool {
	if !isNumericCommand(m.Command) {
		return false
	}
	code, _ := strconv.Atoi(m.Command)
	return IsError(code)
}

func (msg *GenericErrorMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Data = nil
	if len(m.Params) > 1 {
		msg.Data = append([]string(nil), m.Params[1:]...)
	}
}

func (msg *GenericErrorMessage) Params() (string, []string) {
	return msg.numericParams(msg.Code, msg.Data...)
}
