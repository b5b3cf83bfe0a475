package messages

import (
	"strings"

	"github.com/dalnet/nebo/internal/irc/model"
	"github.com/dalnet/nebo/internal/irc/support"
	"github.com/ergochat/irc-go/ircmsg"
)

const (
	KindIsOn           Kind = "ISON"
	KindMonitor        Kind = "MONITOR"
	KindWatch          Kind = "WATCH"
	KindIsOnReply      Kind = "RPL_ISON"
	KindWatchOnline    Kind = "RPL_NOWON"
	KindWatchOffline   Kind = "RPL_NOWOFF"
	KindMonitorOnline  Kind = "RPL_MONONLINE"
	KindMonitorOffline Kind = "RPL_MONOFFLINE"
)

// IsOnMessage asks which of the nicks are online
type IsOnMessage struct {
	Base
	Nicks []string
}

func (*IsOnMessage) Kind() Kind { return KindIsOn }

func (msg *IsOnMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "ISON")
}

func (msg *IsOnMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Nicks = nil
	for _, p := range m.Params {
		msg.Nicks = append(msg.Nicks, strings.Fields(p)...)
	}
}

func (msg *IsOnMessage) Params() (string, []string) {
	return "ISON", []string{strings.Join(msg.Nicks, " ")}
}

func (msg *IsOnMessage) Validate(*support.ServerSupport) error {
	if len(msg.Nicks) == 0 {
		return invalid(KindIsOn, "no nick given")
	}
	return nil
}

// Monitor actions
const (
	MonitorAdd    = "+"
	MonitorRemove = "-"
	MonitorClear  = "C"
	MonitorList   = "L"
	MonitorStatus = "S"
)

// MonitorMessage edits or queries the server-side MONITOR list
type MonitorMessage struct {
	Base
	Action string
	Nicks  []string
}

func (*MonitorMessage) Kind() Kind { return KindMonitor }

func (msg *MonitorMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "MONITOR")
}

func (msg *MonitorMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Action = param(m.Params, 0)
	msg.Nicks = splitList(param(m.Params, 1))
}

func (msg *MonitorMessage) Params() (string, []string) {
	if len(msg.Nicks) == 0 {
		return "MONITOR", []string{msg.Action}
	}
	return "MONITOR", []string{msg.Action, joinList(msg.Nicks)}
}

func (msg *MonitorMessage) Validate(s *support.ServerSupport) error {
	if s != nil {
		if _, monitors := s.Presence(); monitors == 0 {
			return invalid(KindMonitor, "server does not support MONITOR")
		}
	}
	switch msg.Action {
	case MonitorAdd, MonitorRemove:
		if len(msg.Nicks) == 0 {
			return invalid(KindMonitor, "no nick given")
		}
	case MonitorClear, MonitorList, MonitorStatus:
	default:
		return invalid(KindMonitor, "unknown action %q", msg.Action)
	}
	return nil
}

// WatchMessage edits the server-side WATCH list
type WatchMessage struct {
	Base
	Added   []string
	Removed []string
}

func (*WatchMessage) Kind() Kind { return KindWatch }

func (msg *WatchMessage) CanParse(m *ircmsg.Message) bool {
	return isCommand(m, "WATCH")
}

func (msg *WatchMessage) Parse(m *ircmsg.Message) {
	msg.parseBase(m)
	msg.Added, msg.Removed = nil, nil
	for _, p := range m.Params {
		for _, entry := range strings.Fields(p) {
			switch {
			case strings.HasPrefix(entry, "+"):
				msg.Added = append(msg.Added, entry[1:])
			case strings.HasPrefix(entry, "-"):
				msg.Removed = append(msg.Removed, entry[1:])
			}
		}
	}
}

func (msg *WatchMessage) Params() (string, []string) {
	params := make([]string, 0, len(msg.Added)+len(msg.Removed))
	for _, nick := range msg.Added {
		params = append(params, "+"+nick)
	}
	for _, nick := range msg.Removed {
		params = append(params, "-"+nick)
	}
	return "WATCH", params
}

func (msg *WatchMessage) Validate(s *support.ServerSupport) error {
	if s != nil {
		if watches, _ := s.Presence(); watches <= 0 {
			return invalid(KindWatch, "server does not support WATCH")
		}
	}
	if len(msg.Added)+len(msg.Removed) == 0 {
		return invalid(KindWatch, "no nick given")
	}
	return nil
}

// IsOnReplyMessage (303) lists the queried nicks that are online
type IsOnReplyMessage struct {
	NumericBase
	Nicks []string
}

func (*IsOnReplyMessage) Kind() Kind { return KindIsOnReply }

func (msg *IsOnReplyMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplIsOn)
}

func (msg *IsOnReplyMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nicks = strings.Fields(param(m.Params, 1))
}

func (msg *IsOnReplyMessage) Params() (string, []string) {
	return msg.numericParams(RplIsOn, strings.Join(msg.Nicks, " "))
}

// watchReply holds the shared layout of the WATCH numerics:
// nick user host timestamp :text
type watchReply struct {
	NumericBase
	User      *model.User
	Timestamp string
	Text      string
}

func (msg *watchReply) parseWatch(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.User = model.NewUser(param(m.Params, 1))
	if userName := param(m.Params, 2); userName != "" && userName != "*" {
		msg.User.SetUserName(userName)
	}
	if host := param(m.Params, 3); host != "" && host != "*" {
		msg.User.SetHostName(host)
	}
	msg.Timestamp = param(m.Params, 4)
	msg.Text = param(m.Params, 5)
}

func (msg *watchReply) watchParams() (string, []string) {
	user := msg.User
	if user == nil {
		user = model.NewUser("")
	}
	userName, host := user.UserName(), user.HostName()
	if userName == "" {
		userName = "*"
	}
	if host == "" {
		host = "*"
	}
	timestamp := msg.Timestamp
	if timestamp == "" {
		timestamp = "0"
	}
	return msg.numericParams(msg.Code, user.Nick(), userName, host, timestamp, msg.Text)
}

// Changed reports whether the reply announces a change (600, 601) rather
// than the status at the time the nick was added (604, 605)
func (msg *watchReply) Changed() bool {
	return msg.Code == RplLogOn || msg.Code == RplLogOff
}

// WatchOnlineMessage (600, 604) reports a watched user online
type WatchOnlineMessage struct {
	watchReply
}

func (*WatchOnlineMessage) Kind() Kind { return KindWatchOnline }

func (msg *WatchOnlineMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplLogOn) || msg.canParseCode(m, RplNowOn)
}

func (msg *WatchOnlineMessage) Parse(m *ircmsg.Message) { msg.parseWatch(m) }

func (msg *WatchOnlineMessage) Params() (string, []string) {
	if msg.Code == 0 {
		msg.Code = RplNowOn
	}
	return msg.watchParams()
}

// WatchOfflineMessage (601, 605) reports a watched user offline
type WatchOfflineMessage struct {
	watchReply
}

func (*WatchOfflineMessage) Kind() Kind { return KindWatchOffline }

func (msg *WatchOfflineMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplLogOff) || msg.canParseCode(m, RplNowOff)
}

func (msg *WatchOfflineMessage) Parse(m *ircmsg.Message) { msg.parseWatch(m) }

func (msg *WatchOfflineMessage) Params() (string, []string) {
	if msg.Code == 0 {
		msg.Code = RplNowOff
	}
	return msg.watchParams()
}

// MonitorOnlineMessage (730) lists monitored users that are online, as masks
type MonitorOnlineMessage struct {
	NumericBase
	Users []*model.User
}

func (*MonitorOnlineMessage) Kind() Kind { return KindMonitorOnline }

func (msg *MonitorOnlineMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplMonOnline)
}

func (msg *MonitorOnlineMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Users = nil
	for _, mask := range splitList(param(m.Params, 1)) {
		msg.Users = append(msg.Users, model.ParseUser(mask))
	}
}

func (msg *MonitorOnlineMessage) Params() (string, []string) {
	masks := make([]string, 0, len(msg.Users))
	for _, user := range msg.Users {
		masks = append(masks, user.String())
	}
	return msg.numericParams(RplMonOnline, joinList(masks))
}

// MonitorOfflineMessage (731) lists monitored nicks that are offline
type MonitorOfflineMessage struct {
	NumericBase
	Nicks []string
}

func (*MonitorOfflineMessage) Kind() Kind { return KindMonitorOffline }

func (msg *MonitorOfflineMessage) CanParse(m *ircmsg.Message) bool {
	return msg.canParseCode(m, RplMonOffline)
}

func (msg *MonitorOfflineMessage) Parse(m *ircmsg.Message) {
	msg.parseNumeric(m)
	msg.Nicks = splitList(param(m.Params, 1))
}

func (msg *MonitorOfflineMessage) Params() (string, []string) {
	return msg.numericParams(RplMonOffline, joinList(msg.Nicks))
}
