package model

import (
	"strings"
	"sync"

	"github.com/ergochat/irc-go/ircmsg"
)

// OnlineStatus is the presence of a user on the network
type OnlineStatus int

const (
	Online OnlineStatus = iota
	Away
	Offline
)

func (s OnlineStatus) String() string {
	switch s {
	case Away:
		return "away"
	case Offline:
		return "offline"
	}
	return "online"
}

// optional holds a value together with whether it has been assigned since the
// owning User was created or reset.
type optional[T comparable] struct {
	value T
	set   bool
}

func (o *optional[T]) put(v T) {
	o.value = v
	o.set = true
}

// fill assigns src to o only when o is still unset
func (o *optional[T]) fill(src optional[T]) {
	if src.set && !o.set {
		*o = src
	}
}

// take assigns src to o whenever src has been set
func (o *optional[T]) take(src optional[T]) {
	if src.set {
		*o = src
	}
}

// User is an identity record for the local user or a peer
type User struct {
	mu sync.RWMutex

	nick         optional[string]
	userName     optional[string]
	hostName     optional[string]
	realName     optional[string]
	password     optional[string]
	awayMessage  optional[string]
	serverName   optional[string]
	onlineStatus optional[OnlineStatus]
	ircOperator  optional[bool]

	modes ModeSet
}

// NewUser creates a user with the given nick
func NewUser(nick string) *User {
	u := &User{}
	if nick != "" {
		u.nick.put(nick)
	}
	return u
}

// ParseUser builds a user from a nick!user@host mask. A leading channel status
// symbol on the nick (as found in NAMES replies) is dropped.
func ParseUser(mask string) *User {
	u := &User{}
	u.Parse(mask)
	return u
}

// Parse resets the user and fills it from a nick!user@host mask
func (u *User) Parse(mask string) {
	u.Reset()
	if mask == "" {
		return
	}

	if len(mask) > 1 && IsStatusSymbol(mask[:1]) {
		mask = mask[1:]
	}
	nuh, err := ircmsg.ParseNUH(mask)
	if err != nil {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if nuh.Host != "" {
		u.hostName.put(nuh.Host)
	}
	if nuh.User != "" {
		u.userName.put(nuh.User)
	}
	if nuh.Name != "" {
		u.nick.put(nuh.Name)
	}
}

// Reset clears every field and its set marker
func (u *User) Reset() {
	u.mu.Lock()
	u.nick = optional[string]{}
	u.userName = optional[string]{}
	u.hostName = optional[string]{}
	u.realName = optional[string]{}
	u.password = optional[string]{}
	u.awayMessage = optional[string]{}
	u.serverName = optional[string]{}
	u.onlineStatus = optional[OnlineStatus]{}
	u.ircOperator = optional[bool]{}
	u.mu.Unlock()
	u.modes.Clear()
}

func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick.value
}

func (u *User) SetNick(v string) {
	u.mu.Lock()
	u.nick.put(v)
	u.mu.Unlock()
}

func (u *User) UserName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.userName.value
}

func (u *User) SetUserName(v string) {
	u.mu.Lock()
	u.userName.put(v)
	u.mu.Unlock()
}

func (u *User) HostName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.hostName.value
}

func (u *User) SetHostName(v string) {
	u.mu.Lock()
	u.hostName.put(v)
	u.mu.Unlock()
}

func (u *User) RealName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.realName.value
}

func (u *User) SetRealName(v string) {
	u.mu.Lock()
	u.realName.put(v)
	u.mu.Unlock()
}

func (u *User) Password() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.password.value
}

func (u *User) SetPassword(v string) {
	u.mu.Lock()
	u.password.put(v)
	u.mu.Unlock()
}

func (u *User) AwayMessage() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.awayMessage.value
}

func (u *User) SetAwayMessage(v string) {
	u.mu.Lock()
	u.awayMessage.put(v)
	u.mu.Unlock()
}

func (u *User) ServerName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.serverName.value
}

func (u *User) SetServerName(v string) {
	u.mu.Lock()
	u.serverName.put(v)
	u.mu.Unlock()
}

func (u *User) OnlineStatus() OnlineStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.onlineStatus.value
}

func (u *User) SetOnlineStatus(v OnlineStatus) {
	u.mu.Lock()
	u.onlineStatus.put(v)
	u.mu.Unlock()
}

func (u *User) IrcOperator() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.ircOperator.value
}

func (u *User) SetIrcOperator(v bool) {
	u.mu.Lock()
	u.ircOperator.put(v)
	u.mu.Unlock()
}

// Modes returns the user's mode set
func (u *User) Modes() *ModeSet {
	return &u.modes
}

// IsNickSet reports whether the nick has been assigned
func (u *User) IsNickSet() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick.set
}

// snapshot copies the optional fields of u under its read lock
func (u *User) snapshot() User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return User{
		nick:         u.nick,
		userName:     u.userName,
		hostName:     u.hostName,
		realName:     u.realName,
		password:     u.password,
		awayMessage:  u.awayMessage,
		serverName:   u.serverName,
		onlineStatus: u.onlineStatus,
		ircOperator:  u.ircOperator,
	}
}

// MergeWith fills the fields of u that have never been set with the values
// other has set. Fields already set on u are left alone.
func (u *User) MergeWith(other *User) {
	if other == nil || other == u {
		return
	}
	src := other.snapshot()

	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick.fill(src.nick)
	u.userName.fill(src.userName)
	u.hostName.fill(src.hostName)
	u.realName.fill(src.realName)
	u.password.fill(src.password)
	u.awayMessage.fill(src.awayMessage)
	u.serverName.fill(src.serverName)
	u.onlineStatus.fill(src.onlineStatus)
	u.ircOperator.fill(src.ircOperator)
}

// CopyFrom overwrites u with every field other has set
func (u *User) CopyFrom(other *User) {
	if other == nil || other == u {
		return
	}
	src := other.snapshot()

	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick.take(src.nick)
	u.userName.take(src.userName)
	u.hostName.take(src.hostName)
	u.realName.take(src.realName)
	u.password.take(src.password)
	u.awayMessage.take(src.awayMessage)
	u.serverName.take(src.serverName)
	u.onlineStatus.take(src.onlineStatus)
	u.ircOperator.take(src.ircOperator)
}

// String returns nick[!user][@host]
func (u *User) String() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	var b strings.Builder
	b.WriteString(u.nick.value)
	if u.userName.value != "" {
		b.WriteString("!")
		b.WriteString(u.userName.value)
	}
	if u.hostName.value != "" {
		b.WriteString("@")
		b.WriteString(u.hostName.value)
	}
	return b.String()
}

// Mask returns nick!user@host with "*" for missing parts
func (u *User) Mask() string {
	star := func(s string) string {
		if s == "" {
			return "*"
		}
		return s
	}
	return star(u.Nick()) + "!" + star(u.UserName()) + "@" + star(u.HostName())
}

// IsMatch reports whether u matches a wildcard mask such as *!*@host
func (u *User) IsMatch(wildcard *User) bool {
	if wildcard == nil {
		return false
	}
	return wildMatch(wildcard.Nick(), u.Nick()) &&
		wildMatch(wildcard.UserName(), u.UserName()) &&
		wildMatch(wildcard.HostName(), u.HostName())
}

// NickEquals compares nicks case-insensitively
func NickEquals(a, b string) bool {
	return strings.EqualFold(a, b)
}

// wildMatch matches s against a pattern of '*' and '?' case-insensitively
func wildMatch(pattern, s string) bool {
	pattern = strings.ToLower(pattern)
	s = strings.ToLower(s)
	if pattern == "" {
		return s == ""
	}
	var px, sx int
	nextP, nextS := -1, -1
	for px < len(pattern) || sx < len(s) {
		if px < len(pattern) {
			switch c := pattern[px]; c {
			case '*':
				nextP = px
				nextS = sx + 1
				px++
				continue
			case '?':
				if sx < len(s) {
					px++
					sx++
					continue
				}
			default:
				if sx < len(s) && s[sx] == c {
					px++
					sx++
					continue
				}
			}
		}
		if nextS > 0 && nextS <= len(s) {
			px = nextP
			sx = nextS
			continue
		}
		return false
	}
	return true
}
