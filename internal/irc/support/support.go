// Package support tracks the capabilities a server announces in its
// RPL_ISUPPORT (005) replies.
package support

import (
	"strconv"
	"strings"
	"sync"
)

// ExtendedList is the set of LIST options a server accepts (ELIST)
type ExtendedList int

const (
	ListMask         ExtendedList = 1 << iota // M: mask search
	ListNotMask                               // N: negated mask search
	ListUserCount                             // U: user count bounds
	ListCreationTime                          // C: channel creation time
	ListTopic                                 // T: topic set time
)

var elistTokens = map[rune]ExtendedList{
	'M': ListMask,
	'N': ListNotMask,
	'U': ListUserCount,
	'C': ListCreationTime,
	'T': ListTopic,
}

func (e ExtendedList) String() string {
	var b strings.Builder
	for _, r := range "MNUCT" {
		if e&elistTokens[r] != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// defaults used before a server announces anything and when a key is negated
var defaults = map[string]string{
	"PREFIX":      "(ov)@+",
	"CHANTYPES":   "#&",
	"CHANMODES":   "b,k,l,imnpst",
	"CASEMAPPING": "rfc1459",
	"MODES":       "3",
	"NICKLEN":     "9",
	"CHANNELLEN":  "200",
}

// ServerSupport is the capability table learned from the server. Limits of
// -1 mean the server did not announce one.
type ServerSupport struct {
	mu sync.RWMutex

	ChannelStatuses    string // PREFIX, e.g. "(ov)@+"
	StatusMessages     string // STATUSMSG
	ChannelTypes       string // CHANTYPES
	ListModes          string // CHANMODES group A
	ParamModes         string // CHANMODES group B
	ParamWhenSetModes  string // CHANMODES group C
	FlagModes          string // CHANMODES group D
	MaxModes           int
	MaxChannels        int
	ChannelLimits      map[string]int
	MaxNickLength      int
	MaxTopicLength     int
	MaxKickLength      int
	MaxChannelLength   int
	MaxAwayLength      int
	MaxBans            int
	MaxWatches         int
	MaxMonitors        int
	MaxTargets         map[string]int
	NetworkName        string
	CaseMapping        string
	CharacterSet       string
	BanExceptions      bool
	InviteExceptions   bool
	Knock              bool
	CallerID           bool
	WhoX               bool
	SafeList           bool
	UserIP             bool
	Penalty            bool
	ForcedNickChanges  bool
	ChannelMessages    bool // CPRIVMSG
	ChannelNotices     bool // CNOTICE
	ExtendedList       ExtendedList
	Unknown            map[string]string
}

// New returns a table holding the defaults
func New() *ServerSupport {
	s := &ServerSupport{}
	s.reset()
	return s
}

func (s *ServerSupport) reset() {
	s.StatusMessages = ""
	s.MaxChannels = -1
	s.ChannelLimits = make(map[string]int)
	s.MaxTopicLength = -1
	s.MaxKickLength = -1
	s.MaxAwayLength = -1
	s.MaxBans = -1
	s.MaxWatches = -1
	s.MaxMonitors = 0
	s.MaxTargets = make(map[string]int)
	s.NetworkName = ""
	s.CharacterSet = ""
	s.BanExceptions = false
	s.InviteExceptions = false
	s.Knock = false
	s.CallerID = false
	s.WhoX = false
	s.SafeList = false
	s.UserIP = false
	s.Penalty = false
	s.ForcedNickChanges = false
	s.ChannelMessages = false
	s.ChannelNotices = false
	s.ExtendedList = 0
	s.Unknown = make(map[string]string)
	for key, value := range defaults {
		s.apply(key, value)
	}
}

// Reset restores the defaults, e.g. on reconnect
func (s *ServerSupport) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

// Load applies the tokens of one 005 reply. Tokens are KEY, KEY=VALUE or
// -KEY; a negated key reverts to its default.
func (s *ServerSupport) Load(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, "-") {
			key := strings.ToUpper(token[1:])
			s.unset(key)
			delete(s.Unknown, key)
			continue
		}
		key, value, _ := strings.Cut(token, "=")
		s.apply(strings.ToUpper(key), value)
	}
}

func (s *ServerSupport) apply(key, value string) {
	switch key {
	case "PREFIX":
		s.ChannelStatuses = value
	case "STATUSMSG", "WALLVOICES":
		s.StatusMessages = value
	case "CHANTYPES":
		s.ChannelTypes = value
	case "CHANMODES":
		groups := strings.Split(value, ",")
		for len(groups) < 4 {
			groups = append(groups, "")
		}
		s.ListModes, s.ParamModes, s.ParamWhenSetModes, s.FlagModes = groups[0], groups[1], groups[2], groups[3]
	case "MODES":
		s.MaxModes = atoi(value, 3)
	case "MAXCHANNELS":
		s.MaxChannels = atoi(value, -1)
	case "CHANLIMIT":
		s.ChannelLimits = parseLimits(value)
	case "MAXTARGETS", "TARGMAX":
		s.MaxTargets = parseLimits(value)
	case "NICKLEN", "MAXNICKLEN":
		s.MaxNickLength = atoi(value, 9)
	case "TOPICLEN":
		s.MaxTopicLength = atoi(value, -1)
	case "KICKLEN":
		s.MaxKickLength = atoi(value, -1)
	case "CHANNELLEN", "MAXCHANNELLEN":
		s.MaxChannelLength = atoi(value, 200)
	case "AWAYLEN":
		s.MaxAwayLength = atoi(value, -1)
	case "MAXBANS":
		s.MaxBans = atoi(value, -1)
	case "WATCH":
		s.MaxWatches = atoi(value, -1)
	case "MONITOR":
		s.MaxMonitors = atoi(value, -1)
	case "NETWORK":
		s.NetworkName = value
	case "CASEMAPPING":
		s.CaseMapping = strings.ToLower(value)
	case "CHARSET":
		s.CharacterSet = value
	case "EXCEPTS":
		s.BanExceptions = true
	case "INVEX":
		s.InviteExceptions = true
	case "KNOCK":
		s.Knock = true
	case "CALLERID", "ACCEPT":
		s.CallerID = true
	case "WHOX":
		s.WhoX = true
	case "SAFELIST":
		s.SafeList = true
	case "USERIP":
		s.UserIP = true
	case "PENALTY":
		s.Penalty = true
	case "FNC":
		s.ForcedNickChanges = true
	case "CPRIVMSG":
		s.ChannelMessages = true
	case "CNOTICE":
		s.ChannelNotices = true
	case "ELIST":
		s.ExtendedList = 0
		for _, r := range strings.ToUpper(value) {
			s.ExtendedList |= elistTokens[r]
		}
	default:
		s.Unknown[key] = value
	}
}

// unset restores key to its value before any announcement
func (s *ServerSupport) unset(key string) {
	if value, ok := defaults[key]; ok {
		s.apply(key, value)
		return
	}
	switch key {
	case "EXCEPTS":
		s.BanExceptions = false
	case "INVEX":
		s.InviteExceptions = false
	case "KNOCK":
		s.Knock = false
	case "CALLERID", "ACCEPT":
		s.CallerID = false
	case "WHOX":
		s.WhoX = false
	case "SAFELIST":
		s.SafeList = false
	case "USERIP":
		s.UserIP = false
	case "PENALTY":
		s.Penalty = false
	case "FNC":
		s.ForcedNickChanges = false
	case "CPRIVMSG":
		s.ChannelMessages = false
	case "CNOTICE":
		s.ChannelNotices = false
	case "MONITOR":
		s.MaxMonitors = 0
	default:
		s.apply(key, "")
	}
}

func atoi(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// parseLimits reads "#&:10,!:5" style lists. A missing number means no limit.
func parseLimits(value string) map[string]int {
	limits := make(map[string]int)
	for _, item := range strings.Split(value, ",") {
		key, num, ok := strings.Cut(item, ":")
		if !ok || key == "" {
			continue
		}
		limits[key] = atoi(num, -1)
	}
	return limits
}

// IsChannelName reports whether name starts with an announced channel prefix
func (s *ServerSupport) IsChannelName(name string) bool {
	if name == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.ContainsRune(s.ChannelTypes, rune(name[0]))
}

// StatusModes returns the PREFIX mode letters and their symbols, e.g.
// "ov" and "@+"
func (s *ServerSupport) StatusModes() (modes, symbols string) {
	s.mu.RLock()
	prefix := s.ChannelStatuses
	s.mu.RUnlock()
	if !strings.HasPrefix(prefix, "(") {
		return "", ""
	}
	modes, symbols, ok := strings.Cut(prefix[1:], ")")
	if !ok || len(modes) != len(symbols) {
		return "", ""
	}
	return modes, symbols
}

// ModeTakesArgument reports whether a channel mode letter consumes an
// argument when set (adding) or unset
func (s *ServerSupport) ModeTakesArgument(letter byte, adding bool) bool {
	modes, _ := s.StatusModes()
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case strings.IndexByte(modes, letter) >= 0:
		return true
	case strings.IndexByte(s.ListModes, letter) >= 0:
		return true
	case strings.IndexByte(s.ParamModes, letter) >= 0:
		return true
	case strings.IndexByte(s.ParamWhenSetModes, letter) >= 0:
		return adding
	}
	return false
}

// Supports reports whether the extended LIST option is available
func (s *ServerSupport) Supports(option ExtendedList) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ExtendedList&option == option
}

// Limits returns the nick, channel name, kick and topic length limits
func (s *ServerSupport) Limits() (nick, channel, kick, topic int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxNickLength, s.MaxChannelLength, s.MaxKickLength, s.MaxTopicLength
}

// Presence returns the WATCH list size (-1 when unsupported) and the
// MONITOR list size (0 when unsupported, -1 when unlimited)
func (s *ServerSupport) Presence() (watches, monitors int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxWatches, s.MaxMonitors
}

// AwayLength returns AWAYLEN, or -1 when unannounced
func (s *ServerSupport) AwayLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxAwayLength
}

// Types returns the channel prefix characters
func (s *ServerSupport) Types() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ChannelTypes
}

// Network returns the announced network name
func (s *ServerSupport) Network() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NetworkName
}

// Fold returns the casefolding function for the announced CASEMAPPING
func (s *ServerSupport) Fold() func(string) string {
	s.mu.RLock()
	mapping := s.CaseMapping
	s.mu.RUnlock()
	return FoldFunc(mapping)
}
