package model

import (
	"sort"
	"strings"
	"sync"
)

// ChannelStatus is a member's privilege marker within a channel
type ChannelStatus string

const (
	StatusNone     ChannelStatus = ""
	StatusOwner    ChannelStatus = "~"
	StatusAdmin    ChannelStatus = "&"
	StatusOperator ChannelStatus = "@"
	StatusHalfOp   ChannelStatus = "%"
	StatusVoice    ChannelStatus = "+"
)

// statusRank orders statuses from most to least privileged
var statusRank = map[ChannelStatus]int{
	StatusOwner:    5,
	StatusAdmin:    4,
	StatusOperator: 3,
	StatusHalfOp:   2,
	StatusVoice:    1,
}

// IsStatusSymbol reports whether s is a known channel status symbol
func IsStatusSymbol(s string) bool {
	_, ok := statusRank[ChannelStatus(s)]
	return ok
}

// Symbol returns the prefix character for the status, or "" for none
func (s ChannelStatus) Symbol() string {
	return string(s)
}

// Outranks reports whether s is more privileged than other
func (s ChannelStatus) Outranks(other ChannelStatus) bool {
	return statusRank[s] > statusRank[other]
}

// SplitStatus separates a leading status symbol from a nick, e.g. "@bob"
func SplitStatus(nick string) (ChannelStatus, string) {
	if len(nick) > 1 && IsStatusSymbol(nick[:1]) {
		return ChannelStatus(nick[:1]), nick[1:]
	}
	return StatusNone, nick
}

// Mode is a single user or channel mode letter with its argument, if any
type Mode struct {
	Letter   byte
	Argument string
}

func (m Mode) String() string {
	if m.Argument == "" {
		return string(m.Letter)
	}
	return string(m.Letter) + " " + m.Argument
}

// ModeSet is a concurrency-safe collection of modes. List modes such as bans
// may hold the same letter several times with different arguments.
type ModeSet struct {
	mu    sync.RWMutex
	modes []Mode
}

// Add inserts a mode unless an identical one is present
func (s *ModeSet) Add(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.modes {
		if existing == m {
			return
		}
	}
	s.modes = append(s.modes, m)
}

// Remove deletes the mode with the given letter and argument. An empty
// argument removes every mode with that letter.
func (s *ModeSet) Remove(letter byte, argument string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.modes[:0]
	for _, m := range s.modes {
		if m.Letter == letter && (argument == "" || m.Argument == argument) {
			continue
		}
		kept = append(kept, m)
	}
	s.modes = kept
}

// Has reports whether any mode with the letter is present
func (s *ModeSet) Has(letter byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.modes {
		if m.Letter == letter {
			return true
		}
	}
	return false
}

// ResetWith replaces the contents of the set
func (s *ModeSet) ResetWith(modes []Mode) {
	s.mu.Lock()
	s.modes = append([]Mode(nil), modes...)
	s.mu.Unlock()
}

// Clear empties the set
func (s *ModeSet) Clear() {
	s.mu.Lock()
	s.modes = nil
	s.mu.Unlock()
}

// List returns a copy of the modes
func (s *ModeSet) List() []Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Mode(nil), s.modes...)
}

// String renders the letters as "+abc"
func (s *ModeSet) String() string {
	list := s.List()
	if len(list) == 0 {
		return ""
	}
	letters := make([]string, 0, len(list))
	for _, m := range list {
		letters = append(letters, string(m.Letter))
	}
	sort.Strings(letters)
	return "+" + strings.Join(letters, "")
}
