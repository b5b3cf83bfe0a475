package model

import (
	"sync"
	"time"
)

// JournalEntry is one item recorded in a journal
type JournalEntry struct {
	Time time.Time
	Item any
}

// Journal is an append-only, insertion-ordered log of entries
type Journal struct {
	mu      sync.RWMutex
	entries []JournalEntry
	now     func() time.Time
}

// Add appends an item stamped with the current time
func (j *Journal) Add(item any) JournalEntry {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	entry := JournalEntry{Time: now(), Item: item}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
	return entry
}

// Entries returns a copy of all entries in insertion order
func (j *Journal) Entries() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]JournalEntry(nil), j.entries...)
}

// Len returns the number of entries
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Last returns the most recent entry
func (j *Journal) Last() (JournalEntry, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.entries) == 0 {
		return JournalEntry{}, false
	}
	return j.entries[len(j.entries)-1], true
}
