// Package storage keeps the bridge's flat files: the relay log, the
// operator command audit and the last server MOTD.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxEntries = 500

	relayFile = "relay.txt"
	auditFile = "audit.txt"
	motdFile  = "motd.txt"
)

// LoadRelayLog reads relayed chat lines, newest first
func LoadRelayLog(dataDir string) ([]string, error) {
	lines, err := readLines(filepath.Join(dataDir, relayFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	// the file stores oldest first
	return reverse(lines), nil
}

// SaveRelayLog writes relayed chat lines given newest first
func SaveRelayLog(dataDir string, entries []string) error {
	return writeLines(filepath.Join(dataDir, relayFile), reverse(entries))
}

// AddRelayEntry prepends an entry, dropping the oldest past the limit
func AddRelayEntry(entries []string, entry string) []string {
	entries = append([]string{entry}, entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	return entries
}

// LoadAudit reads the operator command audit, oldest first
func LoadAudit(dataDir string) ([]string, error) {
	lines, err := readLines(filepath.Join(dataDir, auditFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// SaveAudit writes the audit, keeping the newest entries
func SaveAudit(dataDir string, entries []string) error {
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	return writeLines(filepath.Join(dataDir, auditFile), entries)
}

// AddAudit appends an entry, dropping the oldest past the limit
func AddAudit(entries []string, entry string) []string {
	entries = append(entries, entry)
	if len(entries) > maxEntries {
		entries = entries[1:]
	}
	return entries
}

// MOTD is a snapshot of a server's message of the day
type MOTD struct {
	Server   string
	Captured time.Time
	Lines    []string
}

// LoadMOTD reads the last MOTD snapshot; a missing file is an empty MOTD
func LoadMOTD(dataDir string) (*MOTD, error) {
	lines, err := readLines(filepath.Join(dataDir, motdFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &MOTD{}, nil
		}
		return nil, err
	}
	if len(lines) == 0 {
		return &MOTD{}, nil
	}

	// first line is "server%%captured"
	server, captured, ok := strings.Cut(lines[0], "%%")
	if !ok {
		return &MOTD{Lines: lines}, nil
	}
	motd := &MOTD{Server: server, Lines: lines[1:]}
	if t, err := time.Parse(time.RFC3339, captured); err == nil {
		motd.Captured = t
	}
	return motd, nil
}

// SaveMOTD writes a MOTD snapshot
func SaveMOTD(dataDir string, motd *MOTD) error {
	header := fmt.Sprintf("%s%%%%%s", motd.Server, motd.Captured.UTC().Format(time.RFC3339))
	return writeLines(filepath.Join(dataDir, motdFile), append([]string{header}, motd.Lines...))
}

// EnsureDir creates the data directory if needed
func EnsureDir(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Resolve returns the path of name inside dataDir, refusing names that
// would escape it
func Resolve(dataDir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(dataDir, name), nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}

func reverse(s []string) []string {
	result := make([]string, len(s))
	for i, v := range s {
		result[len(s)-1-i] = v
	}
	return result
}
