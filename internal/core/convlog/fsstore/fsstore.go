// Package fsstore is the filesystem-backed convlog.Store the host wires in
// production: each agent's conversation log lives under a per-agent
// directory as a set of "<date>-<agent>.md" files, append-only.
package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Store implements convlog.Store over the local filesystem.
type Store struct {
	perm os.FileMode
}

// New creates a filesystem store. Directories are created on demand with
// 0o755, files opened for append with 0o644.
func New() *Store {
	return &Store{perm: 0o644}
}

// Append opens path for append (creating it and its parent directory if
// necessary) and writes data, returning the number of bytes written.
func (s *Store) Append(path string, data []byte) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.perm)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return f.Write(data)
}

// Delete removes a log file. A missing file is not an error.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete log file: %w", err)
	}
	return nil
}

var logFileRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-.+\.md$`)

// ListDates lists the dates an agent has a log file for, derived from the
// "<date>-<agent>.md" filenames under the agent's directory. The agent
// argument is read as the directory path itself; Tailer.Cleanup passes the
// agent name, which names the log directory only when the Tailer's dirFor
// hook is unset. A missing directory yields no dates and no error.
func (s *Store) ListDates(agent string) ([]string, error) {
	entries, err := os.ReadDir(agent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list log dir: %w", err)
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := logFileRe.FindStringSubmatch(e.Name()); m != nil {
			dates = append(dates, m[1])
		}
	}
	return dates, nil
}

// Read returns the full content of a log file, used by the copilot shadow
// sync reader.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read log file: %w", err)
	}
	return string(data), nil
}
