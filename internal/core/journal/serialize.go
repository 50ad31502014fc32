package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

// entryRecord is the on-disk JSON-lines shape (spec.md §6 "Journal file"):
// one {sequence,timestamp_ms,operation,checksum} object per line, the
// operation discriminator tag a snake_case string.
type entryRecord struct {
	Sequence    uint64            `json:"sequence"`
	TimestampMs int64             `json:"timestamp_ms"`
	Operation   operationRecord   `json:"operation"`
	Checksum    uint64            `json:"checksum"`
}

type operationRecord struct {
	Kind        string `json:"kind"`
	AgentName   string `json:"agent_name,omitempty"`
	Reason      string `json:"reason,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Result      string `json:"result,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	ConfigKey   string `json:"config_key,omitempty"`
	ConfigValue string `json:"config_value,omitempty"`
}

var kindByTag = map[string]OperationKind{
	"agent_registered":    AgentRegistered,
	"agent_transitioned":  AgentTransitioned,
	"agent_removed":       AgentRemoved,
	"task_created":        TaskCreated,
	"task_status_changed": TaskStatusChanged,
	"task_completed":      TaskCompleted,
	"message_sent":        MessageSent,
	"message_delivered":   MessageDelivered,
	"session_created":     SessionCreated,
	"session_killed":      SessionKilled,
	"config_changed":      ConfigChanged,
}

func toRecord(e Entry) entryRecord {
	op := e.Operation
	return entryRecord{
		Sequence:    e.Sequence,
		TimestampMs: e.TimestampMs,
		Checksum:    e.Checksum,
		Operation: operationRecord{
			Kind: op.Kind.String(), AgentName: op.AgentName, Reason: op.Reason,
			TaskID: op.TaskID, From: op.From, To: op.To, Result: op.Result,
			MessageID: op.MessageID, Recipient: op.Recipient, SessionName: op.SessionName,
			ConfigKey: op.ConfigKey, ConfigValue: op.ConfigValue,
		},
	}
}

func fromRecord(r entryRecord) (Entry, error) {
	kind, ok := kindByTag[r.Operation.Kind]
	if !ok {
		return Entry{}, fmt.Errorf("unknown operation kind %q", r.Operation.Kind)
	}
	op := Operation{
		Kind: kind, AgentName: r.Operation.AgentName, Reason: r.Operation.Reason,
		TaskID: r.Operation.TaskID, From: r.Operation.From, To: r.Operation.To, Result: r.Operation.Result,
		MessageID: r.Operation.MessageID, Recipient: r.Operation.Recipient, SessionName: r.Operation.SessionName,
		ConfigKey: r.Operation.ConfigKey, ConfigValue: r.Operation.ConfigValue,
	}
	return Entry{Sequence: r.Sequence, TimestampMs: r.TimestampMs, Operation: op, Checksum: r.Checksum}, nil
}

// ToJSONLines renders entries as JSON-lines, one record per line.
func ToJSONLines(entries []Entry) (string, error) {
	var sb strings.Builder
	for _, e := range entries {
		b, err := json.Marshal(toRecord(e))
		if err != nil {
			return "", err
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// FromJSONLines parses JSON-lines into entries, tolerating blank lines
// (spec.md §6 "Journal file").
func FromJSONLines(text string) ([]Entry, error) {
	var out []Entry
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r entryRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, err
		}
		e, err := fromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type snapshotRecord struct {
	Version      string      `json:"version"`
	TimestampMs  int64       `json:"timestamp_ms"`
	Agents       []AgentSnap `json:"agents"`
	Tasks        []TaskSnap  `json:"tasks"`
	Sessions     []string    `json:"sessions"`
	SettingsHash string      `json:"settings_hash"`
	MessageCount int         `json:"message_count"`
}

func toSnapshotRecord(s SystemSnapshot) snapshotRecord {
	return snapshotRecord{
		Version: s.Version, TimestampMs: s.TimestampMs, Agents: s.Agents, Tasks: s.Tasks,
		Sessions: s.Sessions, SettingsHash: s.SettingsHash, MessageCount: s.MessageCount,
	}
}

// ToJSON renders a canonical JSON serialisation of the snapshot
// (spec.md §6 "Snapshot file").
func ToJSON(s SystemSnapshot) (string, error) {
	b, err := json.Marshal(toSnapshotRecord(s))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSON parses a snapshot previously produced by ToJSON.
func FromJSON(text string) (SystemSnapshot, error) {
	var r snapshotRecord
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return SystemSnapshot{}, err
	}
	return SystemSnapshot{
		Version: r.Version, TimestampMs: r.TimestampMs, Agents: r.Agents, Tasks: r.Tasks,
		Sessions: r.Sessions, SettingsHash: r.SettingsHash, MessageCount: r.MessageCount,
	}, nil
}

// SnapshotChecksum computes the 16-hex-digit FNV-1a 64 hash of the
// snapshot's canonical JSON serialisation (spec.md §6).
func SnapshotChecksum(s SystemSnapshot) (string, error) {
	canonical, err := ToJSON(s)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	h.Write([]byte(canonical))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
