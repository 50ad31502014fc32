// Package journal implements the write-ahead log of spec.md §4.10: a
// bounded, checksum-protected, monotonically sequenced append log of
// Operations, with compaction and JSON-lines serialisation.
package journal

import (
	"fmt"
	"hash/fnv"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Entry is one journalled record.
type Entry struct {
	Sequence    uint64
	TimestampMs int64
	Operation   Operation
	Checksum    uint64
}

// checksum computes the deterministic FNV-1a 64 hash of
// "sequence:timestamp:serialised(op)" (spec.md §3, §9).
func checksum(seq uint64, ts int64, op Operation) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d:%s", seq, ts, op.Serialize())
	return h.Sum64()
}

// VerifyChecksum reports whether e.Checksum matches the recomputed
// checksum of its own fields (spec.md §8 invariant 6).
func (e Entry) VerifyChecksum() bool {
	return e.Checksum == checksum(e.Sequence, e.TimestampMs, e.Operation)
}

// Journal is the bounded append-only log.
type Journal struct {
	entries    []Entry
	nextSeq    uint64
	maxEntries int
}

// New creates an empty Journal capped at maxEntries (0 = unbounded).
// Sequences start at 0 (spec.md §8 scenario E: 9 entries number 0..8, so
// EntriesAfter(7) yields exactly entry 8).
func New(maxEntries int) *Journal {
	return &Journal{nextSeq: 0, maxEntries: maxEntries}
}

// Append assigns the next monotonic sequence, computes the checksum, and
// appends the entry, evicting the oldest entry if over capacity
// (spec.md §4.10, §5 "Resource caps").
func (j *Journal) Append(op Operation, now int64) Entry {
	e := Entry{Sequence: j.nextSeq, TimestampMs: now, Operation: op}
	e.Checksum = checksum(e.Sequence, e.TimestampMs, op)
	j.nextSeq++
	j.entries = append(j.entries, e)
	if j.maxEntries > 0 && len(j.entries) > j.maxEntries {
		j.entries = j.entries[len(j.entries)-j.maxEntries:]
	}
	return e
}

// Entries returns all retained entries, oldest first.
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int { return len(j.entries) }

// EntriesSince returns entries with sequence >= seq.
func (j *Journal) EntriesSince(seq uint64) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Sequence >= seq {
			out = append(out, e)
		}
	}
	return out
}

// EntriesAfter returns entries with sequence > seq (spec.md §4.10
// "RecoveryEngine.plan" uses this form to select replay candidates).
func (j *Journal) EntriesAfter(seq uint64) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.Sequence > seq {
			out = append(out, e)
		}
	}
	return out
}

// EntriesAfterTimestamp returns entries with timestamp_ms > ts.
func (j *Journal) EntriesAfterTimestamp(ts int64) []Entry {
	var out []Entry
	for _, e := range j.entries {
		if e.TimestampMs > ts {
			out = append(out, e)
		}
	}
	return out
}

// TruncateBefore discards entries with sequence < seq.
func (j *Journal) TruncateBefore(seq uint64) {
	kept := j.entries[:0:0]
	for _, e := range j.entries {
		if e.Sequence >= seq {
			kept = append(kept, e)
		}
	}
	j.entries = kept
}

// Compact collapses consecutive dominated entries per spec.md §4.10:
// adjacent TaskStatusChanged entries for the same task collapse to the
// later; adjacent ConfigChanged entries for the same key collapse to the
// later. Other kinds never collapse. The surviving entry is the later one
// unchanged (sequence, timestamp, payload and checksum), so it still
// verifies.
func (j *Journal) Compact() {
	if len(j.entries) == 0 {
		return
	}
	out := make([]Entry, 0, len(j.entries))
	out = append(out, j.entries[0])
	for _, cur := range j.entries[1:] {
		if dominated(out[len(out)-1], cur) {
			out[len(out)-1] = cur
			continue
		}
		out = append(out, cur)
	}
	j.entries = out
}

func dominated(prev, cur Entry) bool {
	if prev.Operation.Kind != cur.Operation.Kind {
		return false
	}
	switch cur.Operation.Kind {
	case TaskStatusChanged:
		return prev.Operation.TaskID == cur.Operation.TaskID
	case ConfigChanged:
		return prev.Operation.ConfigKey == cur.Operation.ConfigKey
	default:
		return false
	}
}

// ValidateEntries returns the indices whose stored checksum does not
// match the recomputed checksum (spec.md §4.10 "validate_journal_entries").
func (j *Journal) ValidateEntries() []int {
	var bad []int
	for i, e := range j.entries {
		if !e.VerifyChecksum() {
			bad = append(bad, i)
		}
	}
	return bad
}

// NewFromEntries rehydrates a Journal from previously serialised entries,
// e.g. after reading a JSON-lines file (spec.md §6 "Journal file").
func NewFromEntries(entries []Entry, maxEntries int) *Journal {
	j := &Journal{maxEntries: maxEntries}
	var max uint64
	for _, e := range entries {
		if e.Sequence > max {
			max = e.Sequence
		}
	}
	j.entries = append(j.entries, entries...)
	j.nextSeq = max + 1
	return j
}

// errNoEntry is returned by lookups for entries that have been truncated
// or never existed.
var errNoEntry = fmt.Errorf("%w: journal entry", coreerr.ErrNotFound)

// EntryAt locates an entry by sequence.
func (j *Journal) EntryAt(seq uint64) (Entry, error) {
	for _, e := range j.entries {
		if e.Sequence == seq {
			return e, nil
		}
	}
	return Entry{}, errNoEntry
}
