package journal

// Checkpoint pairs a full snapshot with the journal sequence it reflects
// (spec.md §3 "Checkpoint").
type Checkpoint struct {
	ID             string
	Snapshot       SystemSnapshot
	JournalSequence uint64
	TimestampMs    int64
}

// RecoveryPlan is the output of RecoveryEngine.plan (spec.md §4.10).
type RecoveryPlan struct {
	Checkpoint        *Checkpoint
	EntriesToReplay   []Entry
	EstimatedRecoveryMs int64
}

// RecoveryEngine selects a consistent checkpoint and plans replay.
type RecoveryEngine struct{}

// NewRecoveryEngine constructs a stateless RecoveryEngine.
func NewRecoveryEngine() RecoveryEngine { return RecoveryEngine{} }

// Plan searches checkpoints newest-first for the first whose snapshot is
// consistent; if found, the plan replays journal entries strictly after
// its journal_sequence, else it replays the whole journal from scratch
// (spec.md §4.10 "RecoveryEngine.plan").
func (RecoveryEngine) Plan(checkpoints []Checkpoint, j *Journal) RecoveryPlan {
	for i := len(checkpoints) - 1; i >= 0; i-- {
		cp := checkpoints[i]
		if cp.Snapshot.IsConsistent() {
			entries := j.EntriesAfter(cp.JournalSequence)
			return RecoveryPlan{
				Checkpoint:        &cp,
				EntriesToReplay:   entries,
				EstimatedRecoveryMs: 50 + int64(len(entries)),
			}
		}
	}
	entries := j.Entries()
	return RecoveryPlan{
		EntriesToReplay:   entries,
		EstimatedRecoveryMs: int64(len(entries)),
	}
}

// ValidateCheckpoint reports structural problems with a checkpoint:
// empty version, duplicate keys, and any remaining cross-reference
// violation as a fallback when duplicates do not explain the
// inconsistency (spec.md §4.10 "validate_checkpoint").
func ValidateCheckpoint(cp Checkpoint) []ConsistencyViolation {
	var out []ConsistencyViolation
	if cp.Snapshot.Version == "" {
		out = append(out, ConsistencyViolation{Kind: "empty_version"})
	}
	var dups, refs []ConsistencyViolation
	for _, v := range cp.Snapshot.Violations() {
		switch v.Kind {
		case "duplicate_agent", "duplicate_task", "duplicate_session":
			dups = append(dups, v)
		default:
			refs = append(refs, v)
		}
	}
	out = append(out, dups...)
	if len(dups) == 0 {
		out = append(out, refs...)
	}
	return out
}

// RecoveryResult is the user-visible outcome of a recovery run
// (spec.md §7 "User-visible failure surfaces").
type RecoveryResult struct {
	Success            bool
	AgentsRecovered    int
	TasksRecovered     int
	OperationsReplayed int
	Errors             []string
	DurationMs         int64
}
