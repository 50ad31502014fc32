package journal

// AgentSnap is the persisted view of one agent (spec.md §3 "Snapshot").
type AgentSnap struct {
	Name          string
	TaskID        string
	SessionName   string
}

// TaskSnap is the persisted view of one task.
type TaskSnap struct {
	ID       string
	AgentID  string
	ChildIDs []string
}

// SystemSnapshot is the full consistent world snapshot (spec.md §3).
type SystemSnapshot struct {
	Version       string
	TimestampMs   int64
	Agents        []AgentSnap
	Tasks         []TaskSnap
	Sessions      []string
	SettingsHash  string
	MessageCount  int
}

// ConsistencyViolation names one failure of SystemSnapshot.IsConsistent.
type ConsistencyViolation struct {
	Kind   string
	Detail string
}

// Violations enumerates every consistency violation in the snapshot
// (spec.md §3's conjunction, returned itemised for validate_checkpoint).
func (s SystemSnapshot) Violations() []ConsistencyViolation {
	var out []ConsistencyViolation

	seenAgent := map[string]bool{}
	for _, a := range s.Agents {
		if seenAgent[a.Name] {
			out = append(out, ConsistencyViolation{Kind: "duplicate_agent", Detail: a.Name})
		}
		seenAgent[a.Name] = true
	}
	seenTask := map[string]bool{}
	for _, t := range s.Tasks {
		if seenTask[t.ID] {
			out = append(out, ConsistencyViolation{Kind: "duplicate_task", Detail: t.ID})
		}
		seenTask[t.ID] = true
	}
	seenSession := map[string]bool{}
	for _, sess := range s.Sessions {
		if seenSession[sess] {
			out = append(out, ConsistencyViolation{Kind: "duplicate_session", Detail: sess})
		}
		seenSession[sess] = true
	}

	for _, a := range s.Agents {
		if a.TaskID != "" && !seenTask[a.TaskID] {
			out = append(out, ConsistencyViolation{Kind: "agent_references_missing_task", Detail: a.Name + "->" + a.TaskID})
		}
		if a.SessionName != "" && !seenSession[a.SessionName] {
			out = append(out, ConsistencyViolation{Kind: "agent_references_missing_session", Detail: a.Name + "->" + a.SessionName})
		}
	}
	for _, t := range s.Tasks {
		if t.AgentID != "" && !seenAgent[t.AgentID] {
			out = append(out, ConsistencyViolation{Kind: "task_references_missing_agent", Detail: t.ID + "->" + t.AgentID})
		}
		for _, c := range t.ChildIDs {
			if !seenTask[c] {
				out = append(out, ConsistencyViolation{Kind: "task_references_missing_child", Detail: t.ID + "->" + c})
			}
		}
	}
	return out
}

// IsConsistent reports whether the snapshot has no consistency violations.
func (s SystemSnapshot) IsConsistent() bool {
	return len(s.Violations()) == 0
}
