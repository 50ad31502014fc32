// Package convlog maintains per-agent byte-offset tracking over
// append-only daily conversation-log files (spec.md §4.5), plus the
// "copilot sync" shadow-consumer framing. All file I/O is delegated to a
// Store the host supplies, so the package itself has no filesystem
// dependency and stays inside the cooperative core's blocking-I/O
// allowance (spec.md §5: log writes are synchronous from the core's
// perspective, may run on a host thread).
package convlog

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Store is the append-only file backend the host provides: one dated file
// per agent, identified by its path.
type Store interface {
	// Append writes data to the end of path, creating it if necessary,
	// and returns the number of bytes written.
	Append(path string, data []byte) (int, error)
	// Delete removes path. Deleting a missing path is not an error.
	Delete(path string) error
	// ListDates returns the YYYY-MM-DD dates that have a log file for agent.
	ListDates(agent string) ([]string, error)
}

var dateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ValidDate reports whether date is a well-formed YYYY-MM-DD with a
// plausible calendar range (spec.md §4.5).
func ValidDate(date string) bool {
	m := dateRe.FindStringSubmatch(date)
	if m == nil {
		return false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return y >= 2000 && y <= 9999 && mo >= 1 && mo <= 12 && d >= 1 && d <= 31
}

type agentCursor struct {
	currentDate string
	currentPath string
	lastOffset  int
}

// Tailer tracks, per agent, the dated log file currently being appended to
// and the byte offset already flushed.
type Tailer struct {
	store           Store
	enabled         bool
	retentionDays   int
	dirFor          func(agent string) string
	cursors         map[string]*agentCursor
}

// Config configures a Tailer.
type Config struct {
	Enabled       bool
	RetentionDays int
	// DirFor returns the directory (e.g. "<project>/.pilot-log") an agent's
	// log files live under; PathFor joins it with the filename convention.
	DirFor func(agent string) string
}

// New creates a Tailer backed by store.
func New(store Store, cfg Config) *Tailer {
	return &Tailer{
		store:         store,
		enabled:       cfg.Enabled,
		retentionDays: cfg.RetentionDays,
		dirFor:        cfg.DirFor,
		cursors:       make(map[string]*agentCursor),
	}
}

// Register starts tracking an agent; required before ProcessCapture.
func (t *Tailer) Register(agent string) {
	if _, ok := t.cursors[agent]; !ok {
		t.cursors[agent] = &agentCursor{}
	}
}

func (t *Tailer) pathFor(agent, date string) string {
	dir := agent
	if t.dirFor != nil {
		dir = t.dirFor(agent)
	}
	return fmt.Sprintf("%s/%s-%s.md", dir, date, agent)
}

// ProcessCapture implements spec.md §4.5: it appends any bytes of
// fullPaneText beyond the agent's last offset, treating the pane as one
// continuous byte stream even across a day rollover.
func (t *Tailer) ProcessCapture(agent, fullPaneText, date string) (int, error) {
	if !t.enabled {
		return 0, nil
	}
	cur, ok := t.cursors[agent]
	if !ok {
		return 0, fmt.Errorf("%w: agent %q not registered with tailer", coreerr.ErrNotFound, agent)
	}
	if !ValidDate(date) {
		return 0, fmt.Errorf("%w: malformed date %q", coreerr.ErrInvalidInput, date)
	}

	if cur.currentDate == "" {
		cur.currentDate = date
		cur.currentPath = t.pathFor(agent, date)
	} else if date != cur.currentDate {
		// Day rollover: point at the new file WITHOUT resetting the offset.
		cur.currentDate = date
		cur.currentPath = t.pathFor(agent, date)
	}

	if len(fullPaneText) <= cur.lastOffset {
		return 0, nil
	}

	delta := fullPaneText[cur.lastOffset:]
	n, err := t.store.Append(cur.currentPath, []byte(delta))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", coreerr.ErrIO, err)
	}
	cur.lastOffset = len(fullPaneText)
	return n, nil
}

// CurrentPath returns the file an agent is currently appending to, if any.
func (t *Tailer) CurrentPath(agent string) (string, bool) {
	cur, ok := t.cursors[agent]
	if !ok || cur.currentPath == "" {
		return "", false
	}
	return cur.currentPath, true
}

// dayDistance approximates calendar distance using y*365 + m*30 + d
// (spec.md §9: deliberately not exact calendar math).
func dayDistance(a, b string) int {
	pa := parseDateParts(a)
	pb := parseDateParts(b)
	da := pa[0]*365 + pa[1]*30 + pa[2]
	db := pb[0]*365 + pb[1]*30 + pb[2]
	d := db - da
	if d < 0 {
		d = -d
	}
	return d
}

func parseDateParts(date string) [3]int {
	m := dateRe.FindStringSubmatch(date)
	if m == nil {
		return [3]int{}
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return [3]int{y, mo, d}
}

// Cleanup deletes log files strictly more than retentionDays older than
// today; files exactly at the boundary are kept (spec.md §9).
func (t *Tailer) Cleanup(agent, today string) (int, error) {
	dates, err := t.store.ListDates(agent)
	if err != nil {
		// A missing directory is reported by the Store as an empty list,
		// so any error here is a real I/O failure.
		return 0, fmt.Errorf("%w: %v", coreerr.ErrIO, err)
	}
	removed := 0
	for _, date := range dates {
		if dayDistance(date, today) > t.retentionDays {
			if err := t.store.Delete(t.pathFor(agent, date)); err != nil {
				return removed, fmt.Errorf("%w: %v", coreerr.ErrIO, err)
			}
			removed++
		}
	}
	return removed, nil
}

// --- Copilot shadow sync (spec.md §4.5 "copilot sync consumer") ---

const (
	updateHeader = "--- Context Update ---\nFor your reference — recent %s conversation history. No action required.\n\n"
	updateFooter = "\n--- End Context Update ---"
)

type shadowCursor struct {
	shadowed          string
	lastDeliveredOffset int
	syncCount         int
}

// CopilotSync tracks each shadow consumer's independent read cursor into
// the agent it shadows.
type CopilotSync struct {
	tailer  *Tailer
	shadows map[string]*shadowCursor
	read    func(path string) (string, error)
}

// NewCopilotSync creates a shadow-sync tracker reading from the same
// files the Tailer writes, via a host-supplied reader.
func NewCopilotSync(tailer *Tailer, read func(path string) (string, error)) *CopilotSync {
	return &CopilotSync{tailer: tailer, shadows: make(map[string]*shadowCursor), read: read}
}

// RegisterShadow starts a shadow consumer mirroring shadowed's log.
func (c *CopilotSync) RegisterShadow(shadow, shadowed string) {
	c.shadows[shadow] = &shadowCursor{shadowed: shadowed}
}

// PrepareUpdate builds the framed block of new bytes since the shadow's
// last delivered offset, plus the new end-of-file offset.
func (c *CopilotSync) PrepareUpdate(shadow, date string) (block string, newOffset int, err error) {
	sc, ok := c.shadows[shadow]
	if !ok {
		return "", 0, fmt.Errorf("%w: copilot %q not registered", coreerr.ErrNotFound, shadow)
	}
	path, ok := c.tailer.CurrentPath(sc.shadowed)
	if !ok {
		path = c.tailer.pathFor(sc.shadowed, date)
	}
	content, err := c.read(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", coreerr.ErrIO, err)
	}
	if len(content) <= sc.lastDeliveredOffset {
		return "", sc.lastDeliveredOffset, nil
	}
	fresh := content[sc.lastDeliveredOffset:]
	block = fmt.Sprintf(updateHeader, sc.shadowed) + fresh + updateFooter
	return block, len(content), nil
}

// MarkDelivered advances the shadow's cursor and increments its sync
// counter.
func (c *CopilotSync) MarkDelivered(shadow string, newOffset int) error {
	sc, ok := c.shadows[shadow]
	if !ok {
		return fmt.Errorf("%w: copilot %q", coreerr.ErrNotFound, shadow)
	}
	sc.lastDeliveredOffset = newOffset
	sc.syncCount++
	return nil
}

// SyncCount reports how many updates have been delivered to shadow.
func (c *CopilotSync) SyncCount(shadow string) int {
	if sc, ok := c.shadows[shadow]; ok {
		return sc.syncCount
	}
	return 0
}
