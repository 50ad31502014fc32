package remote

import "fmt"

// SyncDirection tags a sync job's transfer direction.
type SyncDirection int

const (
	Push SyncDirection = iota // local -> remote
	Pull                      // remote -> local
)

// SyncStatus tags a sync job's lifecycle.
type SyncStatus int

const (
	SyncQueued SyncStatus = iota
	SyncRunning
	SyncDone
	SyncFailed
)

// SyncJob is one push or pull transfer.
type SyncJob struct {
	ID         string
	Remote     string
	Direction  SyncDirection
	LocalPath  string
	RemotePath string
	Status     SyncStatus
	QueuedMs   int64
	StartedMs  int64
}

// DefaultExcludes are the rsync exclude patterns applied to every job
// unless overridden (spec.md §4.9 "SyncManager").
var DefaultExcludes = []string{".git", "__pycache__", "*.pyc", "target/", "node_modules/"}

// SyncManager queues push/pull jobs under a global concurrency cap.
type SyncManager struct {
	queue         []SyncJob
	running       map[string]*SyncJob
	maxConcurrent int
	nextID        int
}

// NewSyncManager creates a SyncManager capped at maxConcurrent
// simultaneous jobs.
func NewSyncManager(maxConcurrent int) *SyncManager {
	return &SyncManager{running: make(map[string]*SyncJob), maxConcurrent: maxConcurrent}
}

// Queue enqueues a sync job.
func (s *SyncManager) Queue(remote string, dir SyncDirection, localPath, remotePath string, now int64) string {
	s.nextID++
	id := fmt.Sprintf("sync-%d", s.nextID)
	s.queue = append(s.queue, SyncJob{ID: id, Remote: remote, Direction: dir, LocalPath: localPath, RemotePath: remotePath, Status: SyncQueued, QueuedMs: now})
	return id
}

// StartNext promotes the oldest queued job to running, refusing when at
// capacity (spec.md §4.9 "start_next").
func (s *SyncManager) StartNext(now int64) (SyncJob, bool) {
	if s.maxConcurrent > 0 && len(s.running) >= s.maxConcurrent {
		return SyncJob{}, false
	}
	if len(s.queue) == 0 {
		return SyncJob{}, false
	}
	job := s.queue[0]
	s.queue = s.queue[1:]
	job.Status = SyncRunning
	job.StartedMs = now
	s.running[job.ID] = &job
	return job, true
}

// Finish removes a running job, marking it Done or Failed.
func (s *SyncManager) Finish(id string, ok bool) error {
	job, found := s.running[id]
	if !found {
		return fmt.Errorf("sync job %q is not running", id)
	}
	delete(s.running, id)
	if ok {
		job.Status = SyncDone
	} else {
		job.Status = SyncFailed
	}
	return nil
}

// RsyncConfig names the connection parameters used to build an rsync
// invocation for a job.
type RsyncConfig struct {
	Host     string
	Port     int
	Key      string
	Excludes []string
}

// BuildRsyncArgs renders the rsync argv for job: -avz --partial
// --progress, an -e clause carrying the ssh invocation (with
// StrictHostKeyChecking disabled), one --exclude per pattern, and a
// source/destination pair where local paths end with "/" per rsync's
// "contents of" convention (spec.md §4.9 "build_rsync_args").
func BuildRsyncArgs(job SyncJob, cfg RsyncConfig) []string {
	args := []string{"-avz", "--partial", "--progress"}

	sshClause := fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=no", cfg.Port)
	if cfg.Key != "" {
		sshClause += fmt.Sprintf(" -i %s", cfg.Key)
	}
	args = append(args, "-e", sshClause)

	excludes := cfg.Excludes
	if excludes == nil {
		excludes = DefaultExcludes
	}
	for _, ex := range excludes {
		args = append(args, "--exclude", ex)
	}

	local := ensureTrailingSlash(job.LocalPath)
	remoteSpec := fmt.Sprintf("%s:%s", cfg.Host, job.RemotePath)
	if job.Direction == Push {
		args = append(args, local, remoteSpec)
	} else {
		args = append(args, remoteSpec, local)
	}
	return args
}

func ensureTrailingSlash(p string) string {
	if p == "" || p[len(p)-1] == '/' {
		return p
	}
	return p + "/"
}

// Pending returns the number of queued jobs.
func (s *SyncManager) Pending() int { return len(s.queue) }

// RunningCount returns the number of jobs currently running.
func (s *SyncManager) RunningCount() int { return len(s.running) }
