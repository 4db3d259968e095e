package mockbackend

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

// jobTTL bounds how long finished jobs are kept for polling.
const jobTTL = 10 * time.Minute

type job struct {
	created time.Time
	ready   time.Time
	result  protocol.JobResult
}

// JobQueue holds deferred answers until their delay has elapsed.
type JobQueue struct {
	mu   sync.Mutex
	jobs map[string]*job
	now  func() time.Time
}

// NewJobQueue creates an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{jobs: make(map[string]*job), now: time.Now}
}

// Enqueue stores result and returns the id under which it becomes available
// after delay.
func (q *JobQueue) Enqueue(result protocol.JobResult, delay time.Duration) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for id, j := range q.jobs {
		if now.Sub(j.created) > jobTTL {
			delete(q.jobs, id)
		}
	}

	id := uuid.NewString()
	q.jobs[id] = &job{created: now, ready: now.Add(delay), result: result}
	return id
}

// Result returns the job outcome, or a pending status while the job is not
// ready. Unknown ids are reported as pending too.
func (q *JobQueue) Result(id string) protocol.JobResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[id]
	if !ok || q.now().Before(j.ready) {
		return protocol.JobResult{Status: protocol.StatusPending}
	}
	return j.result
}

// Len returns the number of tracked jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
