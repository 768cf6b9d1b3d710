package downloads

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tubegrab/tubegrab/internal/config"
	"github.com/tubegrab/tubegrab/internal/progress"
	"github.com/tubegrab/tubegrab/internal/utils"
)

// Listener is the event surface consumed by the presentation layer. Calls
// arrive from the registry's event loop (OnJobAdded from the Add caller);
// implementations must not block.
type Listener interface {
	OnJobAdded(handle string)
	OnProgress(handle string, event progress.Event)
	OnCompleted(handle string)
	OnError(handle string, message string)
	OnJobMoved(handle string)
}

// Registry owns the canonical job records and partitions them into active
// (queued/running) and completed (completed/failed) sets, both ordered
// most-recently-added-first. A single event loop goroutine is the only
// mutator of job state and of the partition membership after Add.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	active    []string
	completed []string

	settings config.Settings
	pool     *Pool
	backend  Transcoder
	listener Listener

	events  chan jobEvent
	done    chan struct{}
	loopWg  sync.WaitGroup
	jobWg   sync.WaitGroup
}

func NewRegistry(settings config.Settings, pool *Pool, backend Transcoder, listener Listener) *Registry {
	r := &Registry{
		jobs:     make(map[string]*Job),
		settings: settings,
		pool:     pool,
		backend:  backend,
		listener: listener,
		events:   make(chan jobEvent, 64),
		done:     make(chan struct{}),
	}
	r.loopWg.Add(1)
	go r.loop()
	return r
}

// Add creates a job for one video, inserts it at the head of the active set
// and submits it to the pool. The download directory is snapshotted from the
// settings now; later configuration changes do not affect this job.
// Duplicate video IDs create independent records.
func (r *Registry) Add(videoID, title string) string {
	job := &Job{
		Handle:    uuid.New().String(),
		VideoID:   videoID,
		Title:     title,
		TargetDir: r.settings.DownloadPath,
		State:     StateQueued,
	}
	r.mu.Lock()
	r.jobs[job.Handle] = job
	r.active = append([]string{job.Handle}, r.active...)
	snapshot := *job
	r.mu.Unlock()

	log := utils.GetLogger("downloads")
	log.Debug().Str("op", "registry/add").Str("handle", job.Handle).Msgf("Queued %s", title)
	if r.listener != nil {
		r.listener.OnJobAdded(job.Handle)
	}

	r.jobWg.Add(1)
	r.pool.Submit(func() {
		run(context.Background(), snapshot, r.backend, r.emit)
	})
	return job.Handle
}

// Job returns a snapshot of one record.
func (r *Registry) Job(handle string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[handle]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Active returns snapshots of the active partition, most recent first.
func (r *Registry) Active() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(r.active)
}

// Completed returns snapshots of the completed partition, most recent first.
func (r *Registry) Completed() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(r.completed)
}

func (r *Registry) snapshot(handles []string) []Job {
	jobs := make([]Job, 0, len(handles))
	for _, handle := range handles {
		if job, ok := r.jobs[handle]; ok {
			jobs = append(jobs, *job)
		}
	}
	return jobs
}

// Wait blocks until every added job has run to a terminal state and its
// terminal event has been processed by the event loop.
func (r *Registry) Wait() {
	r.jobWg.Wait()
}

// Close stops the event loop. Call after Wait; events emitted after Close
// are not delivered.
func (r *Registry) Close() {
	close(r.done)
	r.loopWg.Wait()
}

func (r *Registry) emit(event jobEvent) {
	select {
	case r.events <- event:
	case <-r.done:
	}
}

func (r *Registry) loop() {
	defer r.loopWg.Done()
	for {
		select {
		case event := <-r.events:
			r.handle(event)
		case <-r.done:
			return
		}
	}
}

func (r *Registry) handle(event jobEvent) {
	r.mu.Lock()
	job, ok := r.jobs[event.handle]
	if !ok {
		r.mu.Unlock()
		return
	}
	switch event.kind {
	case eventStarted:
		job.State = StateRunning
		r.mu.Unlock()
	case eventProgress:
		ev := event.progress
		job.LastProgress = &ev
		r.mu.Unlock()
		if r.listener != nil {
			r.listener.OnProgress(event.handle, ev)
		}
	case eventFinished:
		job.State = StateCompleted
		r.moveToCompleted(event.handle)
		r.mu.Unlock()
		if r.listener != nil {
			r.listener.OnCompleted(event.handle)
			r.listener.OnJobMoved(event.handle)
		}
		r.jobWg.Done()
	case eventErrored:
		// Failed jobs leave the active set too: active only ever holds
		// jobs that hold or await a pool slot.
		job.State = StateFailed
		r.moveToCompleted(event.handle)
		r.mu.Unlock()
		if r.listener != nil {
			r.listener.OnError(event.handle, event.message)
			r.listener.OnJobMoved(event.handle)
		}
		r.jobWg.Done()
	default:
		r.mu.Unlock()
	}
}

// moveToCompleted re-homes a record exactly once. Caller holds r.mu.
func (r *Registry) moveToCompleted(handle string) {
	for i, h := range r.active {
		if h == handle {
			r.active = append(r.active[:i], r.active[i+1:]...)
			r.completed = append([]string{handle}, r.completed...)
			return
		}
	}
}
