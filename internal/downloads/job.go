package downloads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tubegrab/tubegrab/internal/progress"
	"github.com/tubegrab/tubegrab/internal/utils"
)

// audioExt is the extension the transcode backend extracts audio to.
const audioExt = ".wav"

// Transcoder is the download+transcode collaborator. Given a video ID and an
// output template it produces one audio file, reporting raw status records
// through the hook for the duration of the run.
type Transcoder interface {
	Fetch(ctx context.Context, videoID, outputTemplate string, hook func(map[string]any)) error
}

// State is a job's lifecycle position. Terminal states are final; there is
// no retry transition.
type State int

const (
	StateQueued State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Job is the canonical record of one download. The registry owns it; copies
// handed out through Active/Completed/Job are snapshots.
type Job struct {
	Handle       string // unique per record, duplicate video IDs stay independent
	VideoID      string
	Title        string
	TargetDir    string // snapshotted from configuration at creation
	State        State
	LastProgress *progress.Event
}

type eventKind int

const (
	eventStarted eventKind = iota
	eventProgress
	eventFinished
	eventErrored
)

type jobEvent struct {
	handle   string
	kind     eventKind
	progress progress.Event
	message  string
}

// run executes one job on a pool worker: ensure the target directory,
// stream normalized progress through emit, and always finish with exactly
// one terminal event. No failure escapes the worker.
func run(ctx context.Context, job Job, backend Transcoder, emit func(jobEvent)) {
	log := utils.GetLogger("downloads")
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("op", "downloads/run").Str("handle", job.Handle).Msgf("Job panicked: %v", r)
			emit(jobEvent{handle: job.Handle, kind: eventErrored, message: fmt.Sprint(r)})
		}
	}()

	emit(jobEvent{handle: job.Handle, kind: eventStarted})

	if err := os.MkdirAll(job.TargetDir, 0755); err != nil {
		emit(jobEvent{handle: job.Handle, kind: eventErrored, message: fmt.Sprintf("error creating output directory: %v", err)})
		return
	}
	name := utils.SanitizeTitle(job.Title)
	target := filepath.Join(job.TargetDir, name+audioExt)
	if _, err := os.Stat(target); err == nil {
		// A previous run left an output with this title; pick a fresh name
		// instead of overwriting it.
		target = utils.RenewOutputPath(target)
		name = strings.TrimSuffix(filepath.Base(target), audioExt)
	}
	template := filepath.Join(job.TargetDir, name+".%(ext)s")

	err := backend.Fetch(ctx, job.VideoID, template, func(status map[string]any) {
		event, ok := progress.FromStatus(status)
		if !ok {
			return
		}
		emit(jobEvent{handle: job.Handle, kind: eventProgress, progress: event})
	})
	if err != nil {
		log.Debug().Str("op", "downloads/run").Str("handle", job.Handle).Err(err).Msg("Backend failed")
		emit(jobEvent{handle: job.Handle, kind: eventErrored, message: err.Error()})
		return
	}
	emit(jobEvent{handle: job.Handle, kind: eventFinished})
}
