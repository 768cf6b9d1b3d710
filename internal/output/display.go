package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tubegrab/tubegrab/internal/downloads"
	"github.com/tubegrab/tubegrab/internal/progress"
)

type row struct {
	handle    string
	title     string
	state     downloads.State
	last      *progress.Event
	errorText string
	startTime time.Time
	endTime   time.Time
}

// Display renders the download list in the terminal: an Active section on
// top, a Completed section below, both most-recent-first. It is a pure
// projection of registry events; it never drives job lifecycle itself.
type Display struct {
	mu        sync.RWMutex
	rows      map[string]*row
	active    []string
	completed []string

	registry    *downloads.Registry
	numLines    int
	displayTick time.Duration
	doneCh      chan struct{}
	displayWg   sync.WaitGroup
}

func NewDisplay() *Display {
	return &Display{
		rows:        make(map[string]*row),
		displayTick: 300 * time.Millisecond,
		doneCh:      make(chan struct{}),
	}
}

// SetRegistry wires the registry used to resolve job titles on add. Must be
// called before the first job is added.
func (d *Display) SetRegistry(registry *downloads.Registry) {
	d.registry = registry
}

// OnJobAdded inserts a new row at the head of the active section.
func (d *Display) OnJobAdded(handle string) {
	title := handle
	state := downloads.StateQueued
	if d.registry != nil {
		if job, ok := d.registry.Job(handle); ok {
			title = job.Title
			state = job.State
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[handle] = &row{
		handle:    handle,
		title:     title,
		state:     state,
		startTime: time.Now(),
	}
	d.active = append([]string{handle}, d.active...)
}

func (d *Display) OnProgress(handle string, event progress.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rows[handle]; ok {
		r.last = &event
		r.state = downloads.StateRunning
	}
}

func (d *Display) OnCompleted(handle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rows[handle]; ok {
		r.state = downloads.StateCompleted
		r.endTime = time.Now()
	}
}

func (d *Display) OnError(handle string, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.rows[handle]; ok {
		r.state = downloads.StateFailed
		r.errorText = message
		r.endTime = time.Now()
	}
}

// OnJobMoved re-homes a row from the active section to the completed one.
func (d *Display) OnJobMoved(handle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, h := range d.active {
		if h == handle {
			d.active = append(d.active[:i], d.active[i+1:]...)
			d.completed = append([]string{handle}, d.completed...)
			return
		}
	}
}

func (d *Display) Start() {
	d.displayWg.Add(1)
	go func() {
		defer d.displayWg.Done()
		ticker := time.NewTicker(d.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.render()
			case <-d.doneCh:
				d.render()
				return
			}
		}
	}()
}

func (d *Display) Stop() {
	close(d.doneCh)
	d.displayWg.Wait()
	d.ShowSummary()
}

func (d *Display) render() {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", d.numLines)
	}
	availableLines := getTerminalHeight() - 3
	lineCount := 0

	for _, handle := range d.active {
		if lineCount >= availableLines {
			break
		}
		fmt.Println(d.activeLine(d.rows[handle]))
		lineCount++
	}
	for _, handle := range d.completed {
		if lineCount >= availableLines {
			break
		}
		fmt.Println(d.completedLine(d.rows[handle]))
		lineCount++
	}
	d.numLines = lineCount
}

func (d *Display) activeLine(r *row) string {
	title := truncate(r.title, 40)
	if r.last == nil {
		return fmt.Sprintf("  %s %s %s", pendingStyle.Render(StyleSymbols["pending"]), title, pendingStyle.Render("Waiting..."))
	}
	detail := ""
	switch r.last.Phase {
	case progress.PhaseDownloading:
		detail = debugStyle.Render(fmt.Sprintf("%s %s %s left", r.last.TotalSize, r.last.Speed, r.last.ETA))
	case progress.PhaseConverting:
		detail = pendingStyle.Render("Converting")
	}
	return fmt.Sprintf("  %s %s %s %s", pendingStyle.Render(StyleSymbols["pending"]), title, ProgressBar(r.last.Percent, 30), detail)
}

func (d *Display) completedLine(r *row) string {
	title := truncate(r.title, 40)
	elapsed := r.endTime.Sub(r.startTime).Round(time.Second)
	if r.state == downloads.StateFailed {
		return fmt.Sprintf("  %s %s %s %s", errorStyle.Render(StyleSymbols["fail"]), title, debugStyle.Render(elapsed.String()), errorStyle.Render(r.errorText))
	}
	size := ""
	if r.last != nil && r.last.TotalSize != "N/A" {
		size = r.last.TotalSize
	}
	return fmt.Sprintf("  %s %s %s %s", successStyle.Render(StyleSymbols["pass"]), title, debugStyle.Render(elapsed.String()), successStyle.Render(size))
}

// ShowSummary prints final counts and the failures once the run is over.
func (d *Display) ShowSummary() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var succeeded, failed int
	var failures []*row
	for _, r := range d.rows {
		switch r.state {
		case downloads.StateCompleted:
			succeeded++
		case downloads.StateFailed:
			failed++
			failures = append(failures, r)
		}
	}
	fmt.Println()
	fmt.Println("  " + successStyle.Render(fmt.Sprintf("Completed %d of %d", succeeded, len(d.rows))))
	if failed > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failed, len(d.rows))))
		for _, r := range failures {
			fmt.Printf("    %s %s\n", errorStyle.Render(truncate(r.title, 40)+":"), errorStyle.Render(r.errorText))
		}
	}
	fmt.Println()
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text + strings.Repeat(" ", width-len(runes))
	}
	return string(runes[:width-3]) + "..."
}
