package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// progressTemplate makes yt-dlp print each download status as one JSON line
// mirroring the fields of its native progress hooks. Every value is quoted
// because yt-dlp renders unknown numbers as "NA".
const progressTemplate = `download:{"status":"%(progress.status)s",` +
	`"downloaded_bytes":"%(progress.downloaded_bytes)s",` +
	`"total_bytes":"%(progress.total_bytes)s",` +
	`"total_bytes_estimate":"%(progress.total_bytes_estimate)s",` +
	`"_speed_str":"%(progress._speed_str)s",` +
	`"_eta_str":"%(progress._eta_str)s",` +
	`"_total_bytes_str":"%(progress._total_bytes_str)s"}`

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// Runner invokes the yt-dlp binary to fetch the best available audio stream
// and extract it to wav through ffmpeg.
type Runner struct {
	ytdlpPath  string
	ffmpegPath string
}

// NewRunner locates yt-dlp and ffmpeg, fetching yt-dlp when absent.
func NewRunner() (*Runner, error) {
	ytdlpPath, err := EnsureYtdlp()
	if err != nil {
		return nil, fmt.Errorf("error ensuring yt-dlp: %w", err)
	}
	ffmpegPath, err := EnsureFFmpeg()
	if err != nil {
		return nil, fmt.Errorf("error ensuring ffmpeg: %w", err)
	}
	return &Runner{ytdlpPath: ytdlpPath, ffmpegPath: ffmpegPath}, nil
}

// Fetch downloads one video as audio. Status lines from the progress
// template are decoded into loosely-typed records and handed to hook in
// emission order.
func (r *Runner) Fetch(ctx context.Context, videoID, outputTemplate string, hook func(map[string]any)) error {
	args := []string{
		"--newline",
		"--progress",
		"--no-warnings",
		"--no-playlist",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "wav",
		"--ffmpeg-location", r.ffmpegPath,
		"--progress-template", progressTemplate,
		"-o", outputTemplate,
		fmt.Sprintf(watchURLTemplate, videoID),
	}
	cmd := exec.CommandContext(ctx, r.ytdlpPath, args...)
	log.Debug().Str("op", "ytdlp/fetch").Msgf("Executing yt-dlp command: %s", cmd.String())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("error creating stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting yt-dlp: %w", err)
	}

	var streamWg sync.WaitGroup
	streamWg.Add(2)
	go func() {
		defer streamWg.Done()
		scanStatusLines(stdout, hook)
	}()
	var errLines []string
	go func() {
		defer streamWg.Done()
		errLines = collectLines(stderr, 5)
	}()
	streamWg.Wait()

	if err := cmd.Wait(); err != nil {
		detail := strings.Join(errLines, "; ")
		if detail != "" {
			return fmt.Errorf("yt-dlp failed: %v: %s", err, detail)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	log.Debug().Str("op", "ytdlp/fetch").Msgf("yt-dlp completed for %s", videoID)
	return nil
}

func scanStatusLines(reader io.Reader, hook func(map[string]any)) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		status, ok := parseStatusLine(scanner.Text())
		if ok && hook != nil {
			hook(status)
		}
	}
}

// parseStatusLine decodes one rendered progress-template line. Non-status
// output (merge notices, postprocessor chatter) is skipped.
func parseStatusLine(line string) (map[string]any, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	var status map[string]any
	if err := json.Unmarshal([]byte(line), &status); err != nil {
		return nil, false
	}
	if _, ok := status["status"]; !ok {
		return nil, false
	}
	return status, true
}

// collectLines keeps the last n non-empty lines of a stream.
func collectLines(reader io.Reader, n int) []string {
	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[len(lines)-n:]
		}
	}
	return lines
}
