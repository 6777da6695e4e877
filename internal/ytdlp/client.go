package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
)

// Client drives the yt-dlp binary over its command-line interface. The tool
// is an opaque collaborator: everything we know about a run comes from its
// exit code and the human-readable lines it prints.
type Client struct {
	Binary       string
	ProbeTimeout time.Duration
	Log          *logger.Logger

	// audioEnabled is decided once at construction: the mp3 extraction
	// step needs ffmpeg on PATH.
	audioEnabled bool
}

func NewClient(binary string, probeTimeout time.Duration, log *logger.Logger) *Client {
	if binary == "" {
		binary = "yt-dlp"
	}
	if probeTimeout <= 0 {
		probeTimeout = 30 * time.Second
	}

	_, ffmpegErr := exec.LookPath("ffmpeg")

	return &Client{
		Binary:       binary,
		ProbeTimeout: probeTimeout,
		Log:          log,
		audioEnabled: ffmpegErr == nil,
	}
}

// Probe runs a metadata-only query. It is synchronous and bounded by
// ProbeTimeout; the caller collapses every failure mode here (non-zero exit,
// timeout, malformed output) into "analysis unavailable".
func (c *Client) Probe(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Binary, "--dump-json", "--no-warnings", "--no-download", url)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("yt-dlp probe timed out after %s", c.ProbeTimeout)
		}
		return nil, fmt.Errorf("yt-dlp probe failed: %w", err)
	}

	var dump infoDump
	if err := json.Unmarshal(out, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	info := buildVideoInfo(&dump)
	if !c.audioEnabled {
		info.AudioFormat = nil
	}
	return info, nil
}

// Version asks the binary to identify itself. Used by the health endpoint.
func (c *Client) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp version check failed: %w", err)
	}
	v := string(out)
	if n := len(v); n > 0 && v[n-1] == '\n' {
		v = v[:n-1]
	}
	return v, nil
}

// Run executes a download and feeds every parsed output line to onEvent.
// It blocks until the subprocess exits. There is deliberately no per-run
// timeout; cancellation arrives through ctx (process shutdown).
func (c *Client) Run(ctx context.Context, url, quality, outDir string, onEvent func(Event)) error {
	args := DownloadArgs(url, quality, outDir)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp pipe: %w", err)
	}
	// Progress lines land on stdout, errors on stderr; we scan both as one
	// stream the way the tool presents them in a terminal.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("yt-dlp start: %w", err)
	}

	var lastToolError string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if c.Log != nil {
			c.Log.Debug("yt-dlp: %s", line)
		}

		ev := ParseLine(line)
		if ev.Type == EventToolError {
			lastToolError = ev.Message
		}
		if ev.Type != EventNone && onEvent != nil {
			onEvent(ev)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastToolError != "" {
			return fmt.Errorf("yt-dlp: %s", lastToolError)
		}
		return fmt.Errorf("yt-dlp exited with error: %w", err)
	}

	return nil
}
