package ytdlp

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// EventType classifies what a single output line told us.
type EventType int

const (
	EventNone EventType = iota
	EventDestination
	EventProgress
	EventToolError
)

const destinationMarker = "[download] Destination:"

var percentRe = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// Event is the parsed meaning of one yt-dlp output line.
type Event struct {
	Type EventType

	// EventDestination
	Filename string

	// EventProgress
	Percentage float64

	// EventToolError
	Message string
}

// ParseLine turns one raw output line into an Event. It is a pure function:
// no state, no side effects, and malformed lines simply come back as
// EventNone rather than failing the download.
func ParseLine(line string) Event {
	line = strings.TrimSpace(line)

	if idx := strings.Index(line, destinationMarker); idx != -1 {
		path := strings.TrimSpace(line[idx+len(destinationMarker):])
		if path == "" {
			return Event{}
		}
		return Event{Type: EventDestination, Filename: filepath.Base(path)}
	}

	if m := percentRe.FindStringSubmatch(line); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil || pct < 0 || pct > 100 {
			return Event{}
		}
		return Event{Type: EventProgress, Percentage: pct}
	}

	if strings.HasPrefix(line, "ERROR:") {
		return Event{Type: EventToolError, Message: strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))}
	}

	return Event{}
}

// TitleFromFilename derives a human-readable title from the destination
// filename by stripping the quality/audio suffix and the extension.
// "Never_Gonna_Give_You_Up_720p.mp4" with quality "720p" becomes
// "Never_Gonna_Give_You_Up".
func TitleFromFilename(filename, quality string) string {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if quality != "" && strings.HasSuffix(title, "_"+quality) {
		return strings.TrimSuffix(title, "_"+quality)
	}
	return strings.TrimSuffix(title, "_audio")
}
