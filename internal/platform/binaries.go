package platform

import (
	"fmt"
	"os/exec"
)

// DefaultDownloader is checked when no binary is configured.
const DefaultDownloader = "yt-dlp"

// OptionalBinaries are checked at startup but their absence only degrades a
// feature. ffmpeg backs the audio-only path (yt-dlp shells out to it for the
// mp3 extraction step).
var OptionalBinaries = map[string]string{
	"ffmpeg": "audio extraction",
}

// ValidateDependencies checks that the configured downloader binary is
// resolvable before the server accepts work. downloaderBinary may be a bare
// name looked up on PATH or an explicit path.
func ValidateDependencies(downloaderBinary string) error {
	if downloaderBinary == "" {
		downloaderBinary = DefaultDownloader
	}

	if _, err := exec.LookPath(downloaderBinary); err != nil {
		return fmt.Errorf("required dependency: '%s' not found in PATH", downloaderBinary)
	}

	for bin, feature := range OptionalBinaries {
		if _, err := exec.LookPath(bin); err != nil {
			fmt.Printf("Info: %s not found. %s will be unavailable.\n", bin, feature)
		}
	}

	return nil
}
