package ytdlp

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// QualityAudio requests the best audio track extracted to mp3.
const QualityAudio = "audio"

var resolutionQualityRe = regexp.MustCompile(`^\d{3,4}p$`)

// Heights outside this range are nothing yt-dlp can produce for a YouTube
// stream; 4320 is the 8K ceiling.
const (
	minQualityHeight = 144
	maxQualityHeight = 4320
)

// ValidQuality reports whether the selector is either "audio" or a
// resolution label like "720p" within the plausible height range.
func ValidQuality(quality string) bool {
	if quality == QualityAudio {
		return true
	}
	if !resolutionQualityRe.MatchString(quality) {
		return false
	}
	height, err := strconv.Atoi(strings.TrimSuffix(quality, "p"))
	if err != nil {
		return false
	}
	return height >= minQualityHeight && height <= maxQualityHeight
}

// DownloadArgs builds the yt-dlp invocation for a download request.
//
// The audio path extracts the best audio track to mp3; the video path takes
// the best stream at or below the requested height in mp4, falling back to
// best-available when nothing matches. Output filenames carry the quality
// (or "audio") suffix so progress parsing can derive a title and the
// completion scan can find the file.
func DownloadArgs(url, quality, outDir string) []string {
	args := []string{"--newline", "--no-warnings", "--progress"}

	if quality == QualityAudio {
		args = append(args,
			"-f", "bestaudio[ext=m4a]/bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"-o", filepath.Join(outDir, "%(title)s_audio.%(ext)s"),
		)
	} else {
		height := strings.TrimSuffix(quality, "p")
		args = append(args,
			"-f", fmt.Sprintf("best[height<=%s][ext=mp4]/best[ext=mp4]/best", height),
			"-o", filepath.Join(outDir, "%(title)s_"+quality+".%(ext)s"),
		)
	}

	return append(args, url)
}
