package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

// videoIDPattern matches YouTube video IDs (11 characters, alphanumeric with - and _)
var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

var allowedHosts = map[string]bool{
	"youtube.com":          true,
	"music.youtube.com":    true,
	"youtube-nocookie.com": true,
	"youtu.be":             true,
}

// IsWatchURL reports whether the URL points at a single YouTube video in one
// of the recognized shapes. Anything it accepts yields a video ID from
// ExtractVideoID.
func IsWatchURL(rawURL string) bool {
	return ExtractVideoID(rawURL) != ""
}

// ExtractVideoID pulls the 11-character video ID out of a YouTube URL.
// Returns "" when the URL is not a recognized YouTube video URL.
//
// Recognized shapes:
//
//	youtube.com/watch?v=<id>
//	youtu.be/<id>
//	youtube.com/embed/<id>
//	youtube.com/v/<id>
//	youtube.com/shorts/<id>
func ExtractVideoID(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// Tolerate scheme-less input the way a paste from the address bar
	// sometimes arrives.
	if parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + rawURL)
		if err != nil {
			return ""
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	if !allowedHosts[host] {
		return ""
	}

	var videoID string
	if host == "youtu.be" {
		videoID = strings.TrimPrefix(parsed.Path, "/")
	} else {
		videoID = extractFromPath(parsed)
	}

	// Strip anything trailing the ID segment
	if idx := strings.IndexAny(videoID, "/?"); idx != -1 {
		videoID = videoID[:idx]
	}

	if !videoIDPattern.MatchString(videoID) {
		return ""
	}
	return videoID
}

func extractFromPath(parsed *url.URL) string {
	path := parsed.Path

	switch {
	case strings.HasPrefix(path, "/watch"):
		return parsed.Query().Get("v")
	case strings.HasPrefix(path, "/embed/"):
		return strings.TrimPrefix(path, "/embed/")
	case strings.HasPrefix(path, "/v/"):
		return strings.TrimPrefix(path, "/v/")
	case strings.HasPrefix(path, "/shorts/"):
		return strings.TrimPrefix(path, "/shorts/")
	}
	return ""
}

// CanonicalURL rebuilds the standard watch URL for a video ID.
func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
