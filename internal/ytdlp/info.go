package ytdlp

import (
	"math"
	"sort"
	"strconv"
)

// infoDump is the subset of `yt-dlp --dump-json` output we care about.
type infoDump struct {
	Title     string      `json:"title"`
	Duration  float64     `json:"duration"`
	Uploader  string      `json:"uploader"`
	ViewCount int64       `json:"view_count"`
	Thumbnail string      `json:"thumbnail"`
	Formats   []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize"`
}

// FormatOption is one downloadable video quality shown to the user.
type FormatOption struct {
	Resolution string  `json:"resolution"`
	Height     int     `json:"-"`
	Filesize   int64   `json:"filesize"`
	FilesizeMB float64 `json:"filesize_mb"`
	FormatID   string  `json:"format_id"`
}

// AudioOption is the single audio-only choice, when the video has one.
type AudioOption struct {
	Filesize   int64   `json:"filesize"`
	FilesizeMB float64 `json:"filesize_mb"`
	FormatID   string  `json:"format_id"`
}

// VideoInfo is the transient analysis result. It is produced once per
// analyze request, rendered, and never stored.
type VideoInfo struct {
	Title        string         `json:"title"`
	Duration     int            `json:"duration"`
	Uploader     string         `json:"uploader"`
	ViewCount    int64          `json:"view_count"`
	Thumbnail    string         `json:"thumbnail"`
	VideoFormats []FormatOption `json:"video_formats"`
	AudioFormat  *AudioOption   `json:"audio_format,omitempty"`
}

func buildVideoInfo(dump *infoDump) *VideoInfo {
	info := &VideoInfo{
		Title:        dump.Title,
		Duration:     int(dump.Duration),
		Uploader:     dump.Uploader,
		ViewCount:    dump.ViewCount,
		Thumbnail:    dump.Thumbnail,
		VideoFormats: selectVideoFormats(dump.Formats),
		AudioFormat:  selectAudioFormat(dump.Formats),
	}
	if info.Title == "" {
		info.Title = "Unknown"
	}
	if info.Uploader == "" {
		info.Uploader = "Unknown"
	}
	return info
}

// selectVideoFormats keeps progressive mp4 formats with a known height,
// sorts them by descending resolution and collapses duplicates to one entry
// per resolution. The sort is stable, so the survivor for a given height is
// deterministic for a given input order.
func selectVideoFormats(formats []rawFormat) []FormatOption {
	var candidates []FormatOption
	for _, f := range formats {
		if f.Ext != "mp4" || !hasCodec(f.VCodec) || !hasCodec(f.ACodec) || f.Height <= 0 {
			continue
		}
		candidates = append(candidates, FormatOption{
			Resolution: resolutionLabel(f.Height),
			Height:     f.Height,
			Filesize:   f.Filesize,
			FilesizeMB: toMB(f.Filesize),
			FormatID:   f.FormatID,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})

	seen := make(map[string]bool, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		if seen[c.Resolution] {
			continue
		}
		seen[c.Resolution] = true
		unique = append(unique, c)
	}
	return unique
}

// selectAudioFormat picks the first audio-only format in an accepted
// container, or nil when the video has none.
func selectAudioFormat(formats []rawFormat) *AudioOption {
	for _, f := range formats {
		if (f.Ext == "m4a" || f.Ext == "mp3") && hasCodec(f.ACodec) && f.VCodec == "none" {
			return &AudioOption{
				Filesize:   f.Filesize,
				FilesizeMB: toMB(f.Filesize),
				FormatID:   f.FormatID,
			}
		}
	}
	return nil
}

// hasCodec reports whether a codec field names an actual codec. yt-dlp
// emits "none" for absent tracks, but some extractors leave the field
// empty, which means the same thing.
func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}

func resolutionLabel(height int) string {
	return strconv.Itoa(height) + "p"
}

func toMB(bytes int64) float64 {
	if bytes <= 0 {
		return 0
	}
	return math.Round(float64(bytes)/(1024*1024)*10) / 10
}
