package controllers

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/app"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/youtube"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/ytdlp"
)

//go:embed templates/*.html
var templateFS embed.FS

// DownloadController handles the whole user-facing surface: the form page,
// analysis, job creation, progress polling and file retrieval.
type DownloadController struct {
	App       *app.Context
	templates *template.Template
}

func NewDownloadController(appCtx *app.Context) *DownloadController {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
	return &DownloadController{App: appCtx, templates: tmpl}
}

// indexData feeds the form page template.
type indexData struct {
	Flash  *Flash
	Video  *ytdlp.VideoInfo
	URL    string
	Recent []*domain.Job
}

type downloadData struct {
	JobID string
}

func (ctrl *DownloadController) render(c *echo.Context, status int, page string, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return ctrl.templates.ExecuteTemplate(c.Response(), page, data)
}

func (ctrl *DownloadController) renderIndex(c *echo.Context, status int, data indexData) error {
	if data.Flash == nil {
		data.Flash = PopFlash(c)
	}
	if data.Recent == nil && ctrl.App.History != nil {
		// History failures only cost the sidebar, not the page.
		data.Recent, _ = ctrl.App.History.ListRecentJobs(10)
	}
	return ctrl.render(c, status, "index.html", data)
}

// Index renders the URL input form.
func (ctrl *DownloadController) Index(c *echo.Context) error {
	return ctrl.renderIndex(c, http.StatusOK, indexData{})
}

// Analyze validates the submitted URL and shows the available formats.
func (ctrl *DownloadController) Analyze(c *echo.Context) error {
	url := strings.TrimSpace(c.FormValue("url"))

	if url == "" {
		SetFlash(c, FlashError, "Please enter a YouTube URL")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if !youtube.IsWatchURL(url) {
		SetFlash(c, FlashError, "Please enter a valid YouTube URL")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	info, err := ctrl.App.Prober.Probe(c.Request().Context(), url)
	if err != nil {
		ctrl.App.Logger.Error("analysis of %s failed: %v", url, err)
		SetFlash(c, FlashError, "Unable to analyze video. Please check the URL and try again.")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	return ctrl.renderIndex(c, http.StatusOK, indexData{Video: info, URL: url})
}

// StartDownload accepts the quality choice, spawns the background job and
// returns the polling page immediately.
func (ctrl *DownloadController) StartDownload(c *echo.Context) error {
	url := strings.TrimSpace(c.FormValue("url"))
	quality := strings.TrimSpace(c.FormValue("quality"))

	if url == "" || quality == "" {
		SetFlash(c, FlashError, "Missing URL or quality selection")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	videoID := youtube.ExtractVideoID(url)
	if videoID == "" || !ytdlp.ValidQuality(quality) {
		SetFlash(c, FlashError, "Missing URL or quality selection")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	// The download outlives this request; it binds to the server context.
	job := ctrl.App.Orchestrator.Start(ctrl.App.BaseCtx, url, videoID, quality)

	return ctrl.render(c, http.StatusOK, "download.html", downloadData{JobID: job.ID})
}

// Progress reports the job's current state as JSON for the polling page.
func (ctrl *DownloadController) Progress(c *echo.Context) error {
	id := c.Param("id")

	job, ok := ctrl.App.Tracker.Get(id)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{
			"status": string(domain.StatusNotFound),
			"error":  "Download not found",
		})
	}

	return c.JSON(http.StatusOK, job)
}

// FetchFile serves the finished download as an attachment.
func (ctrl *DownloadController) FetchFile(c *echo.Context) error {
	id := c.Param("id")

	job, ok := ctrl.App.Tracker.Get(id)
	if !ok || job.Status != domain.StatusCompleted {
		SetFlash(c, FlashError, "File not ready for download")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if job.FilePath == "" {
		SetFlash(c, FlashError, "File not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		SetFlash(c, FlashError, "File not found")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", job.Filename))
	http.ServeFile(c.Response(), c.Request(), job.FilePath)
	return nil
}

// Events streams progress as server-sent events until the job settles.
// The polling endpoint remains the primary interface; this just saves the
// page from hammering it.
func (ctrl *DownloadController) Events(c *echo.Context) error {
	id := c.Param("id")

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(c.Response())
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
			job, ok := ctrl.App.Tracker.Get(id)
			if !ok {
				fmt.Fprintf(c.Response(), "event: error\ndata: Download not found\n\n")
				rc.Flush()
				return nil
			}
			data, _ := json.Marshal(job)
			fmt.Fprintf(c.Response(), "data: %s\n\n", data)
			rc.Flush()

			if job.Status.IsTerminal() {
				return nil
			}
		}
	}
}

// Health reports whether the yt-dlp binary is reachable.
func (ctrl *DownloadController) Health(c *echo.Context) error {
	version, err := ctrl.App.Prober.Version(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  "yt-dlp unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"ytdlp":  version,
	})
}

// NotFound renders the form page for unmatched routes.
func (ctrl *DownloadController) NotFound(c *echo.Context) error {
	return ctrl.renderIndex(c, http.StatusNotFound, indexData{})
}

// InternalError renders the form page with a generic flash for failures
// that escape the handlers.
func (ctrl *DownloadController) InternalError(c *echo.Context) error {
	flash := &Flash{Category: FlashError, Message: "An internal error occurred. Please try again."}
	return ctrl.renderIndex(c, http.StatusInternalServerError, indexData{Flash: flash})
}
