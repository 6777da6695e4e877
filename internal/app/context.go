package app

import (
	"context"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/config"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/jobs"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/ytdlp"
)

// Prober answers metadata-only queries against yt-dlp.
// The handlers call the orchestrator for downloads and this for analysis;
// neither needs the concrete client.
type Prober interface {
	Probe(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
	Version(ctx context.Context) (string, error)
}

// History is the slice of persistence the web layer reads directly.
type History interface {
	ListRecentJobs(limit int) ([]*domain.Job, error)
}

// Context holds the shared resources the HTTP layer works against. It acts
// as the single source of truth for application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Tracker      *jobs.Tracker
	Orchestrator *jobs.Orchestrator
	Prober       Prober
	History      History

	// BaseCtx is the server lifecycle context; background downloads are
	// bound to it, not to individual requests.
	BaseCtx context.Context
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config:  cfg,
		Logger:  log,
		BaseCtx: context.Background(),
	}
}
