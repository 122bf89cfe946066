// Package app runs the model viewer: it wires the backend client and the
// model cache to a viewer session and drives that session from a window
// or from a headless loop.
package app

import (
	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/api"
	"github.com/BesedinAlex/guides-fusion360-client/internal/assets"
	"github.com/BesedinAlex/guides-fusion360-client/internal/config"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
	"github.com/BesedinAlex/guides-fusion360-client/internal/viewer"
)

// Platform is what a host provides to draw a session.
type Platform struct {
	Surface   viewer.Surface
	Renderer  viewer.Renderer
	Device    gpu.Device
	Scheduler viewer.Scheduler
}

// Hooks receive session callbacks on the owning goroutine.
type Hooks struct {
	Notify    func(msg string)
	OnAbandon func(err error)
	OnFrame   func(markers []overlay.Marker)
}

// Backend groups the remote collaborators built from the server config.
type Backend struct {
	Client *api.Client
	Cache  *assets.Cache
	Models *assets.Manager
}

// NewBackend creates the API client and the cached model loader.
func NewBackend(cfg *config.Config, log *zap.Logger) *Backend {
	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.RequestTimeout, log.Named("api"))
	cache := assets.NewCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	return &Backend{
		Client: client,
		Cache:  cache,
		Models: assets.NewManager(client, cache, log.Named("assets")),
	}
}

// NewSession builds a viewer session for the configured model.
func NewSession(cfg *config.Config, b *Backend, p Platform, h Hooks, log *zap.Logger) *viewer.Session {
	return viewer.NewSession(viewer.Config{
		ModelID:       cfg.Viewer.ModelID,
		Surface:       p.Surface,
		Renderer:      p.Renderer,
		Device:        p.Device,
		Scheduler:     p.Scheduler,
		Models:        b.Models,
		Remote:        b.Client,
		Roles:         b.Client,
		EnableDamping: cfg.Viewer.EnableDamping,
		DampingFactor: cfg.Viewer.DampingFactor,
		HideOffscreen: cfg.Viewer.HideOffscreen,
		Notify:        h.Notify,
		OnAbandon:     h.OnAbandon,
		OnFrame:       h.OnFrame,
		Log:           log.Named("viewer"),
	})
}
