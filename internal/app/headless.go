package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/config"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
	"github.com/BesedinAlex/guides-fusion360-client/internal/viewer"
)

// statusInterval is how often the headless loop logs progress.
const statusInterval = 5 * time.Second

// Headless runs a session without a window or GPU. Frames are ticked by a
// timer and meshes are only accounted for.
type Headless struct {
	Session  *viewer.Session
	Surface  *viewer.VirtualSurface
	Device   *gpu.MemoryDevice
	Renderer *viewer.HeadlessRenderer
	Backend  *Backend

	log       *zap.Logger
	markers   []overlay.Marker
	abandoned error
}

// NewHeadless wires a headless session from cfg.
func NewHeadless(cfg *config.Config) *Headless {
	log := logger.Named("headless")
	h := &Headless{
		Surface:  viewer.NewVirtualSurface(cfg.Graphics.Width, cfg.Graphics.Height),
		Device:   gpu.NewMemoryDevice(),
		Renderer: &viewer.HeadlessRenderer{},
		Backend:  NewBackend(cfg, log),
		log:      log,
	}
	sched := viewer.NewTickerScheduler(cfg.Viewer.HeadlessFPS, nil)
	h.Session = NewSession(cfg, h.Backend, Platform{
		Surface:   h.Surface,
		Renderer:  h.Renderer,
		Device:    h.Device,
		Scheduler: sched,
	}, Hooks{
		Notify:    func(msg string) { log.Warn("viewer notice", zap.String("message", msg)) },
		OnAbandon: func(err error) { h.abandoned = err },
		OnFrame:   func(m []overlay.Marker) { h.markers = m },
	}, log)
	sched.Dispatcher = h.Session.Dispatcher()
	return h
}

// Run starts the session and pumps it until ctx ends or the model cannot
// be loaded. The session is torn down before Run returns.
func (h *Headless) Run(ctx context.Context) error {
	defer h.Session.Teardown()
	if err := h.Session.Start(); err != nil {
		return err
	}

	status := time.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("headless viewer stopping", zap.Uint64("frames", h.Renderer.Frames()))
			return nil
		case <-h.Session.Dispatcher().Wake():
			h.Session.Pump()
			if h.abandoned != nil {
				return fmt.Errorf("viewer abandoned: %w", h.abandoned)
			}
		case <-status.C:
			st := h.Session.State()
			h.log.Info("headless viewer status",
				zap.Bool("loaded", st.IsLoaded),
				zap.Int("annotations", len(st.Annotations)),
				zap.Int("markers", len(h.markers)),
				zap.Uint64("frames", h.Renderer.Frames()),
				zap.Int("live_handles", h.Device.Live()),
			)
		}
	}
}

// Markers returns the layout of the last frame.
func (h *Headless) Markers() []overlay.Marker {
	return h.markers
}
