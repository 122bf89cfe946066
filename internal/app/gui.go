package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/config"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/debug"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/renderer"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/ui2d"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/window"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/internal/viewer"
)

// noticeDuration is how long a notice stays on screen.
const noticeDuration = 4 * time.Second

var background = [4]float32{1, 1, 1, 1}

// App is the windowed viewer.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window    *window.Window
	renderer  *renderer.Renderer
	ui        *ui2d.Context
	scheduler *viewer.ManualScheduler
	backend   *Backend
	session   *viewer.Session

	screenshots *debug.Screenshots
	capture     bool

	notice      string
	noticeUntil time.Time
	abandoned   error
}

// New creates the window, the GL renderer and the viewer session.
func New(cfg *config.Config) (*App, error) {
	log := logger.Named("app")
	log.Info("initializing viewer",
		zap.Int("model_id", cfg.Viewer.ModelID),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	a := &App{
		cfg:         cfg,
		log:         log,
		screenshots: debug.NewScreenshots(cfg.Viewer.ScreenshotDir, fmt.Sprintf("model%d", cfg.Viewer.ModelID)),
	}

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      windowTitle(cfg.Viewer.ModelID, viewer.ModeView),
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Log:        logger.Named("window"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := a.window.Size()
	a.renderer, err = renderer.New(renderer.Config{
		Width:  width,
		Height: height,
		Log:    logger.Named("renderer"),
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.ui, err = ui2d.NewContext(width, height)
	if err != nil {
		a.renderer.Dispose()
		a.window.Close()
		return nil, fmt.Errorf("failed to create ui: %w", err)
	}

	a.scheduler = &viewer.ManualScheduler{}
	a.backend = NewBackend(cfg, log)
	a.session = NewSession(cfg, a.backend, Platform{
		Surface:   a.window,
		Renderer:  a.renderer,
		Device:    renderer.NewDevice(),
		Scheduler: a.scheduler,
	}, Hooks{
		Notify:    a.notify,
		OnAbandon: func(err error) { a.abandoned = err },
	}, log)

	log.Info("viewer initialized successfully")
	return a, nil
}

// Run drives the session until the window closes or the model cannot be
// loaded.
func (a *App) Run() error {
	if err := a.session.Start(); err != nil {
		return err
	}
	a.running = true

	frameCount := 0
	fpsTimer := time.Now()
	mode := viewer.ModeView

	a.log.Info("starting viewer loop")
	for a.running {
		for _, e := range a.window.PollEvents() {
			a.handleEvent(e)
		}

		a.session.Pump()
		if a.abandoned != nil {
			return fmt.Errorf("viewer abandoned: %w", a.abandoned)
		}

		if !a.scheduler.Step() {
			a.renderer.Clear(background)
		}
		a.drawUI()
		if a.capture {
			a.capture = false
			a.saveScreenshot()
		}
		a.window.SwapBuffers()

		if st := a.session.State(); st.Mode != mode {
			mode = st.Mode
			a.window.SetTitle(windowTitle(st.ModelID, mode))
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// handleEvent routes one window event. Pointer events over the UI stay
// with the UI; everything else reaches the session through the window.
func (a *App) handleEvent(e input.Event) {
	a.ui.Input().HandleEvent(e)

	switch e.Type {
	case input.EventQuit:
		a.running = false
		return
	case input.EventWindowResize:
		a.renderer.SetSize(e.Width, e.Height)
		a.ui.Resize(e.Width, e.Height)
	case input.EventKeyDown:
		if a.ui.TextFocused() {
			return
		}
		switch e.Key {
		case input.KeyEscape:
			a.running = false
		case input.KeyM:
			a.session.ToggleMode()
		case input.KeyF12:
			a.capture = true
		}
		return
	case input.EventMouseDown, input.EventMouseWheel:
		if a.ui.Captures(float32(e.MouseX), float32(e.MouseY)) {
			return
		}
	case input.EventTextInput, input.EventKeyUp:
		return
	}
	a.window.Dispatch(e)
}

func (a *App) drawUI() {
	st := a.session.State()
	a.ui.Begin()

	hit := a.ui.Markers(a.session.Markers(), st.Role.CanEdit())
	switch hit.Part {
	case ui2d.PartBadge, ui2d.PartDetails:
		a.session.ToggleMarker(hit.DisplayIndex)
	case ui2d.PartDelete:
		if err := a.session.DeleteAnnotation(hit.ID); err != nil {
			a.notify(err.Error())
		}
	}

	panelH := float32(84)
	if st.Role.CanEdit() {
		panelH += 30
		if st.Mode == viewer.ModeAnnotate {
			panelH += 60
		}
	}
	if a.ui.BeginWindow("controls", 10, 10, 300, panelH, fmt.Sprintf("Model %d", st.ModelID)) {
		a.ui.Row(16)
		status := "loading..."
		if st.IsLoaded {
			status = fmt.Sprintf("%d annotations", len(st.Annotations))
		}
		a.ui.Label(status)
		a.ui.LabelColored(st.Role.String(), ui2d.ColorTextDim)

		if st.Role.CanEdit() {
			a.ui.Row(22)
			label := "Annotate (M)"
			if st.Mode == viewer.ModeAnnotate {
				label = "View (M)"
			}
			if a.ui.Button("mode", 0, label) {
				a.session.ToggleMode()
			}
			if st.Mode == viewer.ModeAnnotate {
				a.ui.Row(22)
				name, nameChanged, _ := a.ui.TextInput("name", 0, st.Draft.Name)
				a.ui.Row(22)
				text, textChanged, _ := a.ui.TextInput("text", 0, st.Draft.Text)
				if nameChanged || textChanged {
					a.session.SetDraft(name, text)
				}
			}
		}

		a.ui.Row(16)
		if a.notice != "" && time.Now().Before(a.noticeUntil) {
			a.ui.LabelColored(a.notice, ui2d.ColorDanger)
		}
		a.ui.EndWindow()
	}

	a.ui.End()
}

func (a *App) saveScreenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.screenshots.CapturePixels(pixels, w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		a.notify("screenshot failed")
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
	a.notify("saved " + path)
}

func (a *App) notify(msg string) {
	a.log.Info("notice", zap.String("message", msg))
	a.notice = msg
	a.noticeUntil = time.Now().Add(noticeDuration)
}

// Close tears the session down and releases the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.session != nil {
		a.session.Teardown()
	}
	if a.renderer != nil {
		// Already released when a scene was torn down
		a.renderer.Dispose()
	}
	if a.ui != nil {
		a.ui.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

func windowTitle(modelID int, mode viewer.Mode) string {
	return fmt.Sprintf("Guides viewer - model %d [%s]", modelID, mode)
}
