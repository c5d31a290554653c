package ui

import (
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"

	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/presence"
)

// AppConfig carries everything the window needs from the session wiring.
type AppConfig struct {
	Title     string
	ShareAddr string // host's dialable address, empty when joining
	Env       *gesture.Env
	Selection *presence.Channel[presence.Selection]
	Export    func(w io.Writer) error
	OnClosed  func()
}

// RunApp builds the window around a canvas widget and blocks until the
// user closes it.
func RunApp(cfg AppConfig) {
	a := app.New()
	win := a.NewWindow(cfg.Title)

	board := NewCanvasWidget(cfg.Env, cfg.Selection)
	if cfg.ShareAddr != "" {
		board.statusBar.SetText("Share link: localcanvas://" + cfg.ShareAddr)
	}

	// repaint on every document change and on remote gesture traffic
	cfg.Env.Doc.OnChange = func() { fyne.Do(board.Refresh) }
	cfg.Env.Drag.Subscribe(nil, func(string, presence.DragState, bool) {
		fyne.Do(board.Refresh)
	})
	cfg.Env.Resize.Subscribe(nil, func(string, presence.ResizeState, bool) {
		fyne.Do(board.Refresh)
	})

	toolbar := buildToolbar(board, win, cfg.Export)
	win.SetContent(container.NewBorder(toolbar, board.StatusBar(), nil, nil, board))
	win.Resize(fyne.NewSize(1100, 760))
	if cfg.OnClosed != nil {
		win.SetOnClosed(cfg.OnClosed)
	}
	win.ShowAndRun()
}
