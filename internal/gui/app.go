package gui

import (
	"figure-stand/internal/config"
	"figure-stand/internal/logger"
	"figure-stand/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppID    = "io.figurestand.app"
	AppTitle = "Figure Stand"
)

// Run opens the main window and blocks until it is closed.
func Run(cfg *config.Config, coord *pipeline.Coordinator, log logger.Logger) {
	fyneApp := app.NewWithID(AppID)
	window := fyneApp.NewWindow(AppTitle)
	window.Resize(fyne.NewSize(1100, 750))

	params := cfg.Params()
	view := NewView(window, coord.PedestalNames(), params.Gap, params.Thickness, params.Pedestal)
	controller := NewController(coord, log)
	controller.SetView(view)
	view.SetController(controller)

	window.SetOnClosed(func() {
		log.Info("Application", "window closed", nil)
	})

	log.Info("Application", "GUI started", map[string]interface{}{
		"pedestals": len(coord.PedestalNames()),
	})

	view.Show()
	fyneApp.Run()
}
