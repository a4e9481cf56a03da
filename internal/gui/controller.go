package gui

import (
	"fmt"
	"io"
	"sync"

	"figure-stand/internal/logger"
	"figure-stand/internal/models"
	"figure-stand/internal/pipeline"

	"fyne.io/fyne/v2"
)

// Controller runs pipeline steps off the UI goroutine and pushes results back
// with fyne.Do.
type Controller struct {
	view        *View
	coordinator pipeline.ProcessingCoordinator
	logger      logger.Logger

	mu   sync.Mutex
	busy bool
}

func NewController(coord pipeline.ProcessingCoordinator, log logger.Logger) *Controller {
	return &Controller{coordinator: coord, logger: log}
}

func (c *Controller) SetView(view *View) {
	c.view = view
}

func (c *Controller) LoadImage() {
	c.view.ShowFileDialog(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("File selection error", err)
			return
		}
		if reader == nil {
			return
		}

		c.run("Loading image...", func() error {
			defer reader.Close()
			return c.coordinator.LoadImage(reader, reader.URI().Name())
		}, func() {
			img, err := c.coordinator.CurrentImage()
			if err == nil {
				c.view.SetSourceImage(img)
			}
		})
	})
}

func (c *Controller) Outline() {
	gap, thickness, err := c.view.OutlineParams()
	if err != nil {
		c.handleError("Invalid parameters", err)
		return
	}
	c.run("Generating outline...", func() error {
		return c.coordinator.Outline(gap, thickness)
	}, nil)
}

func (c *Controller) Composite() {
	name := c.view.Pedestal()
	if name == "" {
		c.handleError("Pedestal", fmt.Errorf("select a pedestal first"))
		return
	}
	c.run("Adding pedestal...", func() error {
		return c.coordinator.Composite(name)
	}, nil)
}

func (c *Controller) Merge() {
	c.run("Merging boundaries...", c.coordinator.Merge, nil)
}

func (c *Controller) SaveImage() {
	c.view.ShowSaveDialog("figure.png", func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("File save error", err)
			return
		}
		if writer == nil {
			return
		}
		c.save(writer, func(w io.Writer) error {
			return c.coordinator.SaveCurrent(w, "png")
		})
	})
}

func (c *Controller) ExportSVG() {
	c.view.ShowSaveDialog("figure.svg", func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("File save error", err)
			return
		}
		if writer == nil {
			return
		}
		c.save(writer, c.coordinator.ExportSVG)
	})
}

func (c *Controller) save(writer fyne.URIWriteCloser, write func(io.Writer) error) {
	path := writer.URI().Path()
	c.run("Saving...", func() error {
		defer writer.Close()
		return write(writer)
	}, func() {
		c.logger.Info("Controller", "file written", map[string]interface{}{"path": path})
		c.view.SetStatus("Saved " + writer.URI().Name())
	})
}

// run executes step in the background, then refreshes the view. onSuccess runs
// on the UI goroutine.
func (c *Controller) run(status string, step func() error, onSuccess func()) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.logger.Debug("Controller", "step already running", nil)
		return
	}
	c.busy = true
	c.mu.Unlock()

	c.view.SetBusy(status)

	go func() {
		err := step()

		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()

		fyne.Do(func() {
			if err != nil {
				c.handleError(status, err)
			} else if onSuccess != nil {
				onSuccess()
			}
			c.refresh(err == nil)
		})
	}()
}

// refresh redraws the result and button states from the coordinator.
func (c *Controller) refresh(updateImage bool) {
	state := c.coordinator.State()
	c.view.SetState(state.String())
	m := c.coordinator.Metrics()

	if updateImage {
		if img, err := c.coordinator.CurrentImage(); err == nil {
			c.view.SetResultImage(img)
		}
		c.view.SetStatus(statusText(m))
	}

	c.view.SetMetrics(m.BoundaryArea, m.Intersections)
}

// statusText summarizes a run for the status bar. A placeholder pedestal is
// called out since the asset file was not used.
func statusText(m pipeline.RunMetrics) string {
	status := "Ready: " + m.State
	if m.Placeholder {
		status += fmt.Sprintf(" (pedestal %s asset missing, placeholder drawn)", m.Pedestal)
	}
	return status
}

func (c *Controller) handleError(title string, err error) {
	c.logger.Error("Controller", err, map[string]interface{}{
		"title": title,
	})

	switch {
	case models.IsGeometry(err):
		c.view.SetStatus("Adjust gap or pedestal and retry")
	case models.IsInput(err):
		c.view.SetStatus("Input rejected")
	default:
		c.view.SetStatus("Failed")
	}
	c.view.ShowError(err)
}
