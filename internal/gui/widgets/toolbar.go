package widgets

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Stage buttons enabled for each pipeline state, in order: outline,
// composite, merge, save, export.
var stageButtons = map[string][5]bool{
	"empty":      {false, false, false, false, false},
	"loaded":     {true, false, false, true, false},
	"outlined":   {true, true, false, true, false},
	"composited": {true, true, true, true, false},
	"merged":     {true, true, true, true, true},
}

type Toolbar struct {
	container       *fyne.Container
	loadButton      *widget.Button
	outlineButton   *widget.Button
	compositeButton *widget.Button
	mergeButton     *widget.Button
	saveButton      *widget.Button
	exportButton    *widget.Button
	statusLabel     *widget.Label
	metricsLabel    *widget.Label

	loadHandler      func()
	outlineHandler   func()
	compositeHandler func()
	mergeHandler     func()
	saveHandler      func()
	exportHandler    func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.createComponents()
	toolbar.buildLayout()
	toolbar.SetState("empty")
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.loadButton = widget.NewButton("Load Image", func() { call(t.loadHandler) })
	t.loadButton.Importance = widget.HighImportance

	t.outlineButton = widget.NewButton("Outline", func() { call(t.outlineHandler) })
	t.compositeButton = widget.NewButton("Add Pedestal", func() { call(t.compositeHandler) })
	t.mergeButton = widget.NewButton("Merge", func() { call(t.mergeHandler) })

	t.saveButton = widget.NewButton("Save PNG", func() { call(t.saveHandler) })
	t.saveButton.Importance = widget.HighImportance
	t.exportButton = widget.NewButton("Export SVG", func() { call(t.exportHandler) })

	t.statusLabel = widget.NewLabel("Ready")
	t.metricsLabel = widget.NewLabel("Area: -- | Intersections: --")
}

func (t *Toolbar) buildLayout() {
	background := canvas.NewRectangle(color.RGBA{R: 248, G: 249, B: 250, A: 255})

	content := container.NewHBox(
		t.loadButton,
		widget.NewSeparator(),
		t.outlineButton,
		t.compositeButton,
		t.mergeButton,
		widget.NewSeparator(),
		t.saveButton,
		t.exportButton,
		widget.NewSeparator(),
		container.NewVBox(widget.NewLabel("Status"), t.statusLabel),
		widget.NewSeparator(),
		container.NewVBox(widget.NewLabel("Result"), t.metricsLabel),
	)

	t.container = container.NewStack(
		background,
		container.NewPadded(content),
	)
}

func call(handler func()) {
	if handler != nil {
		handler()
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetLoadHandler(handler func())      { t.loadHandler = handler }
func (t *Toolbar) SetOutlineHandler(handler func())   { t.outlineHandler = handler }
func (t *Toolbar) SetCompositeHandler(handler func()) { t.compositeHandler = handler }
func (t *Toolbar) SetMergeHandler(handler func())     { t.mergeHandler = handler }
func (t *Toolbar) SetSaveHandler(handler func())      { t.saveHandler = handler }
func (t *Toolbar) SetExportHandler(handler func())    { t.exportHandler = handler }

// SetState enables the buttons valid in the named pipeline state. Must be
// called on the UI goroutine.
func (t *Toolbar) SetState(state string) {
	enabled, ok := stageButtons[state]
	if !ok {
		enabled = stageButtons["empty"]
	}
	buttons := []*widget.Button{t.outlineButton, t.compositeButton, t.mergeButton, t.saveButton, t.exportButton}
	for i, b := range buttons {
		if enabled[i] {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}

// SetBusy disables every button while a step runs.
func (t *Toolbar) SetBusy() {
	for _, b := range []*widget.Button{t.loadButton, t.outlineButton, t.compositeButton, t.mergeButton, t.saveButton, t.exportButton} {
		b.Disable()
	}
}

func (t *Toolbar) EnableLoad() {
	t.loadButton.Enable()
}

func (t *Toolbar) SetStatus(status string) {
	t.statusLabel.SetText(status)
}

func (t *Toolbar) SetMetrics(area float64, intersections int) {
	if area <= 0 {
		t.metricsLabel.SetText("Area: -- | Intersections: --")
		return
	}
	t.metricsLabel.SetText(fmt.Sprintf("Area: %.0f px | Intersections: %d", area, intersections))
}
