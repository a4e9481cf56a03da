package widgets

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ParameterPanel holds the outline and pedestal controls.
type ParameterPanel struct {
	container      *fyne.Container
	gapEntry       *widget.Entry
	thicknessEntry *widget.Entry
	pedestalSelect *widget.Select
	zoomSlider     *widget.Slider
	zoomLabel      *widget.Label

	zoomHandler func(float32)
}

func NewParameterPanel(pedestals []string, gap, thickness int, pedestal string) *ParameterPanel {
	pp := &ParameterPanel{}

	pp.gapEntry = widget.NewEntry()
	pp.gapEntry.SetText(strconv.Itoa(gap))
	pp.gapEntry.Validator = nonNegativeInt

	pp.thicknessEntry = widget.NewEntry()
	pp.thicknessEntry.SetText(strconv.Itoa(thickness))
	pp.thicknessEntry.Validator = nonNegativeInt

	pp.pedestalSelect = widget.NewSelect(pedestals, nil)
	if pedestal != "" {
		pp.pedestalSelect.SetSelected(pedestal)
	}

	pp.zoomLabel = widget.NewLabel("Zoom: 100%")
	pp.zoomSlider = widget.NewSlider(0.25, 4)
	pp.zoomSlider.Step = 0.25
	pp.zoomSlider.SetValue(1)
	pp.zoomSlider.OnChanged = func(v float64) {
		pp.zoomLabel.SetText(fmt.Sprintf("Zoom: %.0f%%", v*100))
		if pp.zoomHandler != nil {
			pp.zoomHandler(float32(v))
		}
	}

	pp.container = container.NewHBox(
		widget.NewLabel("Gap"), sized(pp.gapEntry),
		widget.NewLabel("Thickness"), sized(pp.thicknessEntry),
		widget.NewSeparator(),
		widget.NewLabel("Pedestal"), pp.pedestalSelect,
		widget.NewSeparator(),
		pp.zoomLabel, sized(pp.zoomSlider),
	)
	return pp
}

func sized(o fyne.CanvasObject) fyne.CanvasObject {
	return container.NewGridWrap(fyne.NewSize(120, o.MinSize().Height), o)
}

func nonNegativeInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}

func (pp *ParameterPanel) GetContainer() *fyne.Container {
	return pp.container
}

func (pp *ParameterPanel) SetZoomHandler(handler func(float32)) {
	pp.zoomHandler = handler
}

// Outline returns the gap and thickness entered by the user.
func (pp *ParameterPanel) Outline() (int, int, error) {
	gap, err := strconv.Atoi(pp.gapEntry.Text)
	if err != nil || gap < 0 {
		return 0, 0, fmt.Errorf("gap must be a non-negative integer, got %q", pp.gapEntry.Text)
	}
	thickness, err := strconv.Atoi(pp.thicknessEntry.Text)
	if err != nil || thickness < 0 {
		return 0, 0, fmt.Errorf("thickness must be a non-negative integer, got %q", pp.thicknessEntry.Text)
	}
	return gap, thickness, nil
}

func (pp *ParameterPanel) Pedestal() string {
	return pp.pedestalSelect.Selected
}
