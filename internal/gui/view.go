package gui

import (
	"image"

	"figure-stand/internal/gui/widgets"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
)

// View handles all UI components and their layout
type View struct {
	window     fyne.Window
	controller *Controller

	toolbar        *widgets.Toolbar
	imageDisplay   *widgets.ImageDisplay
	parameterPanel *widgets.ParameterPanel
	mainContainer  *fyne.Container
}

func NewView(window fyne.Window, pedestals []string, gap, thickness int, pedestal string) *View {
	view := &View{
		window:         window,
		toolbar:        widgets.NewToolbar(),
		imageDisplay:   widgets.NewImageDisplay(),
		parameterPanel: widgets.NewParameterPanel(pedestals, gap, thickness, pedestal),
	}

	view.mainContainer = container.NewBorder(
		container.NewVBox(view.toolbar.GetContainer(), view.parameterPanel.GetContainer()),
		nil, nil, nil,
		view.imageDisplay.GetContainer(),
	)

	return view
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller

	v.toolbar.SetLoadHandler(controller.LoadImage)
	v.toolbar.SetOutlineHandler(controller.Outline)
	v.toolbar.SetCompositeHandler(controller.Composite)
	v.toolbar.SetMergeHandler(controller.Merge)
	v.toolbar.SetSaveHandler(controller.SaveImage)
	v.toolbar.SetExportHandler(controller.ExportSVG)
	v.parameterPanel.SetZoomHandler(v.imageDisplay.SetZoom)
}

func (v *View) SetSourceImage(img image.Image) {
	v.imageDisplay.SetSourceImage(img)
}

func (v *View) SetResultImage(img image.Image) {
	v.imageDisplay.SetResultImage(img)
}

func (v *View) SetStatus(status string) {
	v.toolbar.SetStatus(status)
}

func (v *View) SetState(state string) {
	v.toolbar.SetState(state)
	v.toolbar.EnableLoad()
}

func (v *View) SetBusy(status string) {
	v.toolbar.SetBusy()
	v.toolbar.SetStatus(status)
}

func (v *View) SetMetrics(area float64, intersections int) {
	v.toolbar.SetMetrics(area, intersections)
}

func (v *View) OutlineParams() (int, int, error) {
	return v.parameterPanel.Outline()
}

func (v *View) Pedestal() string {
	return v.parameterPanel.Pedestal()
}

func (v *View) ShowError(err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowInfo(title, message string) {
	dialog.ShowInformation(title, message, v.window)
}

func (v *View) ShowFileDialog(callback func(fyne.URIReadCloser, error)) {
	dialog.ShowFileOpen(callback, v.window)
}

func (v *View) ShowSaveDialog(name string, callback func(fyne.URIWriteCloser, error)) {
	d := dialog.NewFileSave(callback, v.window)
	d.SetFileName(name)
	d.Show()
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
