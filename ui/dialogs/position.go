// Package dialogs provides application dialogs.
package dialogs

import (
	"strconv"

	"mag-surveyor/internal/app"
	"mag-surveyor/internal/grid"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// PositionDialog asks for a cell to jump the cursor to.
type PositionDialog struct {
	current grid.Cell
	window  fyne.Window

	xEntry *widget.Entry
	yEntry *widget.Entry

	onSave func(grid.Cell)
}

// NewPositionDialog creates a position dialog prefilled with current.
func NewPositionDialog(current grid.Cell, window fyne.Window, onSave func(grid.Cell)) *PositionDialog {
	return &PositionDialog{current: current, window: window, onSave: onSave}
}

// Show displays the dialog. Non-numeric input is reported and nothing is
// changed.
func (d *PositionDialog) Show() {
	dlg := dialog.NewCustomConfirm("Set Position", "Go", "Cancel", d.createContent(), func(ok bool) {
		if !ok {
			return
		}
		if err := d.apply(); err != nil {
			dialog.ShowError(err, d.window)
		}
	}, d.window)
	dlg.Resize(fyne.NewSize(300, 200))
	dlg.Show()
}

func (d *PositionDialog) createContent() fyne.CanvasObject {
	d.xEntry = widget.NewEntry()
	d.xEntry.SetText(strconv.Itoa(d.current.X))
	d.yEntry = widget.NewEntry()
	d.yEntry.SetText(strconv.Itoa(d.current.Y))

	return widget.NewForm(
		widget.NewFormItem("X", d.xEntry),
		widget.NewFormItem("Y", d.yEntry),
	)
}

func (d *PositionDialog) apply() error {
	c, err := app.ParseCell(d.xEntry.Text, d.yEntry.Text)
	if err != nil {
		return err
	}
	if d.onSave != nil {
		d.onSave(c)
	}
	return nil
}
