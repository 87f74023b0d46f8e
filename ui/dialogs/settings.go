package dialogs

import (
	"strconv"

	"mag-surveyor/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SettingsDialog edits the cell spacing and the floor-plan anchor.
type SettingsDialog struct {
	current app.Settings
	window  fyne.Window

	spacingEntry *widget.Entry
	anchorX      *widget.Entry
	anchorY      *widget.Entry

	onSave func(app.Settings)
}

// NewSettingsDialog creates a settings dialog prefilled with current.
func NewSettingsDialog(current app.Settings, window fyne.Window, onSave func(app.Settings)) *SettingsDialog {
	return &SettingsDialog{current: current, window: window, onSave: onSave}
}

// Show displays the dialog.
func (d *SettingsDialog) Show() {
	dlg := dialog.NewCustomConfirm("Grid Settings", "Save", "Cancel", d.createContent(), func(save bool) {
		if !save {
			return
		}
		if err := d.apply(); err != nil {
			dialog.ShowError(err, d.window)
		}
	}, d.window)
	dlg.Resize(fyne.NewSize(360, 260))
	dlg.Show()
}

func (d *SettingsDialog) createContent() fyne.CanvasObject {
	d.spacingEntry = widget.NewEntry()
	d.spacingEntry.SetText(strconv.FormatFloat(d.current.Spacing, 'f', -1, 64))
	d.anchorX = widget.NewEntry()
	d.anchorX.SetText(strconv.Itoa(d.current.Anchor.X))
	d.anchorY = widget.NewEntry()
	d.anchorY.SetText(strconv.Itoa(d.current.Anchor.Y))

	return widget.NewForm(
		widget.NewFormItem("Cell spacing (px)", d.spacingEntry),
		widget.NewFormItem("Plan anchor X (px)", d.anchorX),
		widget.NewFormItem("Plan anchor Y (px)", d.anchorY),
	)
}

func (d *SettingsDialog) apply() error {
	st, err := app.ParseSettings(d.spacingEntry.Text, d.anchorX.Text, d.anchorY.Text)
	if err != nil {
		return err
	}
	if d.onSave != nil {
		d.onSave(st)
	}
	return nil
}
