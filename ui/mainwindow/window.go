// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"mag-surveyor/internal/app"
	"mag-surveyor/internal/dataset"
	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/sensor"
	"mag-surveyor/internal/version"
	"mag-surveyor/ui/canvas"
	"mag-surveyor/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir  = "lastDirectory"
	prefKeyLastPlan = "lastFloorPlan"

	title = "Mag Surveyor"

	// sensorRefresh is the shortest interval between magnitude label updates.
	sensorRefresh = 200 * time.Millisecond
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	canvas *canvas.SurveyCanvas

	statusBar   *widget.Label
	posLabel    *widget.Label
	countLabel  *widget.Label
	magLabel    *widget.Label
	uncaliLabel *widget.Label

	pinBtn      *widget.Button
	deleteBtn   *widget.Button
	autoPin     *widget.Check
	obstacle    *widget.Check
	showEdges   *widget.Check
	edgesToggle *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow(title)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.restoreLastPlan()
	mw.refreshLabels()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewSurveyCanvas(mw.state.Scene)
	mw.canvas.OnPan(mw.state.Pan)
	mw.canvas.OnZoom(mw.state.Zoom)
	mw.canvas.OnTapCell(mw.state.MoveTo)

	mw.statusBar = widget.NewLabel("Ready")
	mw.posLabel = widget.NewLabel("")
	mw.countLabel = widget.NewLabel("")
	mw.magLabel = widget.NewLabel("Mag: 0")
	mw.uncaliLabel = widget.NewLabel("Uncali: 0")

	modes := mw.state.Modes()
	mw.autoPin = widget.NewCheck("Auto-pin", mw.state.SetAutoPin)
	mw.autoPin.SetChecked(modes.AutoPin)
	mw.obstacle = widget.NewCheck("Obstacle", mw.state.SetObstacleMode)
	mw.obstacle.SetChecked(modes.ObstacleMode)
	mw.showEdges = widget.NewCheck("Edges", mw.state.SetShowEdges)
	mw.showEdges.SetChecked(modes.ShowEdges)

	mw.pinBtn = widget.NewButtonWithIcon("Pin", theme.ContentAddIcon(), mw.state.Pin)
	mw.pinBtn.Importance = widget.HighImportance
	mw.deleteBtn = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), mw.onDelete)

	toolbar := container.NewHBox(
		mw.pinBtn,
		mw.deleteBtn,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), mw.canvas.ZoomOut),
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), mw.canvas.ZoomIn),
		widget.NewSeparator(),
		mw.autoPin,
		mw.obstacle,
		mw.showEdges,
	)

	readings := container.NewVBox(
		mw.posLabel,
		mw.magLabel,
		mw.uncaliLabel,
		mw.countLabel,
	)

	controls := container.NewHBox(
		mw.createArrowPad(),
		widget.NewSeparator(),
		readings,
	)

	content := container.NewBorder(
		toolbar, // top
		container.NewVBox(controls, container.NewPadded(mw.statusBar)), // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	mw.SetContent(content)
	mw.Canvas().SetOnTypedKey(mw.onKey)
	mw.SetCloseIntercept(mw.onClose)
	mw.Resize(fyne.NewSize(900, 800))
}

// createArrowPad lays out the four move buttons as a cross.
func (mw *MainWindow) createArrowPad() fyne.CanvasObject {
	move := func(dx, dy int) func() {
		return func() { mw.state.Move(dx, dy) }
	}
	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), move(0, 1))
	down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), move(0, -1))
	left := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), move(-1, 0))
	right := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), move(1, 0))

	return container.NewGridWithColumns(3,
		widget.NewLabel(""), up, widget.NewLabel(""),
		left, widget.NewButton("Go…", mw.onSetPosition), right,
		widget.NewLabel(""), down, widget.NewLabel(""),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	exportPath := mw.state.Config().ExportPath()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Import CSV...", mw.onImport),
		fyne.NewMenuItem("Export CSV...", mw.onExport),
		fyne.NewMenuItem("Export to "+filepath.Base(exportPath), mw.onQuickExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Floor Plan...", mw.onLoadPlan),
	)

	mw.edgesToggle = fyne.NewMenuItem("Show Edges", func() {
		mw.state.SetShowEdges(!mw.state.Modes().ShowEdges)
	})
	mw.edgesToggle.Checked = mw.state.Modes().ShowEdges

	editMenu := fyne.NewMenu("Survey",
		fyne.NewMenuItem("Set Position...", mw.onSetPosition),
		fyne.NewMenuItem("Grid Settings...", mw.onSettings),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear All Records...", mw.onClearAll),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Center on Cursor", func() {
			mw.state.MoveTo(mw.state.Survey().Cursor)
		}),
		fyne.NewMenuItemSeparator(),
		mw.edgesToggle,
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventCursorMoved, func(data interface{}) {
		if c, ok := data.(grid.Cell); ok {
			mw.posLabel.SetText("Position: " + c.String())
		}
	})

	mw.state.On(app.EventViewChanged, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventRecordsChanged, func(data interface{}) {
		if n, ok := data.(int); ok {
			mw.countLabel.SetText(fmt.Sprintf("Records: %d", n))
		}
		mw.updateTitle()
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventModeChanged, func(data interface{}) {
		m, ok := data.(app.Modes)
		if !ok {
			return
		}
		mw.autoPin.SetChecked(m.AutoPin)
		mw.obstacle.SetChecked(m.ObstacleMode)
		mw.showEdges.SetChecked(m.ShowEdges)
		mw.edgesToggle.Checked = m.ShowEdges
		if menu := mw.MainMenu(); menu != nil {
			menu.Refresh()
		}
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventPlanLoaded, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventMessage, func(data interface{}) {
		if text, ok := data.(string); ok {
			mw.updateStatus(text)
		}
	})

	mw.state.On(app.EventImported, func(data interface{}) {
		res, ok := data.(app.ImportResult)
		switch {
		case !ok:
		case errors.Is(res.Err, dataset.ErrEmptyFile):
			dialog.ShowInformation("Import", filepath.Base(res.Source)+" is empty; nothing was imported.", mw.Window)
		case res.Err != nil:
			dialog.ShowError(res.Err, mw.Window)
		}
		mw.updateTitle()
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		if res, ok := data.(app.ExportResult); ok && res.Err != nil {
			dialog.ShowError(res.Err, mw.Window)
		}
		mw.updateTitle()
	})
}

// StartSensorLabels updates the magnitude labels as samples arrive, at most
// once per sensorRefresh.
func (mw *MainWindow) StartSensorLabels() {
	var last atomic.Int64
	mw.state.Sampler().OnChange(func(smp sensor.Sample) {
		now := time.Now().UnixNano()
		prev := last.Load()
		if now-prev < int64(sensorRefresh) || !last.CompareAndSwap(prev, now) {
			return
		}
		mw.showSample(smp)
	})
}

func (mw *MainWindow) refreshSensorLabels() {
	mw.showSample(mw.state.Sampler().Latest())
}

func (mw *MainWindow) showSample(smp sensor.Sample) {
	mw.magLabel.SetText(fmt.Sprintf("Mag: %d", smp.CalibratedMagnitude()))
	mw.uncaliLabel.SetText(fmt.Sprintf("Uncali: %d", smp.UncalibratedMagnitude()))
}

func (mw *MainWindow) refreshLabels() {
	sv := mw.state.Survey()
	mw.posLabel.SetText("Position: " + sv.Cursor.String())
	mw.countLabel.SetText(fmt.Sprintf("Records: %d", sv.Records.Len()))
	mw.refreshSensorLabels()
	mw.updateTitle()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	t := title
	if p := mw.state.Plan(); p != nil && p.Path != "" {
		t += " - " + filepath.Base(p.Path)
	}
	if mw.state.Modified() {
		t += " *"
	}
	mw.SetTitle(t)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restoreLastPlan reloads the previously opened floor plan when the
// configuration names none.
func (mw *MainWindow) restoreLastPlan() {
	if mw.state.Plan() != nil {
		return
	}
	path := mw.app.Preferences().String(prefKeyLastPlan)
	if path == "" {
		return
	}
	if err := mw.state.LoadPlan(path); err != nil {
		mw.updateStatus("Could not reopen floor plan: " + err.Error())
	}
}

// Key and action handlers

func (mw *MainWindow) onKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyUp:
		mw.state.Move(0, 1)
	case fyne.KeyDown:
		mw.state.Move(0, -1)
	case fyne.KeyLeft:
		mw.state.Move(-1, 0)
	case fyne.KeyRight:
		mw.state.Move(1, 0)
	case fyne.KeySpace, fyne.KeyReturn, fyne.KeyEnter:
		mw.state.Pin()
	case fyne.KeyDelete, fyne.KeyBackspace:
		mw.onDelete()
	case fyne.KeyPlus, fyne.KeyEqual:
		mw.canvas.ZoomIn()
	case fyne.KeyMinus:
		mw.canvas.ZoomOut()
	}
}

func (mw *MainWindow) onDelete() {
	sv := mw.state.Survey()
	if _, ok := sv.Records.Get(sv.Cursor); !ok {
		mw.updateStatus("Nothing recorded at " + sv.Cursor.String())
		return
	}
	dialog.ShowConfirm("Delete", "Remove the record at "+sv.Cursor.String()+"?", func(ok bool) {
		if ok {
			mw.state.Delete()
		}
	}, mw.Window)
}

func (mw *MainWindow) onClearAll() {
	dialog.ShowConfirm("Clear All", "Remove every record? This cannot be undone.", func(ok bool) {
		if ok {
			mw.state.Clear()
			mw.updateStatus("All records cleared")
		}
	}, mw.Window)
}

func (mw *MainWindow) onSetPosition() {
	dialogs.NewPositionDialog(mw.state.Survey().Cursor, mw.Window, mw.state.MoveTo).Show()
}

func (mw *MainWindow) onSettings() {
	cur := app.Settings{Spacing: mw.state.Survey().Spacing}
	if p := mw.state.Plan(); p != nil {
		cur.Anchor = p.Anchor
	}
	dialogs.NewSettingsDialog(cur, mw.Window, mw.state.ApplySettings).Show()
}

// onImport asks for the import mode when there is something to merge into,
// then for the file.
func (mw *MainWindow) onImport() {
	if mw.state.Survey().Records.Len() == 0 {
		mw.pickImportFile(dataset.Replace)
		return
	}
	modes := []string{dataset.Replace.String(), dataset.Merge.String()}
	choice := widget.NewRadioGroup(modes, nil)
	choice.Horizontal = true
	choice.SetSelected(mw.state.ImportMode().String())
	content := container.NewVBox(
		widget.NewLabel("Existing records can be replaced or merged with the file."),
		choice,
	)
	dialog.ShowCustomConfirm("Import", "Continue", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		mode, err := dataset.ParseMode(choice.Selected)
		if err != nil {
			mode = mw.state.ImportMode()
		}
		mw.pickImportFile(mode)
	}, mw.Window)
}

func (mw *MainWindow) pickImportFile(mode dataset.Mode) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.updateStatus("Importing " + filepath.Base(path) + "...")
		mw.state.ImportFrom(reader, path, mode)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExport() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if writer == nil {
			return
		}
		path := writer.URI().Path()
		mw.saveLastDir(path)
		mw.state.ExportTo(writer, path)
	}, mw.Window)
	fd.SetFileName(mw.state.Config().Export.FileName)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onQuickExport() {
	mw.state.ExportFile(mw.state.Config().ExportPath())
}

func (mw *MainWindow) onLoadPlan() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadPlan(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastPlan, path)
		mw.updateTitle()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(floorplan.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onClose() {
	if !mw.state.Modified() {
		mw.shutdown()
		return
	}
	dialog.ShowConfirm("Quit", "Records have not been exported and will be lost. Quit anyway?", func(ok bool) {
		if ok {
			mw.shutdown()
		}
	}, mw.Window)
}

func (mw *MainWindow) shutdown() {
	mw.Window.Close()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Records magnetometer readings on a floor grid\n"+
			"for magnetic fingerprint maps.",
			title, version.String()),
		mw.Window)
}
