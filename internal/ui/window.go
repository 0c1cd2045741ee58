// Package ui is the desktop window over a session.
package ui

import (
	"errors"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"nest-cleaner/internal/cleanup"
	"nest-cleaner/internal/liststore"
	"nest-cleaner/internal/logging"
	"nest-cleaner/internal/session"
)

const (
	Title  = "Dragon Nest File Cleaner"
	Width  = 600
	Height = 550
)

// Window holds the widgets of the main window
type Window struct {
	window  fyne.Window
	session *session.Session
	logger  zerolog.Logger

	pathEntry  *widget.Entry
	browseBtn  *widget.Button
	nameEntry  *widget.Entry
	addBtn     *widget.Button
	removeBtn  *widget.Button
	list       *widget.List
	executeBtn *widget.Button
	status     *widget.Label

	items    []string
	selected widget.ListItemID
}

// New builds the main window for s. Call ShowAndRun on the result.
func New(app fyne.App, s *session.Session, logger zerolog.Logger) *Window {
	w := &Window{
		window:   app.NewWindow(Title),
		session:  s,
		logger:   logging.Component(logger, "ui"),
		selected: -1,
	}

	w.setupComponents()
	w.window.SetContent(w.layout())
	w.window.Resize(fyne.NewSize(Width, Height))

	s.Store().Subscribe(w.refresh)
	w.refresh()
	return w
}

// Window returns the underlying fyne window
func (w *Window) Window() fyne.Window {
	return w.window
}

// ShowAndRun shows the window and runs the event loop
func (w *Window) ShowAndRun() {
	w.window.ShowAndRun()
}

func (w *Window) setupComponents() {
	w.pathEntry = widget.NewEntry()
	w.pathEntry.SetText(w.session.Store().Path())
	w.pathEntry.OnSubmitted = w.session.SetTargetPath
	w.browseBtn = widget.NewButton("Browse", w.browse)

	w.nameEntry = widget.NewEntry()
	w.nameEntry.SetPlaceHolder("Filename, e.g. Cache.pak")
	w.nameEntry.OnSubmitted = func(string) { w.add() }
	w.addBtn = widget.NewButton("Add", w.add)
	w.removeBtn = widget.NewButton("Remove selected", w.removeSelected)

	w.list = widget.NewList(
		func() int { return len(w.items) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(w.items) {
				obj.(*widget.Label).SetText(w.items[id])
			}
		},
	)
	w.list.OnSelected = func(id widget.ListItemID) { w.selected = id }
	w.list.OnUnselected = func(widget.ListItemID) { w.selected = -1 }

	w.executeBtn = widget.NewButton("Execute", w.execute)
	w.executeBtn.Importance = widget.DangerImportance
	w.status = widget.NewLabel(w.session.Status())
}

func (w *Window) layout() fyne.CanvasObject {
	top := container.NewVBox(
		widget.NewLabel("Target folder"),
		container.NewBorder(nil, nil, nil, w.browseBtn, w.pathEntry),
		widget.NewLabel("Filename"),
		container.NewBorder(nil, nil, nil, container.NewHBox(w.addBtn, w.removeBtn), w.nameEntry),
		widget.NewLabel("Files to delete"),
	)
	bottom := container.NewVBox(w.executeBtn, w.status)
	return container.NewBorder(top, bottom, nil, nil, w.list)
}

// refresh reloads the list from the store
func (w *Window) refresh() {
	w.items = slices.Collect(w.session.Store().Sorted())
	w.list.UnselectAll()
	w.selected = -1
	w.list.Refresh()
}

func (w *Window) add() {
	if err := w.session.AddName(w.nameEntry.Text); err != nil {
		if errors.Is(err, liststore.ErrEmptyName) {
			w.warn("Please enter a filename.")
		}
		return
	}
	w.nameEntry.SetText("")
}

func (w *Window) removeSelected() {
	if w.selected < 0 || w.selected >= len(w.items) {
		w.warn("Select a filename to remove.")
		return
	}
	w.session.RemoveName(w.items[w.selected])
}

func (w *Window) browse() {
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			w.logger.Error().Err(err).Msg("folder dialog failed")
			dialog.ShowError(err, w.window)
			return
		}
		if uri == nil {
			return
		}
		w.pathEntry.SetText(uri.Path())
		w.session.SetTargetPath(uri.Path())
	}, w.window)

	if loc, err := storage.ListerForURI(storage.NewFileURI(w.session.Store().Path())); err == nil {
		d.SetLocation(loc)
	}
	d.Show()
}

func (w *Window) execute() {
	// Commit whatever is in the path field before checking it.
	w.session.SetTargetPath(w.pathEntry.Text)

	prompt, err := w.session.Check()
	if err != nil {
		// Let Execute record the blocked run and status.
		_, _ = w.session.Execute(nil)
		w.status.SetText(w.session.Status())
		w.warn(checkMessage(err))
		return
	}

	dialog.ShowConfirm("Confirm", prompt, func(ok bool) {
		if !ok {
			_, _ = w.session.Execute(nil)
			w.status.SetText(w.session.Status())
			return
		}
		w.executeBtn.Disable()
		w.status.SetText("Working...")
		w.logger.Debug().Msg("cleanup confirmed")
		go w.run()
	}, w.window)
}

func (w *Window) run() {
	res, err := w.session.Execute(func(string) bool { return true })
	fyne.Do(func() {
		w.executeBtn.Enable()
		w.status.SetText(w.session.Status())
		if err != nil {
			w.warn(checkMessage(err))
			return
		}
		w.done(res)
	})
}

func (w *Window) done(res cleanup.Result) {
	msg := session.StatusLine(res)
	if res.Failed > 0 {
		msg += "\nSome files could not be moved to the trash; see the log for details."
	}
	dialog.ShowInformation("Cleanup complete", msg, w.window)
}

func (w *Window) warn(msg string) {
	dialog.ShowInformation("Warning", msg, w.window)
}

func checkMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrTargetMissing):
		return "The target folder does not exist."
	case errors.Is(err, session.ErrEmptyList):
		return "The list of files is empty."
	case errors.Is(err, session.ErrDeclined):
		return "Cleanup cancelled."
	}
	return err.Error()
}
