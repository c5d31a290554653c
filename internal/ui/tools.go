package ui

import (
	"fmt"
	"io"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"LocalCanvas/internal/state"
)

// buildToolbar assembles the item palette and board actions above the
// canvas.
func buildToolbar(board *CanvasWidget, win fyne.Window, export func(io.Writer) error) fyne.CanvasObject {
	rect := widget.NewButton("Rectangle", func() { board.AddShape(state.ShapeRect) })
	ellipse := widget.NewButton("Ellipse", func() { board.AddShape(state.ShapeEllipse) })

	note := widget.NewButton("Note", func() {
		dialog.NewEntryDialog("New note", "Text", func(text string) {
			board.AddNote(text)
		}, win).Show()
	})
	text := widget.NewButton("Text", func() {
		dialog.NewEntryDialog("New text", "Text", func(text string) {
			board.AddTextBlock(text)
		}, win).Show()
	})
	table := widget.NewButton("Table", func() { board.AddTable(3, 3) })

	group := widget.NewButton("Group", board.GroupSelected)
	grid := widget.NewButton("Grid view", board.ToggleGridView)

	remove := widget.NewButton("Delete", func() {
		for _, id := range board.SelectedIDs() {
			if err := board.doc.RemoveItem(id); err != nil {
				board.SetStatus(fmt.Sprintf("Delete failed: %v", err))
			}
		}
		board.clearSelection()
	})

	pdf := widget.NewButton("Export PDF", func() {
		if export == nil {
			return
		}
		dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			defer wc.Close()
			if err := export(wc); err != nil {
				log.Printf("[UI] pdf export failed: %v", err)
				dialog.ShowError(err, win)
				return
			}
			board.SetStatus("Exported " + wc.URI().Name())
		}, win)
	})

	return container.NewHBox(
		rect, ellipse, note, text, table,
		widget.NewSeparator(),
		group, grid, remove,
		widget.NewSeparator(),
		pdf,
	)
}
