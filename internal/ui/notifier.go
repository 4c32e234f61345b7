package ui

import (
	"fyne.io/fyne/v2"
	"github.com/tartampluch/go-idlookup/internal/search"
)

// FyneNotifier forwards search notifications to the desktop notification centre.
type FyneNotifier struct {
	App fyne.App
}

func (n *FyneNotifier) Notify(note search.Notification) {
	if n.App == nil {
		return
	}
	n.App.SendNotification(fyne.NewNotification(note.Title, note.Message))
}
