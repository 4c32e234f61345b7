package ui

import (
	"log/slog"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-idlookup/internal/config"
	"github.com/tartampluch/go-idlookup/internal/engine"
)

// ShowHolidaysWindow lists the public holidays of the birth year in a sortable table.
// Holidays falling on the birthday are marked. If the window is already open, it requests focus.
func (app *IDLookupApp) ShowHolidaysWindow() {
	if app.holidaysWindow != nil {
		app.holidaysWindow.RequestFocus()
		return
	}
	c := app.Component()
	if c == nil {
		return
	}
	v := c.View()

	app.holidaysWindow = app.App.NewWindow(app.GetMsg(config.TKeyWinHolidays))
	app.holidaysWindow.Resize(fyne.NewSize(config.HolidaysWinWidth, config.HolidaysWinHeight))

	// Local copy so sorting never touches the component's data.
	rows := append([]engine.Event(nil), v.Holidays...)
	birthday := birthdayKeys(v.CrossReference)

	slog.Info(config.MsgOpenWindow,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	currentSortCol := config.ColIDDate
	sortAsc := true
	sortHolidays(rows, currentSortCol, sortAsc)

	table := widget.NewTable(
		func() (int, int) {
			return len(rows), config.ColCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(rows) {
				return
			}
			label.SetText(holidayCell(rows[id.Row], id.Col, birthday))
		},
	)

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDName:
			titleKey = config.TKeyColName
		case config.ColIDType:
			titleKey = config.TKeyColType
		default:
			titleKey = config.TKeyColDate
		}
		text := app.GetMsg(titleKey)
		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			sortHolidays(rows, currentSortCol, sortAsc)
			slog.Debug(config.MsgTableSorted,
				config.LogKeyComponent, config.CompUI,
				config.LogKeySortCol, currentSortCol,
				config.LogKeySortAsc, sortAsc)
			table.Refresh()
		}
	}

	table.SetColumnWidth(config.ColIDDate, config.ColWidthDate)
	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDType, config.ColWidthType)

	app.holidaysWindow.SetContent(container.NewBorder(nil, nil, nil, nil, table))
	app.holidaysWindow.SetOnClosed(func() {
		app.holidaysWindow = nil
	})
	app.holidaysWindow.Show()
}

// sortHolidays orders events in place by the given column. Ties fall back to the date, then the name.
func sortHolidays(events []engine.Event, col int, asc bool) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		var less, equal bool
		switch col {
		case config.ColIDName:
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			less, equal = an < bn, an == bn
		case config.ColIDType:
			at, bt := strings.ToLower(a.Type), strings.ToLower(b.Type)
			less, equal = at < bt, at == bt
		default:
			less, equal = a.Date < b.Date, a.Date == b.Date
		}
		if equal {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.Name < b.Name
		}
		if !asc {
			return !less
		}
		return less
	})
}

func birthdayKeys(events []engine.Event) map[string]bool {
	keys := make(map[string]bool, len(events))
	for _, e := range events {
		keys[e.Date+e.Name] = true
	}
	return keys
}

// holidayCell renders one table cell; the birthday marker is appended to the name.
func holidayCell(e engine.Event, col int, birthday map[string]bool) string {
	switch col {
	case config.ColIDName:
		if birthday[e.Date+e.Name] {
			return e.Name + config.BirthdayMarker
		}
		return e.Name
	case config.ColIDType:
		return e.Type
	default:
		return e.Date
	}
}
