package ui

import (
	"fmt"
	"time"

	"github.com/doridoridoriand/pingtray/internal/state"
)

// ItemStatus selects how a menu line is styled.
type ItemStatus int

const (
	ItemInfo ItemStatus = iota
	ItemUp
	ItemDown
	ItemPending
	ItemAction
)

// MenuItem is one line of the status menu.
type MenuItem struct {
	Text   string
	Status ItemStatus
}

// Title is the short indicator label, e.g. "pingtray ✓ (2m)".
func Title(snap state.Snapshot, now time.Time) string {
	switch {
	case snap.Initializing():
		return "pingtray ..."
	case snap.Overall == state.AllUp:
		return fmt.Sprintf("pingtray ✓ (%dm)", minutesSince(snap.LastUpdated, now))
	default:
		return fmt.Sprintf("pingtray ⚠ (%dm)", minutesSince(snap.LastUpdated, now))
	}
}

// StatusLine is the tooltip text for the indicator.
func StatusLine(snap state.Snapshot) string {
	switch {
	case snap.Initializing():
		return "Starting..."
	case snap.Overall == state.AllUp:
		return fmt.Sprintf("Online - %d targets monitored", len(snap.Targets))
	default:
		return "OFFLINE DETECTED"
	}
}

// MenuItems lists the menu: last check time, one line per target in store
// order, then the available actions.
func MenuItems(snap state.Snapshot, now time.Time) []MenuItem {
	items := make([]MenuItem, 0, len(snap.Targets)+5)
	if snap.Initializing() {
		items = append(items, MenuItem{Text: "waiting for first check...", Status: ItemPending})
	} else {
		items = append(items, MenuItem{Text: LastCheck(snap.LastUpdated, now)})
	}

	for _, entry := range snap.Entries() {
		status := ItemDown
		if entry.Outcome.Reachable {
			status = ItemUp
		}
		if snap.Initializing() {
			status = ItemPending
		}
		text := "● " + entry.Target.DisplayName()
		if entry.Outcome.Detail != "" {
			text += " (" + entry.Outcome.Detail + ")"
		}
		items = append(items, MenuItem{Text: text, Status: status})
	}
	if !snap.Initializing() && len(snap.Targets) == 0 {
		items = append(items, MenuItem{Text: "no targets configured"})
	}

	return append(items,
		MenuItem{Text: "[r] probe now", Status: ItemAction},
		MenuItem{Text: "[c] configure", Status: ItemAction},
		MenuItem{Text: "[q] quit", Status: ItemAction},
	)
}

// LastCheck renders the age of the last completed cycle.
func LastCheck(at, now time.Time) string {
	age := max(now.Sub(at), 0)
	minutes := int(age / time.Minute)
	seconds := int((age % time.Minute) / time.Second)
	return fmt.Sprintf("last check %d min %d sec ago", minutes, seconds)
}

func minutesSince(at, now time.Time) int {
	return int(max(now.Sub(at), 0) / time.Minute)
}
