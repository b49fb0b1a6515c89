package ui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/doridoridoriand/pingtray/internal/state"
)

const (
	uiRefreshInterval = time.Second
	configureHint     = "run `pingtray -config` in another terminal; edits are picked up within seconds"
)

// Indicator renders the status indicator and menu in the terminal.
type Indicator struct {
	probeNow  func()
	newScreen func() (tcell.Screen, error)
	now       func() time.Time

	snap state.Snapshot
	hint string
}

// New returns an Indicator; probeNow is called when the user presses r.
func New(probeNow func()) *Indicator {
	return &Indicator{
		probeNow:  probeNow,
		newScreen: tcell.NewScreen,
		now:       time.Now,
		snap:      state.Initial(),
	}
}

// Run blocks until ctx is cancelled, the snapshot stream ends, or the user
// quits. Quitting returns context.Canceled.
func (u *Indicator) Run(ctx context.Context, snapshots <-chan state.Snapshot) error {
	screen, err := u.newScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	u.render(screen)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			u.snap = snap
			u.render(screen)
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if u.handleKey(ev) {
					return context.Canceled
				}
				u.render(screen)
			case *tcell.EventResize:
				screen.Sync()
				u.render(screen)
			}
		case <-ticker.C:
			u.render(screen)
		}
	}
}

// handleKey reacts to a key press and reports whether the user asked to quit.
func (u *Indicator) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	if ev.Key() != tcell.KeyRune {
		return false
	}
	switch ev.Rune() {
	case 'q', 'Q':
		return true
	case 'r', 'R':
		if u.probeNow != nil {
			u.probeNow()
		}
		u.hint = "probe requested"
	case 'c', 'C':
		u.hint = configureHint
	}
	return false
}

func (u *Indicator) render(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < 4 {
		screen.Show()
		return
	}
	now := u.now()

	color := overallColor(u.snap.Overall)
	drawText(screen, 0, 0, 3, "   ", tcell.StyleDefault.Background(color))
	drawText(screen, 4, 0, width-4, Title(u.snap, now), tcell.StyleDefault.Bold(true))
	drawText(screen, 0, 1, width, " "+StatusLine(u.snap), tcell.StyleDefault.Foreground(color))

	items := MenuItems(u.snap, now)
	boxHeight := min(len(items)+2, height-2)
	drawBox(screen, 0, 2, width, boxHeight)
	for i := 0; i < len(items) && i < boxHeight-2; i++ {
		item := items[i]
		drawStyledText(screen, 1, 3+i, width-2, formatItem(item, width-2))
	}

	if u.hint != "" && 2+boxHeight < height {
		drawText(screen, 0, 2+boxHeight, width, " "+u.hint, tcell.StyleDefault.Foreground(tcell.ColorGray))
	}
	screen.Show()
}

func formatItem(item MenuItem, width int) []styledRune {
	text := " " + item.Text
	if !strings.HasPrefix(item.Text, "●") {
		return []styledRune{{r: []rune(padOrTrim(text, width)), style: itemStyle(item.Status)}}
	}
	// Only the bullet is coloured; the label stays readable.
	rest := strings.TrimPrefix(item.Text, "●")
	return []styledRune{
		{r: []rune(" ●"), style: itemStyle(item.Status)},
		{r: []rune(padOrTrim(rest, max(width-2, 0))), style: tcell.StyleDefault},
	}
}

func overallColor(o state.Overall) tcell.Color {
	switch o {
	case state.AllUp:
		return tcell.ColorGreen
	case state.SomeDown:
		return tcell.ColorRed
	default:
		return tcell.ColorYellow
	}
}

func itemStyle(status ItemStatus) tcell.Style {
	switch status {
	case ItemUp:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case ItemDown:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case ItemPending:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case ItemAction:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	default:
		return tcell.StyleDefault
	}
}

func drawBox(screen tcell.Screen, x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	right := x + width - 1
	bottom := y + height - 1

	setCell(screen, x, y, '+', tcell.StyleDefault)
	setCell(screen, right, y, '+', tcell.StyleDefault)
	setCell(screen, x, bottom, '+', tcell.StyleDefault)
	setCell(screen, right, bottom, '+', tcell.StyleDefault)

	for col := x + 1; col < right; col++ {
		setCell(screen, col, y, '-', tcell.StyleDefault)
		setCell(screen, col, bottom, '-', tcell.StyleDefault)
	}
	for row := y + 1; row < bottom; row++ {
		setCell(screen, x, row, '|', tcell.StyleDefault)
		setCell(screen, right, row, '|', tcell.StyleDefault)
	}
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	drawStyledText(screen, x, y, width, []styledRune{{r: []rune(text), style: style}})
}

type styledRune struct {
	r     []rune
	style tcell.Style
}

func drawStyledText(screen tcell.Screen, x, y, width int, parts []styledRune) {
	if width <= 0 {
		return
	}
	col := x
	for _, part := range parts {
		for _, r := range part.r {
			if col >= x+width {
				return
			}
			setCell(screen, col, y, r, part.style)
			col++
		}
	}
	for col < x+width {
		setCell(screen, col, y, ' ', tcell.StyleDefault)
		col++
	}
}

func setCell(screen tcell.Screen, x, y int, r rune, style tcell.Style) {
	screen.SetContent(x, y, r, nil, style)
}

func padOrTrim(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) > width {
		return string(runes[:width])
	}
	if len(runes) < width {
		return value + strings.Repeat(" ", width-len(runes))
	}
	return value
}
