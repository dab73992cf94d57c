// Package render draws the screen buffer, a status line and the command
// input line onto a Backend at a fixed cadence.
package render

import (
	"context"
	"time"

	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/term"
)

// DefaultInterval is the redraw cadence.
const DefaultInterval = 50 * time.Millisecond

// StatusFunc returns the status line text at now.
type StatusFunc func(now time.Time) string

// Options configures a Renderer.
type Options struct {
	Backend Backend
	Screen  *term.Screen

	// Send receives submitted input lines.
	Send func(line string) error

	// Status feeds the status line. Nil disables it.
	Status StatusFunc

	// Quit is called on Ctrl-C, or Ctrl-D on an empty line.
	Quit func()

	Logger *logging.Logger
	Now    func() time.Time
}

// Renderer owns the backend's drawing and input. Screen content is drawn
// only when the screen generation changed since the last frame, so
// intermediate states between frames are never shown.
type Renderer struct {
	backend Backend
	screen  *term.Screen
	send    func(string) error
	status  StatusFunc
	quit    func()
	logger  *logging.Logger
	now     func() time.Time

	editor *LineEditor

	lastGen    uint64
	lastStatus string
	message    string
	forced     bool
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renderer{
		backend: opts.Backend,
		screen:  opts.Screen,
		send:    opts.Send,
		status:  opts.Status,
		quit:    opts.Quit,
		logger:  logging.OrNop(opts.Logger).WithComponent("render"),
		now:     opts.Now,
		editor:  NewLineEditor(DefaultHistorySize),
		forced:  true,
	}
}

// Editor returns the input line editor.
func (r *Renderer) Editor() *LineEditor {
	return r.editor
}

// reserved returns the rows below the screen area.
func (r *Renderer) reserved() int {
	if r.status != nil {
		return 2
	}
	return 1
}

// Fit resizes the screen buffer to the backend area above the status and
// input lines.
func (r *Renderer) Fit() {
	w, h := r.backend.Size()
	r.screen.Resize(w, h-r.reserved())
	r.backend.Clear()
	r.forced = true
}

// Run processes input events and redraws every interval until ctx is done.
// The caller owns Init and Shutdown of the backend.
func (r *Renderer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for {
			ev := r.backend.PollEvent()
			if ev.Type == EventClosed {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	r.Fit()
	r.Draw()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.HandleEvent(ev)
		case <-ticker.C:
			r.Draw()
		}
	}
}

// HandleEvent applies one input event.
func (r *Renderer) HandleEvent(ev Event) {
	switch ev.Type {
	case EventResize:
		r.Fit()
		r.Draw()
		return
	case EventKey:
	default:
		return
	}

	e := r.editor
	switch ev.Key {
	case KeyRune:
		e.Insert(ev.Rune)
	case KeyEnter:
		r.submit()
	case KeyBackspace:
		e.Backspace()
	case KeyDelete:
		e.Delete()
	case KeyLeft:
		e.Left()
	case KeyRight:
		e.Right()
	case KeyHome, KeyCtrlA:
		e.Home()
	case KeyEnd, KeyCtrlE:
		e.End()
	case KeyUp:
		e.Prev()
	case KeyDown:
		e.Next()
	case KeyEscape, KeyCtrlU:
		e.Clear()
	case KeyCtrlW:
		e.DeleteWord()
	case KeyCtrlL:
		r.backend.Clear()
	case KeyCtrlC:
		r.doQuit()
	case KeyCtrlD:
		if e.Text() == "" {
			r.doQuit()
		} else {
			e.Delete()
		}
	}
	r.forced = true
	r.drawInput()
	r.backend.Show()
}

func (r *Renderer) submit() {
	line := r.editor.Submit()
	r.message = ""
	if r.send == nil {
		return
	}
	if err := r.send(line); err != nil {
		r.message = err.Error()
		r.logger.Warn("send failed: %v", err)
		r.backend.Beep()
	}
}

func (r *Renderer) doQuit() {
	if r.quit != nil {
		r.quit()
	}
}

// Draw renders a frame if anything visible changed.
func (r *Renderer) Draw() {
	gen := r.screen.Generation()
	status := r.statusText()
	if !r.forced && gen == r.lastGen && status == r.lastStatus {
		return
	}

	if r.forced || gen != r.lastGen {
		r.drawScreen()
	}
	r.drawStatus(status)
	r.drawInput()
	r.backend.Show()

	r.lastGen = gen
	r.lastStatus = status
	r.forced = false
}

func (r *Renderer) drawScreen() {
	snap := r.screen.Snapshot()
	w, h := r.backend.Size()
	rows := min(snap.Rows, h-r.reserved())
	for y := 0; y < rows; y++ {
		for _, run := range snap.Runs(y) {
			style := Style{Foreground: run.Foreground, Background: run.Background}
			x := run.X
			for _, ch := range run.Text {
				if x >= w {
					break
				}
				r.backend.SetCell(x, y, ch, style)
				x++
			}
		}
		for x := snap.Cols; x < w; x++ {
			r.backend.SetCell(x, y, ' ', DefaultStyle())
		}
	}
}

func (r *Renderer) statusText() string {
	if r.status == nil {
		return ""
	}
	text := r.status(r.now())
	if r.message != "" {
		text += " | " + r.message
	}
	return text
}

func (r *Renderer) drawStatus(text string) {
	if r.status == nil {
		return
	}
	w, h := r.backend.Size()
	r.drawLine(h-2, w, []rune(text), Style{Foreground: term.Black, Background: term.White})
}

func (r *Renderer) drawInput() {
	w, h := r.backend.Size()
	line := []rune("> " + r.editor.Text())
	cursor := 2 + r.editor.Cursor()

	// Scroll long input so the cursor stays visible.
	offset := 0
	if cursor >= w {
		offset = cursor - w + 1
	}
	r.drawLine(h-1, w, line[min(offset, len(line)):], DefaultStyle())
	r.backend.ShowCursor(cursor-offset, h-1)
}

func (r *Renderer) drawLine(y, w int, text []rune, style Style) {
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(text) {
			ch = text[x]
		}
		r.backend.SetCell(x, y, ch, style)
	}
}
