// Package render draws the band's face. The production renderer repaints
// a terminal line in place; the memory renderer records frames for tests.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Color definitions
	red   = color.New(color.FgRed, color.Bold)
	green = color.New(color.FgGreen)
	faint = color.New(color.Faint)
)

// Console renders the watch face as a single terminal line, repainting in
// place with a carriage return. Thread-safe.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	width int
}

// NewConsole creates a console renderer writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Render repaints the face from the frame.
func (c *Console) Render(f device.Frame) {
	line := composeLine(f)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Pad with spaces so a shorter line fully covers the previous one.
	pad := ""
	if n := len(stripLen(line)); n < c.width {
		pad = strings.Repeat(" ", c.width-n)
	} else {
		c.width = len(stripLen(line))
	}

	fmt.Fprintf(c.w, "\r%s%s", line, pad)
}

// composeLine builds one colored face line from the frame.
func composeLine(f device.Frame) string {
	var b strings.Builder

	b.WriteString(f.Time.ClockString())
	b.WriteString("  ")
	b.WriteString(f.Time.DateString())

	if !f.Time.Synced {
		b.WriteString(" ")
		b.WriteString(faint.Sprint("[unsynced]"))
	}

	b.WriteString("  ")
	if f.Connected {
		b.WriteString(green.Sprint("●"))
	} else {
		b.WriteString("○")
	}

	if f.Alert.Active {
		b.WriteString("  ")
		b.WriteString(red.Sprintf("ALERT: %s - %s", f.Alert.Kind, f.Alert.Message))
	}

	return b.String()
}

// stripLen returns the line without ANSI escape sequences, for width
// accounting.
func stripLen(line string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range line {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
