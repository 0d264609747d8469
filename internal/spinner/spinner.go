// Package spinner draws a one-line progress animation while an audit runs.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DefaultInterval is the delay between frames.
const DefaultInterval = 80 * time.Millisecond

// Spinner animates a message on a single terminal line.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// Start displays an animated spinner with the given message on w. Call Stop
// to halt it and clear the line.
func Start(w io.Writer, message string) *Spinner {
	return StartWithInterval(w, message, DefaultInterval)
}

// StartWithInterval is Start with a custom frame delay.
func StartWithInterval(w io.Writer, message string, interval time.Duration) *Spinner {
	s := &Spinner{
		w:        w,
		message:  message,
		interval: interval,
		done:     make(chan struct{}),
		cleared:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-s.done:
			// frame + space + message
			width := runewidth.StringWidth(s.message) + 2
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
			close(s.cleared)
			return
		case <-ticker.C:
			fmt.Fprintf(s.w, "\r%s %s", frames[i%len(frames)], s.message) //nolint:errcheck
			i++
		}
	}
}

// Stop halts the animation and clears the line. It is safe to call more
// than once and returns only after the line is cleared.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}
