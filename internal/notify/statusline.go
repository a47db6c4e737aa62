package notify

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/loykin/bgproc/internal/event"
	"github.com/loykin/bgproc/internal/proc"
)

// StatusLine maintains a condensed, width-bounded one-line summary of
// all tracked processes for a status widget. It is purely
// presentational: it re-renders on every event and never mutates
// manager state.
type StatusLine struct {
	mu     sync.Mutex
	width  int
	source func() []proc.Record
	line   string
}

// NewStatusLine builds a status line bounded to width runes; source
// returns the current registry snapshot (typically Manager.List).
func NewStatusLine(width int, source func() []proc.Record) *StatusLine {
	if width <= 0 {
		width = 80
	}
	return &StatusLine{width: width, source: source}
}

// HandleProcessEvent implements event.Subscriber.
func (s *StatusLine) HandleProcessEvent(event.Event) {
	records := s.source()
	line := renderStatusLine(records, s.width)
	s.mu.Lock()
	s.line = line
	s.mu.Unlock()
}

// Line returns the most recently rendered summary.
func (s *StatusLine) Line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line
}

// renderStatusLine shows alive processes first as name(status); when
// space runs out, finished processes collapse into a "+N done" marker
// and overflowing alive ones into "+N more".
func renderStatusLine(records []proc.Record, width int) string {
	if len(records) == 0 {
		return "no background processes"
	}
	var alive, done []proc.Record
	for _, r := range records {
		if r.Status.Alive() {
			alive = append(alive, r)
		} else {
			done = append(done, r)
		}
	}

	parts := make([]string, 0, len(records))
	used := 0
	add := func(p string, reserve int) bool {
		n := utf8.RuneCountInString(p)
		if len(parts) > 0 {
			n += 2 // ", "
		}
		if used+n+reserve > width {
			return false
		}
		parts = append(parts, p)
		used += n
		return true
	}

	shown := 0
	for i, r := range alive {
		reserve := 0
		if i < len(alive)-1 || len(done) > 0 {
			reserve = 10 // room for a trailing "+N ..." marker
		}
		if !add(fmt.Sprintf("%s(%s)", displayName(r), r.Status), reserve) {
			break
		}
		shown++
	}
	if rest := len(alive) - shown; rest > 0 {
		add(fmt.Sprintf("+%d more", rest), 0)
	} else {
		shownDone := 0
		for i, r := range done {
			reserve := 0
			if i < len(done)-1 {
				reserve = 10
			}
			if !add(fmt.Sprintf("%s(%s)", displayName(r), r.Status), reserve) {
				break
			}
			shownDone++
		}
		if rest := len(done) - shownDone; rest > 0 {
			add(fmt.Sprintf("+%d done", rest), 0)
		}
	}
	return strings.Join(parts, ", ")
}

func displayName(r proc.Record) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
