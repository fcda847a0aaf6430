// Package diagnostic provides a default stdlib-log-backed sink for
// gttcan.DiagnosticEvent, and an in-memory history for tests/tools that
// want to assert on what the core reported rather than just print it.
//
// Events carry no source spans or severity levels: an ISR event stream
// has no file/line/column to point at. The package only collects
// events and lets the caller query and format them.
package diagnostic

import (
	"fmt"
	"log"
	"sync"

	"github.com/cpslab-gu/gttcan-go/gttcan"
)

// Sink accumulates gttcan.DiagnosticEvents and, unless built with
// NewSilentSink, logs each one through a standard library *log.Logger.
type Sink struct {
	mu      sync.Mutex
	logger  *log.Logger
	history []gttcan.DiagnosticEvent
	maxKept int
}

// defaultMaxKept bounds the in-memory history so a long-running node
// doesn't grow this slice without bound.
const defaultMaxKept = 256

// NewSink returns a Sink that logs through logger (nil selects
// log.Default()).
func NewSink(logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}

	return &Sink{logger: logger, maxKept: defaultMaxKept}
}

// NewSilentSink returns a Sink that records history without logging,
// useful in tests that only want to assert on DiagnosticEvents.
func NewSilentSink() *Sink {
	return &Sink{maxKept: defaultMaxKept}
}

// Hook returns a gttcan.DiagnosticHook bound to this sink.
func (s *Sink) Hook() gttcan.DiagnosticHook {
	return s.record
}

func (s *Sink) record(event gttcan.DiagnosticEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		s.logger.Printf("gttcan: %s: %s", event.Kind, event.Message)
	}

	s.history = append(s.history, event)
	if len(s.history) > s.maxKept {
		s.history = s.history[len(s.history)-s.maxKept:]
	}
}

// History returns a copy of the events recorded so far.
func (s *Sink) History() []gttcan.DiagnosticEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]gttcan.DiagnosticEvent, len(s.history))
	copy(out, s.history)

	return out
}

// Count returns how many events of kind have been recorded.
func (s *Sink) Count(kind gttcan.DiagnosticKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, e := range s.history {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// String implements fmt.Stringer for quick debugging output.
func (s *Sink) String() string {
	history := s.History()
	if len(history) == 0 {
		return "diagnostic.Sink{no events}"
	}

	return fmt.Sprintf("diagnostic.Sink{%d events, most recent: %s}", len(history), history[len(history)-1].Kind)
}
