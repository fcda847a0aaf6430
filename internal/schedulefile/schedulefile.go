// Package schedulefile is a reference schedule loader: the spec treats
// schedule construction as an external collaborator ("assumed to hand
// the core a pre-built global schedule"), so this package is a concrete
// example of that collaborator rather than part of the protocol core.
//
// A schedule file is a small JSON document naming the schedule format
// version it requires and the ordered list of (node_id, data_id) slot
// entries. The loader can optionally watch the file with fsnotify and
// push re-derived schedules to a channel; this package only re-derives
// and delivers them, it does not apply them — a Core has no in-place
// schedule-swap method, so a host that wants to act on an update must
// re-Init a Core itself between timer ISRs (never mid-handler).
// Production firmware is expected to load once at boot per spec §4.E
// and never touch this watch path.
package schedulefile

import (
	"encoding/json"
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/cpslab-gu/gttcan-go/gttcan"
	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

// loaderVersion is the schedule file format version this loader
// understands; schedule files declare the minimum version they were
// authored for via RequiresVersion.
const loaderVersion = "1.0.0"

// document is the on-disk JSON shape of a schedule file.
type document struct {
	RequiresVersion string         `json:"requires_version"`
	SlotDuration    uint32         `json:"slot_duration_nut"`
	Slots           []slotDocument `json:"slots"`
}

type slotDocument struct {
	NodeID uint8  `json:"node_id"`
	DataID uint16 `json:"data_id"`
}

// Schedule is a decoded, validated schedule file.
type Schedule struct {
	SlotDuration uint32
	Entries      []gttcan.SlotEntry
}

// Load reads and validates a schedule file at path.
func Load(path string) (*Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.ScheduleInvalid(fmt.Sprintf("reading %s: %v", path, err))
	}

	return parse(raw)
}

func parse(raw []byte) (*Schedule, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, xerrors.ScheduleInvalid(fmt.Sprintf("decoding schedule file: %v", err))
	}

	if err := checkVersion(doc.RequiresVersion); err != nil {
		return nil, err
	}

	if doc.SlotDuration == 0 {
		return nil, xerrors.ScheduleInvalid("slot_duration_nut must be greater than zero")
	}

	entries := make([]gttcan.SlotEntry, len(doc.Slots))
	for i, s := range doc.Slots {
		entries[i] = gttcan.SlotEntry{NodeID: s.NodeID, DataID: s.DataID}
	}

	return &Schedule{SlotDuration: doc.SlotDuration, Entries: entries}, nil
}

func checkVersion(requires string) error {
	if requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint("<=" + loaderVersion)
	if err != nil {
		return xerrors.ScheduleInvalid(fmt.Sprintf("invalid loader version constant %q: %v", loaderVersion, err))
	}

	required, err := semver.NewVersion(requires)
	if err != nil {
		return xerrors.ScheduleInvalid(fmt.Sprintf("invalid requires_version %q: %v", requires, err))
	}

	if !constraint.Check(required) {
		return xerrors.ScheduleInvalid(fmt.Sprintf("schedule file requires loader version %s, this loader is %s", requires, loaderVersion))
	}

	return nil
}

// Watcher re-derives a Schedule and pushes it to Updates whenever the
// underlying file changes. It is a bench/simulation convenience, not a
// protocol feature; see the package doc comment.
type Watcher struct {
	w       *fsnotify.Watcher
	Updates chan *Schedule
	Errors  chan error

	path string
}

// NewWatcher starts watching path and immediately attempts a first
// load, delivered as the first value on Updates.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, xerrors.TransportUnavailable("fsnotify", err.Error())
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, xerrors.TransportUnavailable("fsnotify", err.Error())
	}

	watcher := &Watcher{
		w:       w,
		Updates: make(chan *Schedule, 1),
		Errors:  make(chan error, 1),
		path:    path,
	}

	go watcher.loop()

	if sched, err := Load(path); err == nil {
		watcher.Updates <- sched
	} else {
		watcher.Errors <- err
	}

	return watcher, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			sched, err := Load(w.path)
			if err != nil {
				w.Errors <- err

				continue
			}

			w.Updates <- sched
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}

			w.Errors <- err
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}
