// Package playback models what is currently playing: the cue files known to
// the desk and the layers of the active play state that reference them.
//
// A [Snapshot] is immutable once published. Producers build a new snapshot
// and swap it into a [Source]; render code reads the current one without
// locking.
package playback

import (
	"cmp"
	stderrors "errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/matzehuels/lightdesk/pkg/errors"
)

// Layer kinds.
const (
	KindPercussion = "percussion"
	KindTones      = "tones"
)

// DefaultPercussionLengthMillis is used when a percussion layer does not set
// its own default event length.
const DefaultPercussionLengthMillis = 100

// StateValues are the values an event takes at one keyframe.
type StateValues struct {
	Amplitude float64  `json:"amplitude" yaml:"amplitude"`
	Pitch     *float64 `json:"pitch,omitempty" yaml:"pitch,omitempty"`
}

// EventState is a keyframe, offset from its event's start.
type EventState struct {
	MillisDelta float64     `json:"millisDelta" yaml:"millisDelta"`
	Values      StateValues `json:"values" yaml:"values"`
}

// Event is a timed event with a keyframe envelope.
type Event struct {
	TimestampMillis float64      `json:"timestampMillis" yaml:"timestampMillis"`
	States          []EventState `json:"states" yaml:"states"`
}

// EndMillis returns the timestamp of the event's last keyframe.
func (e Event) EndMillis() float64 {
	if len(e.States) == 0 {
		return e.TimestampMillis
	}
	return e.TimestampMillis + e.States[len(e.States)-1].MillisDelta
}

// LayerSettings holds per-layer options.
type LayerSettings struct {
	DefaultLengthMillis float64 `json:"defaultLengthMillis,omitempty" yaml:"defaultLengthMillis,omitempty"`
}

// FileLayer is one track of a cue file.
type FileLayer struct {
	Kind     string        `json:"kind" yaml:"kind"`
	Settings LayerSettings `json:"settings" yaml:"settings"`
	Events   []Event       `json:"events" yaml:"events"`
}

// CueFile is a timeline of layered events.
type CueFile struct {
	LengthMillis float64     `json:"lengthMillis" yaml:"lengthMillis"`
	Layers       []FileLayer `json:"layers" yaml:"layers"`
}

// PlayingLayer is one file playing at a given speed from a given start.
type PlayingLayer struct {
	FileHash                 string  `json:"fileHash" yaml:"fileHash"`
	EffectiveStartTimeMillis float64 `json:"effectiveStartTimeMillis" yaml:"effectiveStartTimeMillis"`
	Amplitude                float64 `json:"amplitude" yaml:"amplitude"`
	PlaySpeed                float64 `json:"playSpeed" yaml:"playSpeed"`
}

// PositionMillis returns the file position at the wall-clock time now.
func (l PlayingLayer) PositionMillis(nowMillis float64) float64 {
	return (nowMillis - l.EffectiveStartTimeMillis) * l.PlaySpeed
}

// PlayState lists the layers currently playing.
type PlayState struct {
	Layers []PlayingLayer `json:"layers" yaml:"layers"`
}

// PrepareFile returns a copy of f ready for lookups: events sorted by start
// time and percussion events without keyframes given a default envelope
// that drops from full amplitude to silence.
func PrepareFile(f CueFile) *CueFile {
	out := &CueFile{LengthMillis: f.LengthMillis, Layers: make([]FileLayer, len(f.Layers))}
	for i, l := range f.Layers {
		events := slices.Clone(l.Events)
		if l.Kind == KindPercussion {
			length := l.Settings.DefaultLengthMillis
			if length <= 0 {
				length = DefaultPercussionLengthMillis
			}
			for j := range events {
				if len(events[j].States) == 0 {
					events[j].States = []EventState{
						{MillisDelta: 0, Values: StateValues{Amplitude: 1}},
						{MillisDelta: length, Values: StateValues{Amplitude: 0}},
					}
				}
			}
		}
		slices.SortStableFunc(events, func(a, b Event) int {
			return cmp.Compare(a.TimestampMillis, b.TimestampMillis)
		})
		out.Layers[i] = FileLayer{Kind: l.Kind, Settings: l.Settings, Events: events}
	}
	return out
}

// ValidateFile checks that every event of f, once prepared, has an envelope
// that covers it from start to end: at least two keyframes, the first at
// delta 0, deltas never decreasing. Files that fail would leave events
// active with no keyframe segment to interpolate.
func ValidateFile(f CueFile) error {
	var errs []error
	if !finite(f.LengthMillis) {
		errs = append(errs, stderrors.New("lengthMillis must be finite"))
	}
	for i, l := range PrepareFile(f).Layers {
		if l.Kind != KindPercussion && l.Kind != KindTones {
			errs = append(errs, fmt.Errorf("layers[%d]: unknown kind %q", i, l.Kind))
		}
		for j, e := range l.Events {
			if err := validateEvent(e); err != nil {
				errs = append(errs, fmt.Errorf("layers[%d].events[%d]: %w", i, j, err))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, stderrors.Join(errs...), "invalid cue file: %v", errs[0])
}

func validateEvent(e Event) error {
	if !finite(e.TimestampMillis) {
		return stderrors.New("timestampMillis must be finite")
	}
	if len(e.States) < 2 {
		return fmt.Errorf("need at least 2 states, got %d", len(e.States))
	}
	if d := e.States[0].MillisDelta; d != 0 {
		return fmt.Errorf("first state must have millisDelta 0, got %v", d)
	}
	for k, st := range e.States {
		if !finite(st.MillisDelta) || !finite(st.Values.Amplitude) {
			return fmt.Errorf("states[%d]: values must be finite", k)
		}
		if st.Values.Pitch != nil && !finite(*st.Values.Pitch) {
			return fmt.Errorf("states[%d]: pitch must be finite", k)
		}
		if k > 0 && st.MillisDelta < e.States[k-1].MillisDelta {
			return fmt.Errorf("states[%d]: millisDelta %v is before %v", k, st.MillisDelta, e.States[k-1].MillisDelta)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Snapshot is the play state together with the files it references.
type Snapshot struct {
	Play  PlayState
	Files map[string]*CueFile
}

// Amplitude returns the loudest amplitude across every event active at
// nowMillis in every playing layer. Layers referencing unknown files are
// skipped.
func (s *Snapshot) Amplitude(nowMillis float64) float64 {
	amp := 0.0
	for _, pl := range s.Play.Layers {
		f, ok := s.Files[pl.FileHash]
		if !ok || f == nil {
			continue
		}
		pos := pl.PositionMillis(nowMillis)
		for _, fl := range f.Layers {
			for _, e := range ActiveEvents(fl.Events, pos) {
				amp = max(amp, CurrentEventStateValue(e, pos, Amplitude))
			}
		}
	}
	return amp
}

// Source holds the latest published snapshot.
type Source struct {
	snap atomic.Pointer[Snapshot]
}

// NewSource returns a source publishing an empty snapshot.
func NewSource() *Source {
	s := &Source{}
	s.snap.Store(&Snapshot{Files: map[string]*CueFile{}})
	return s
}

// Load returns the current snapshot.
func (s *Source) Load() *Snapshot {
	return s.snap.Load()
}

// SetPlayState publishes a snapshot with ps and the current files.
func (s *Source) SetPlayState(ps PlayState) {
	for {
		old := s.snap.Load()
		next := &Snapshot{Play: ps, Files: old.Files}
		if s.snap.CompareAndSwap(old, next) {
			return
		}
	}
}

// PutFile validates and prepares f, then publishes a snapshot that
// includes it under hash. Invalid files are rejected with INVALID_INPUT and
// nothing is published.
func (s *Source) PutFile(hash string, f CueFile) error {
	if err := ValidateFile(f); err != nil {
		return err
	}
	prepared := PrepareFile(f)
	for {
		old := s.snap.Load()
		files := make(map[string]*CueFile, len(old.Files)+1)
		for k, v := range old.Files {
			files[k] = v
		}
		files[hash] = prepared
		if s.snap.CompareAndSwap(old, &Snapshot{Play: old.Play, Files: files}) {
			return nil
		}
	}
}
