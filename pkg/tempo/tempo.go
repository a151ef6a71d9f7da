// Package tempo keeps a beat from tapped tempo.
//
// The first tap starts a recording. Every later tap sets the period to the
// mean interval since the first tap and restarts the beat on that tap, so
// the beat lands where the operator tapped and then repeats on its own. A
// recording with no tap for two periods is committed: the beat keeps
// repeating and the next tap starts a fresh recording.
//
// Beats are computed from the clock when asked for, so no goroutine or
// timer is involved:
//
//	t := tempo.NewTapper(nil)
//	t.Tap()
//	t.Tap() // the period is the time between the two taps
//	a := t.Beat().Flash(time.Now())
package tempo

import (
	"sync"
	"time"

	"github.com/matzehuels/lightdesk/pkg/clock"
)

// Beat is one beat: when it started and how long until the next.
// The zero Beat means no beat has happened.
type Beat struct {
	Start  time.Time
	Period time.Duration
}

// Flash is the beat's opacity at now: 1 as it lands, falling linearly to 0
// one period later.
func (b Beat) Flash(now time.Time) float64 {
	if b.Period <= 0 {
		return 0
	}
	elapsed := now.Sub(b.Start)
	return min(max(0, 1-float64(elapsed)/float64(b.Period)), 1)
}

// BPM returns the tempo in beats per minute, or 0 for the zero Beat.
func (b Beat) BPM() float64 {
	if b.Period <= 0 {
		return 0
	}
	return float64(time.Minute) / float64(b.Period)
}

// at returns the latest beat of a loop started at b, as of now.
func (b Beat) at(now time.Time) Beat {
	if b.Period <= 0 || now.Before(b.Start) {
		return b
	}
	n := now.Sub(b.Start) / b.Period
	return Beat{Start: b.Start.Add(n * b.Period), Period: b.Period}
}

// Status describes the tapper for the control API.
type Status struct {
	// Running is true while the beat repeats.
	Running bool `json:"running"`
	// Recording is true while taps still refine the period.
	Recording bool `json:"recording"`
	// Taps counts the taps in the current recording.
	Taps         int     `json:"taps"`
	PeriodMillis float64 `json:"periodMillis"`
	BPM          float64 `json:"bpm"`
}

type recording struct {
	first time.Time
	last  time.Time
	count int
}

func (r *recording) period() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.last.Sub(r.first) / time.Duration(r.count)
}

// Tapper turns taps into a repeating beat. It is safe for concurrent use.
type Tapper struct {
	clock clock.Clock

	mu      sync.Mutex
	rec     *recording
	loop    Beat
	running bool
	last    Beat
}

// NewTapper returns a stopped tapper reading time from clk. A nil clk uses
// the wall clock.
func NewTapper(clk clock.Clock) *Tapper {
	return &Tapper{clock: clock.Or(clk)}
}

// Tap records a beat now.
func (t *Tapper) Tap() Status {
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.halt(now)
	t.commit(now)
	if t.rec == nil {
		t.rec = &recording{first: now, last: now}
		return t.status()
	}
	t.rec.count++
	t.rec.last = now
	if p := t.rec.period(); p > 0 {
		t.loop, t.running = Beat{Start: now, Period: p}, true
	}
	return t.status()
}

// Stop ends the repeating beat and drops any recording. The last beat
// still fades out.
func (t *Tapper) Stop() Status {
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt(now)
	t.rec = nil
	return t.status()
}

// Beat returns the latest beat as of now.
func (t *Tapper) Beat() Beat {
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.beat(now)
}

// Status reports the tapper's state as of now.
func (t *Tapper) Status() Status {
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commit(now)
	return t.status()
}

func (t *Tapper) beat(now time.Time) Beat {
	if t.running {
		return t.loop.at(now)
	}
	return t.last
}

// halt stops the loop, keeping its latest beat. Callers hold t.mu.
func (t *Tapper) halt(now time.Time) {
	if !t.running {
		return
	}
	t.last, t.running = t.loop.at(now), false
}

// commit drops a recording whose last tap is two periods old. Callers
// hold t.mu.
func (t *Tapper) commit(now time.Time) {
	if t.rec == nil {
		return
	}
	if p := t.rec.period(); p > 0 && now.Sub(t.rec.last) >= 2*p {
		t.rec = nil
	}
}

func (t *Tapper) status() Status {
	st := Status{Running: t.running, Recording: t.rec != nil}
	if t.rec != nil {
		st.Taps = t.rec.count + 1
	}
	if t.running {
		st.PeriodMillis = float64(t.loop.Period) / float64(time.Millisecond)
		st.BPM = t.loop.BPM()
	}
	return st
}
