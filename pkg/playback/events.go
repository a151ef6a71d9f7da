package playback

import "fmt"

// Amplitude extracts the amplitude of a keyframe.
func Amplitude(v StateValues) float64 { return v.Amplitude }

// ActiveEvents returns the events in a start-sorted list that have started
// at or before pos and not yet reached their last keyframe.
func ActiveEvents(events []Event, pos float64) []Event {
	var active []Event
	for _, e := range events {
		if e.TimestampMillis > pos {
			break
		}
		if len(e.States) > 0 && e.EndMillis() > pos {
			active = append(active, e)
		}
	}
	return active
}

// CurrentEventStateValue interpolates a value of e at pos between the two
// keyframes that bracket it.
//
// It panics if pos is not inside any keyframe segment of e; check with
// ActiveEvents first.
func CurrentEventStateValue(e Event, pos float64, extract func(StateValues) float64) float64 {
	for j := 1; j < len(e.States); j++ {
		s1, s2 := e.States[j-1], e.States[j]
		t1 := e.TimestampMillis + s1.MillisDelta
		t2 := e.TimestampMillis + s2.MillisDelta
		if t1 > pos || t2 < pos {
			continue
		}
		if t2 == t1 {
			return extract(s2.Values)
		}
		r := (pos - t1) / (t2 - t1)
		return extract(s1.Values)*(1-r) + extract(s2.Values)*r
	}
	panic(fmt.Sprintf("playback: state value requested at %vms for inactive event starting at %vms", pos, e.TimestampMillis))
}
