package stage

import (
	"fmt"

	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/tempo"
)

// refreshDesk rebuilds the stage part of the control surface. s.mu must be
// held.
func (s *Stage) refreshDesk() {
	s.deskOutputs.Clear()
	for _, id := range sortedKeys(s.outputs) {
		s.deskOutputs.Add(s.outputs[id].group)
	}

	s.dimmerLabel.SetText(fmt.Sprintf("Dimmer: %.0f%%", s.cfg.DimmerValue()*100))
	current := "Current cue: none"
	cues := s.cfg.Cues()
	if cue, ok := cues[s.current]; ok {
		current = "Current cue: " + cueTitle(s.current, cue)
	}
	s.currentLabel.SetText(current)

	s.deskCues.Clear()
	for _, id := range sortedKeys(cues) {
		sock, ok := s.cues.Get(id)
		if !ok {
			continue
		}
		g := desk.NewGroup(cueTitle(id, cues[id]))
		g.Add(sock.Control())
		s.deskCues.Add(g)
	}
}

func cueTitle(id string, cue CueConfig) string {
	if cue.Name != "" {
		return cue.Name
	}
	return id
}

func beatText(st tempo.Status) string {
	switch {
	case st.Running:
		return fmt.Sprintf("Beat: %.1f bpm", st.BPM)
	case st.Recording:
		return fmt.Sprintf("Beat: %d taps", st.Taps)
	}
	return "Beat: stopped"
}
