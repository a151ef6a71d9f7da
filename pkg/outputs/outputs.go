// Package outputs provides the built-in output kinds: a virtual output that
// keeps its latest frame in memory for previews, and an Art-Net output that
// sends frames to DMX fixtures over UDP.
package outputs

import (
	"time"

	"github.com/matzehuels/lightdesk/pkg/stage"
)

// Output kind names.
const (
	KindVirtual = "virtual"
	KindArtNet  = "artnet"
)

// DefaultInterval is the frame interval of both output kinds.
const DefaultInterval = 10 * time.Millisecond

// Options configures the built-in output kinds.
type Options struct {
	// Interval between frames. Zero uses DefaultInterval.
	Interval time.Duration
	// Dial opens Art-Net transports. Nil uses DialUDP.
	Dial Dialer
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultInterval
	}
	return o.Interval
}

// All returns every built-in output kind.
func All(opts Options) []stage.OutputKind {
	return []stage.OutputKind{
		ArtNet(opts),
		Virtual(opts),
	}
}
