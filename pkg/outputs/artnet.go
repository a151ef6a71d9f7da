package outputs

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/desk"
	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/observability"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

// Art-Net limits.
const (
	ArtNetPort    = 6454
	MaxUniverse   = 32767
	MaxDMXChannel = 512
)

// ArtNetConfig configures an Art-Net output. Pixel i drives the three
// channels starting at StartChannel + 3i. Pixels that do not fit in the
// universe are not sent.
type ArtNetConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Universe     int    `json:"universe"`
	Pixels       int    `json:"pixels"`
	StartChannel int    `json:"startChannel"`
}

// DefaultArtNetConfig broadcasts one pixel on universe 0.
func DefaultArtNetConfig() ArtNetConfig {
	return ArtNetConfig{
		Host:         "255.255.255.255",
		Port:         ArtNetPort,
		Pixels:       1,
		StartChannel: 1,
	}
}

func (c ArtNetConfig) validate() error {
	switch {
	case c.Host == "":
		return errors.New(errors.ErrCodeInvalidConfig, "host is required")
	case c.Port < 1 || c.Port > 65535:
		return errors.New(errors.ErrCodeInvalidConfig, "port must be between 1 and 65535, got %d", c.Port)
	case c.Universe < 0 || c.Universe > MaxUniverse:
		return errors.New(errors.ErrCodeInvalidConfig, "universe must be between 0 and %d, got %d", MaxUniverse, c.Universe)
	case c.StartChannel < 1 || c.StartChannel > MaxDMXChannel:
		return errors.New(errors.ErrCodeInvalidConfig, "startChannel must be between 1 and %d, got %d", MaxDMXChannel, c.StartChannel)
	case c.Pixels < 1 || c.Pixels > MaxDMXChannel/3:
		return errors.New(errors.ErrCodeInvalidConfig, "pixels must be between 1 and %d, got %d", MaxDMXChannel/3, c.Pixels)
	}
	return nil
}

func (c ArtNetConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Transport sends packets to one destination.
type Transport interface {
	Send(packet []byte) error
	Close() error
}

// Dialer opens a transport to addr.
type Dialer func(ctx context.Context, addr string) (Transport, error)

// DialUDP opens a UDP transport. Broadcast destinations are allowed.
func DialUDP(ctx context.Context, addr string) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	return udpTransport{conn}, nil
}

type udpTransport struct{ conn net.Conn }

func (u udpTransport) Send(packet []byte) error {
	_, err := u.conn.Write(packet)
	return err
}

func (u udpTransport) Close() error { return u.conn.Close() }

// ArtNet returns the Art-Net output kind.
func ArtNet(opts Options) stage.OutputKind {
	dial := opts.Dial
	if dial == nil {
		dial = DialUDP
	}
	return stage.OutputKind{
		Name:          KindArtNet,
		Description:   "Sends ArtDMX packets to a DMX universe over UDP",
		InitialConfig: mustJSON(DefaultArtNetConfig()),
		Validate: func(raw json.RawMessage) error {
			cfg, err := config.Decode(raw, DefaultArtNetConfig())
			if err != nil {
				return err
			}
			return cfg.validate()
		},
		Create: func(env stage.OutputEnv) (stage.Output, error) {
			a := &artNetOutput{
				env:    env,
				dial:   dial,
				group:  desk.NewGroup("artnet"),
				target: desk.NewLabel(""),
				status: desk.NewLabel("not connected"),
			}
			a.group.Add(a.target, a.status)
			a.cancel = env.Scheduler.Every(opts.interval(), a.tick)
			return a, nil
		},
	}
}

type artNetOutput struct {
	env    stage.OutputEnv
	dial   Dialer
	cancel func()
	group  *desk.Group
	target *desk.Label
	status *desk.Label

	mu        sync.Mutex
	cfg       ArtNetConfig
	comp      *compositor.Compositor[stage.State]
	transport Transport
	seq       uint8
	failing   bool
}

func (a *artNetOutput) SetConfig(_ context.Context, raw json.RawMessage) error {
	cfg, err := config.Decode(raw, DefaultArtNetConfig())
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.comp != nil && cfg == a.cfg {
		return nil
	}
	if a.comp == nil || cfg.Pixels != a.cfg.Pixels {
		a.comp = a.env.NewCompositor(compositor.Line(cfg.Pixels))
	}
	if a.transport != nil && cfg.addr() != a.cfg.addr() {
		// The next frame dials the new destination.
		if err := a.transport.Close(); err != nil {
			a.env.Logger.Warn("close art-net transport", "err", err)
		}
		a.transport = nil
	}
	a.cfg = cfg
	a.target.SetText(fmt.Sprintf("%s universe %d, channels %d-%d",
		cfg.addr(), cfg.Universe, cfg.StartChannel, min(cfg.StartChannel+3*cfg.Pixels-1, MaxDMXChannel)))
	return nil
}

func (a *artNetOutput) Control() desk.Component { return a.group }

func (a *artNetOutput) Destroy(context.Context) error {
	a.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.transport == nil {
		return nil
	}
	err := a.transport.Close()
	a.transport = nil
	return err
}

func (a *artNetOutput) tick() {
	ctx := context.Background()
	a.mu.Lock()
	comp, cfg := a.comp, a.cfg
	a.mu.Unlock()
	if comp == nil {
		return
	}

	start := time.Now()
	colors := comp.Colors()
	dmx := make([]byte, MaxDMXChannel)
	for i, c := range colors {
		ch := cfg.StartChannel - 1 + 3*i
		if ch+3 > MaxDMXChannel {
			break
		}
		rgb := c.RGB()
		copy(dmx[ch:], rgb[:])
	}
	observability.Render().OnFrame(ctx, a.env.ID, len(colors), time.Since(start))

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.comp != comp {
		return
	}
	if a.transport == nil {
		t, err := a.dial(ctx, cfg.addr())
		if err != nil {
			a.fail(ctx, errors.Wrap(errors.ErrCodeTransport, err, "dial %s", cfg.addr()))
			return
		}
		a.transport = t
	}
	a.seq++
	if a.seq == 0 {
		a.seq = 1
	}
	if err := a.transport.Send(ArtDMXPacket(cfg.Universe, a.seq, dmx)); err != nil {
		a.fail(ctx, errors.Wrap(errors.ErrCodeTransport, err, "send to %s", cfg.addr()))
		return
	}
	if a.failing {
		a.env.Logger.Info("art-net transport recovered", "addr", cfg.addr())
	}
	a.failing = false
	a.status.SetText("sending")
}

// fail logs the first of a run of transport errors. a.mu must be held.
func (a *artNetOutput) fail(ctx context.Context, err error) {
	observability.Render().OnTransportError(ctx, a.env.ID, err)
	if !a.failing {
		a.env.Logger.Warn("art-net transport", "err", err)
	}
	a.failing = true
	a.status.SetText("error: " + errors.UserMessage(err))
}

// ArtDMXPacket encodes an ArtDMX packet for universe (15-bit port address)
// carrying data. Data is padded to an even length of at least 2 and
// truncated at 512 channels. A sequence of 0 disables reordering at the
// receiver.
func ArtDMXPacket(universe int, sequence uint8, data []byte) []byte {
	data = data[:min(len(data), MaxDMXChannel)]
	n := max(len(data)+len(data)%2, 2)
	p := make([]byte, 18+n)
	copy(p, "Art-Net\x00")
	binary.LittleEndian.PutUint16(p[8:], 0x5000)
	binary.BigEndian.PutUint16(p[10:], 14)
	p[12] = sequence
	p[13] = 0
	p[14] = byte(universe & 0xff)
	p[15] = byte(universe >> 8 & 0x7f)
	binary.BigEndian.PutUint16(p[16:], uint16(n))
	copy(p[18:], data)
	return p
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
