package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/store"
)

func TestDefault(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if s.Store.Backend != store.BackendFile {
		t.Errorf("Store.Backend = %q, want %q", s.Store.Backend, store.BackendFile)
	}
	if got := s.Render.Interval.Std(); got != 10*time.Millisecond {
		t.Errorf("Render.Interval = %s, want 10ms", got)
	}
	if got := s.Render.Fade.Std(); got != time.Second {
		t.Errorf("Render.Fade = %s, want 1s", got)
	}
	if s.Preview.Pixels != DefaultPreviewPixels {
		t.Errorf("Preview.Pixels = %d, want %d", s.Preview.Pixels, DefaultPreviewPixels)
	}
}

func TestDecode(t *testing.T) {
	s, err := Decode(`
[store]
backend = "redis"

[store.redis]
addr = "cache:6379"
channel = "lightdesk:changes"

[render]
interval = "20ms"
fade = "-1s"

[server]
addr = "0.0.0.0:9000"
allowed_origins = ["http://desk.local"]

[preview]
pixels = 120
`)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := &Settings{
		Store: store.Config{
			Backend: store.BackendRedis,
			Redis:   store.RedisOptions{Addr: "cache:6379", Channel: "lightdesk:changes"},
		},
		Render: Render{
			Interval:     Duration(20 * time.Millisecond),
			Fade:         Duration(-time.Second),
			SaveInterval: Duration(store.DefaultSaveInterval),
		},
		Server:  Server{Addr: "0.0.0.0:9000", AllowedOrigins: []string{"http://desk.local"}},
		Preview: Preview{Pixels: 120},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[store`},
		{"unknown key", "[render]\nintervall = \"5ms\""},
		{"bad duration", "[render]\ninterval = \"soon\""},
		{"backend", "[store]\nbackend = \"sqlite\""},
		{"interval too long", "[render]\ninterval = \"2s\""},
		{"negative interval", "[render]\ninterval = \"-5ms\""},
		{"server addr", "[server]\naddr = \"localhost\""},
		{"too many pixels", "[preview]\npixels = 20000"},
		{"negative pixels", "[preview]\npixels = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestDecodeServerDisabled(t *testing.T) {
	s, err := Decode("[server]\ndisabled = true\naddr = \"nope\"")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got, want := s.String(), "store=file interval=10ms server=off"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if diff := cmp.Diff(Default(), s); diff != "" {
		t.Errorf("Load(missing) mismatch (-want +got):\n%s", diff)
	}

	path := filepath.Join(dir, "lightdesk.toml")
	if err := os.WriteFile(path, []byte("[preview]\npixels = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Preview.Pixels != 4 {
		t.Errorf("Preview.Pixels = %d, want 4", s.Preview.Pixels)
	}

	if err := os.WriteFile(path, []byte("[preview]\npixels = 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(bad) error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	s := Default()
	s.Render.Interval = Duration(25 * time.Millisecond)
	s.Server.AllowedOrigins = []string{"http://a", "http://b"}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(buf.String())
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
