package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

func testConfig() stage.Config {
	current := "c1"
	dimmer := 0.5
	module := &config.Node{
		Kind: "add",
		Config: json.RawMessage(`[
			{"kind":"fill","config":{"r":1,"g":0,"b":0,"alpha":1}},
			{"kind":"filter","config":[{"filter":{"group":"a"},"input":{"kind":"scan","config":{"speed":1}}}]}
		]`),
	}
	return stage.Config{
		Outputs: map[string]stage.OutputConfig{
			"o1": {Name: "Bar", Kind: "virtual", Config: json.RawMessage(`{"pixels":8}`)},
		},
		Compositor: &stage.CompositorConfig{
			Current: &current,
			Dimmer:  &dimmer,
			Cues: map[string]stage.CueConfig{
				"c1": {Name: "Warm", Module: module},
				"c2": {},
			},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testConfig(), Options{})

	want := []string{
		`"stage" [label="stage\ndimmer 50%", shape=ellipse];`,
		`"output:o1" [label="Bar\nvirtual", shape=component];`,
		`"stage" -> "output:o1";`,
		`"cue:c1" [label="cue\nWarm", fillcolor=gold, penwidth=2];`,
		`"cue:c2" [label="cue\nc2"];`,
		`"cue:c1/module" [label="add"];`,
		`"cue:c1" -> "cue:c1/module";`,
		`"cue:c1/module" -> "cue:c1/module/0" [label="0"];`,
		`"cue:c1/module/1" [label="filter"];`,
		`"cue:c1/module/1/0/input" [label="scan"];`,
		`"cue:c1/module/1" -> "cue:c1/module/1/0/input" [label="0/input"];`,
	}
	for _, w := range want {
		if !strings.Contains(dot, w) {
			t.Errorf("ToDOT() missing %s\n%s", w, dot)
		}
	}
	if strings.Contains(dot, "cue:c2/module") {
		t.Errorf("ToDOT() drew a module for an empty cue\n%s", dot)
	}
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT() is not a digraph:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testConfig(), Options{Detailed: true})
	for _, w := range []string{
		`"output:o1" [label="Bar\nvirtual\n{\"pixels\":8}", shape=component];`,
		`"cue:c1/module/0" [label="fill\n{\"alpha\":1,\"b\":0,\"g\":0,\"r\":1}"];`,
	} {
		if !strings.Contains(dot, w) {
			t.Errorf("ToDOT(Detailed) missing %s\n%s", w, dot)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(stage.Config{}, Options{})
	if !strings.Contains(dot, `"stage" [label="stage\ndimmer 100%", shape=ellipse];`) {
		t.Errorf("ToDOT() = %s, want a lone stage node", dot)
	}
	if strings.Contains(dot, "->") {
		t.Errorf("ToDOT() of an empty config has edges:\n%s", dot)
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", "{}"},
		{"reindented", "{ \"a\" : 1,\n \"b\": [1, 2] }", `{"a":1,"b":[1,2]}`},
		{"invalid", "{nope", "{nope"},
		{"truncated", `{"name":"` + strings.Repeat("x", 80) + `"}`, `{"name":"` + strings.Repeat("x", maxConfigLabel-3-9) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compact([]byte(tt.raw)); got != tt.want {
				t.Errorf("compact() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() without viewBox = %s, want input unchanged", got)
	}
}
