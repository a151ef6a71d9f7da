package buildinfo

import (
	"strings"
	"testing"
)

func TestStrings(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if got := String(); !strings.Contains(got, "lightdesk v9.9.9") {
		t.Errorf("String() = %q, want version line", got)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} v9.9.9") {
		t.Errorf("Template() = %q", got)
	}
	if got := UserAgent(); got != "lightdesk/v9.9.9" {
		t.Errorf("UserAgent() = %q, want %q", got, "lightdesk/v9.9.9")
	}
}
