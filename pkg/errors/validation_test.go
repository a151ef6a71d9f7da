package errors

import (
	"math"
	"testing"
)

func TestValidateKindName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "fill", false},
		{"dash", "art-net", false},
		{"digits", "scan2", false},

		{"empty", "", true},
		{"uppercase", "Fill", true},
		{"leading digit", "2scan", true},
		{"space", "fill it", true},
		{"too long", string(make([]byte, 80)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKindName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKindName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKind) {
				t.Errorf("ValidateKindName(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "2b1e4c1a-9f1e-4c55-8d59-2f43b3b1b0f1", false},
		{"short", "main", false},

		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"space", "a b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Front wash"); err != nil {
		t.Errorf("ValidateName() error = %v", err)
	}
	if err := ValidateName(""); err != nil {
		t.Errorf("ValidateName(empty) error = %v", err)
	}
	if err := ValidateName("bad\x00"); err == nil {
		t.Error("ValidateName(control) error = nil, want error")
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string, float64) error
		value   float64
		wantErr bool
	}{
		{"alpha zero", ValidateAlpha, 0, false},
		{"alpha one", ValidateAlpha, 1, false},
		{"alpha over", ValidateAlpha, 1.01, true},
		{"alpha negative", ValidateAlpha, -0.1, true},
		{"alpha nan", ValidateAlpha, math.NaN(), true},
		{"channel max", ValidateChannel, 255, false},
		{"channel over", ValidateChannel, 256, true},
		{"rate zero", ValidateNonNegative, 0, false},
		{"rate negative", ValidateNonNegative, -1, true},
		{"rate inf", ValidateNonNegative, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn("value", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}
