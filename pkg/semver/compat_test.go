package semver

import (
	"errors"
	"testing"
)

func TestIsMajorOnly(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"12", true},
		{"1.2", false},
		{"^1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsMajorOnly(tt.in); got != tt.want {
			t.Errorf("semver:compat_test - IsMajorOnly(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsExactVersion(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.2.3", true},
		{"1.2.3-beta.1", true},
		{"1.2.3+build.5", true},
		{"1.2", false},
		{"^1.2.3", false},
	}
	for _, tt := range tests {
		if got := IsExactVersion(tt.in); got != tt.want {
			t.Errorf("semver:compat_test - IsExactVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractMajorFromRange(t *testing.T) {
	if got := ExtractMajorFromRange("3"); got != 3 {
		t.Errorf("semver:compat_test - ExtractMajorFromRange(3) = %d", got)
	}
	if got := ExtractMajorFromRange("^3.0.0"); got != -1 {
		t.Errorf("semver:compat_test - ExtractMajorFromRange(^3.0.0) = %d, want -1", got)
	}
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		rangeStr   string
		wantOK     bool
		wantCompat bool // error is *IncompatibleError
	}{
		{"empty range", "1.0.0", "", true, false},
		{"major only match", "1.4.2", "1", true, false},
		{"major only mismatch", "2.0.0", "1", false, true},
		{"exact match", "1.2.3", "1.2.3", true, false},
		{"exact mismatch", "1.2.4", "1.2.3", false, true},
		{"caret match", "1.5.0", "^1.2.0", true, false},
		{"caret mismatch", "2.0.0", "^1.2.0", false, true},
		{"compound range", "2.1.0", ">=1.0.0 <3.0.0", true, false},
		{"invalid range", "1.0.0", "not-a-range!!", false, false},
		{"invalid version", "banana", "^1.0.0", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatible(tt.version, tt.rangeStr)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("semver:compat_test - unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("semver:compat_test - expected error")
			}
			var incompatible *IncompatibleError
			if got := errors.As(err, &incompatible); got != tt.wantCompat {
				t.Errorf("semver:compat_test - IncompatibleError = %v, want %v (err=%v)", got, tt.wantCompat, err)
			}
		})
	}
}

func TestSatisfiesRange(t *testing.T) {
	if !SatisfiesRange("1.0.0", "^1.0.0") {
		t.Error("semver:compat_test - expected 1.0.0 to satisfy ^1.0.0")
	}
	if SatisfiesRange("1.0.0", "~2.0.0") {
		t.Error("semver:compat_test - expected 1.0.0 not to satisfy ~2.0.0")
	}
}
