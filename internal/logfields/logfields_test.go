package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Component", KeyComponent, "cxxshlib", Component("cxxshlib")},
		{"Format", KeyFormat, "makefile", Format("makefile")},
		{"Tool", KeyTool, "cppcheck", Tool("cppcheck")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "Makefile", File("Makefile")},
		{"Command", KeyCommand, "makensis /NOCD", Command("makensis /NOCD")},
		{"Severity", KeySeverity, "error", Severity("error")},
		{"Version", KeyVersion, "1.8.2", Version("1.8.2")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.attr.Key != tc.attrKey {
				t.Errorf("expected key %q, got %q", tc.attrKey, tc.attr.Key)
			}
			if tc.attr.Value.String() != tc.attrVal {
				t.Errorf("expected value %q, got %q", tc.attrVal, tc.attr.Value.String())
			}
		})
	}
}

func TestCount(t *testing.T) {
	attr := Count(3)
	if attr.Key != KeyCount || attr.Value.Int64() != 3 {
		t.Errorf("unexpected attr: %v", attr)
	}
}

func TestError(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Errorf("nil error should map to empty string, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Errorf("expected boom, got %q", got)
	}
}
