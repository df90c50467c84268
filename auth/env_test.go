package auth

import (
	"errors"
	"testing"
)

func TestEnvBool(t *testing.T) {
	logger := discardLogger()

	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"false", true, false},
		{"1", false, true},
		{"0", true, false},
		{"banana", true, true},
		{"banana", false, false},
	}

	for _, tc := range tests {
		t.Setenv("PASSGATE_TEST_BOOL", tc.value)
		if got := envBool("PASSGATE_TEST_BOOL", tc.def, logger); got != tc.want {
			t.Fatalf("envBool(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.want)
		}
	}
}

func TestEnvCollector(t *testing.T) {
	t.Setenv("PASSGATE_TEST_PRESENT", "value")
	t.Setenv("PASSGATE_TEST_ABSENT", "")

	env := &envCollector{}
	if got := env.get("PASSGATE_TEST_PRESENT"); got != "value" {
		t.Fatalf("unexpected value %q", got)
	}
	env.get("PASSGATE_TEST_ABSENT")
	env.get("PASSGATE_TEST_NEVER_SET")

	err := env.err("test")
	var mce *MissingConfigError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingConfigError, got %v", err)
	}
	if len(mce.Missing) != 2 {
		t.Fatalf("expected both absent variables collected, got %v", mce.Missing)
	}

	if err := (&envCollector{}).err("test"); err != nil {
		t.Fatalf("no missing variables must yield nil, got %v", err)
	}
}
