package cli

import (
	"flag"
	"io"
	"testing"
	"time"
)

func TestOptionalDuration(t *testing.T) {
	var d OptionalDuration
	if d.String() != "" {
		t.Fatalf("expected empty string for unset duration")
	}
	if _, ok := d.Value(); ok {
		t.Fatalf("expected unset duration to report false")
	}
	if d.Ptr() != nil {
		t.Fatalf("expected nil pointer for unset duration")
	}
	if err := d.Set("250ms"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "250ms" {
		t.Fatalf("expected duration string to be 250ms, got %q", d.String())
	}
	if v, ok := d.Value(); !ok || v != 250*time.Millisecond {
		t.Fatalf("expected duration value 250ms, got %v (ok=%v)", v, ok)
	}
	if p := d.Ptr(); p == nil || *p != 250*time.Millisecond {
		t.Fatalf("expected pointer to 250ms")
	}
}

func TestOptionalDurationInvalid(t *testing.T) {
	var d OptionalDuration
	if err := d.Set("bad"); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
	if _, ok := d.Value(); ok {
		t.Fatalf("expected invalid duration to remain unset")
	}
}

func TestOptionalInt(t *testing.T) {
	var i OptionalInt
	if err := i.Set("42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i.String() != "42" {
		t.Fatalf("expected 42, got %q", i.String())
	}
	if err := i.Set("four"); err == nil {
		t.Fatalf("expected error for invalid int")
	}
	if v, _ := i.Value(); v != 42 {
		t.Fatalf("failed Set must keep the previous value, got %d", v)
	}
}

func TestOptionalString(t *testing.T) {
	var s OptionalString
	if err := s.Set(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := s.Value(); !ok || v != "" {
		t.Fatalf("explicit empty string should count as set")
	}
}

func TestOptionalBool(t *testing.T) {
	var b OptionalBool
	if !b.IsBoolFlag() {
		t.Fatalf("OptionalBool must be a bool flag")
	}
	if err := b.Set("true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.String() != "true" {
		t.Fatalf("expected true, got %q", b.String())
	}
	if err := b.Set("maybe"); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
}

func TestOptionalFlagsWithFlagSet(t *testing.T) {
	var (
		interval OptionalDuration
		attempts OptionalInt
		listen   OptionalString
		noUI     OptionalBool
	)
	fs := flag.NewFlagSet("pingtray", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&interval, "interval", "")
	fs.Var(&attempts, "attempts", "")
	fs.Var(&listen, "listen", "")
	fs.Var(&noUI, "no-ui", "")

	if err := fs.Parse([]string{"-interval", "30s", "-no-ui"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := interval.Value(); !ok || v != 30*time.Second {
		t.Fatalf("interval not applied: %v %v", v, ok)
	}
	if v, ok := noUI.Value(); !ok || !v {
		t.Fatalf("bare bool flag should be true")
	}
	if _, ok := attempts.Value(); ok {
		t.Fatalf("attempts should be unset")
	}
	if listen.Ptr() != nil {
		t.Fatalf("listen should be unset")
	}
}
