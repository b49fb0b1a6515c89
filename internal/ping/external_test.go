package ping

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"strconv"
	"testing"
	"time"
)

func TestPingArgs(t *testing.T) {
	timeout := 1500 * time.Millisecond
	args := pingArgs("example.com", timeout)

	var expected []string
	switch runtime.GOOS {
	case "darwin":
		expected = []string{"-n", "-c", "1", "-W", "1500", "example.com"}
	default:
		expected = []string{"-n", "-c", "1", "-W", "2", "example.com"}
	}
	if !reflect.DeepEqual(args, expected) {
		t.Fatalf("expected args %v, got %v", expected, args)
	}
}

func TestPingArgsMinimumTimeout(t *testing.T) {
	args := pingArgs("example.com", 10*time.Millisecond)

	expectedTimeout := strconv.Itoa(1)
	if runtime.GOOS == "darwin" {
		expectedTimeout = strconv.Itoa(100)
	}
	if len(args) < 5 || args[4] != expectedTimeout {
		t.Fatalf("expected timeout arg %q, got %v", expectedTimeout, args)
	}
}

func TestParseRTT(t *testing.T) {
	cases := []struct {
		output   string
		expected time.Duration
	}{
		{"64 bytes from 8.8.8.8: icmp_seq=1 ttl=58 time=12.5 ms\n", time.Duration(12.5 * float64(time.Millisecond))},
		{"PING 8.8.8.8 (8.8.8.8): 56 data bytes\n64 bytes from 8.8.8.8: icmp_seq=0 ttl=58 time=0.123 ms\n", time.Duration(0.123 * float64(time.Millisecond))},
		{"Reply from 127.0.0.1: bytes=32 time<1ms TTL=128", time.Millisecond},
		{"time=100.0 ms", 100 * time.Millisecond},
		{"no time information here", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := parseRTT([]byte(tc.output)); got != tc.expected {
			t.Fatalf("parseRTT(%q) = %v, expected %v", tc.output, got, tc.expected)
		}
	}
}

func TestExternalPingerMissingBinaryIsUnavailable(t *testing.T) {
	p := &ExternalPinger{command: "pingtray-missing-ping-binary"}

	result := p.Ping(context.Background(), "127.0.0.1", time.Second)
	if result.Success {
		t.Fatalf("expected failure for missing binary")
	}
	if !errors.Is(result.Error, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", result.Error)
	}
}

func TestExternalPingerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewExternalPinger().Ping(ctx, "127.0.0.1", time.Second)
	if result.Success || result.Error == nil {
		t.Fatalf("expected failure due to cancelled context, got %+v", result)
	}
}

func TestFailureDetail(t *testing.T) {
	cases := map[string]string{
		"ping: unknown host nowhere.invalid\n":                            "unknown host",
		"ping: nowhere.invalid: Name or service not known\n":              "unknown host",
		"ping: cannot resolve nowhere.invalid: Unknown host\n":            "unknown host",
		"From 10.0.0.1 icmp_seq=1 Destination Host Unreachable\n":         "unreachable",
		"1 packets transmitted, 0 received, 100% packet loss, time 0ms\n": "",
		"": "",
	}
	for output, want := range cases {
		if got := failureDetail([]byte(output)); got != want {
			t.Fatalf("failureDetail(%q) = %q, want %q", output, got, want)
		}
	}
}
