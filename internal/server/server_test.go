package server

import (
	"context"
	"testing"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":               ":8080",
		"8080":           ":8080",
		":9090":          ":9090",
		"127.0.0.1:8081": "127.0.0.1:8081",
		" 3000 ":         ":3000",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestPortNumber(t *testing.T) {
	p, err := PortNumber("127.0.0.1:8081")
	if err != nil || p != 8081 {
		t.Fatalf("got %d, %v", p, err)
	}
	if _, err := PortNumber("abc"); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	if err := New(nil).Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
