package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soocke/minimap-watch-go/config"
)

func TestParseRegion(t *testing.T) {
	r, err := parseRegion("10, 20,300,200")
	if err != nil {
		t.Fatalf("parseRegion: %v", err)
	}
	if r != (config.Region{Left: 10, Top: 20, Width: 300, Height: 200}) {
		t.Fatalf("unexpected region %+v", r)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,10"} {
		if _, err := parseRegion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewLogger_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, nil).Info("hello", "k", 1)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}
