package main

import (
	"log/slog"
	"testing"
)

func TestCheckReplay(t *testing.T) {
	tests := []struct {
		replay  string
		mode    string
		wantErr bool
	}{
		{"", "monitor", false},
		{"snap.jsonl", "scan", false},
		{"snap.jsonl", "SCAN", false},
		{"s3:scans/a.json", "Scan", false},
		{"snap.jsonl", "monitor", true},
		{"snap.jsonl", "full", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.replay, func(t *testing.T) {
			err := checkReplay(tt.replay, tt.mode)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkReplay(%q, %q) = %v, wantErr %v", tt.replay, tt.mode, err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
