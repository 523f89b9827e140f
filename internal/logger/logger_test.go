package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		minLevel Level
		log      func(l *Logger)
		wantLine bool
	}{
		{
			name:     "info_written_at_info",
			minLevel: LevelInfo,
			log:      func(l *Logger) { l.Info(context.Background(), "hello") },
			wantLine: true,
		},
		{
			name:     "debug_suppressed_at_info",
			minLevel: LevelInfo,
			log:      func(l *Logger) { l.Debug(context.Background(), "hidden") },
			wantLine: false,
		},
		{
			name:     "error_written_at_warn",
			minLevel: LevelWarn,
			log:      func(l *Logger) { l.Errorc(context.Background(), 0, "boom") },
			wantLine: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, tt.minLevel, "tracker", nil)
			tt.log(l)

			got := strings.TrimSpace(buf.String()) != ""
			if got != tt.wantLine {
				t.Errorf("wrote line = %v, want %v (output %q)", got, tt.wantLine, buf.String())
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug, "tracker", func(ctx context.Context) string { return "abc123" })

	l.Info(context.Background(), "cycle finished", "platform", "swappa", "records", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	checks := map[string]any{
		"msg":      "cycle finished",
		"service":  "tracker",
		"trace_id": "abc123",
		"platform": "swappa",
		"records":  float64(4),
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}

	source, _ := entry["source"].(string)
	if !strings.Contains(source, "logger_test.go") {
		t.Errorf("source = %q, want caller file", source)
	}
}
