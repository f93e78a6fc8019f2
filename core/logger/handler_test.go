package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return slog.New(handler), aw, buf
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, aw, buf := newTestLogger(formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "ingest"), slog.LevelInfo, "upload.applied",
		slog.String("status", "ok"),
		slog.String("dataset", "schedule"),
		slog.String("class_id", "7"),
	)

	line := drain(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=ingest", "event=upload.applied", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
	if !strings.Contains(line, "dataset=schedule class_id=7") {
		t.Fatalf("domain keys out of order: %s", line)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, aw, buf := newTestLogger(formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	LogEvent(ctx, log.With("component", "store"), slog.LevelError, "save.failed",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("disk full")),
		slog.String("err_code", "DATASET_UNAVAILABLE"),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := drain(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"store"`, `"event":"save.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`, `"err":"disk full"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	for _, format := range []logFormat{formatKV, formatJSON} {
		log, aw, buf := newTestLogger(format)
		rawRID := "123:456:789"
		ctx := WithRID(context.Background(), rawRID)
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
		line := drain(t, aw, buf)

		switch format {
		case formatKV:
			if !strings.Contains(line, "rid="+CompactRID(rawRID)) || strings.Contains(line, "rid_full=") {
				t.Fatalf("kv: unexpected rid rendering: %s", line)
			}
		case formatJSON:
			if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) || !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
				t.Fatalf("json: unexpected rid rendering: %s", line)
			}
		}
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	log, aw, buf := newTestLogger(formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "x", slog.String("outcome", "weird"), slog.String("empty", ""))
	line := drain(t, aw, buf)
	if strings.Contains(line, "outcome=") || strings.Contains(line, "empty=") {
		t.Fatalf("expected outcome and empty fields to be dropped: %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component: %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parse 2/5 = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parse 10 = %d/%d", n, d)
	}
}
