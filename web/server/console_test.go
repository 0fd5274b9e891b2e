package server

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestConsoleHandler_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, nil, nil))

	logger.Info("pass complete", "pass", 3, "samples", 3)

	msg := receive(t, messageChan)
	if msg.Message != "pass complete" {
		t.Errorf("Expected message 'pass complete', got '%s'", msg.Message)
	}
	if msg.Level != "info" {
		t.Errorf("Expected level 'info', got '%s'", msg.Level)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
	}
	if msg.Attrs["pass"] != "3" || msg.Attrs["samples"] != "3" {
		t.Errorf("Unexpected attrs: %v", msg.Attrs)
	}
}

func TestConsoleHandler_WithAttrsAndGroups(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, nil, nil)).
		With("render_id", "abc").
		WithGroup("tile").
		With("id", 7)

	logger.Info("rendered", "pass", 2, slog.Group("bounds", "x", 0, "y", 64))

	msg := receive(t, messageChan)
	expected := map[string]string{
		"render_id":     "abc",
		"tile.id":       "7",
		"tile.pass":     "2",
		"tile.bounds.x": "0",
		"tile.bounds.y": "64",
	}
	for key, want := range expected {
		if got := msg.Attrs[key]; got != want {
			t.Errorf("Attr %s: expected %q, got %q (all attrs %v)", key, want, got, msg.Attrs)
		}
	}
	if len(msg.Attrs) != len(expected) {
		t.Errorf("Expected %d attrs, got %v", len(expected), msg.Attrs)
	}
}

func TestConsoleHandler_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, nil, nil))

	logger.Debug("hidden")
	logger.Warn("careful")
	logger.Error("broken")

	if msg := receive(t, messageChan); msg.Level != "warning" || msg.Message != "careful" {
		t.Errorf("Expected warning 'careful', got %+v", msg)
	}
	if msg := receive(t, messageChan); msg.Level != "error" || msg.Message != "broken" {
		t.Errorf("Expected error 'broken', got %+v", msg)
	}
	select {
	case msg := <-messageChan:
		t.Errorf("Debug record should be filtered, got %+v", msg)
	default:
	}

	debugChan := make(chan ConsoleMessage, 1)
	slog.New(NewConsoleHandler(debugChan, nil, slog.LevelDebug)).Debug("shown")
	if msg := receive(t, debugChan); msg.Level != "debug" {
		t.Errorf("Expected debug level, got %q", msg.Level)
	}
}

func TestConsoleHandler_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := slog.New(NewConsoleHandler(messageChan, nil, nil))

	// Neither of the extra messages may block
	logger.Info("Message 1")
	logger.Info("Message 2")
	logger.Info("Message 3")

	if msg := receive(t, messageChan); msg.Message != "Message 1" {
		t.Errorf("Expected the first message to be kept, got %q", msg.Message)
	}
}

func TestConsoleHandler_NilChannel(t *testing.T) {
	logger := slog.New(NewConsoleHandler(nil, nil, nil))

	// This should not panic
	logger.Info("Test message with nil channel")
}

func TestConsoleHandler_ForwardsToNext(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, next, nil)).With("render_id", "r1")

	logger.Debug("tile detail", "tile", 4)
	logger.Info("pass complete")

	out := buf.String()
	if !strings.Contains(out, "tile detail") || !strings.Contains(out, "render_id=r1") {
		t.Errorf("Server log should receive every record with its attrs, got:\n%s", out)
	}
	if msg := receive(t, messageChan); msg.Message != "pass complete" {
		t.Errorf("Console should only see the info record, got %q", msg.Message)
	}
}
