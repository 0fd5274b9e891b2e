package output

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gocloud.dev/blob/memblob"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSinkWritesToMemoryBucket(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	sink := NewSink(bucket, FormatPPM, discardLogger())
	defer sink.Close()

	key, err := sink.Write(ctx, "renders/test", testImage())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if key != "renders/test.ppm" {
		t.Errorf("Expected key renders/test.ppm, got %q", key)
	}

	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		t.Fatalf("Reading back %s failed: %v", key, err)
	}
	var expected bytes.Buffer
	if err := WritePPM(&expected, testImage()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, expected.Bytes()) {
		t.Errorf("Stored blob differs from the encoded image:\n%s", data)
	}

	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		t.Fatalf("Attributes failed: %v", err)
	}
	if attrs.ContentType != "image/x-portable-pixmap" {
		t.Errorf("Unexpected content type %q", attrs.ContentType)
	}
}

func TestOpenSinkMemURL(t *testing.T) {
	ctx := context.Background()
	sink, err := OpenSink(ctx, "mem://", FormatPNG, discardLogger())
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	defer sink.Close()

	key, err := sink.Write(ctx, "frame", testImage())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if key != "frame.png" {
		t.Errorf("Expected frame.png, got %q", key)
	}
}

func TestOpenSinkFileURL(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "output")

	sink, err := OpenSink(ctx, "file://"+filepath.ToSlash(dir), FormatPPM, discardLogger())
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}

	id := uuid.New()
	key, err := sink.Write(ctx, SnapshotKey("ground", id, 3), testImage())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("Expected file for key %s: %v", key, err)
	}
	if !strings.HasPrefix(string(data), "P3\n2 2\n255\n") {
		t.Errorf("Unexpected file contents: %q", data)
	}
}

func TestOpenSinkRejectsUnknownScheme(t *testing.T) {
	if _, err := OpenSink(context.Background(), "ftp://example.com/out", FormatPPM, nil); err == nil {
		t.Error("Expected error for an unsupported scheme")
	}
	if _, err := OpenSink(context.Background(), "output", FormatPPM, nil); err == nil {
		t.Error("Expected error for a bare path")
	}
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	if got := SnapshotKey("default", id, 42); got != "default/6ba7b810-9dad-11d1-80b4-00c04fd430c8/pass-00042" {
		t.Errorf("Unexpected snapshot key %q", got)
	}
	if got := FinalKey("default", id); got != "default/6ba7b810-9dad-11d1-80b4-00c04fd430c8/final" {
		t.Errorf("Unexpected final key %q", got)
	}
}
