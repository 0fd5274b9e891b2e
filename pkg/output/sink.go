package output

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
)

// Sink writes encoded frames to a blob bucket. Supported bucket URLs are
// file:// (local directory), gs:// (Google Cloud Storage) and mem://.
type Sink struct {
	bucket *blob.Bucket
	url    string
	format Format
	logger *slog.Logger
}

// OpenSink opens the bucket at bucketURL. Local directories are created if
// they do not exist yet.
func OpenSink(ctx context.Context, bucketURL string, format Format, logger *slog.Logger) (*Sink, error) {
	if !blob.DefaultURLMux().ValidBucketScheme(scheme(bucketURL)) {
		return nil, errors.Errorf("unsupported output url %q (want file://, gs:// or mem://)", bucketURL)
	}
	if err := ensureLocalDir(bucketURL); err != nil {
		return nil, err
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "opening output bucket %q", bucketURL)
	}
	sink := NewSink(bucket, format, logger)
	sink.url = bucketURL
	return sink, nil
}

// NewSink wraps an already open bucket. The sink takes ownership of it.
func NewSink(bucket *blob.Bucket, format Format, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{bucket: bucket, format: format, logger: logger}
}

// Format returns the encoding used for every frame
func (s *Sink) Format() Format {
	return s.format
}

// Write encodes img and stores it under key plus the format's extension,
// returning the full blob key
func (s *Sink) Write(ctx context.Context, key string, img *renderer.Image) (string, error) {
	fullKey := key + "." + s.format.Extension()

	fd, err := s.bucket.NewWriter(ctx, fullKey, &blob.WriterOptions{ContentType: s.format.ContentType()})
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", fullKey)
	}
	buf := bufio.NewWriterSize(fd, 1<<20)
	if err := s.format.Encode(buf, img); err != nil {
		fd.Close()
		return "", errors.Wrapf(err, "writing %s", fullKey)
	}
	if err := buf.Flush(); err != nil {
		fd.Close()
		return "", errors.Wrapf(err, "flushing %s", fullKey)
	}
	if err := fd.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", fullKey)
	}

	s.logger.InfoContext(ctx, "image written", "bucket", s.url, "key", fullKey, "width", img.Width, "height", img.Height)
	return fullKey, nil
}

// Close releases the bucket
func (s *Sink) Close() error {
	return s.bucket.Close()
}

// SnapshotKey names an intermediate frame of a render:
// <scene>/<render id>/pass-00042
func SnapshotKey(sceneName string, renderID uuid.UUID, pass int) string {
	return fmt.Sprintf("%s/%s/pass-%05d", sceneName, renderID, pass)
}

// FinalKey names the finished frame of a render: <scene>/<render id>/final
func FinalKey(sceneName string, renderID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/final", sceneName, renderID)
}

func scheme(bucketURL string) string {
	if i := strings.Index(bucketURL, "://"); i > 0 {
		return bucketURL[:i]
	}
	return ""
}

// ensureLocalDir creates the root directory of a file:// bucket. fileblob
// refuses to open a directory that does not exist.
func ensureLocalDir(bucketURL string) error {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return errors.Wrapf(err, "parsing output url %q", bucketURL)
	}
	if u.Scheme != "file" {
		return nil
	}

	path := u.Path
	// Host "." marks a relative path such as file://./output
	if u.Host == "." {
		path = strings.TrimPrefix(path, "/")
	}
	if err := os.MkdirAll(filepath.FromSlash(path), 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %q", path)
	}
	return nil
}
