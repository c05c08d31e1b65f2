// Package s3 streams exports to Amazon S3 with multipart uploads.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/primegen/sink"
)

// ErrAborted is the error the upload observes when the sink is aborted.
var ErrAborted = errors.New("upload aborted")

// Client is the S3 API surface needed for (multipart) uploads.
type Client interface {
	manager.UploadAPIClient
}

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 16MB, matching the export buffer.
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5 (matches SDK default)
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	EnableChecksum bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       16 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// Sink uploads everything written to it as a single object.
//
// Failed multipart uploads are aborted by the uploader, so Abort never
// leaves a partial object behind.
type Sink struct {
	pw     *io.PipeWriter
	done   chan error
	bucket string
	key    string

	once sync.Once
	err  error
}

var _ sink.Sink = (*Sink)(nil)

// New starts a streaming upload to bucket/key.
func New(ctx context.Context, client Client, bucket, key string, cfg UploadConfig) *Sink {
	def := DefaultUploadConfig()
	if cfg.PartSize < manager.MinUploadPartSize {
		cfg.PartSize = def.PartSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = false
	})

	pr, pw := io.Pipe()
	s := &Sink{
		pw:     pw,
		done:   make(chan error, 1),
		bucket: bucket,
		key:    key,
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        pr,
		ContentType: aws.String("text/plain; charset=utf-8"),
	}
	if cfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		s.done <- err
	}()

	return s
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.pw.Write(p)
}

// Close signals EOF and waits for the upload to complete.
func (s *Sink) Close() error {
	s.once.Do(func() {
		if err := s.pw.Close(); err != nil {
			s.err = err
			return
		}
		if err := <-s.done; err != nil {
			s.err = fmt.Errorf("s3: upload %s: %w", s.Location(), err)
		}
	})
	return s.err
}

// Abort fails the upload and waits for the uploader to clean up.
func (s *Sink) Abort() error {
	s.once.Do(func() {
		_ = s.pw.CloseWithError(ErrAborted)
		<-s.done
	})
	return nil
}

// Location returns the object URL.
func (s *Sink) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}
