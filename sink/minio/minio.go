// Package minio streams exports to MinIO or any S3-compatible object store.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/primegen/sink"
)

// ErrAborted is the error the upload observes when the sink is aborted.
var ErrAborted = errors.New("upload aborted")

// Client is the subset of *minio.Client used by the sink.
type Client interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Sink uploads everything written to it as a single object. The upload runs
// in the background and is committed by Close.
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
func New(ctx context.Context, client Client, bucket, key string) *Sink {
	pr, pw := io.Pipe()
	s := &Sink{
		pw:     pw,
		done:   make(chan error, 1),
		bucket: bucket,
		key:    key,
	}

	go func() {
		_, err := client.PutObject(ctx, bucket, key, pr, -1, minio.PutObjectOptions{
			ContentType: "text/plain; charset=utf-8",
		})
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
			s.err = fmt.Errorf("minio: upload %s: %w", s.Location(), err)
		}
	})
	return s.err
}

// Abort fails the upload so that no object is committed.
func (s *Sink) Abort() error {
	s.once.Do(func() {
		_ = s.pw.CloseWithError(ErrAborted)
		<-s.done
	})
	return nil
}

// Location returns the object URL.
func (s *Sink) Location() string {
	return "minio://" + s.bucket + "/" + s.key
}
