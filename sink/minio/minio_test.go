package minio

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeClient) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[bucket+"/"+key] = data
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func TestSink_Upload(t *testing.T) {
	client := &fakeClient{}
	s := New(context.Background(), client, "primes", "run-1.txt")
	assert.Equal(t, "minio://primes/run-1.txt", s.Location())

	_, err := s.Write([]byte("2\n3"))
	require.NoError(t, err)
	_, err = s.Write([]byte("\n5"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, []byte("2\n3\n5"), client.objects["primes/run-1.txt"])
}

func TestSink_Abort(t *testing.T) {
	client := &fakeClient{}
	s := New(context.Background(), client, "primes", "aborted.txt")

	_, err := s.Write([]byte("2\n3"))
	require.NoError(t, err)
	require.NoError(t, s.Abort())

	assert.NotContains(t, client.objects, "primes/aborted.txt")

	_, err = s.Write([]byte("5"))
	assert.Error(t, err)
}

// TestSink_Integration requires a running MinIO instance.
// Skip if not available.
func TestSink_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := "test-primegen"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	s := New(ctx, client, bucket, "export.txt")
	_, err = s.Write([]byte("2\n3\n5\n7"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	obj, err := client.GetObject(ctx, bucket, "export.txt", minio.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, obj)
	require.NoError(t, err)
	assert.Equal(t, "2\n3\n5\n7", buf.String())

	require.NoError(t, client.RemoveObject(ctx, bucket, "export.txt", minio.RemoveObjectOptions{}))
}
