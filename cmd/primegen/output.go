package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/pflag"

	"github.com/hupe1980/primegen"
	"github.com/hupe1980/primegen/sink"
	miniosink "github.com/hupe1980/primegen/sink/minio"
	s3sink "github.com/hupe1980/primegen/sink/s3"
)

// outputFlags select the export destination.
type outputFlags struct {
	out            string
	compress       string
	s3PartSize     int64
	minioEndpoint  string
	minioAccessKey string
	minioSecretKey string
	minioSecure    bool
}

func (f *outputFlags) register(fs *pflag.FlagSet, required bool) {
	usage := "export the store to FILE, s3://BUCKET/KEY or minio://BUCKET/KEY"
	if required {
		usage += " (required)"
	}
	fs.StringVarP(&f.out, "out", "o", "", usage)
	fs.StringVar(&f.compress, "compress", "auto", "local file compression (auto, none, zstd, lz4); auto follows the extension")
	fs.Int64Var(&f.s3PartSize, "s3-part-size", s3sink.DefaultUploadConfig().PartSize, "multipart upload part size in bytes")
	fs.StringVar(&f.minioEndpoint, "minio-endpoint", "localhost:9000", "MinIO endpoint")
	fs.StringVar(&f.minioAccessKey, "minio-access-key", "", "MinIO access key (default: $MINIO_ACCESS_KEY)")
	fs.StringVar(&f.minioSecretKey, "minio-secret-key", "", "MinIO secret key (default: $MINIO_SECRET_KEY)")
	fs.BoolVar(&f.minioSecure, "minio-secure", false, "use TLS for MinIO")
}

// localPath applies --compress to a local output path.
func (f *outputFlags) localPath() (string, error) {
	var ext string
	switch strings.ToLower(f.compress) {
	case "auto", "none", "":
		return f.out, nil
	case "zstd":
		ext = ".zst"
	case "lz4":
		ext = ".lz4"
	default:
		return "", fmt.Errorf("--compress: unknown compression %q", f.compress)
	}
	if sink.CompressionFor(f.out) != sink.None {
		return f.out, nil
	}
	return f.out + ext, nil
}

// exportStore exports the first count entries of storePath and waits for
// the export to finish.
func exportStore(ctx context.Context, gen *primegen.Generator, storePath string, count uint64, f outputFlags) error {
	u, err := url.Parse(f.out)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		path, err := f.localPath()
		if err != nil {
			return err
		}
		if err := gen.Export(ctx, storePath, count, path); err != nil {
			return err
		}
	} else {
		out, err := f.remote(ctx, u)
		if err != nil {
			return err
		}
		if err := gen.ExportTo(ctx, storePath, count, out); err != nil {
			_ = out.Abort()
			return err
		}
	}

	_, err = await(ctx, gen, gen.WaitExport)
	return err
}

func (f *outputFlags) remote(ctx context.Context, u *url.URL) (sink.Sink, error) {
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("--out: %q needs a bucket and a key", f.out)
	}

	switch u.Scheme {
	case "s3":
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		upload := s3sink.DefaultUploadConfig()
		upload.PartSize = f.s3PartSize
		return s3sink.New(ctx, s3.NewFromConfig(cfg), bucket, key, upload), nil
	case "minio":
		client, err := minio.New(f.minioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(envOr(f.minioAccessKey, "MINIO_ACCESS_KEY"), envOr(f.minioSecretKey, "MINIO_SECRET_KEY"), ""),
			Secure: f.minioSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniosink.New(ctx, client, bucket, key), nil
	default:
		return nil, fmt.Errorf("--out: unsupported scheme %q", u.Scheme)
	}
}
