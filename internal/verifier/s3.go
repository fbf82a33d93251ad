package verifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/pgzip"
)

// S3API is the subset of the S3 client used to fetch a previous release
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from the default credential chain.
// endpoint overrides the service URL for S3-compatible stores.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Fetcher downloads the mapping files of a previous release
type S3Fetcher struct {
	client S3API
	bucket string
	logger *slog.Logger
}

// NewS3Fetcher creates a fetcher for bucket
func NewS3Fetcher(client S3API, bucket string, logger *slog.Logger) *S3Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &S3Fetcher{client: client, bucket: bucket, logger: logger}
}

// Download copies every .tsv and .tsv.gz object under prefix into dest,
// decompressing gzipped objects. It returns the local file names written.
func (f *S3Fetcher) Download(ctx context.Context, prefix, dest string) ([]string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	var written []string
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", f.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			base := path.Base(key)
			if !strings.HasSuffix(base, ".tsv") && !strings.HasSuffix(base, ".tsv.gz") {
				continue
			}
			name, err := f.fetch(ctx, key, dest)
			if err != nil {
				return nil, err
			}
			written = append(written, name)
		}
	}

	f.logger.Info("downloaded previous release", "bucket", f.bucket, "prefix", prefix, "files", len(written))
	return written, nil
}

func (f *S3Fetcher) fetch(ctx context.Context, key, dest string) (string, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get s3://%s/%s: %w", f.bucket, key, err)
	}
	defer out.Body.Close()

	name := path.Base(key)
	var r io.Reader = out.Body
	if strings.HasSuffix(name, ".gz") {
		gz, err := pgzip.NewReader(out.Body)
		if err != nil {
			return "", fmt.Errorf("failed to open gzip stream %s: %w", key, err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	file, err := os.Create(filepath.Join(dest, name))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return name, nil
}

// ExpandPrefix substitutes {previous} in prefix with the previous release number
func ExpandPrefix(prefix string, previous int) string {
	return strings.ReplaceAll(prefix, "{previous}", fmt.Sprint(previous))
}
