// Package publish uploads exported documents to S3 so a dashboard can
// be shared from a bucket or a static site in front of one.
package publish

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/forma-dev/forma/internal/errors"
)

// ObjectPutter is the slice of the S3 API the publisher uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads exported artifacts to one bucket.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// Options configures a Publisher.
type Options struct {
	Bucket string
	Region string
	// Prefix is prepended to every object key.
	Prefix string
	// Client overrides the S3 client; when nil one is built from the
	// ambient AWS configuration.
	Client ObjectPutter
	Logger *slog.Logger
}

// New creates a Publisher. Without an explicit client, credentials come
// from the environment the way the AWS SDK resolves them.
func New(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("E061").
			WithDetail("No bucket configured").
			WithSuggestion("Set export.bucket in forma.json")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := opts.Client
	if client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.New("E061").Wrap(err)
		}
		client = s3.NewFromConfig(cfg)
	}

	return &Publisher{
		client: client,
		bucket: opts.Bucket,
		prefix: normalizePrefix(opts.Prefix),
		logger: logger.With("component", "publish"),
	}, nil
}

// Upload puts one exported document into the bucket under
// <prefix><project>.html and returns the object key.
func (p *Publisher) Upload(ctx context.Context, project string, artifact []byte) (string, error) {
	key := p.prefix + project + ".html"

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(artifact),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", errors.New("E061").
			WithDetail("Upload of " + key + " to " + p.bucket + " failed").
			Wrap(err)
	}

	p.logger.Info("artifact published", "bucket", p.bucket, "key", key, "bytes", len(artifact))
	return key, nil
}

func normalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.TrimPrefix(prefix, "/")
}
