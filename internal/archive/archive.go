// Package archive optionally mirrors successfully fetched page bodies to an
// external object store, adapted from the teacher's storage package
// (storage/storage.go's scheme-keyed constructor registry and
// storage/s3.go's github.com/aws/aws-sdk-go backend). Archiving is a
// durability/offline-analysis convenience, never part of the crawl's
// correctness: failures are logged and swallowed.
package archive

import (
	"bytes"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog"
)

// Mirror writes fetched content to a backing store, keyed by URL digest.
type Mirror interface {
	Put(key string, contentType string, content []byte) error
}

// Noop is the default Mirror when no archive bucket is configured.
type Noop struct{}

// Put discards the write; archiving is disabled.
func (Noop) Put(string, string, []byte) error { return nil }

// S3Mirror writes page bodies to an S3 bucket.
type S3Mirror struct {
	svc    *s3.S3
	bucket string
	log    zerolog.Logger
}

// NewS3Mirror builds a Mirror backed by the given bucket in region,
// following the teacher's aws-sdk-go session/service wiring in
// storage/s3.go. Requires AWS credentials to be resolvable via the SDK's
// standard chain.
func NewS3Mirror(region, bucket string, log zerolog.Logger) (*S3Mirror, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &S3Mirror{
		svc:    s3.New(sess),
		bucket: bucket,
		log:    log.With().Str("component", "archive").Logger(),
	}, nil
}

// Put uploads content to key in the configured bucket. Errors are returned
// to the caller, which is expected (per spec.md §4.12) to log and swallow
// them rather than treat archiving as fatal to the crawl.
func (m *S3Mirror) Put(key, contentType string, content []byte) error {
	_, err := m.svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	return err
}

// New builds the configured Mirror: an S3Mirror when bucket is non-empty,
// otherwise Noop. Failure to construct the S3 session degrades to Noop
// with a logged warning, since archiving is never allowed to block the
// crawl from starting.
func New(region, bucket string, log zerolog.Logger) Mirror {
	if bucket == "" {
		return Noop{}
	}
	m, err := NewS3Mirror(region, bucket, log)
	if err != nil {
		log.Warn().Err(err).Msg("could not initialize archive mirror, disabling archiving")
		return Noop{}
	}
	return m
}
