// Package s3 provides an S3 backed core.ArtifactStore implementation.
//
// Artifacts are stored as individual objects keyed by
// "<prefix><sessionID>/<artifactID>". The store works with any S3 compatible
// API; configuration (bucket, prefix) is explicit via Options.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/groupmesh/artifact"
)

// Client captures the subset of the S3 API the store uses. The concrete
// *s3.Client satisfies it; tests can supply a fake.
type Client interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Options configure the S3 artifact store.
type Options struct {
	// Prefix is prepended to every object key (e.g. "artifacts/").
	Prefix string
}

// Store implements core.ArtifactStore on top of S3.
type Store struct {
	client Client
	bucket string
	prefix string
}

// NewStore constructs a Store for the given client and bucket.
func NewStore(client Client, bucket string, optFns ...func(o *Options)) *Store {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{client: client, bucket: bucket, prefix: opts.Prefix}
}

func (s *Store) key(sessionID, artifactID string) string {
	return fmt.Sprintf("%s%s/%s", s.prefix, sessionID, artifactID)
}

// Save uploads artifact bytes, overwriting any existing object.
func (s *Store) Save(sessionID, artifactID string, data []byte) error {
	_, err := s.client.PutObject(context.Background(), &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID, artifactID)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put artifact %s/%s: %w", sessionID, artifactID, err)
	}

	return nil
}

// Get downloads artifact bytes, mapping a missing key to artifact.ErrNotFound.
func (s *Store) Get(sessionID, artifactID string) ([]byte, error) {
	out, err := s.client.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID, artifactID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("get artifact %s/%s: %w", sessionID, artifactID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact body: %w", err)
	}

	return data, nil
}

// List enumerates artifact ids stored for the session.
func (s *Store) List(sessionID string) ([]string, error) {
	prefix := fmt.Sprintf("%s%s/", s.prefix, sessionID)

	ids := []string{}
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(context.Background(), &awss3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("list artifacts for %s: %w", sessionID, err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			ids = append(ids, strings.TrimPrefix(*obj.Key, prefix))
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	return ids, nil
}

// Delete removes the artifact object. Deleting a missing key is not an error
// in S3 semantics, so existence is checked first to honor the store contract.
func (s *Store) Delete(sessionID, artifactID string) error {
	if _, err := s.Get(sessionID, artifactID); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(context.Background(), &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sessionID, artifactID)),
	})
	if err != nil {
		return fmt.Errorf("delete artifact %s/%s: %w", sessionID, artifactID, err)
	}

	return nil
}
