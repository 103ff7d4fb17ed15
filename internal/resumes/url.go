package resumes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// URLProvider resolves a fetchable download URL for a resume reference.
type URLProvider interface {
	ResolveURL(ctx context.Context, resume Resume) (string, error)
}

// S3Presigner mints short-lived GET URLs for resumes stored in S3.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// NewS3Presigner constructs an S3Presigner for the given bucket.
func NewS3Presigner(ctx context.Context, region, bucket string, ttl time.Duration) (*S3Presigner, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("resume bucket is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		ttl:     ttl,
	}, nil
}

// ResolveURL presigns a GET for the resume's storage key, falling back to the
// stored URL when the resume is not in the bucket.
func (p *S3Presigner) ResolveURL(ctx context.Context, resume Resume) (string, error) {
	if strings.TrimSpace(resume.StorageKey) == "" {
		if resume.URL != "" {
			return resume.URL, nil
		}
		return "", fmt.Errorf("resume %s has no storage key or url", resume.ID)
	}
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(resume.StorageKey),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("presign resume %s: %w", resume.ID, err)
	}
	return req.URL, nil
}

// StaticURLProvider serves resume URLs from a fixed base, for local dev and
// tests.
type StaticURLProvider struct {
	BaseURL string
}

// ResolveURL returns the stored URL, or baseURL/id when none is stored.
func (p *StaticURLProvider) ResolveURL(ctx context.Context, resume Resume) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resume.URL != "" {
		return resume.URL, nil
	}
	base := strings.TrimSuffix(p.BaseURL, "/")
	return base + "/" + resume.ID, nil
}

var (
	_ URLProvider = (*S3Presigner)(nil)
	_ URLProvider = (*StaticURLProvider)(nil)
)
