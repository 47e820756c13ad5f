// Package storage wraps the S3 client used for product images. Images are
// stored by key and resolved to time-limited signed GET URLs on read.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/config"
)

const signedURLTTL = time.Hour

// Signer resolves stored image paths into presigned GET URLs.
type Signer interface {
	SignedURL(ctx context.Context, imagePath string) (string, error)
}

type s3Signer struct {
	presignClient *s3.PresignClient
	bucket        string
	logger        zerolog.Logger
}

// NewClient builds the S3 client the way the rest of the app expects:
// static credentials, path-style addressing for S3-compatible endpoints.
func NewClient(cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})
	return client, nil
}

func NewSigner(client *s3.Client, bucket string, logger zerolog.Logger) Signer {
	return &s3Signer{
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		logger:        logger.With().Str("service", "S3Signer").Logger(),
	}
}

// SignedURL generates a signed URL for the given image path. Paths stored
// as full URLs are reduced to their object key first.
func (s *s3Signer) SignedURL(ctx context.Context, imagePath string) (string, error) {
	key := strings.TrimSpace(imagePath)
	if strings.Contains(key, "http") {
		key = keyFromURL(key)
	}
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(signedURLTTL))
	if err != nil {
		s.logger.Error().Err(err).Str("image_path", imagePath).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

// keyFromURL drops the scheme and host of a stored absolute URL, keeping
// the object key.
func keyFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) <= 3 {
		return url
	}
	return strings.Join(parts[3:], "/")
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
