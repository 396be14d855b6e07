// Package storage keeps learning center logos in an S3-compatible bucket
// (AWS S3, DigitalOcean Spaces, MinIO).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// MaxImageSize is the largest logo accepted
const MaxImageSize = 5 << 20

var (
	ErrNotConfigured    = errors.New("object storage is not configured")
	ErrImageTooLarge    = fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	ErrUnsupportedImage = errors.New("image must be a JPEG, PNG or WebP file")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStorage stores public files
type ObjectStorage interface {
	// UploadImage validates and stores an image under prefix, returning the
	// object key and its public URL
	UploadImage(ctx context.Context, prefix, filename string, data []byte) (key, url string, err error)
	Delete(ctx context.Context, key string) error
}

// Config holds configuration for the S3 client
type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// Enabled reports whether enough settings are present to talk to a bucket
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// S3Storage implements ObjectStorage with aws-sdk-go
type S3Storage struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// NewS3Storage creates a new S3 client
func NewS3Storage(config Config) (*S3Storage, error) {
	if !config.Enabled() {
		return nil, ErrNotConfigured
	}
	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	awsConfig := &aws.Config{
		Credentials: credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Region:      aws.String(region),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		// MinIO and most self-hosted gateways need path-style URLs
		awsConfig.S3ForcePathStyle = aws.Bool(!strings.Contains(config.Endpoint, "digitaloceanspaces.com"))
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &S3Storage{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(config.Endpoint, "https://"), "http://"),
		cdnURL:   strings.TrimRight(config.CDNURL, "/"),
	}, nil
}

// UploadImage uploads a logo with public-read ACL
func (s *S3Storage) UploadImage(ctx context.Context, prefix, filename string, data []byte) (string, string, error) {
	contentType, ext, err := DetectImage(data)
	if err != nil {
		return "", "", err
	}
	if data, err = NormalizeLogo(data, contentType); err != nil {
		return "", "", err
	}
	key := GenerateKey(prefix, filename, ext)

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return key, s.URL(key), nil
}

// Delete removes an object. Missing keys are not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL returns the public URL for a key
func (s *S3Storage) URL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	if s.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// DetectImage sniffs the content type and checks size and format
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrUnsupportedImage
	}
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}
	contentType = http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return contentType, ext, nil
}

// GenerateKey builds a unique object key that keeps a readable file stem
func GenerateKey(prefix, filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s/%s_%s%s", strings.Trim(prefix, "/"), uuid.New().String(), base, ext)
}
