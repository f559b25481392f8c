package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrUnsupportedMediaType is returned for content types that cannot be attached to a payload
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// MediaKind tells which media reference an upload fills
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

var mediaTypes = map[string]struct {
	kind MediaKind
	ext  string
}{
	"image/jpeg":      {MediaKindImage, ".jpg"},
	"image/png":       {MediaKindImage, ".png"},
	"image/gif":       {MediaKindImage, ".gif"},
	"image/webp":      {MediaKindImage, ".webp"},
	"video/mp4":       {MediaKindVideo, ".mp4"},
	"video/quicktime": {MediaKindVideo, ".mov"},
	"audio/mpeg":      {MediaKindAudio, ".mp3"},
	"audio/wav":       {MediaKindAudio, ".wav"},
	"audio/ogg":       {MediaKindAudio, ".ogg"},
}

// KindOf returns the media kind of a content type
func KindOf(contentType string) (MediaKind, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
	t, ok := mediaTypes[strings.ToLower(mt)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
	return t.kind, nil
}

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO, empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // Public URL prefix of the bucket
}

// S3Storage stores uploaded media in an S3-compatible bucket
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) *S3Storage {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true // Required for MinIO
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Storage{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		now:       time.Now,
	}
}

// UploadInput represents input for uploading a file
type UploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string // Optional: original filename for extension extraction
}

// UploadOutput represents output from uploading a file
type UploadOutput struct {
	Key        string
	URL        string
	Kind       MediaKind
	Size       int64
	UploadedAt time.Time
}

// Upload stores a media file under a dated random key and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	kind, err := KindOf(in.ContentType)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%s/%s%s", now.Format("2006/01/02"), uuid.New().String(), extension(in.Filename, in.ContentType))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &UploadOutput{
		Key:        key,
		URL:        s.publicURL + "/" + key,
		Kind:       kind,
		Size:       in.Size,
		UploadedAt: now,
	}, nil
}

// Ping checks the bucket is reachable
func (s *S3Storage) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	return nil
}

func extension(filename, contentType string) string {
	if ext := path.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	return mediaTypes[strings.ToLower(mt)].ext
}
