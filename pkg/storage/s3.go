package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxCoverSize is the maximum allowed size for cover images (5MB).
	MaxCoverSize = 5 * 1024 * 1024
	// FolderCovers is the S3 prefix for event cover objects.
	FolderCovers = "covers"
	// FolderPending holds covers uploaded before their event exists.
	FolderPending = "pending"
)

// ErrUnsupportedType is returned for files that are not an allowed image type.
var ErrUnsupportedType = errors.New("unsupported image type")

// Allowed cover MIME types and extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CoversBucket         string
	PresignExpireMinutes int
}

// S3 stores event cover images.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CoversBucket == "" {
		return nil, errors.New("covers bucket is not configured")
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("covers_bucket", cfg.CoversBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{
		client:   client,
		uploader: uploader,
		presign:  s3.NewPresignClient(client),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateImageType returns true if the content type or the extension is an allowed image.
func ValidateImageType(contentType, filename string) bool {
	if contentType != "" {
		if _, ok := AllowedImageTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if _, ok := AllowedImageExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeFor picks the stored content type: an allowed declared type wins, then the extension.
func ContentTypeFor(contentType, filename string) string {
	if _, ok := AllowedImageTypes[strings.ToLower(contentType)]; ok {
		return strings.ToLower(contentType)
	}
	if ct, ok := AllowedImageExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func extensionFor(contentType, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if _, ok := AllowedImageExtensions[ext]; ok {
		return ext
	}
	if e, ok := AllowedImageTypes[strings.ToLower(contentType)]; ok {
		return e
	}
	return ""
}

// CoverKey returns covers/{event_id}/{random}{ext}. Keys are never reused so CDN caches stay valid.
func CoverKey(eventID uuid.UUID, contentType, filename string) string {
	return path.Join(FolderCovers, eventID.String(), uuid.NewString()+extensionFor(contentType, filename))
}

// PendingCoverKey returns covers/pending/{user_id}/{random}{ext} for presigned uploads.
func PendingCoverKey(userID uuid.UUID, contentType, filename string) string {
	return path.Join(FolderCovers, FolderPending, userID.String(), uuid.NewString()+extensionFor(contentType, filename))
}

// PresignedUpload is a direct-to-bucket upload grant.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// PublicObjectURL returns the public URL for a cover object.
func (s *S3) PublicObjectURL(key string) string {
	return publicURL(s.cfg.CoversBucket, s.cfg.Region, key)
}

func publicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// PresignCoverUpload returns a pre-signed PUT URL for a cover the client uploads itself.
func (s *S3) PresignCoverUpload(ctx context.Context, userID uuid.UUID, filename, contentType string) (*PresignedUpload, error) {
	if !ValidateImageType(contentType, filename) {
		return nil, ErrUnsupportedType
	}
	key := PendingCoverKey(userID, contentType, filename)
	expires := s.PresignExpire()
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.CoversBucket),
		Key:         aws.String(key),
		ContentType: aws.String(ContentTypeFor(contentType, filename)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}
	return &PresignedUpload{
		UploadURL: req.URL,
		Key:       key,
		PublicURL: s.PublicObjectURL(key),
		ExpiresAt: time.Now().Add(expires).UTC(),
	}, nil
}

// UploadCover streams body to the covers bucket and returns its public URL.
func (s *S3) UploadCover(ctx context.Context, eventID uuid.UUID, filename, contentType string, body io.Reader, size int64) (string, error) {
	if !ValidateImageType(contentType, filename) {
		return "", ErrUnsupportedType
	}
	key := CoverKey(eventID, contentType, filename)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.CoversBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ContentTypeFor(contentType, filename)),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("cover uploaded", zap.String("event_id", eventID.String()), zap.String("key", key))
	return s.PublicObjectURL(key), nil
}

// DeleteObject removes a cover object.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.CoversBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
