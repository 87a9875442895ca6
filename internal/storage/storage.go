// Package storage issues presigned upload URLs for an S3 compatible bucket.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

// UploadExpiry is how long a presigned upload URL stays valid.
const UploadExpiry = 15 * time.Minute

// MaxFileSize is the upload size clients are told to respect.
const MaxFileSize = 10 << 20

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
}

var folders = map[string]bool{"wishlists": true, "users": true, "letters": true, "certifications": true}

// Config holds the bucket settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Upload is handed to the client, which PUTs the file to UploadURL.
type Upload struct {
	UploadURL   string    `json:"uploadUrl"`
	FileURL     string    `json:"fileUrl"`
	Key         string    `json:"key"`
	Expires     time.Time `json:"expires"`
	MaxFileSize int64     `json:"maxFileSize"`
	ContentType string    `json:"contentType"`
	Method      string    `json:"method"`
}

// Storage signs uploads against one bucket.
type Storage struct {
	client *minio.Client
	cfg    Config
	now    func() time.Time
}

// New creates the client. No request is made until a URL is signed.
func New(cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("storage endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Storage{client: client, cfg: cfg, now: time.Now}, nil
}

// ObjectKey builds folder/uuid_unixmillis.ext after validating the file
// extension and the folder.
func ObjectKey(folder, fileName string, now time.Time) (key, contentType string, err error) {
	if !folders[folder] {
		return "", "", apperr.Validation("INVALID_FOLDER", "지원하지 않는 업로드 폴더입니다")
	}
	ext := strings.ToLower(path.Ext(fileName))
	contentType, ok := contentTypes[ext]
	if !ok {
		return "", "", apperr.Validation("INVALID_FILE_TYPE", "지원하지 않는 파일 형식입니다").
			WithData(map[string]string{"fileName": fileName})
	}
	return fmt.Sprintf("%s/%s_%d%s", folder, uuid.NewString(), now.UnixMilli(), ext), contentType, nil
}

// PresignUpload returns a PUT URL for a new object under folder.
func (s *Storage) PresignUpload(ctx context.Context, folder, fileName string) (*Upload, error) {
	now := s.now()
	key, contentType, err := ObjectKey(folder, fileName, now)
	if err != nil {
		return nil, err
	}

	u, err := s.client.PresignedPutObject(ctx, s.cfg.Bucket, key, UploadExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &Upload{
		UploadURL:   u.String(),
		FileURL:     s.fileURL(key),
		Key:         key,
		Expires:     now.Add(UploadExpiry),
		MaxFileSize: MaxFileSize,
		ContentType: contentType,
		Method:      "PUT",
	}, nil
}

func (s *Storage) fileURL(key string) string {
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
}
