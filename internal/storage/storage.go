package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// Storage saves uploaded files and returns the URL they are served from.
type Storage interface {
	Save(ctx context.Context, name string, r io.ReadSeeker) (string, error)
}

type LocalStorage struct {
	uploadDir string
	urlPrefix string
	now       func() time.Time
}

type SpacesStorage struct {
	client *s3.S3
	bucket string
	cdnURL string
	now    func() time.Time
}

// NewLocalStorage writes files below uploadDir; they are expected to be served
// under urlPrefix.
func NewLocalStorage(uploadDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: urlPrefix, now: time.Now}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: cdnURL,
		now:    time.Now,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeName keeps the directory part of name and turns the file name into
// a unique one without spaces or unsafe characters.
func normalizeName(name string, now time.Time) string {
	dir, file := path.Split(path.Clean("/" + name))
	ext := strings.ToLower(path.Ext(file))
	baseName := strings.TrimSuffix(file, path.Ext(file))

	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}

	timestamp := now.Format("20060102_150405")
	return strings.TrimPrefix(dir, "/") + fmt.Sprintf("%s_%s%s", baseName, timestamp, ext)
}

func (ls *LocalStorage) Save(_ context.Context, name string, r io.ReadSeeker) (string, error) {
	normalized := normalizeName(name, ls.now())
	log.Debug().Str("original", name).Str("normalized", normalized).Msg("file upload normalized")
	uploadPath := filepath.Join(ls.uploadDir, filepath.FromSlash(normalized))

	if err := os.MkdirAll(filepath.Dir(uploadPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return strings.TrimSuffix(ls.urlPrefix, "/") + "/" + normalized, nil
}

func (ss *SpacesStorage) Save(ctx context.Context, name string, r io.ReadSeeker) (string, error) {
	normalized := normalizeName(name, ss.now())
	log.Debug().Str("original", name).Str("normalized", normalized).Msg("file upload normalized")

	key := "uploads/" + normalized
	_, err := ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(ContentType(normalized)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}

// ContentType guesses the MIME type of an image upload from its extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
