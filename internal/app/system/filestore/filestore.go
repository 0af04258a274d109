// Package filestore puts uploaded files into S3 and deletes them by their
// public URL.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload limits.
const (
	MaxFileBytes  = 5 << 20
	MaxImageBytes = 1 << 20
)

// AllowedTypes are the MIME types accepted for upload.
var AllowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/svg+xml":   true,
	"image/tiff":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// ErrBadURL is returned by Delete when the URL does not name an S3 object.
var ErrBadURL = errors.New("filestore: url does not reference an s3 object")

// ObjectAPI is the slice of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store writes to one bucket under an optional key prefix.
type Store struct {
	api    ObjectAPI
	bucket string
	region string
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

// Config selects the bucket.
type Config struct {
	Region string
	Bucket string
	Prefix string
}

// New loads AWS credentials from the default chain and returns a Store.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("filestore: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewWithAPI wires a Store around an existing client.
func NewWithAPI(api ObjectAPI, cfg Config, logger *zap.Logger) *Store {
	return &Store{
		api:    api,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(cfg.Prefix, "/"),
		log:    logger,
		now:    time.Now,
	}
}

// Object describes an uploaded file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Put uploads r under uploads/YYYY/MM/<id>-<name> and returns its public URL.
func (s *Store) Put(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Object, error) {
	now := s.now().UTC()
	key := fmt.Sprintf("uploads/%04d/%02d/%s-%s", now.Year(), now.Month(), uuid.New().String()[:8], cleanName(filename))
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               r,
		ContentLength:      aws.Int64(size),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String("inline"),
		ACL:                types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return Object{
		Key:         key,
		URL:         s.publicURL(key),
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// Delete removes the object a public URL points at. The bucket is the first
// label of the host and the key is the unescaped path.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	bucket, key, err := ParseObjectURL(rawURL)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	s.log.Info("file deleted", zap.String("bucket", bucket), zap.String("key", key))
	return nil
}

// ParseObjectURL splits a virtual-hosted S3 URL into bucket and key.
func ParseObjectURL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", ErrBadURL
	}
	bucket = strings.SplitN(u.Hostname(), ".", 2)[0]
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", ErrBadURL
	}
	return bucket, key, nil
}

func (s *Store) publicURL(key string) string {
	host := s.bucket + ".s3.amazonaws.com"
	if s.region != "" {
		host = s.bucket + ".s3." + s.region + ".amazonaws.com"
	}
	return "https://" + host + "/" + (&url.URL{Path: key}).EscapedPath()
}

// cleanName keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 || name == "." || name == "/" {
		return "file"
	}
	return b.String()
}
