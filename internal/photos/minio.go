package photos

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
)

// MinioConfig locates the bucket photos are uploaded to.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PublicURL overrides the scheme://endpoint base of returned URLs.
	PublicURL string `mapstructure:"public_url"`
	// Prefix is prepended to object names.
	Prefix string `mapstructure:"prefix"`
}

// MinioStorage uploads photos to an S3-compatible bucket and returns
// their public URL.
type MinioStorage struct {
	client *minio.Client
	cfg    MinioConfig
	now    func() time.Time
	newID  func() string
}

func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, eris.New("minio: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "minio: create client")
	}
	return &MinioStorage{client: client, cfg: cfg, now: time.Now, newID: newID}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return eris.Wrap(err, "minio: check bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return eris.Wrap(err, "minio: create bucket")
	}
	return nil
}

func (s *MinioStorage) Save(ctx context.Context, u Upload) (string, error) {
	name := path.Join(s.cfg.Prefix, objectName(s.now(), s.newID(), u.Filename))
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, name, bytes.NewReader(u.Data), int64(len(u.Data)),
		minio.PutObjectOptions{ContentType: contentType(u)})
	if err != nil {
		return "", eris.Wrapf(err, "minio: upload %s", name)
	}
	return s.PublicURL(name), nil
}

func (s *MinioStorage) Delete(ctx context.Context, ref string) error {
	name, ok := s.objectFromURL(ref)
	if !ok {
		return eris.Errorf("minio: %q is not an object in bucket %s", ref, s.cfg.Bucket)
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return eris.Wrapf(err, "minio: remove %s", name)
	}
	return nil
}

// objectFromURL reverses PublicURL.
func (s *MinioStorage) objectFromURL(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, s.PublicURL(""))
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// PublicURL returns a public URL for the object (if bucket policy allows).
func (s *MinioStorage) PublicURL(objectName string) string {
	if s.cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.PublicURL, "/"), s.cfg.Bucket, objectName)
	}
	protocol := "http"
	if s.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.Endpoint, s.cfg.Bucket, objectName)
}
