package storage

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOption configures the object storage backend
type MinioOption struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	// PublicURL overrides the generated `<scheme>://<endpoint>/<bucket>` prefix,
	// e.g. a CDN in front of the bucket
	PublicURL string
}

// Minio stores files as objects `<dir>/<name>` in one bucket.
type Minio struct {
	cli       *minio.Client
	bucket    string
	publicURL string
}

// NewMinio builds the client, it does not contact the server.
func NewMinio(opt MinioOption) (*Minio, error) {
	if opt.Endpoint == "" || opt.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	cli, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	publicURL := strings.TrimRight(opt.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if opt.Secure {
			scheme = "https"
		}
		publicURL = scheme + "://" + strings.TrimRight(opt.Endpoint, "/") + "/" + opt.Bucket
	}

	return &Minio{
		cli:       cli,
		bucket:    opt.Bucket,
		publicURL: publicURL,
	}, nil
}

func objectKey(dir, name string) string {
	return dir + "/" + name
}

// Save uploads r as `<dir>/<name>`.
func (m *Minio) Save(ctx context.Context, dir, name string, r io.Reader, size int64, contentType string) error {
	if err := validate(dir, name); err != nil {
		return err
	}

	if _, err := m.cli.PutObject(ctx, m.bucket, objectKey(dir, name), r, size,
		minio.PutObjectOptions{ContentType: contentType},
	); err != nil {
		return errors.Wrapf(err, "put object %q", objectKey(dir, name))
	}
	return nil
}

// Delete removes `<dir>/<name>`. RemoveObject succeeds on missing keys,
// so the object is stat'ed first to report ErrNotExist.
func (m *Minio) Delete(ctx context.Context, dir, name string) error {
	if err := validate(dir, name); err != nil {
		return err
	}

	key := objectKey(dir, name)
	if _, err := m.cli.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotExist
		}
		return errors.Wrapf(err, "stat object %q", key)
	}

	if err := m.cli.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", key)
	}
	return nil
}

// List returns objects directly under dir sorted by name.
func (m *Minio) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if err := ValidateName(dir); err != nil {
		return nil, errors.Wrap(err, "dir")
	}

	files := []FileInfo{}
	for obj := range m.cli.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix: dir + "/",
	}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "list objects in %q", dir)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		files = append(files, FileInfo{
			Name:    path.Base(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// URL returns `<publicURL>/<dir>/<name>`
func (m *Minio) URL(dir, name string) string {
	return m.publicURL + "/" + objectKey(dir, name)
}

// Path returns the object key
func (m *Minio) Path(dir, name string) string {
	return objectKey(dir, name)
}
