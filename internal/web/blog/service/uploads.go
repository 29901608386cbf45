package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/blogcms/blog-api/internal/web/blog/dto"
	"github.com/blogcms/blog-api/internal/web/blog/model"
	"github.com/blogcms/blog-api/library/storage"
)

const (
	// DefaultMaxUploadBytes largest accepted file
	DefaultMaxUploadBytes int64 = 5 << 20
	// MaxUploadFiles files accepted by one multi-file upload
	MaxUploadFiles = 10
)

// UploadKind upload directory
type UploadKind string

const (
	UploadPosts   UploadKind = "posts"
	UploadAvatars UploadKind = "avatars"
)

// allowedImageTypes detected mime types accepted for upload
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ParseUploadKind accepts "posts" and "avatars"
func ParseUploadKind(s string) (UploadKind, error) {
	switch k := UploadKind(s); k {
	case UploadPosts, UploadAvatars:
		return k, nil
	default:
		return "", model.Invalid("type", "must be one of [posts avatars]")
	}
}

func (k UploadKind) filePrefix() string {
	if k == UploadAvatars {
		return "avatar"
	}
	return "post"
}

// MaxUploadBytes largest accepted file
func (s *Blog) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// SaveUploads stores every file or none of them.
func (s *Blog) SaveUploads(ctx context.Context, kind UploadKind,
	files []*multipart.FileHeader) ([]*dto.UploadedFile, error) {
	if s.files == nil {
		return nil, errors.New("uploads are not configured")
	}
	switch {
	case len(files) == 0:
		return nil, model.UploadRejected("no file uploaded")
	case len(files) > MaxUploadFiles:
		return nil, model.UploadRejected("at most %d files per upload", MaxUploadFiles)
	}

	saved := make([]*dto.UploadedFile, 0, len(files))
	for _, fh := range files {
		f, err := s.saveUpload(ctx, kind, fh)
		if err != nil {
			s.rollbackUploads(ctx, kind, saved)
			return nil, err
		}
		saved = append(saved, f)
	}

	return saved, nil
}

func (s *Blog) saveUpload(ctx context.Context, kind UploadKind, fh *multipart.FileHeader) (*dto.UploadedFile, error) {
	if fh.Size > s.maxUploadBytes {
		return nil, model.TooLarge("file %q exceeds %d bytes", fh.Filename, s.maxUploadBytes)
	}

	fp, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open upload %q", fh.Filename)
	}
	defer fp.Close() // nolint: errcheck

	mt, err := mimetype.DetectReader(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "detect type of %q", fh.Filename)
	}
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return nil, model.UploadRejected("only jpeg, png, gif and webp images are allowed, got %s", mt.String())
	}
	if _, err = fp.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "rewind upload %q", fh.Filename)
	}

	name := fmt.Sprintf("%s-%s%s", kind.filePrefix(), uuid.NewString(), mt.Extension())
	if err = s.files.Save(ctx, string(kind), name, fp, fh.Size, mt.String()); err != nil {
		return nil, errors.Wrapf(err, "save upload %q", fh.Filename)
	}

	return &dto.UploadedFile{
		Filename:     name,
		OriginalName: filepath.Base(fh.Filename),
		Size:         fh.Size,
		Mimetype:     mt.String(),
		URL:          s.files.URL(string(kind), name),
		Path:         s.files.Path(string(kind), name),
	}, nil
}

func (s *Blog) rollbackUploads(ctx context.Context, kind UploadKind, saved []*dto.UploadedFile) {
	for _, f := range saved {
		if err := s.files.Delete(ctx, string(kind), f.Filename); err != nil {
			s.loggerFrom(ctx).Warn("rollback upload",
				zap.String("file", f.Filename), zap.Error(err))
		}
	}
}

// DeleteUpload removes one stored file.
func (s *Blog) DeleteUpload(ctx context.Context, kind UploadKind, filename string) error {
	if s.files == nil {
		return errors.New("uploads are not configured")
	}
	if err := storage.ValidateName(filename); err != nil {
		return model.Invalid("filename", "must be a plain file name")
	}

	if err := s.files.Delete(ctx, string(kind), filename); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return model.NotFound("file not found")
		}
		return errors.Wrapf(err, "delete upload %q", filename)
	}
	return nil
}

// ListUploads lists stored files of kind.
func (s *Blog) ListUploads(ctx context.Context, kind UploadKind) ([]*dto.StoredFile, error) {
	if s.files == nil {
		return nil, errors.New("uploads are not configured")
	}

	infos, err := s.files.List(ctx, string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s uploads", kind)
	}

	out := make([]*dto.StoredFile, 0, len(infos))
	for _, fi := range infos {
		out = append(out, &dto.StoredFile{
			Filename:  fi.Name,
			Size:      fi.Size,
			CreatedAt: fi.ModTime,
			URL:       s.files.URL(string(kind), fi.Name),
		})
	}
	return out, nil
}
