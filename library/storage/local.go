package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
)

// Local stores files under a root directory on disk.
type Local struct {
	root         string
	publicPrefix string
}

// NewLocal creates root if missing. publicPrefix is the URL path the
// directory is served from, like `/uploads`.
func NewLocal(root, publicPrefix string) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("upload dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %q", root)
	}

	return &Local{
		root:         root,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
	}, nil
}

// Root returns the directory files are written to
func (l *Local) Root() string {
	return l.root
}

// PublicPrefix returns the URL path the root is served from
func (l *Local) PublicPrefix() string {
	return l.publicPrefix
}

// Save writes r to dir/name, refusing to overwrite an existing file.
func (l *Local) Save(_ context.Context, dir, name string, r io.Reader, _ int64, _ string) error {
	if err := validate(dir, name); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(l.root, dir), 0o755); err != nil {
		return errors.Wrapf(err, "create dir %q", dir)
	}

	fpath := l.Path(dir, name)
	fp, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create file %q", fpath)
	}

	if _, err = io.Copy(fp, r); err != nil {
		_ = fp.Close()
		_ = os.Remove(fpath)
		return errors.Wrapf(err, "write file %q", fpath)
	}

	if err = fp.Close(); err != nil {
		return errors.Wrapf(err, "close file %q", fpath)
	}
	return nil
}

// Delete removes dir/name.
func (l *Local) Delete(_ context.Context, dir, name string) error {
	if err := validate(dir, name); err != nil {
		return err
	}

	if err := os.Remove(l.Path(dir, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return errors.Wrapf(err, "remove %q", name)
	}
	return nil
}

// List returns the regular files in dir sorted by name.
// A directory that was never written to is empty, not an error.
func (l *Local) List(_ context.Context, dir string) ([]FileInfo, error) {
	if err := ValidateName(dir); err != nil {
		return nil, errors.Wrap(err, "dir")
	}

	entries, err := os.ReadDir(filepath.Join(l.root, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, errors.Wrapf(err, "read dir %q", dir)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		if !ent.Type().IsRegular() {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %q", ent.Name())
		}
		files = append(files, FileInfo{
			Name:    ent.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// URL returns `<publicPrefix>/<dir>/<name>`
func (l *Local) URL(dir, name string) string {
	return path.Join(l.publicPrefix, dir, name)
}

// Path returns the file location on disk
func (l *Local) Path(dir, name string) string {
	return filepath.Join(l.root, dir, name)
}
