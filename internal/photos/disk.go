package photos

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DiskStorage writes photos into a directory served under PublicPrefix.
type DiskStorage struct {
	dir          string
	publicPrefix string
	now          func() time.Time
	newID        func() string
}

// NewDiskStorage returns a DiskStorage rooted at dir.
func NewDiskStorage(dir, publicPrefix string) *DiskStorage {
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &DiskStorage{dir: dir, publicPrefix: publicPrefix, now: time.Now, newID: newID}
}

// Dir is the directory photos are written to.
func (d *DiskStorage) Dir() string { return d.dir }

// PublicPrefix is the URL path photos are served under.
func (d *DiskStorage) PublicPrefix() string { return d.publicPrefix }

func (d *DiskStorage) Save(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "disk: create upload dir")
	}

	name := objectName(d.now(), d.newID(), u.Filename)
	if err := os.WriteFile(filepath.Join(d.dir, name), u.Data, 0o644); err != nil {
		return "", eris.Wrapf(err, "disk: write %s", name)
	}
	return path.Join(d.publicPrefix, name), nil
}

func (d *DiskStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, ok := strings.CutPrefix(ref, d.publicPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return eris.Errorf("disk: %q is not an upload reference", ref)
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "disk: remove %s", name)
	}
	return nil
}
