// Package photos stores images attached to leads and returns the reference
// kept with the lead: a served path, an inline data URI, or an object URL.
package photos

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/storage.go -package=mocks . Storage

const (
	DefaultMaxPhotos = 6
	DefaultMaxBytes  = 5 << 20

	defaultContentType = "image/jpeg"
	defaultExt         = ".jpg"

	// saveConcurrency bounds parallel writes for one lead.
	saveConcurrency = 3
)

var (
	ErrTooLarge = eris.New("photo exceeds size limit")
	ErrTooMany  = eris.New("too many photos")
)

// LimitError reports an upload rejected by Limits. Message is safe to show
// to the client.
type LimitError struct {
	Err     error
	Message string
}

func (e *LimitError) Error() string { return e.Message }
func (e *LimitError) Unwrap() error { return e.Err }

// Upload is one received photo.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Storage persists a photo and returns its reference.
type Storage interface {
	Save(ctx context.Context, u Upload) (string, error)
	// Delete removes a photo by the reference Save returned. Removing a
	// photo that is already gone is not an error.
	Delete(ctx context.Context, ref string) error
}

// Limits bounds photo uploads for a single lead.
type Limits struct {
	MaxPhotos int
	MaxBytes  int64
}

// DefaultLimits allows six photos of at most 5 MiB each.
func DefaultLimits() Limits {
	return Limits{MaxPhotos: DefaultMaxPhotos, MaxBytes: DefaultMaxBytes}
}

// CheckCount fails with ErrTooMany when n exceeds MaxPhotos.
func (l Limits) CheckCount(n int) error {
	if n > l.MaxPhotos {
		return &LimitError{Err: ErrTooMany, Message: fmt.Sprintf("Maximum %d photos allowed per lead", l.MaxPhotos)}
	}
	return nil
}

// Check validates the count and size of uploads.
func (l Limits) Check(uploads []Upload) error {
	if err := l.CheckCount(len(uploads)); err != nil {
		return err
	}
	for _, u := range uploads {
		if int64(len(u.Data)) > l.MaxBytes {
			return &LimitError{
				Err:     ErrTooLarge,
				Message: fmt.Sprintf("Photo '%s' exceeds the %s limit", u.Filename, humanBytes(l.MaxBytes)),
			}
		}
	}
	return nil
}

func humanBytes(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

// SaveAll stores uploads concurrently. References are returned in upload
// order; the first failure cancels the rest and removes photos already
// saved.
func SaveAll(ctx context.Context, st Storage, uploads []Upload) ([]string, error) {
	refs := make([]string, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(saveConcurrency)
	for i, u := range uploads {
		g.Go(func() error {
			ref, err := st.Save(gctx, u)
			if err != nil {
				return eris.Wrapf(err, "photos: save %q", u.Filename)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var saved []string
		for _, ref := range refs {
			if ref != "" {
				saved = append(saved, ref)
			}
		}
		if cleanupErr := DeleteAll(context.WithoutCancel(ctx), st, saved); cleanupErr != nil {
			return nil, errors.Join(err, cleanupErr)
		}
		return nil, err
	}
	return refs, nil
}

// DeleteAll removes every ref, continuing past failures.
func DeleteAll(ctx context.Context, st Storage, refs []string) error {
	var errs []error
	for _, ref := range refs {
		if err := st.Delete(ctx, ref); err != nil {
			errs = append(errs, eris.Wrapf(err, "photos: delete %q", ref))
		}
	}
	return errors.Join(errs...)
}

// imageExts are the extensions kept on stored photos, lower-cased.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
}

// IsImageExt reports whether name ends in an allowed image extension.
func IsImageExt(name string) bool {
	return imageExts[strings.ToLower(path.Ext(name))]
}

// extension keeps the uploaded file's extension when it is an image
// extension and falls back to .jpg.
func extension(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return defaultExt
	}
	ext := base[i:]
	if !imageExts[strings.ToLower(ext)] {
		return defaultExt
	}
	return ext
}

func contentType(u Upload) string {
	if u.ContentType == "" {
		return defaultContentType
	}
	return u.ContentType
}

// objectName builds the unique "<unixMillis>-<uuid><ext>" file name.
func objectName(now time.Time, id string, filename string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), id, extension(filename))
}

func newID() string { return uuid.NewString() }
