package photos

import (
	"context"

	"github.com/rotisserie/eris"
)

const (
	BackendAuto   = "auto"
	BackendDisk   = "disk"
	BackendInline = "inline"
	BackendMinio  = "minio"
)

// Config selects and configures the photo backend.
type Config struct {
	Backend      string      `mapstructure:"backend"`
	UploadDir    string      `mapstructure:"upload_dir"`
	PublicPrefix string      `mapstructure:"public_prefix"`
	MaxPhotos    int         `mapstructure:"max_photos"`
	MaxBytes     int64       `mapstructure:"max_photo_bytes"`
	Minio        MinioConfig `mapstructure:"minio"`
}

// Limits returns the configured limits, defaulting unset values.
func (c Config) Limits() Limits {
	l := DefaultLimits()
	if c.MaxPhotos > 0 {
		l.MaxPhotos = c.MaxPhotos
	}
	if c.MaxBytes > 0 {
		l.MaxBytes = c.MaxBytes
	}
	return l
}

// ResolveBackend maps "auto" (or empty) to inline storage on postgres and
// disk storage otherwise.
func (c Config) ResolveBackend(storeDriver string) string {
	if c.Backend != "" && c.Backend != BackendAuto {
		return c.Backend
	}
	if storeDriver == "postgres" {
		return BackendInline
	}
	return BackendDisk
}

// New builds the Storage selected by cfg.
func New(ctx context.Context, cfg Config, storeDriver string) (Storage, error) {
	switch backend := cfg.ResolveBackend(storeDriver); backend {
	case BackendDisk:
		if cfg.UploadDir == "" {
			return nil, eris.New("photos: disk backend requires an upload dir")
		}
		return NewDiskStorage(cfg.UploadDir, cfg.PublicPrefix), nil
	case BackendInline:
		return InlineStorage{}, nil
	case BackendMinio:
		st, err := NewMinioStorage(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("photos: unknown backend %q", backend)
	}
}
