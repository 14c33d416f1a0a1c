package photos

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits_Check(t *testing.T) {
	limits := Limits{MaxPhotos: 2, MaxBytes: 4}

	assert.NoError(t, limits.Check([]Upload{{Data: []byte("1234")}}))

	err := limits.Check(make([]Upload, 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooMany)
	assert.EqualError(t, err, "Maximum 2 photos allowed per lead")

	err = limits.Check([]Upload{{Filename: "big.png", Data: []byte("12345")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.EqualError(t, err, "Photo 'big.png' exceeds the 4 bytes limit")
}

func TestDefaultLimits(t *testing.T) {
	limits := DefaultLimits()
	assert.Equal(t, 6, limits.MaxPhotos)
	assert.Equal(t, int64(5*1024*1024), limits.MaxBytes)

	err := limits.Check([]Upload{{Filename: "x.jpg", Data: make([]byte, 5*1024*1024+1)}})
	require.Error(t, err)
	assert.EqualError(t, err, "Photo 'x.jpg' exceeds the 5MB limit")
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"porch.png":           ".png",
		"IMG_0001.HEIC":       ".HEIC",
		"noext":               ".jpg",
		"":                    ".jpg",
		"archive.tar.gz":      ".jpg",
		"../../etc/passwd":    ".jpg",
		`C:\photos\deck.jpeg`: ".jpeg",
		"weird.p$p":           ".jpg",
		"evil.html":           ".jpg",
		"vector.svg":          ".jpg",
		"clip.WEBP":           ".WEBP",
	}
	for in, want := range cases {
		assert.Equal(t, want, extension(in), in)
	}
}

func TestIsImageExt(t *testing.T) {
	assert.True(t, IsImageExt("/uploads/1-a.JPG"))
	assert.True(t, IsImageExt("2-b.heic"))
	assert.False(t, IsImageExt("3-c.html"))
	assert.False(t, IsImageExt("noext"))
}

func TestDiskStorage_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	st := NewDiskStorage(dir, "/uploads")
	st.now = func() time.Time { return time.UnixMilli(1700000000123) }
	st.newID = func() string { return "3f6c2b1e-0000-4000-8000-000000000001" }

	ref, err := st.Save(context.Background(), Upload{Filename: "fence.png", Data: []byte("png-bytes")})
	require.NoError(t, err)

	assert.Equal(t, "/uploads/1700000000123-3f6c2b1e-0000-4000-8000-000000000001.png", ref)
	data, err := os.ReadFile(filepath.Join(dir, "1700000000123-3f6c2b1e-0000-4000-8000-000000000001.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDiskStorage_CancelledContext(t *testing.T) {
	st := NewDiskStorage(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Save(ctx, Upload{Filename: "a.jpg"})
	require.Error(t, err)
}

func TestDiskStorage_Delete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	st := NewDiskStorage(dir, "/uploads")
	ctx := context.Background()

	ref, err := st.Save(ctx, Upload{Filename: "fence.png", Data: []byte("png-bytes")})
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	assert.True(t, os.IsNotExist(err))

	// Already gone.
	require.NoError(t, st.Delete(ctx, ref))

	assert.Error(t, st.Delete(ctx, "/elsewhere/1-a.png"))
	assert.Error(t, st.Delete(ctx, "/uploads/../data.sqlite"))
}

func TestInlineStorage_Delete(t *testing.T) {
	assert.NoError(t, InlineStorage{}.Delete(context.Background(), "data:image/png;base64,AQI="))
}

func TestInlineStorage_Save(t *testing.T) {
	ref, err := InlineStorage{}.Save(context.Background(), Upload{ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'}), ref)

	ref, err = InlineStorage{}.Save(context.Background(), Upload{Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/jpeg;base64,"))
}

func TestConfig_ResolveBackend(t *testing.T) {
	assert.Equal(t, BackendInline, Config{}.ResolveBackend("postgres"))
	assert.Equal(t, BackendDisk, Config{Backend: BackendAuto}.ResolveBackend("sqlite"))
	assert.Equal(t, BackendMinio, Config{Backend: BackendMinio}.ResolveBackend("postgres"))
}

func TestConfig_Limits(t *testing.T) {
	assert.Equal(t, DefaultLimits(), Config{}.Limits())
	assert.Equal(t, Limits{MaxPhotos: 2, MaxBytes: DefaultMaxBytes}, Config{MaxPhotos: 2}.Limits())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	st, err := New(ctx, Config{UploadDir: t.TempDir()}, "sqlite")
	require.NoError(t, err)
	assert.IsType(t, &DiskStorage{}, st)

	st, err = New(ctx, Config{}, "postgres")
	require.NoError(t, err)
	assert.IsType(t, InlineStorage{}, st)

	_, err = New(ctx, Config{Backend: BackendDisk}, "sqlite")
	require.Error(t, err)

	_, err = New(ctx, Config{Backend: "ftp"}, "sqlite")
	require.Error(t, err)
}

func TestMinioStorage_PublicURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      MinioConfig
		object   string
		expected string
	}{
		{
			name:     "http url",
			cfg:      MinioConfig{Endpoint: "localhost:9000", Bucket: "lead-photos"},
			object:   "leads/1-a.jpg",
			expected: "http://localhost:9000/lead-photos/leads/1-a.jpg",
		},
		{
			name:     "https url",
			cfg:      MinioConfig{Endpoint: "minio.example.com", Bucket: "photos", UseSSL: true},
			object:   "2-b.png",
			expected: "https://minio.example.com/photos/2-b.png",
		},
		{
			name:     "public override",
			cfg:      MinioConfig{Endpoint: "minio:9000", Bucket: "photos", PublicURL: "https://cdn.example.com/"},
			object:   "3-c.png",
			expected: "https://cdn.example.com/photos/3-c.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &MinioStorage{cfg: tt.cfg}
			assert.Equal(t, tt.expected, s.PublicURL(tt.object))
		})
	}
}

func TestNewMinioStorage_RequiresBucket(t *testing.T) {
	_, err := NewMinioStorage(MinioConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)
}

func TestMinioStorage_SaveUploadsObject(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotType  string
		gotBytes int64
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBytes = r.ContentLength
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	st, err := NewMinioStorage(MinioConfig{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "test-secret",
		Bucket:    "lead-photos",
		Region:    "us-east-1",
		Prefix:    "leads",
	})
	require.NoError(t, err)
	st.now = func() time.Time { return time.UnixMilli(42) }
	st.newID = func() string { return "id" }

	ref, err := st.Save(context.Background(), Upload{Filename: "deck.png", ContentType: "image/png", Data: []byte("abc")})
	require.NoError(t, err)

	assert.Equal(t, "http://"+u.Host+"/lead-photos/leads/42-id.png", ref)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/lead-photos/leads/42-id.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, int64(3), gotBytes)
}

func TestMinioStorage_Delete(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		gotPath = r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	st, err := NewMinioStorage(MinioConfig{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "test-secret",
		Bucket:    "lead-photos",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	require.NoError(t, st.Delete(context.Background(), "http://"+u.Host+"/lead-photos/leads/42-id.png"))
	mu.Lock()
	assert.Equal(t, "/lead-photos/leads/42-id.png", gotPath)
	mu.Unlock()

	assert.Error(t, st.Delete(context.Background(), "https://other.example.com/x.png"))
}
