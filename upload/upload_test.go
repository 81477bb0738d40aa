package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpix/photostore/gallery"
	"github.com/lumenpix/photostore/imaging"
	"github.com/lumenpix/photostore/storage/api"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// fakeProvider keeps uploads in memory and can be told to reject uploads
// into specific folders.
type fakeProvider struct {
	id          api.ProviderID
	objects     map[string][]byte
	failFolders []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{id: api.ProviderLocal, objects: map[string][]byte{}}
}

func (f *fakeProvider) ID() api.ProviderID { return f.id }

func (f *fakeProvider) UploadFile(_ context.Context, data []byte, filename, mimeType, folderPath string, _ map[string]string) (*api.UploadResult, error) {
	for _, folder := range f.failFolders {
		if strings.Contains(folderPath, folder) {
			return nil, api.OpError(f.id, "upload", errors.New("simulated backend failure"))
		}
	}
	logical := strings.Trim(folderPath+"/"+filename, "/")
	if _, exists := f.objects[logical]; exists {
		logical = fmt.Sprintf("%s-%d", logical, time.Now().UnixNano())
	}
	f.objects[logical] = data
	return &api.UploadResult{
		Provider: f.id,
		FileID:   logical,
		URL:      api.ServeURL(f.id, logical),
		Path:     logical,
		Size:     int64(len(data)),
		MimeType: mimeType,
	}, nil
}

func (f *fakeProvider) DeleteFile(_ context.Context, path string) error {
	delete(f.objects, path)
	return nil
}

func (f *fakeProvider) GetFileInfo(context.Context, string) (*api.FileInfo, error) {
	return nil, api.OpError(f.id, "stat", api.ErrFileNotFound)
}

func (f *fakeProvider) ListFiles(context.Context, string, int) ([]api.FileInfo, error) {
	return nil, nil
}

func (f *fakeProvider) CreateFolder(_ context.Context, name, parent string) (*api.FolderResult, error) {
	return &api.FolderResult{Provider: f.id, Name: name}, nil
}

func (f *fakeProvider) DeleteFolder(context.Context, string) error { return nil }

func (f *fakeProvider) GetFolderInfo(context.Context, string) (*api.FolderInfo, error) {
	return nil, api.OpError(f.id, "stat folder", api.ErrFileNotFound)
}

func (f *fakeProvider) ListFolders(context.Context, string) ([]api.FolderInfo, error) {
	return nil, nil
}

func (f *fakeProvider) FileExists(_ context.Context, path string) bool {
	_, ok := f.objects[path]
	return ok
}

func (f *fakeProvider) FolderExists(context.Context, string) bool { return false }

func (f *fakeProvider) FileURL(path string) string   { return api.ServeURL(f.id, path) }
func (f *fakeProvider) FolderURL(path string) string { return api.ServeURL(f.id, path) }

func (f *fakeProvider) GetFileBuffer(_ context.Context, path string) []byte {
	return f.objects[path]
}

func (f *fakeProvider) ValidateConnection(context.Context) bool { return true }

type fakeResolver struct {
	provider api.StorageProvider
	err      error
}

func (r *fakeResolver) Provider(context.Context, api.ProviderID) (api.StorageProvider, error) {
	return r.provider, r.err
}

type memStores struct {
	albums     map[string]*gallery.Album
	photos     []*gallery.Photo
	users      map[string]*gallery.User
	insertErr  error
	counterErr error
}

func newMemStores() *memStores {
	return &memStores{
		albums: map[string]*gallery.Album{},
		users:  map[string]*gallery.User{},
	}
}

func (m *memStores) Get(_ context.Context, id string) (*gallery.Album, error) {
	if album, ok := m.albums[id]; ok {
		return album, nil
	}
	return nil, fmt.Errorf("album %s: %w", id, gallery.ErrNotFound)
}

func (m *memStores) Create(_ context.Context, album *gallery.Album) error {
	m.albums[album.ID] = album
	return nil
}

func (m *memStores) List(context.Context) ([]gallery.Album, error) { return nil, nil }

func (m *memStores) IncrementPhotoCount(_ context.Context, id string, delta int) error {
	if m.counterErr != nil {
		return m.counterErr
	}
	if album, ok := m.albums[id]; ok {
		album.PhotoCount += delta
	}
	return nil
}

type memPhotos struct {
	inserted  []*gallery.Photo
	insertErr error
}

func (m *memPhotos) Insert(_ context.Context, photo *gallery.Photo) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, photo)
	return nil
}

func (m *memPhotos) Get(context.Context, string) (*gallery.Photo, error) {
	return nil, gallery.ErrNotFound
}

func (m *memPhotos) ListByAlbum(context.Context, string) ([]gallery.Photo, error) {
	return nil, nil
}

func (m *memPhotos) Delete(context.Context, string) error { return nil }

type memUsers struct {
	byName    map[string]*gallery.User
	createErr error
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*gallery.User, error) {
	if user, ok := m.byName[username]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user %s: %w", username, gallery.ErrNotFound)
}

func (m *memUsers) Create(_ context.Context, user *gallery.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	if m.byName == nil {
		m.byName = map[string]*gallery.User{}
	}
	m.byName[user.Username] = user
	return nil
}

type fixture struct {
	orch     *Orchestrator
	provider *fakeProvider
	albums   *memStores
	photos   *memPhotos
	users    *memUsers
}

func newFixture() *fixture {
	provider := newFakeProvider()
	albums := newMemStores()
	photos := &memPhotos{}
	users := &memUsers{}
	orch := New(&fakeResolver{provider: provider}, albums, photos, users, zerolog.Nop())
	return &fixture{orch: orch, provider: provider, albums: albums, photos: photos, users: users}
}

func TestUploadPhoto_Success(t *testing.T) {
	f := newFixture()
	src := testJPEG(t, 2400, 1600)

	result, err := f.orch.UploadPhoto(context.Background(), src, "beach.jpg", "image/jpeg", Options{Title: "Beach"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Photo)

	photo := result.Photo
	assert.Equal(t, "Beach", photo.Title)
	assert.Equal(t, api.ProviderLocal, photo.Provider)
	assert.NotEmpty(t, photo.Path)
	assert.True(t, strings.HasPrefix(photo.URL, api.ServeRoutePrefix))
	assert.Equal(t, imaging.OrientationLandscape, photo.Orientation)
	assert.Equal(t, 2400, photo.Width)
	assert.Equal(t, 1600, photo.Height)

	assert.Len(t, photo.Thumbnails, len(imaging.Ladder))
	assert.Equal(t, photo.Thumbnails["medium"].Path, photo.ThumbnailPath)
	assert.True(t, strings.HasPrefix(photo.BlurDataURL, "data:image/jpeg;base64,"))

	require.Len(t, f.photos.inserted, 1)
	assert.Equal(t, photo, f.photos.inserted[0])
}

func TestUploadPhoto_EmptyData(t *testing.T) {
	f := newFixture()

	result, err := f.orch.UploadPhoto(context.Background(), nil, "empty.jpg", "image/jpeg", Options{})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, f.photos.inserted)
}

func TestUploadPhoto_UnsupportedMediaType(t *testing.T) {
	f := newFixture()

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 100, 100), "doc.pdf", "application/pdf", Options{})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported media type")
	assert.Empty(t, f.photos.inserted)
}

func TestUploadPhoto_UndecodableBytes(t *testing.T) {
	f := newFixture()

	result, err := f.orch.UploadPhoto(context.Background(), []byte("not an image"), "x.jpg", "image/jpeg", Options{})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "compress")
}

func TestUploadPhoto_ProviderUnavailable(t *testing.T) {
	f := newFixture()
	f.orch.providers = &fakeResolver{err: &api.UnavailableError{Provider: api.ProviderAwsS3, Reason: "provider is disabled"}}

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 100, 100), "x.jpg", "image/jpeg", Options{})
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unavailable")
}

func TestUploadPhoto_MissingAlbumProceeds(t *testing.T) {
	f := newFixture()

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 400, 300), "x.jpg", "image/jpeg", Options{
		AlbumID: "no-such-album",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Photo.AlbumID, "unresolvable album leaves the photo unattached")
}

func TestUploadPhoto_AlbumDictatesFolderAndCounter(t *testing.T) {
	f := newFixture()
	f.albums.albums["alb-1"] = &gallery.Album{
		ID:          "alb-1",
		Name:        "Vacation",
		Provider:    api.ProviderLocal,
		StoragePath: "albums/vacation",
	}

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 400, 300), "x.jpg", "image/jpeg", Options{
		AlbumID: "alb-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Photo.Path, "albums/vacation/"))
	assert.Equal(t, 1, f.albums.albums["alb-1"].PhotoCount)

	for rung, ref := range result.Photo.Thumbnails {
		assert.True(t, strings.HasPrefix(ref.Path, "albums/vacation/thumbnails/"+rung+"/"),
			"rung %s stored at %s", rung, ref.Path)
	}
}

func TestUploadPhoto_RungFailureIsIsolated(t *testing.T) {
	f := newFixture()
	f.provider.failFolders = []string{"thumbnails/hero"}

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 2400, 1600), "x.jpg", "image/jpeg", Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Photo.Thumbnails, len(imaging.Ladder)-1)
	assert.NotContains(t, result.Photo.Thumbnails, "hero")
	assert.Equal(t, result.Photo.Thumbnails["medium"].Path, result.Photo.ThumbnailPath)
}

func TestUploadPhoto_ThumbnailPathFallback(t *testing.T) {
	f := newFixture()
	f.provider.failFolders = []string{"thumbnails/medium"}

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 2400, 1600), "x.jpg", "image/jpeg", Options{})
	require.NoError(t, err)
	assert.Equal(t, result.Photo.Thumbnails["small"].Path, result.Photo.ThumbnailPath)
}

func TestUploadPhoto_InsertFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.photos.insertErr = errors.New("database down")

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 400, 300), "x.jpg", "image/jpeg", Options{})
	require.NoError(t, err)
	assert.True(t, result.Success, "bytes are stored, so the upload reports success")
	assert.NotNil(t, result.Photo)
}

func TestUploadPhoto_UploaderAttribution(t *testing.T) {
	f := newFixture()
	f.users.byName = map[string]*gallery.User{
		"alice": {ID: "u-alice", Username: "alice"},
	}

	result, err := f.orch.UploadPhoto(context.Background(), testJPEG(t, 200, 200), "x.jpg", "image/jpeg", Options{UploadedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "u-alice", result.Photo.UploadedBy)

	// Unknown user falls back to the system account, created on demand.
	result, err = f.orch.UploadPhoto(context.Background(), testJPEG(t, 200, 200), "x.jpg", "image/jpeg", Options{UploadedBy: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "user-system", result.Photo.UploadedBy)

	// When the system account cannot be created either, the nil uuid owns it.
	f2 := newFixture()
	f2.users.createErr = errors.New("users table gone")
	result, err = f2.orch.UploadPhoto(context.Background(), testJPEG(t, 200, 200), "x.jpg", "image/jpeg", Options{})
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", result.Photo.UploadedBy)
}
