// Package gallery holds the photo catalog: albums, photos, users, and
// their persistence. Storage backends never leak in here; a photo records
// which provider holds its bytes and the logical path within it, nothing
// else.
package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/lumenpix/photostore/imaging"
	"github.com/lumenpix/photostore/storage/api"
)

// ErrNotFound is returned by store lookups when no record matches.
var ErrNotFound = errors.New("record not found")

// SystemUsername owns uploads that arrive without an authenticated user.
const SystemUsername = "system"

// ThumbnailRef points at one uploaded thumbnail rendition.
type ThumbnailRef struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// Photo is the catalog record for one uploaded image. Provider and Path
// locate the display rendition; Thumbnails maps ladder rung names to their
// renditions.
type Photo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AlbumID     string    `json:"albumId,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	UploadedBy  string    `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`

	Provider api.ProviderID `json:"storageProvider"`
	Path     string         `json:"storagePath"`
	FileID   string         `json:"fileId,omitempty"`
	URL      string         `json:"url"`
	Size     int64          `json:"size"`
	MimeType string         `json:"mimeType"`

	Width       int                 `json:"width,omitempty"`
	Height      int                 `json:"height,omitempty"`
	Orientation imaging.Orientation `json:"orientation,omitempty"`

	Thumbnails    map[string]ThumbnailRef `json:"thumbnails,omitempty"`
	ThumbnailPath string                  `json:"thumbnailPath,omitempty"`
	BlurDataURL   string                  `json:"blurDataUrl,omitempty"`

	EXIF *imaging.Meta `json:"exif,omitempty"`
}

// Album groups photos and pins them to a storage location. StoragePath is
// the folder all of the album's photos upload into.
type Album struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Provider    api.ProviderID `json:"storageProvider"`
	StoragePath string         `json:"storagePath"`
	PhotoCount  int            `json:"photoCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// User is the minimal account record uploads attribute to.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AlbumStore persists albums.
type AlbumStore interface {
	Get(ctx context.Context, id string) (*Album, error)
	Create(ctx context.Context, album *Album) error
	List(ctx context.Context) ([]Album, error)
	IncrementPhotoCount(ctx context.Context, id string, delta int) error
}

// PhotoStore persists photo records.
type PhotoStore interface {
	Insert(ctx context.Context, photo *Photo) error
	Get(ctx context.Context, id string) (*Photo, error)
	ListByAlbum(ctx context.Context, albumID string) ([]Photo, error)
	Delete(ctx context.Context, id string) error
}

// UserStore resolves and creates user accounts.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) error
}
