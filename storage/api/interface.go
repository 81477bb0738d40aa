package api

import (
	"context"
	"time"
)

// ProviderID identifies a storage backend.
type ProviderID string

const (
	ProviderLocal       ProviderID = "local"
	ProviderAwsS3       ProviderID = "aws-s3"
	ProviderGoogleDrive ProviderID = "google-drive"
	ProviderMinio       ProviderID = "minio"
)

// AllProviders returns every known provider id in a stable order.
func AllProviders() []ProviderID {
	return []ProviderID{ProviderLocal, ProviderAwsS3, ProviderGoogleDrive, ProviderMinio}
}

// Valid reports whether p is a known provider id.
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderLocal, ProviderAwsS3, ProviderGoogleDrive, ProviderMinio:
		return true
	}
	return false
}

// UploadResult is the normalized outcome of an upload, regardless of backend.
// Path and FileID are backend-native identifiers sufficient for the same
// adapter to later fetch or delete the object. URL is always the
// application-routed serve path, never a raw backend URL.
type UploadResult struct {
	Provider ProviderID        `json:"provider"`
	FileID   string            `json:"fileId"`
	URL      string            `json:"url"`
	Path     string            `json:"path"`
	FolderID string            `json:"folderId,omitempty"`
	Size     int64             `json:"size"`
	MimeType string            `json:"mimeType"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FileInfo describes a stored object.
type FileInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	URL        string            `json:"url"`
	Size       int64             `json:"size"`
	MimeType   string            `json:"mimeType,omitempty"`
	ModifiedAt time.Time         `json:"modifiedAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// FolderResult is the normalized outcome of folder creation.
type FolderResult struct {
	Provider ProviderID `json:"provider"`
	FolderID string     `json:"folderId"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	URL      string     `json:"url"`
}

// FolderInfo describes a logical folder.
type FolderInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// StorageProvider is the capability contract every backend implements.
// Implementations: local filesystem, AWS S3, MinIO, Google Drive.
//
// Folders are a logical construct; backends that have no real folders
// (object stores) emulate them, and that emulation never leaks to callers.
// All backend SDK errors are wrapped in *OperationError.
type StorageProvider interface {
	// ID returns the provider id this adapter serves.
	ID() ProviderID

	// UploadFile writes data under the given logical folder. On a name
	// collision the adapter never overwrites: it disambiguates the filename
	// and returns the adjusted identifiers.
	UploadFile(ctx context.Context, data []byte, filename, mimeType, folderPath string, metadata map[string]string) (*UploadResult, error)

	// DeleteFile removes the object at path.
	DeleteFile(ctx context.Context, path string) error

	// GetFileInfo stats the object at path. Wraps ErrFileNotFound if absent.
	GetFileInfo(ctx context.Context, path string) (*FileInfo, error)

	// ListFiles lists objects directly under folderPath. pageSize <= 0 uses
	// the adapter default.
	ListFiles(ctx context.Context, folderPath string, pageSize int) ([]FileInfo, error)

	// CreateFolder creates (or reuses) a folder under parentPath.
	CreateFolder(ctx context.Context, name, parentPath string) (*FolderResult, error)

	// DeleteFolder removes the folder at path and everything under it.
	DeleteFolder(ctx context.Context, path string) error

	// GetFolderInfo stats the folder at path. Wraps ErrFileNotFound if absent.
	GetFolderInfo(ctx context.Context, path string) (*FolderInfo, error)

	// ListFolders lists folders directly under parentPath.
	ListFolders(ctx context.Context, parentPath string) ([]FolderInfo, error)

	// FileExists and FolderExists never fail: backend errors collapse to false.
	FileExists(ctx context.Context, path string) bool
	FolderExists(ctx context.Context, path string) bool

	// FileURL and FolderURL return the application-proxied serve URL with
	// every path segment percent-encoded independently.
	FileURL(path string) string
	FolderURL(path string) string

	// GetFileBuffer reads the object bytes, returning nil rather than an
	// error on read failure. The caller decides what absence means.
	GetFileBuffer(ctx context.Context, path string) []byte

	// ValidateConnection is a cheap backend reachability probe.
	ValidateConnection(ctx context.Context) bool
}
