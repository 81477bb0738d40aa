// Package local implements the storage provider contract over a directory
// on the local filesystem.
package local

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

// Provider stores objects under a single base directory. Logical paths use
// forward slashes regardless of OS.
type Provider struct {
	basePath string
}

var _ api.StorageProvider = (*Provider)(nil)

// New creates a local filesystem provider rooted at the configured base
// path, creating the directory if needed. An empty base path defaults to
// an "uploads" directory relative to the working directory.
func New(settings config.LocalSettings) (*Provider, error) {
	base := settings.BasePath
	if base == "" {
		base = "uploads"
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "resolve base path", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, api.OpError(api.ProviderLocal, "create base path", err)
	}
	return &Provider{basePath: abs}, nil
}

func (p *Provider) ID() api.ProviderID {
	return api.ProviderLocal
}

// resolve maps a logical path onto the filesystem, rejecting anything that
// escapes the storage root.
func (p *Provider) resolve(logical string) (string, error) {
	trimmed := strings.Trim(logical, "/")
	if trimmed == "" {
		return p.basePath, nil
	}
	clean := filepath.Clean(filepath.FromSlash(trimmed))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes storage root", logical)
	}
	return filepath.Join(p.basePath, clean), nil
}

func (p *Provider) UploadFile(ctx context.Context, data []byte, filename, mimeType, folderPath string, metadata map[string]string) (*api.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "upload", err)
	}

	folder := strings.Trim(folderPath, "/")
	dir, err := p.resolve(folder)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "upload", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, api.OpError(api.ProviderLocal, "upload", err)
	}

	// Never overwrite: disambiguate colliding names with a timestamp.
	name := filepath.Base(filename)
	target := filepath.Join(dir, name)
	for {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		name = fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext)
		target = filepath.Join(dir, name)
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, api.OpError(api.ProviderLocal, "upload", err)
	}

	logical := path.Join(folder, name)
	return &api.UploadResult{
		Provider: api.ProviderLocal,
		FileID:   logical,
		URL:      api.ServeURL(api.ProviderLocal, logical),
		Path:     logical,
		FolderID: folder,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Metadata: metadata,
	}, nil
}

func (p *Provider) DeleteFile(ctx context.Context, logical string) error {
	if err := ctx.Err(); err != nil {
		return api.OpError(api.ProviderLocal, "delete", err)
	}
	target, err := p.resolve(logical)
	if err != nil {
		return api.OpError(api.ProviderLocal, "delete", err)
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return api.OpError(api.ProviderLocal, "delete", api.ErrFileNotFound)
		}
		return api.OpError(api.ProviderLocal, "delete", err)
	}
	return nil
}

func (p *Provider) GetFileInfo(ctx context.Context, logical string) (*api.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "stat", err)
	}
	target, err := p.resolve(logical)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "stat", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.OpError(api.ProviderLocal, "stat", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderLocal, "stat", err)
	}
	if info.IsDir() {
		return nil, api.OpError(api.ProviderLocal, "stat", api.ErrFileNotFound)
	}

	logical = strings.Trim(logical, "/")
	return &api.FileInfo{
		ID:         logical,
		Name:       info.Name(),
		Path:       logical,
		URL:        api.ServeURL(api.ProviderLocal, logical),
		Size:       info.Size(),
		MimeType:   mime.TypeByExtension(filepath.Ext(info.Name())),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (p *Provider) ListFiles(ctx context.Context, folderPath string, pageSize int) ([]api.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "list files", err)
	}
	folder := strings.Trim(folderPath, "/")
	dir, err := p.resolve(folder)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "list files", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.OpError(api.ProviderLocal, "list files", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderLocal, "list files", err)
	}

	var files []api.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pageSize > 0 && len(files) >= pageSize {
			break
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logical := path.Join(folder, entry.Name())
		files = append(files, api.FileInfo{
			ID:         logical,
			Name:       entry.Name(),
			Path:       logical,
			URL:        api.ServeURL(api.ProviderLocal, logical),
			Size:       info.Size(),
			MimeType:   mime.TypeByExtension(filepath.Ext(entry.Name())),
			ModifiedAt: info.ModTime(),
		})
	}
	return files, nil
}

func (p *Provider) CreateFolder(ctx context.Context, name, parentPath string) (*api.FolderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "create folder", err)
	}
	logical := path.Join(strings.Trim(parentPath, "/"), name)
	dir, err := p.resolve(logical)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "create folder", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, api.OpError(api.ProviderLocal, "create folder", err)
	}
	return &api.FolderResult{
		Provider: api.ProviderLocal,
		FolderID: logical,
		Name:     name,
		Path:     logical,
		URL:      api.ServeURL(api.ProviderLocal, logical),
	}, nil
}

func (p *Provider) DeleteFolder(ctx context.Context, logical string) error {
	if err := ctx.Err(); err != nil {
		return api.OpError(api.ProviderLocal, "delete folder", err)
	}
	dir, err := p.resolve(logical)
	if err != nil {
		return api.OpError(api.ProviderLocal, "delete folder", err)
	}
	if dir == p.basePath {
		return api.OpError(api.ProviderLocal, "delete folder", fmt.Errorf("refusing to delete storage root"))
	}
	if err := os.RemoveAll(dir); err != nil {
		return api.OpError(api.ProviderLocal, "delete folder", err)
	}
	return nil
}

func (p *Provider) GetFolderInfo(ctx context.Context, logical string) (*api.FolderInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "stat folder", err)
	}
	dir, err := p.resolve(logical)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "stat folder", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, api.OpError(api.ProviderLocal, "stat folder", api.ErrFileNotFound)
	}
	logical = strings.Trim(logical, "/")
	return &api.FolderInfo{
		ID:        logical,
		Name:      info.Name(),
		Path:      logical,
		URL:       api.ServeURL(api.ProviderLocal, logical),
		CreatedAt: info.ModTime(),
	}, nil
}

func (p *Provider) ListFolders(ctx context.Context, parentPath string) ([]api.FolderInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, api.OpError(api.ProviderLocal, "list folders", err)
	}
	parent := strings.Trim(parentPath, "/")
	dir, err := p.resolve(parent)
	if err != nil {
		return nil, api.OpError(api.ProviderLocal, "list folders", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.OpError(api.ProviderLocal, "list folders", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderLocal, "list folders", err)
	}

	var folders []api.FolderInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logical := path.Join(parent, entry.Name())
		folders = append(folders, api.FolderInfo{
			ID:        logical,
			Name:      entry.Name(),
			Path:      logical,
			URL:       api.ServeURL(api.ProviderLocal, logical),
			CreatedAt: info.ModTime(),
		})
	}
	return folders, nil
}

func (p *Provider) FileExists(ctx context.Context, logical string) bool {
	if ctx.Err() != nil {
		return false
	}
	target, err := p.resolve(logical)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

func (p *Provider) FolderExists(ctx context.Context, logical string) bool {
	if ctx.Err() != nil {
		return false
	}
	target, err := p.resolve(logical)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.IsDir()
}

func (p *Provider) FileURL(logical string) string {
	return api.ServeURL(api.ProviderLocal, logical)
}

func (p *Provider) FolderURL(logical string) string {
	return api.ServeURL(api.ProviderLocal, logical)
}

func (p *Provider) GetFileBuffer(ctx context.Context, logical string) []byte {
	if ctx.Err() != nil {
		return nil
	}
	target, err := p.resolve(logical)
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil
	}
	return data
}

func (p *Provider) ValidateConnection(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(p.basePath)
	return err == nil && info.IsDir()
}
