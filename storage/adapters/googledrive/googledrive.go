// Package googledrive implements the storage provider contract over the
// Google Drive v3 API using an OAuth refresh-token client.
package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Provider maps logical folder paths onto Drive folder ids. Drive addresses
// everything by opaque id, so the adapter keeps a path-to-id cache and
// resolves logical paths segment by segment.
type Provider struct {
	svc    *drive.Service
	rootID string

	mu        sync.Mutex
	folderIDs map[string]string
}

var _ api.StorageProvider = (*Provider)(nil)

// New creates a Drive provider. The refresh token is exchanged lazily; the
// oauth2 token source renews access tokens as they expire.
func New(ctx context.Context, settings config.DriveSettings) (*Provider, error) {
	oc := &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: settings.RefreshToken})

	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "create client", err)
	}

	rootID := settings.RootFolderID
	if rootID == "" {
		rootID = "root"
	}

	return &Provider{
		svc:       svc,
		rootID:    rootID,
		folderIDs: make(map[string]string),
	}, nil
}

func (p *Provider) ID() api.ProviderID {
	return api.ProviderGoogleDrive
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}

// escapeQuery escapes single quotes for the Drive query language.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// folderID resolves a logical folder path to a Drive folder id, creating
// missing segments when create is set.
func (p *Provider) folderID(ctx context.Context, logical string, create bool) (string, error) {
	logical = strings.Trim(logical, "/")
	if logical == "" {
		return p.rootID, nil
	}

	p.mu.Lock()
	cached, ok := p.folderIDs[logical]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	parentID := p.rootID
	walked := ""
	for _, segment := range strings.Split(logical, "/") {
		walked = path.Join(walked, segment)

		p.mu.Lock()
		id, ok := p.folderIDs[walked]
		p.mu.Unlock()
		if ok {
			parentID = id
			continue
		}

		query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
			escapeQuery(segment), parentID, folderMimeType)
		list, err := p.svc.Files.List().Q(query).PageSize(1).Fields("files(id)").Context(ctx).Do()
		if err != nil {
			return "", err
		}

		switch {
		case len(list.Files) > 0:
			parentID = list.Files[0].Id
		case create:
			folder, err := p.svc.Files.Create(&drive.File{
				Name:     segment,
				MimeType: folderMimeType,
				Parents:  []string{parentID},
			}).Fields("id").Context(ctx).Do()
			if err != nil {
				return "", err
			}
			parentID = folder.Id
		default:
			return "", api.ErrFileNotFound
		}

		p.mu.Lock()
		p.folderIDs[walked] = parentID
		p.mu.Unlock()
	}
	return parentID, nil
}

// fileByPath resolves a logical file path to its Drive file.
func (p *Provider) fileByPath(ctx context.Context, logical, fields string) (*drive.File, error) {
	logical = strings.Trim(logical, "/")
	dir, name := path.Split(logical)
	if name == "" {
		return nil, api.ErrFileNotFound
	}

	parentID, err := p.folderID(ctx, dir, false)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType != '%s' and trashed = false",
		escapeQuery(name), parentID, folderMimeType)
	list, err := p.svc.Files.List().Q(query).PageSize(1).Fields(googleapi.Field("files(" + fields + ")")).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, api.ErrFileNotFound
	}
	return list.Files[0], nil
}

func (p *Provider) UploadFile(ctx context.Context, data []byte, filename, mimeType, folderPath string, metadata map[string]string) (*api.UploadResult, error) {
	folder := strings.Trim(folderPath, "/")
	parentID, err := p.folderID(ctx, folder, true)
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "upload", err)
	}

	// Never overwrite: if a file of this name already exists in the folder,
	// disambiguate with a timestamp.
	name := path.Base(filename)
	logical := path.Join(folder, name)
	if _, err := p.fileByPath(ctx, logical, "id"); err == nil {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext)
		logical = path.Join(folder, name)
	}

	file, err := p.svc.Files.Create(&drive.File{
		Name:       name,
		Parents:    []string{parentID},
		MimeType:   mimeType,
		Properties: metadata,
	}).Media(bytes.NewReader(data)).Fields("id, name, size").Context(ctx).Do()
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "upload", err)
	}

	return &api.UploadResult{
		Provider: api.ProviderGoogleDrive,
		FileID:   file.Id,
		URL:      api.ServeURL(api.ProviderGoogleDrive, logical),
		Path:     logical,
		FolderID: parentID,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Metadata: metadata,
	}, nil
}

func (p *Provider) DeleteFile(ctx context.Context, logical string) error {
	file, err := p.fileByPath(ctx, logical, "id")
	if err != nil {
		return api.OpError(api.ProviderGoogleDrive, "delete", err)
	}
	if err := p.svc.Files.Delete(file.Id).Context(ctx).Do(); err != nil {
		return api.OpError(api.ProviderGoogleDrive, "delete", err)
	}
	return nil
}

func (p *Provider) GetFileInfo(ctx context.Context, logical string) (*api.FileInfo, error) {
	file, err := p.fileByPath(ctx, logical, "id, name, size, mimeType, modifiedTime")
	if err != nil {
		if errors.Is(err, api.ErrFileNotFound) || isNotFound(err) {
			return nil, api.OpError(api.ProviderGoogleDrive, "stat", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderGoogleDrive, "stat", err)
	}

	logical = strings.Trim(logical, "/")
	info := &api.FileInfo{
		ID:       file.Id,
		Name:     file.Name,
		Path:     logical,
		URL:      api.ServeURL(api.ProviderGoogleDrive, logical),
		Size:     file.Size,
		MimeType: file.MimeType,
	}
	if file.ModifiedTime != "" {
		if ts, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
			info.ModifiedAt = ts
		}
	}
	return info, nil
}

func (p *Provider) ListFiles(ctx context.Context, folderPath string, pageSize int) ([]api.FileInfo, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	folder := strings.Trim(folderPath, "/")
	parentID, err := p.folderID(ctx, folder, false)
	if err != nil {
		if errors.Is(err, api.ErrFileNotFound) {
			return nil, api.OpError(api.ProviderGoogleDrive, "list files", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderGoogleDrive, "list files", err)
	}

	query := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false", parentID, folderMimeType)
	list, err := p.svc.Files.List().Q(query).PageSize(int64(pageSize)).
		Fields("files(id, name, size, mimeType, modifiedTime)").Context(ctx).Do()
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "list files", err)
	}

	var files []api.FileInfo
	for _, f := range list.Files {
		logical := path.Join(folder, f.Name)
		info := api.FileInfo{
			ID:       f.Id,
			Name:     f.Name,
			Path:     logical,
			URL:      api.ServeURL(api.ProviderGoogleDrive, logical),
			Size:     f.Size,
			MimeType: f.MimeType,
		}
		if f.ModifiedTime != "" {
			if ts, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
				info.ModifiedAt = ts
			}
		}
		files = append(files, info)
	}
	return files, nil
}

func (p *Provider) CreateFolder(ctx context.Context, name, parentPath string) (*api.FolderResult, error) {
	logical := path.Join(strings.Trim(parentPath, "/"), name)
	id, err := p.folderID(ctx, logical, true)
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "create folder", err)
	}
	return &api.FolderResult{
		Provider: api.ProviderGoogleDrive,
		FolderID: id,
		Name:     name,
		Path:     logical,
		URL:      api.ServeURL(api.ProviderGoogleDrive, logical),
	}, nil
}

func (p *Provider) DeleteFolder(ctx context.Context, logical string) error {
	id, err := p.folderID(ctx, logical, false)
	if err != nil {
		return api.OpError(api.ProviderGoogleDrive, "delete folder", err)
	}
	// Drive deletes folder contents recursively with the folder itself.
	if err := p.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return api.OpError(api.ProviderGoogleDrive, "delete folder", err)
	}

	logical = strings.Trim(logical, "/")
	p.mu.Lock()
	for cached := range p.folderIDs {
		if cached == logical || strings.HasPrefix(cached, logical+"/") {
			delete(p.folderIDs, cached)
		}
	}
	p.mu.Unlock()
	return nil
}

func (p *Provider) GetFolderInfo(ctx context.Context, logical string) (*api.FolderInfo, error) {
	logical = strings.Trim(logical, "/")
	id, err := p.folderID(ctx, logical, false)
	if err != nil {
		if errors.Is(err, api.ErrFileNotFound) || isNotFound(err) {
			return nil, api.OpError(api.ProviderGoogleDrive, "stat folder", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderGoogleDrive, "stat folder", err)
	}
	return &api.FolderInfo{
		ID:   id,
		Name: path.Base(logical),
		Path: logical,
		URL:  api.ServeURL(api.ProviderGoogleDrive, logical),
	}, nil
}

func (p *Provider) ListFolders(ctx context.Context, parentPath string) ([]api.FolderInfo, error) {
	parent := strings.Trim(parentPath, "/")
	parentID, err := p.folderID(ctx, parent, false)
	if err != nil {
		if errors.Is(err, api.ErrFileNotFound) {
			return nil, api.OpError(api.ProviderGoogleDrive, "list folders", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderGoogleDrive, "list folders", err)
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", parentID, folderMimeType)
	list, err := p.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, api.OpError(api.ProviderGoogleDrive, "list folders", err)
	}

	var folders []api.FolderInfo
	for _, f := range list.Files {
		logical := path.Join(parent, f.Name)
		folders = append(folders, api.FolderInfo{
			ID:   f.Id,
			Name: f.Name,
			Path: logical,
			URL:  api.ServeURL(api.ProviderGoogleDrive, logical),
		})
	}
	return folders, nil
}

func (p *Provider) FileExists(ctx context.Context, logical string) bool {
	_, err := p.fileByPath(ctx, logical, "id")
	return err == nil
}

func (p *Provider) FolderExists(ctx context.Context, logical string) bool {
	_, err := p.folderID(ctx, logical, false)
	return err == nil
}

func (p *Provider) FileURL(logical string) string {
	return api.ServeURL(api.ProviderGoogleDrive, strings.Trim(logical, "/"))
}

func (p *Provider) FolderURL(logical string) string {
	return api.ServeURL(api.ProviderGoogleDrive, strings.Trim(logical, "/"))
}

func (p *Provider) GetFileBuffer(ctx context.Context, logical string) []byte {
	file, err := p.fileByPath(ctx, logical, "id")
	if err != nil {
		return nil
	}
	resp, err := p.svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return data
}

func (p *Provider) ValidateConnection(ctx context.Context) bool {
	_, err := p.svc.Files.List().PageSize(1).Fields("files(id)").Context(ctx).Do()
	return err == nil
}
