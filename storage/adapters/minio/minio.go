// Package minio implements the storage provider contract over MinIO or any
// other self-hosted S3-compatible object store reachable with the MinIO SDK.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

// Provider stores objects in one MinIO bucket, emulating folders the same
// way the S3 adapter does: zero-byte marker objects with trailing-slash keys.
type Provider struct {
	client *minio.Client
	bucket string
}

var _ api.StorageProvider = (*Provider)(nil)

// New creates a MinIO provider bound to the configured bucket.
func New(settings config.MinioSettings) (*Provider, error) {
	client, err := minio.New(settings.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: settings.UseSSL,
	})
	if err != nil {
		return nil, api.OpError(api.ProviderMinio, "create client", err)
	}
	return &Provider{client: client, bucket: settings.Bucket}, nil
}

func (p *Provider) ID() api.ProviderID {
	return api.ProviderMinio
}

func folderMarker(folderPath string) string {
	return strings.Trim(folderPath, "/") + "/"
}

func (p *Provider) stat(ctx context.Context, key string) (minio.ObjectInfo, error) {
	return p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

func (p *Provider) UploadFile(ctx context.Context, data []byte, filename, mimeType, folderPath string, metadata map[string]string) (*api.UploadResult, error) {
	folder := strings.Trim(folderPath, "/")
	name := path.Base(filename)
	key := path.Join(folder, name)

	// Never overwrite an existing key: disambiguate with a timestamp.
	if _, err := p.stat(ctx, key); err == nil {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext)
		key = path.Join(folder, name)
	}

	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  mimeType,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, api.OpError(api.ProviderMinio, "upload", err)
	}

	return &api.UploadResult{
		Provider: api.ProviderMinio,
		FileID:   key,
		URL:      api.ServeURL(api.ProviderMinio, key),
		Path:     key,
		FolderID: folder,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Metadata: metadata,
	}, nil
}

func (p *Provider) DeleteFile(ctx context.Context, objectPath string) error {
	key := strings.Trim(objectPath, "/")
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return api.OpError(api.ProviderMinio, "delete", err)
	}
	return nil
}

func (p *Provider) GetFileInfo(ctx context.Context, objectPath string) (*api.FileInfo, error) {
	key := strings.Trim(objectPath, "/")
	info, err := p.stat(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, api.OpError(api.ProviderMinio, "stat", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderMinio, "stat", err)
	}

	return &api.FileInfo{
		ID:         key,
		Name:       path.Base(key),
		Path:       key,
		URL:        api.ServeURL(api.ProviderMinio, key),
		Size:       info.Size,
		MimeType:   info.ContentType,
		ModifiedAt: info.LastModified,
		Metadata:   info.UserMetadata,
	}, nil
}

func (p *Provider) ListFiles(ctx context.Context, folderPath string, pageSize int) ([]api.FileInfo, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	prefix := ""
	if strings.Trim(folderPath, "/") != "" {
		prefix = folderMarker(folderPath)
	}

	var files []api.FileInfo
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, api.OpError(api.ProviderMinio, "list files", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, api.FileInfo{
			ID:         obj.Key,
			Name:       path.Base(obj.Key),
			Path:       obj.Key,
			URL:        api.ServeURL(api.ProviderMinio, obj.Key),
			Size:       obj.Size,
			MimeType:   obj.ContentType,
			ModifiedAt: obj.LastModified,
		})
		if len(files) >= pageSize {
			break
		}
	}
	return files, nil
}

func (p *Provider) CreateFolder(ctx context.Context, name, parentPath string) (*api.FolderResult, error) {
	logical := path.Join(strings.Trim(parentPath, "/"), name)
	marker := folderMarker(logical)

	_, err := p.client.PutObject(ctx, p.bucket, marker, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return nil, api.OpError(api.ProviderMinio, "create folder", err)
	}

	return &api.FolderResult{
		Provider: api.ProviderMinio,
		FolderID: logical,
		Name:     name,
		Path:     logical,
		URL:      api.ServeURL(api.ProviderMinio, logical),
	}, nil
}

func (p *Provider) DeleteFolder(ctx context.Context, folderPath string) error {
	prefix := folderMarker(folderPath)
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return api.OpError(api.ProviderMinio, "delete folder", obj.Err)
		}
		if err := p.client.RemoveObject(ctx, p.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return api.OpError(api.ProviderMinio, "delete folder", err)
		}
	}
	return nil
}

func (p *Provider) GetFolderInfo(ctx context.Context, folderPath string) (*api.FolderInfo, error) {
	logical := strings.Trim(folderPath, "/")
	if !p.FolderExists(ctx, logical) {
		return nil, api.OpError(api.ProviderMinio, "stat folder", api.ErrFileNotFound)
	}

	info := &api.FolderInfo{
		ID:   logical,
		Name: path.Base(logical),
		Path: logical,
		URL:  api.ServeURL(api.ProviderMinio, logical),
	}
	if marker, err := p.stat(ctx, folderMarker(logical)); err == nil {
		info.CreatedAt = marker.LastModified
	}
	return info, nil
}

func (p *Provider) ListFolders(ctx context.Context, parentPath string) ([]api.FolderInfo, error) {
	prefix := ""
	if strings.Trim(parentPath, "/") != "" {
		prefix = folderMarker(parentPath)
	}

	var folders []api.FolderInfo
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, api.OpError(api.ProviderMinio, "list folders", obj.Err)
		}
		// Non-recursive listings surface sub-folders as prefix entries.
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		logical := strings.TrimSuffix(obj.Key, "/")
		if logical == strings.Trim(parentPath, "/") {
			continue
		}
		folders = append(folders, api.FolderInfo{
			ID:   logical,
			Name: path.Base(logical),
			Path: logical,
			URL:  api.ServeURL(api.ProviderMinio, logical),
		})
	}
	return folders, nil
}

func (p *Provider) FileExists(ctx context.Context, objectPath string) bool {
	_, err := p.stat(ctx, strings.Trim(objectPath, "/"))
	return err == nil
}

func (p *Provider) FolderExists(ctx context.Context, folderPath string) bool {
	marker := folderMarker(folderPath)
	if _, err := p.stat(ctx, marker); err == nil {
		return true
	}
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: marker, MaxKeys: 1}) {
		if obj.Err == nil && obj.Key != "" {
			return true
		}
	}
	return false
}

func (p *Provider) FileURL(objectPath string) string {
	return api.ServeURL(api.ProviderMinio, strings.Trim(objectPath, "/"))
}

func (p *Provider) FolderURL(folderPath string) string {
	return api.ServeURL(api.ProviderMinio, strings.Trim(folderPath, "/"))
}

func (p *Provider) GetFileBuffer(ctx context.Context, objectPath string) []byte {
	obj, err := p.client.GetObject(ctx, p.bucket, strings.Trim(objectPath, "/"), minio.GetObjectOptions{})
	if err != nil {
		return nil
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil
	}
	return data
}

func (p *Provider) ValidateConnection(ctx context.Context) bool {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	return err == nil && exists
}
