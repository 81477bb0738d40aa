// Package s3 implements the storage provider contract over AWS S3 or any
// S3-compatible service.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
)

// Provider stores objects in one S3 bucket. S3 has no real folders;
// they are emulated with zero-byte marker objects whose keys end in "/",
// and that emulation never leaks past this adapter.
type Provider struct {
	client *awss3.Client
	bucket string
}

var _ api.StorageProvider = (*Provider)(nil)

// New creates an S3 provider bound to the configured bucket. A custom
// endpoint switches the client to path-style addressing for S3-compatible
// services.
func New(ctx context.Context, settings config.S3Settings) (*Provider, error) {
	var awsOpts []func(*awsconfig.LoadOptions) error
	awsOpts = append(awsOpts, awsconfig.WithRegion(settings.Region))

	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, api.OpError(api.ProviderAwsS3, "load aws config", err)
	}

	var s3Opts []func(*awss3.Options)
	if settings.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Provider{
		client: awss3.NewFromConfig(awsCfg, s3Opts...),
		bucket: settings.Bucket,
	}, nil
}

func (p *Provider) ID() api.ProviderID {
	return api.ProviderAwsS3
}

func objectKey(folderPath, name string) string {
	return path.Join(strings.Trim(folderPath, "/"), name)
}

func folderMarker(folderPath string) string {
	return strings.Trim(folderPath, "/") + "/"
}

func (p *Provider) headObject(ctx context.Context, key string) (*awss3.HeadObjectOutput, error) {
	return p.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

func (p *Provider) UploadFile(ctx context.Context, data []byte, filename, mimeType, folderPath string, metadata map[string]string) (*api.UploadResult, error) {
	folder := strings.Trim(folderPath, "/")
	name := path.Base(filename)
	key := objectKey(folder, name)

	// Never overwrite an existing key: disambiguate with a timestamp.
	if _, err := p.headObject(ctx, key); err == nil {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s-%d%s", stem, time.Now().UnixNano(), ext)
		key = objectKey(folder, name)
	}

	_, err := p.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      metadata,
	})
	if err != nil {
		return nil, api.OpError(api.ProviderAwsS3, "upload", err)
	}

	return &api.UploadResult{
		Provider: api.ProviderAwsS3,
		FileID:   key,
		URL:      api.ServeURL(api.ProviderAwsS3, key),
		Path:     key,
		FolderID: folder,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Metadata: metadata,
	}, nil
}

func (p *Provider) DeleteFile(ctx context.Context, objectPath string) error {
	key := strings.Trim(objectPath, "/")
	_, err := p.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return api.OpError(api.ProviderAwsS3, "delete", err)
	}
	return nil
}

func (p *Provider) GetFileInfo(ctx context.Context, objectPath string) (*api.FileInfo, error) {
	key := strings.Trim(objectPath, "/")
	head, err := p.headObject(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, api.OpError(api.ProviderAwsS3, "stat", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderAwsS3, "stat", err)
	}

	info := &api.FileInfo{
		ID:       key,
		Name:     path.Base(key),
		Path:     key,
		URL:      api.ServeURL(api.ProviderAwsS3, key),
		Size:     aws.ToInt64(head.ContentLength),
		MimeType: aws.ToString(head.ContentType),
		Metadata: head.Metadata,
	}
	if head.LastModified != nil {
		info.ModifiedAt = *head.LastModified
	}
	return info, nil
}

func (p *Provider) ListFiles(ctx context.Context, folderPath string, pageSize int) ([]api.FileInfo, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	prefix := ""
	if strings.Trim(folderPath, "/") != "" {
		prefix = folderMarker(folderPath)
	}

	out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(int32(pageSize)),
	})
	if err != nil {
		return nil, api.OpError(api.ProviderAwsS3, "list files", err)
	}

	var files []api.FileInfo
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") {
			// Folder marker, not a file.
			continue
		}
		info := api.FileInfo{
			ID:   key,
			Name: path.Base(key),
			Path: key,
			URL:  api.ServeURL(api.ProviderAwsS3, key),
			Size: aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			info.ModifiedAt = *obj.LastModified
		}
		files = append(files, info)
	}
	return files, nil
}

func (p *Provider) CreateFolder(ctx context.Context, name, parentPath string) (*api.FolderResult, error) {
	logical := path.Join(strings.Trim(parentPath, "/"), name)
	marker := folderMarker(logical)

	_, err := p.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(marker),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return nil, api.OpError(api.ProviderAwsS3, "create folder", err)
	}

	return &api.FolderResult{
		Provider: api.ProviderAwsS3,
		FolderID: logical,
		Name:     name,
		Path:     logical,
		URL:      api.ServeURL(api.ProviderAwsS3, logical),
	}, nil
}

func (p *Provider) DeleteFolder(ctx context.Context, folderPath string) error {
	prefix := folderMarker(folderPath)

	var continuation *string
	for {
		out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(p.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return api.OpError(api.ProviderAwsS3, "delete folder", err)
		}

		for _, obj := range out.Contents {
			_, err := p.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
				Bucket: aws.String(p.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return api.OpError(api.ProviderAwsS3, "delete folder", err)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		continuation = out.NextContinuationToken
	}
}

func (p *Provider) GetFolderInfo(ctx context.Context, folderPath string) (*api.FolderInfo, error) {
	logical := strings.Trim(folderPath, "/")

	head, err := p.headObject(ctx, folderMarker(logical))
	if err != nil && !p.prefixExists(ctx, folderMarker(logical)) {
		if isNotFound(err) {
			return nil, api.OpError(api.ProviderAwsS3, "stat folder", api.ErrFileNotFound)
		}
		return nil, api.OpError(api.ProviderAwsS3, "stat folder", err)
	}

	info := &api.FolderInfo{
		ID:   logical,
		Name: path.Base(logical),
		Path: logical,
		URL:  api.ServeURL(api.ProviderAwsS3, logical),
	}
	if head != nil && head.LastModified != nil {
		info.CreatedAt = *head.LastModified
	}
	return info, nil
}

func (p *Provider) ListFolders(ctx context.Context, parentPath string) ([]api.FolderInfo, error) {
	prefix := ""
	if strings.Trim(parentPath, "/") != "" {
		prefix = folderMarker(parentPath)
	}

	out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, api.OpError(api.ProviderAwsS3, "list folders", err)
	}

	var folders []api.FolderInfo
	for _, cp := range out.CommonPrefixes {
		logical := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
		folders = append(folders, api.FolderInfo{
			ID:   logical,
			Name: path.Base(logical),
			Path: logical,
			URL:  api.ServeURL(api.ProviderAwsS3, logical),
		})
	}
	return folders, nil
}

// prefixExists reports whether any object lives under prefix. Folders
// created implicitly by uploads have no marker object, only contents.
func (p *Provider) prefixExists(ctx context.Context, prefix string) bool {
	out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	return err == nil && aws.ToInt32(out.KeyCount) > 0
}

func (p *Provider) FileExists(ctx context.Context, objectPath string) bool {
	_, err := p.headObject(ctx, strings.Trim(objectPath, "/"))
	return err == nil
}

func (p *Provider) FolderExists(ctx context.Context, folderPath string) bool {
	marker := folderMarker(folderPath)
	if _, err := p.headObject(ctx, marker); err == nil {
		return true
	}
	return p.prefixExists(ctx, marker)
}

func (p *Provider) FileURL(objectPath string) string {
	return api.ServeURL(api.ProviderAwsS3, strings.Trim(objectPath, "/"))
}

func (p *Provider) FolderURL(folderPath string) string {
	return api.ServeURL(api.ProviderAwsS3, strings.Trim(folderPath, "/"))
}

func (p *Provider) GetFileBuffer(ctx context.Context, objectPath string) []byte {
	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(strings.Trim(objectPath, "/")),
	})
	if err != nil {
		return nil
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil
	}
	return data
}

func (p *Provider) ValidateConnection(ctx context.Context) bool {
	_, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		MaxKeys: aws.Int32(1),
	})
	return err == nil
}
