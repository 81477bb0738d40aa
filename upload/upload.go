// Package upload orchestrates the photo upload pipeline: compression,
// storage upload, thumbnail ladder, blur placeholder, metadata extraction,
// and catalog persistence.
//
// Steps split into hard and soft. Album resolution, compression, and the
// display upload must succeed or the whole upload fails. Everything after
// that degrades: thumbnails, placeholder, EXIF, and even the catalog insert
// log their failure and the upload still reports success, because the bytes
// are already durably stored.
package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumenpix/photostore/gallery"
	"github.com/lumenpix/photostore/imaging"
	"github.com/lumenpix/photostore/storage/api"
)

// ProviderResolver resolves provider ids to ready adapters. Satisfied by
// the storage manager.
type ProviderResolver interface {
	Provider(ctx context.Context, id api.ProviderID) (api.StorageProvider, error)
}

// DefaultProvider receives uploads that carry no album and no explicit
// provider choice.
const DefaultProvider = api.ProviderLocal

// Options carries the caller's intent for one upload.
type Options struct {
	AlbumID     string
	Title       string
	Description string
	Tags        []string
	UploadedBy  string

	// Provider is honored only when the photo has no album; an album's
	// configured provider always wins.
	Provider api.ProviderID
}

// Result is the upload outcome handed back to the API layer.
type Result struct {
	Success     bool                            `json:"success"`
	Photo       *gallery.Photo                  `json:"photo,omitempty"`
	Thumbnails  map[string]gallery.ThumbnailRef `json:"thumbnails,omitempty"`
	BlurDataURL string                          `json:"blurDataUrl,omitempty"`
	EXIF        *imaging.Meta                   `json:"exif,omitempty"`
	Error       string                          `json:"error,omitempty"`
}

// Orchestrator wires the pipeline's collaborators together.
type Orchestrator struct {
	providers ProviderResolver
	albums    gallery.AlbumStore
	photos    gallery.PhotoStore
	users     gallery.UserStore
	logger    zerolog.Logger
}

func New(providers ProviderResolver, albums gallery.AlbumStore, photos gallery.PhotoStore, users gallery.UserStore, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		albums:    albums,
		photos:    photos,
		users:     users,
		logger:    logger.With().Str("component", "upload").Logger(),
	}
}

// UploadPhoto runs the full pipeline over one image. The returned Result
// has Success false only when a hard step failed; err mirrors that state
// so callers can branch either way.
func (o *Orchestrator) UploadPhoto(ctx context.Context, data []byte, filename, mimeType string, opts Options) (result *Result, err error) {
	log := o.logger.With().Str("filename", filename).Str("albumId", opts.AlbumID).Logger()

	// The pipeline touches codecs and SDKs; a panic in any of them must
	// surface as a failed upload, not a crashed caller.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("upload pipeline panicked")
			result = &Result{Success: false, Error: fmt.Sprintf("upload failed: %v", r)}
			err = fmt.Errorf("upload panicked: %v", r)
		}
	}()

	if len(data) == 0 {
		return fail("empty upload")
	}
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		return fail(fmt.Sprintf("unsupported media type: %s", mimeType))
	}

	// Album resolution. A missing album is tolerated: the upload proceeds
	// unattached. A present album dictates provider and base folder.
	providerID := opts.Provider
	if providerID == "" {
		providerID = DefaultProvider
	}
	baseFolder := ""
	var album *gallery.Album
	if opts.AlbumID != "" {
		album, err = o.albums.Get(ctx, opts.AlbumID)
		if err != nil {
			log.Warn().Err(err).Msg("album not found, uploading unattached")
			album = nil
		} else {
			providerID = album.Provider
			baseFolder = album.StoragePath
		}
	}

	adapter, err := o.providers.Provider(ctx, providerID)
	if err != nil {
		return fail(fmt.Sprintf("storage provider %s unavailable: %v", providerID, err))
	}

	// Compression is a hard step: undecodable bytes are not a photo.
	compressed, err := imaging.Compress(data, imaging.ProfileGallery)
	if err != nil {
		return fail(fmt.Sprintf("compress image: %v", err))
	}
	log.Debug().
		Float64("ratio", compressed.CompressionRatio).
		Int("width", compressed.Width).
		Int("height", compressed.Height).
		Msg("image compressed")

	// Display upload, the last hard step.
	uploaded, err := adapter.UploadFile(ctx, compressed.Compressed, filename, "image/jpeg", baseFolder, map[string]string{
		"title": opts.Title,
	})
	if err != nil {
		return fail(fmt.Sprintf("upload to %s: %v", providerID, err))
	}
	log.Info().Str("provider", string(providerID)).Str("path", uploaded.Path).Msg("photo uploaded")

	photo := &gallery.Photo{
		Title:       opts.Title,
		Description: opts.Description,
		AlbumID:     opts.AlbumID,
		Tags:        opts.Tags,
		Provider:    providerID,
		Path:        uploaded.Path,
		FileID:      uploaded.FileID,
		URL:         uploaded.URL,
		Size:        uploaded.Size,
		MimeType:    uploaded.MimeType,
	}
	if album == nil {
		photo.AlbumID = ""
	}

	// Thumbnails come from the original bytes so every rung resamples full
	// detail instead of the already-compressed rendition.
	photo.Thumbnails = o.uploadThumbnails(ctx, adapter, data, filename, baseFolder, log)
	photo.ThumbnailPath = pickThumbnailPath(photo.Thumbnails)

	photo.BlurDataURL = o.blurPlaceholder(data, log)

	o.extractMetadata(data, photo, log)

	photo.UploadedBy = o.resolveUploader(ctx, opts.UploadedBy, log)

	// Persisting the record is soft: the bytes are already stored, and an
	// orphaned object beats telling the user their upload vanished.
	if err := o.photos.Insert(ctx, photo); err != nil {
		log.Error().Err(err).Msg("persist photo record failed")
	} else if album != nil {
		if err := o.albums.IncrementPhotoCount(ctx, album.ID, 1); err != nil {
			log.Warn().Err(err).Str("albumId", album.ID).Msg("album photo count update failed")
		}
	}

	return &Result{
		Success:     true,
		Photo:       photo,
		Thumbnails:  photo.Thumbnails,
		BlurDataURL: photo.BlurDataURL,
		EXIF:        photo.EXIF,
	}, nil
}

func fail(msg string) (*Result, error) {
	return &Result{Success: false, Error: msg}, fmt.Errorf("%s", msg)
}

// uploadThumbnails renders and uploads the ladder. Each rung fails in
// isolation; a rung that renders but will not upload is dropped.
func (o *Orchestrator) uploadThumbnails(ctx context.Context, adapter api.StorageProvider, data []byte, filename, baseFolder string, log zerolog.Logger) map[string]gallery.ThumbnailRef {
	thumbs, err := imaging.GenerateThumbnails(data)
	if err != nil {
		log.Warn().Err(err).Msg("thumbnail generation failed")
		return nil
	}

	refs := make(map[string]gallery.ThumbnailRef, len(thumbs))
	for _, rung := range imaging.Ladder {
		thumb, ok := thumbs[rung.Name]
		if !ok {
			log.Warn().Str("rung", rung.Name).Msg("thumbnail rung not rendered")
			continue
		}
		folder := path.Join(baseFolder, "thumbnails", rung.Name)
		uploaded, err := adapter.UploadFile(ctx, thumb.Data, filename, "image/jpeg", folder, nil)
		if err != nil {
			log.Warn().Err(err).Str("rung", rung.Name).Msg("thumbnail upload failed")
			continue
		}
		refs[rung.Name] = gallery.ThumbnailRef{
			Path:   uploaded.Path,
			URL:    uploaded.URL,
			Width:  thumb.Width,
			Height: thumb.Height,
			Size:   uploaded.Size,
		}
	}
	return refs
}

// pickThumbnailPath chooses the default grid rendition: medium, then
// small, then whatever rung survived, smallest first.
func pickThumbnailPath(refs map[string]gallery.ThumbnailRef) string {
	if ref, ok := refs["medium"]; ok {
		return ref.Path
	}
	if ref, ok := refs["small"]; ok {
		return ref.Path
	}
	for _, rung := range imaging.Ladder {
		if ref, ok := refs[rung.Name]; ok {
			return ref.Path
		}
	}
	return ""
}

func (o *Orchestrator) blurPlaceholder(data []byte, log zerolog.Logger) string {
	placeholder, err := imaging.BlurPlaceholder(data)
	if err != nil {
		log.Warn().Err(err).Msg("blur placeholder failed, using fallback")
		return imaging.FallbackPlaceholder()
	}
	return placeholder
}

func (o *Orchestrator) extractMetadata(data []byte, photo *gallery.Photo, log zerolog.Logger) {
	if width, height, err := imaging.Dimensions(data); err == nil {
		photo.Width = width
		photo.Height = height
		photo.Orientation = imaging.Classify(width, height)
	} else {
		log.Warn().Err(err).Msg("dimension probe failed")
	}

	meta, err := imaging.ExtractEXIF(data)
	if err != nil {
		log.Warn().Err(err).Msg("exif extraction failed")
		return
	}
	photo.EXIF = meta
}

// resolveUploader attributes the upload: the explicit user if given, else
// the system account, else a nil uuid when even that lookup fails.
func (o *Orchestrator) resolveUploader(ctx context.Context, explicit string, log zerolog.Logger) string {
	if explicit != "" {
		if user, err := o.users.FindByUsername(ctx, explicit); err == nil {
			return user.ID
		}
		log.Warn().Str("username", explicit).Msg("uploader not found, falling back to system user")
	}

	if user, err := o.users.FindByUsername(ctx, gallery.SystemUsername); err == nil {
		return user.ID
	}

	system := &gallery.User{Username: gallery.SystemUsername}
	if err := o.users.Create(ctx, system); err == nil {
		return system.ID
	}

	log.Warn().Msg("system user unavailable, attributing to nil user")
	return uuid.Nil.String()
}
