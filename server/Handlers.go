package server

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumenpix/photostore/gallery"
	"github.com/lumenpix/photostore/storage/api"
	"github.com/lumenpix/photostore/storage/config"
	"github.com/lumenpix/photostore/storage/manager"
	"github.com/lumenpix/photostore/storage/settings"
	"github.com/lumenpix/photostore/upload"
)

// StorageHandler mounts the storage-facing routes: the serve proxy, the
// photo upload endpoint, and the admin configuration API.
type StorageHandler struct {
	manager  *manager.Manager
	settings *settings.Service
	uploader *upload.Orchestrator
	photos   gallery.PhotoStore
	albums   gallery.AlbumStore
	writer   *ResponseWriter
}

var _ Handler = (*StorageHandler)(nil)

func NewStorageHandler(m *manager.Manager, svc *settings.Service, uploader *upload.Orchestrator, photos gallery.PhotoStore, albums gallery.AlbumStore) *StorageHandler {
	return &StorageHandler{
		manager:  m,
		settings: svc,
		uploader: uploader,
		photos:   photos,
		albums:   albums,
	}
}

func (h *StorageHandler) Setup(s Server) error {
	h.writer = s.GetResponseWriter()
	router := s.Router()

	router.GET(api.ServeRoutePrefix+"/:provider/*path", h.serveFile)

	photos := router.Group("/api/photos")
	{
		photos.POST("/upload", h.uploadPhoto)
		photos.GET("/:id", h.getPhoto)
		photos.DELETE("/:id", h.deletePhoto)
	}

	albums := router.Group("/api/albums")
	{
		albums.POST("", h.createAlbum)
		albums.GET("", h.listAlbums)
		albums.GET("/:id/photos", h.listAlbumPhotos)
	}

	admin := router.Group("/api/admin/storage")
	{
		admin.GET("/configs", h.listConfigs)
		admin.PUT("/configs/:provider", h.updateConfig)
		admin.POST("/configs", h.upsertConfigs)
		admin.GET("/configs/:provider/validate", h.validateConfig)
		admin.POST("/test/:provider", h.testConnection)
		admin.GET("/providers/active", h.activeProviders)
		admin.POST("/cache/invalidate", h.invalidateCaches)
	}

	return nil
}

func (h *StorageHandler) Shutdown() error {
	return nil
}

// serveFile is the proxy behind every adapter URL. It decodes the
// per-segment encoding, pulls the bytes through the adapter, and sniffs a
// content type when the extension gives nothing.
func (h *StorageHandler) serveFile(c *gin.Context) {
	providerID := api.ProviderID(c.Param("provider"))

	// Gin routes against the already-unescaped URL path, so the wildcard
	// param has lost its percent escapes. Take the encoded tail from the
	// raw request URL and decode exactly once.
	decoded, err := api.DecodePath(serveTail(c.Request.URL.EscapedPath()))
	if err != nil {
		h.writer.BadRequest(c, "malformed file path")
		return
	}

	adapter, err := h.manager.Provider(c.Request.Context(), providerID)
	if err != nil {
		h.writer.Error(c, err)
		return
	}

	data := adapter.GetFileBuffer(c.Request.Context(), decoded)
	if data == nil {
		h.writer.NotFound(c)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(decoded))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

// serveTail strips the serve route prefix and the provider segment from
// an escaped request path, leaving the still-encoded file path.
func serveTail(escaped string) string {
	rest := strings.TrimPrefix(escaped, api.ServeRoutePrefix+"/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

func (h *StorageHandler) uploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.writer.BadRequest(c, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writer.Error(c, NewError(ErrorInternal, "read upload", err))
		return
	}

	opts := upload.Options{
		AlbumID:     c.PostForm("albumId"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		UploadedBy:  c.PostForm("uploadedBy"),
		Provider:    api.ProviderID(c.PostForm("provider")),
	}
	if tags := c.PostForm("tags"); tags != "" {
		opts.Tags = splitTags(tags)
	}
	if opts.Title == "" {
		opts.Title = header.Filename
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	result, err := h.uploader.UploadPhoto(c.Request.Context(), data, header.Filename, mimeType, opts)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	h.writer.Created(c, result)
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (h *StorageHandler) getPhoto(c *gin.Context) {
	photo, err := h.photos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, photo)
}

// deletePhoto removes the catalog record and best-effort deletes the
// stored renditions. A backend delete failure leaves an orphaned object,
// which is preferable to a record pointing at nothing.
func (h *StorageHandler) deletePhoto(c *gin.Context) {
	ctx := c.Request.Context()
	photo, err := h.photos.Get(ctx, c.Param("id"))
	if err != nil {
		h.writer.Error(c, err)
		return
	}

	if err := h.photos.Delete(ctx, photo.ID); err != nil {
		h.writer.Error(c, err)
		return
	}
	if photo.AlbumID != "" {
		_ = h.albums.IncrementPhotoCount(ctx, photo.AlbumID, -1)
	}

	if adapter, err := h.manager.Provider(ctx, photo.Provider); err == nil {
		_ = adapter.DeleteFile(ctx, photo.Path)
		for _, ref := range photo.Thumbnails {
			_ = adapter.DeleteFile(ctx, ref.Path)
		}
	}

	h.writer.NoContent(c)
}

func (h *StorageHandler) createAlbum(c *gin.Context) {
	var album gallery.Album
	if err := c.ShouldBindJSON(&album); err != nil {
		h.writer.BadRequest(c, "malformed album")
		return
	}
	if album.Name == "" {
		h.writer.BadRequest(c, "album name is required")
		return
	}
	if album.Provider == "" {
		album.Provider = upload.DefaultProvider
	}
	if !album.Provider.Valid() {
		h.writer.BadRequest(c, "unknown storage provider")
		return
	}
	if album.StoragePath == "" {
		album.StoragePath = album.Name
	}

	ctx := c.Request.Context()
	if adapter, err := h.manager.Provider(ctx, album.Provider); err == nil {
		if _, err := adapter.CreateFolder(ctx, album.StoragePath, ""); err != nil {
			h.writer.Error(c, err)
			return
		}
	}

	if err := h.albums.Create(ctx, &album); err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Created(c, album)
}

func (h *StorageHandler) listAlbums(c *gin.Context) {
	albums, err := h.albums.List(c.Request.Context())
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, albums)
}

func (h *StorageHandler) listAlbumPhotos(c *gin.Context) {
	photos, err := h.photos.ListByAlbum(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, photos)
}

func (h *StorageHandler) listConfigs(c *gin.Context) {
	cfgs, err := h.settings.GetAllConfigs(c.Request.Context())
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, cfgs)
}

func (h *StorageHandler) updateConfig(c *gin.Context) {
	providerID := api.ProviderID(c.Param("provider"))
	if !providerID.Valid() {
		h.writer.BadRequest(c, "unknown storage provider")
		return
	}

	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writer.BadRequest(c, "malformed config patch")
		return
	}

	if err := h.settings.UpdateConfig(c.Request.Context(), providerID, patch); err != nil {
		h.writer.Error(c, err)
		return
	}
	h.manager.Invalidate(providerID)
	h.writer.NoContent(c)
}

func (h *StorageHandler) upsertConfigs(c *gin.Context) {
	var cfgs []config.ProviderConfig
	if err := c.ShouldBindJSON(&cfgs); err != nil {
		h.writer.BadRequest(c, "malformed configs")
		return
	}
	for _, cfg := range cfgs {
		if !cfg.Provider.Valid() {
			h.writer.BadRequest(c, "unknown storage provider: "+string(cfg.Provider))
			return
		}
	}

	if err := h.settings.UpsertConfigs(c.Request.Context(), cfgs); err != nil {
		h.writer.Error(c, err)
		return
	}
	h.manager.InvalidateAll()
	h.writer.NoContent(c)
}

func (h *StorageHandler) validateConfig(c *gin.Context) {
	providerID := api.ProviderID(c.Param("provider"))
	if !providerID.Valid() {
		h.writer.BadRequest(c, "unknown storage provider")
		return
	}
	h.writer.Success(c, h.settings.ValidateConfig(c.Request.Context(), providerID))
}

func (h *StorageHandler) testConnection(c *gin.Context) {
	providerID := api.ProviderID(c.Param("provider"))
	if !providerID.Valid() {
		h.writer.BadRequest(c, "unknown storage provider")
		return
	}

	ok, err := h.manager.TestConnection(c.Request.Context(), providerID)
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, gin.H{"provider": providerID, "connected": ok})
}

// invalidateCaches drops cached configs and built adapters so the next
// operation re-reads the store. Needed after the config documents are
// edited out of band, e.g. by another instance sharing the database.
func (h *StorageHandler) invalidateCaches(c *gin.Context) {
	h.settings.InvalidateCache()
	h.manager.InvalidateAll()
	h.writer.NoContent(c)
}

func (h *StorageHandler) activeProviders(c *gin.Context) {
	active, err := h.settings.ActiveProviders(c.Request.Context())
	if err != nil {
		h.writer.Error(c, err)
		return
	}
	h.writer.Success(c, gin.H{"providers": active})
}
