package gallery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenpix/photostore/database"
	"github.com/lumenpix/photostore/imaging"
	"github.com/lumenpix/photostore/storage/api"
)

const createGalleryTables = `
CREATE TABLE IF NOT EXISTS albums (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	provider_id  TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	photo_count  INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS photos (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	album_id       TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	uploaded_by    TEXT NOT NULL,
	uploaded_at    TIMESTAMP NOT NULL,
	provider_id    TEXT NOT NULL,
	storage_path   TEXT NOT NULL,
	file_id        TEXT NOT NULL DEFAULT '',
	url            TEXT NOT NULL,
	size           INTEGER NOT NULL DEFAULT 0,
	mime_type      TEXT NOT NULL DEFAULT '',
	width          INTEGER NOT NULL DEFAULT 0,
	height         INTEGER NOT NULL DEFAULT 0,
	orientation    TEXT NOT NULL DEFAULT '',
	thumbnails     TEXT NOT NULL DEFAULT '{}',
	thumbnail_path TEXT NOT NULL DEFAULT '',
	blur_data_url  TEXT NOT NULL DEFAULT '',
	exif           TEXT NOT NULL DEFAULT 'null'
);
CREATE INDEX IF NOT EXISTS idx_photos_album ON photos (album_id);
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
)`

// SQLStore backs the catalog with one relational schema. Structured fields
// (tags, thumbnails, EXIF) live in JSON columns so the schema tracks the
// document shape the API serves. The typed accessors hand out views that
// satisfy the store interfaces.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Init creates the catalog tables if they do not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createGalleryTables)
	return database.WrapError("init gallery tables", err)
}

func (s *SQLStore) Albums() AlbumStore { return &albumSQL{db: s.db} }
func (s *SQLStore) Photos() PhotoStore { return &photoSQL{db: s.db} }
func (s *SQLStore) Users() UserStore   { return &userSQL{db: s.db} }

type albumSQL struct {
	db *sql.DB
}

var _ AlbumStore = (*albumSQL)(nil)

func (s *albumSQL) Get(ctx context.Context, id string) (*Album, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, provider_id, storage_path, photo_count, created_at, updated_at
		 FROM albums WHERE id = ?`, id)

	album, err := scanAlbum(row)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, database.WrapError("get album", err)
	}
	return album, nil
}

func (s *albumSQL) Create(ctx context.Context, album *Album) error {
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if album.CreatedAt.IsZero() {
		album.CreatedAt = now
	}
	album.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO albums (id, name, description, provider_id, storage_path, photo_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		album.ID, album.Name, album.Description, string(album.Provider),
		album.StoragePath, album.PhotoCount, album.CreatedAt, album.UpdatedAt)
	return database.WrapError("create album", err)
}

func (s *albumSQL) List(ctx context.Context) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, provider_id, storage_path, photo_count, created_at, updated_at
		 FROM albums ORDER BY created_at`)
	if err != nil {
		return nil, database.WrapError("list albums", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, database.WrapError("scan album", err)
		}
		albums = append(albums, *album)
	}
	return albums, database.WrapError("list albums", rows.Err())
}

func (s *albumSQL) IncrementPhotoCount(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE albums SET photo_count = photo_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id)
	if err != nil {
		return database.WrapError("increment photo count", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return database.WrapError("increment photo count", err)
	}
	if affected == 0 {
		return fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	return nil
}

const photoColumns = `id, title, description, album_id, tags, uploaded_by, uploaded_at,
	provider_id, storage_path, file_id, url, size, mime_type,
	width, height, orientation, thumbnails, thumbnail_path, blur_data_url, exif`

type photoSQL struct {
	db *sql.DB
}

var _ PhotoStore = (*photoSQL)(nil)

func (s *photoSQL) Insert(ctx context.Context, photo *Photo) error {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.UploadedAt.IsZero() {
		photo.UploadedAt = time.Now().UTC()
	}

	tags, err := json.Marshal(photo.Tags)
	if err != nil {
		return database.WrapError("encode tags", err)
	}
	thumbs, err := json.Marshal(photo.Thumbnails)
	if err != nil {
		return database.WrapError("encode thumbnails", err)
	}
	exifJSON, err := json.Marshal(photo.EXIF)
	if err != nil {
		return database.WrapError("encode exif", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO photos (`+photoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.Title, photo.Description, photo.AlbumID, string(tags),
		photo.UploadedBy, photo.UploadedAt, string(photo.Provider), photo.Path,
		photo.FileID, photo.URL, photo.Size, photo.MimeType,
		photo.Width, photo.Height, string(photo.Orientation),
		string(thumbs), photo.ThumbnailPath, photo.BlurDataURL, string(exifJSON))
	return database.WrapError("insert photo", err)
}

func (s *photoSQL) Get(ctx context.Context, id string) (*Photo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)

	photo, err := scanPhoto(row)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, database.WrapError("get photo", err)
	}
	return photo, nil
}

func (s *photoSQL) ListByAlbum(ctx context.Context, albumID string) ([]Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE album_id = ? ORDER BY uploaded_at`, albumID)
	if err != nil {
		return nil, database.WrapError("list photos", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, database.WrapError("scan photo", err)
		}
		photos = append(photos, *photo)
	}
	return photos, database.WrapError("list photos", rows.Err())
}

func (s *photoSQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return database.WrapError("delete photo", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return database.WrapError("delete photo", err)
	}
	if affected == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}

type userSQL struct {
	db *sql.DB
}

var _ UserStore = (*userSQL)(nil)

func (s *userSQL) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE username = ?`, username)

	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, database.WrapError("find user", err)
	}
	return &user, nil
}

func (s *userSQL) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.CreatedAt)
	return database.WrapError("create user", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row rowScanner) (*Album, error) {
	var (
		album    Album
		provider string
	)
	err := row.Scan(&album.ID, &album.Name, &album.Description, &provider,
		&album.StoragePath, &album.PhotoCount, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return nil, err
	}
	album.Provider = api.ProviderID(provider)
	return &album, nil
}

func scanPhoto(row rowScanner) (*Photo, error) {
	var (
		photo       Photo
		provider    string
		orientation string
		tags        string
		thumbs      string
		exifJSON    string
	)
	err := row.Scan(&photo.ID, &photo.Title, &photo.Description, &photo.AlbumID, &tags,
		&photo.UploadedBy, &photo.UploadedAt, &provider, &photo.Path,
		&photo.FileID, &photo.URL, &photo.Size, &photo.MimeType,
		&photo.Width, &photo.Height, &orientation,
		&thumbs, &photo.ThumbnailPath, &photo.BlurDataURL, &exifJSON)
	if err != nil {
		return nil, err
	}
	photo.Provider = api.ProviderID(provider)
	photo.Orientation = imaging.Orientation(orientation)
	if err := json.Unmarshal([]byte(tags), &photo.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", photo.ID, err)
	}
	if err := json.Unmarshal([]byte(thumbs), &photo.Thumbnails); err != nil {
		return nil, fmt.Errorf("decode thumbnails for %s: %w", photo.ID, err)
	}
	if err := json.Unmarshal([]byte(exifJSON), &photo.EXIF); err != nil {
		return nil, fmt.Errorf("decode exif for %s: %w", photo.ID, err)
	}
	return &photo, nil
}
