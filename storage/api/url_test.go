package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeURL(t *testing.T) {
	assert.Equal(t,
		"/api/storage/serve/local/albums/beach/img.jpg",
		ServeURL(ProviderLocal, "albums/beach/img.jpg"))

	assert.Equal(t,
		"/api/storage/serve/google-drive/summer%20trip/photo%201.jpg",
		ServeURL(ProviderGoogleDrive, "summer trip/photo 1.jpg"))
}

func TestEncodePath_RoundTrip(t *testing.T) {
	paths := []string{
		"plain/path/file.jpg",
		"with spaces/and more spaces.png",
		"percent%sign/file.jpg",
		"unicode/ü日本.jpg",
		"single.jpg",
	}
	for _, p := range paths {
		encoded := EncodePath(p)
		decoded, err := DecodePath(encoded)
		require.NoError(t, err, p)
		assert.Equal(t, p, decoded)
	}
}

func TestEncodePath_PreservesSeparators(t *testing.T) {
	assert.Equal(t, "a%20b/c%20d", EncodePath("a b/c d"))
	assert.Equal(t, "a/b", EncodePath("/a/b/"), "surrounding slashes are not part of the logical path")
}

func TestDecodePath_Malformed(t *testing.T) {
	_, err := DecodePath("bad%zz")
	assert.Error(t, err)
}

func TestOperationError(t *testing.T) {
	err := OpError(ProviderAwsS3, "stat", ErrFileNotFound)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "aws-s3")
	assert.Contains(t, err.Error(), "stat")

	assert.Nil(t, OpError(ProviderAwsS3, "stat", nil))
}

func TestUnavailableError(t *testing.T) {
	var err error = &UnavailableError{Provider: ProviderMinio, Reason: "provider is disabled"}
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "minio")
	assert.False(t, IsUnavailable(errors.New("other")))
}

func TestProviderID_Valid(t *testing.T) {
	for _, p := range AllProviders() {
		assert.True(t, p.Valid())
	}
	assert.False(t, ProviderID("dropbox").Valid())
	assert.False(t, ProviderID("").Valid())
}
