package api

import (
	"net/url"
	"strings"
)

// ServeRoutePrefix is the application endpoint that fronts every backend.
// All adapter URLs route through it so one authenticated proxy serves all
// providers regardless of backend access model.
const ServeRoutePrefix = "/api/storage/serve"

// ServeURL builds the application-proxied URL for a stored path.
func ServeURL(provider ProviderID, path string) string {
	return ServeRoutePrefix + "/" + string(provider) + "/" + EncodePath(path)
}

// EncodePath percent-encodes each path segment independently, so folder
// separators survive encoding without corrupting nested paths.
func EncodePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// DecodePath reverses EncodePath segment by segment.
func DecodePath(encoded string) (string, error) {
	segments := strings.Split(strings.Trim(encoded, "/"), "/")
	for i, seg := range segments {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return "", err
		}
		segments[i] = dec
	}
	return strings.Join(segments, "/"), nil
}
