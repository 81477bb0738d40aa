package imaging

import "fmt"

// Profile names a compression target: JPEG quality, bounding dimensions,
// and which sibling formats to emit alongside the JPEG.
type Profile struct {
	Name      string
	Quality   int
	MaxWidth  int
	MaxHeight int
	WebP      bool
	AVIF      bool
}

var (
	// ProfileHero is for full-bleed display images.
	ProfileHero = Profile{Name: "hero", Quality: 90, MaxWidth: 1920, MaxHeight: 1080, WebP: true, AVIF: true}

	// ProfileGallery is the default display rendition for uploaded photos.
	ProfileGallery = Profile{Name: "gallery", Quality: 85, MaxWidth: 1200, MaxHeight: 1200, WebP: true, AVIF: true}

	// ProfileThumbnail targets grid cells; AVIF is disabled since encoding
	// cost dwarfs the savings at this size.
	ProfileThumbnail = Profile{Name: "thumbnail", Quality: 75, MaxWidth: 400, MaxHeight: 400, WebP: true}

	// ProfileMobile targets small-screen delivery.
	ProfileMobile = Profile{Name: "mobile", Quality: 70, MaxWidth: 800, MaxHeight: 800, WebP: true}

	// ProfileBandwidth is the aggressive low-bandwidth fallback.
	ProfileBandwidth = Profile{Name: "bandwidth", Quality: 55, MaxWidth: 640, MaxHeight: 640}
)

var profiles = map[string]Profile{
	ProfileHero.Name:      ProfileHero,
	ProfileGallery.Name:   ProfileGallery,
	ProfileThumbnail.Name: ProfileThumbnail,
	ProfileMobile.Name:    ProfileMobile,
	ProfileBandwidth.Name: ProfileBandwidth,
}

// ProfileByName looks up a named compression profile.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown compression profile: %s", name)
	}
	return p, nil
}
