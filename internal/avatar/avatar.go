// Package avatar resolves a display avatar for a username. The core only
// stores and forwards the URL; the image service behind it is external.
package avatar

import (
	"fmt"
	"net/url"
	"os"
)

const defaultBaseURL = "https://api.dicebear.com/7.x/adventurer/svg"

// Resolver builds deterministic avatar URLs seeded by username.
type Resolver struct {
	baseURL string
}

// NewResolver reads the avatar service base URL from AVATAR_BASE_URL,
// falling back to the public DiceBear endpoint.
func NewResolver() *Resolver {
	baseURL := os.Getenv("AVATAR_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Resolver{baseURL: baseURL}
}

// AvatarFor returns the avatar URL for a username.
func (r *Resolver) AvatarFor(username string) string {
	return fmt.Sprintf("%s?seed=%s", r.baseURL, url.QueryEscape(username))
}
