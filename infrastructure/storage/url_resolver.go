package storage

import (
	"net/url"
	"strings"
)

type URLConfig struct {
	PublicBaseURL string
	Bucket        string
}

// PublicURLResolver maps storage paths to public object URLs of the form
// {base}/{bucket}/{path}
type PublicURLResolver struct {
	baseURL string
	bucket  string
}

func NewPublicURLResolver(config URLConfig) *PublicURLResolver {
	return &PublicURLResolver{
		baseURL: strings.TrimRight(config.PublicBaseURL, "/"),
		bucket:  strings.Trim(config.Bucket, "/"),
	}
}

// PublicURL returns the public URL of storagePath. Absolute URLs are
// returned unchanged; without a base URL nothing can be resolved.
func (r *PublicURLResolver) PublicURL(storagePath string) string {
	if storagePath == "" {
		return ""
	}
	if strings.HasPrefix(storagePath, "http://") || strings.HasPrefix(storagePath, "https://") {
		return storagePath
	}
	if r.baseURL == "" {
		return ""
	}

	segments := strings.Split(strings.TrimLeft(storagePath, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	parts := []string{r.baseURL}
	if r.bucket != "" {
		parts = append(parts, url.PathEscape(r.bucket))
	}
	parts = append(parts, strings.Join(segments, "/"))
	return strings.Join(parts, "/")
}
