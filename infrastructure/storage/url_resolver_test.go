package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURLResolver(t *testing.T) {
	resolver := NewPublicURLResolver(URLConfig{
		PublicBaseURL: "https://proj.supabase.co/storage/v1/object/public/",
		Bucket:        "event-photos",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "ev1/u1/123-abcd-photo.jpg", "https://proj.supabase.co/storage/v1/object/public/event-photos/ev1/u1/123-abcd-photo.jpg"},
		{"leading slash", "/ev1/a.jpg", "https://proj.supabase.co/storage/v1/object/public/event-photos/ev1/a.jpg"},
		{"spaces escaped", "ev1/WhatsApp Image.jpeg", "https://proj.supabase.co/storage/v1/object/public/event-photos/ev1/WhatsApp%20Image.jpeg"},
		{"absolute url kept", "https://cdn.example.com/x.jpg", "https://cdn.example.com/x.jpg"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.PublicURL(tt.path))
		})
	}
}

func TestPublicURLResolver_NoBaseURL(t *testing.T) {
	resolver := NewPublicURLResolver(URLConfig{Bucket: "event-photos"})

	assert.Empty(t, resolver.PublicURL("ev1/a.jpg"))
	assert.Equal(t, "http://cdn/x.jpg", resolver.PublicURL("http://cdn/x.jpg"))
}
