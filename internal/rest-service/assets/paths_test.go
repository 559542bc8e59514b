package assets

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		description string
		dir         string
		path        string
		legacy      bool
		expected    string
	}{
		{"empty stays empty", "ebrochures", "", true, ""},
		{"remote url untouched", "ebrochures", "https://cdn.example.com/a.pdf", true, "https://cdn.example.com/a.pdf"},
		{"leading slash stripped", "gallery", "/uploads/gallery/a.jpg", false, "uploads/gallery/a.jpg"},
		{"canonical path kept", "gallery", "uploads/gallery/a.jpg", false, "uploads/gallery/a.jpg"},
		{"non legacy bare name kept", "gallery", "a.jpg", false, "a.jpg"},
		{"legacy bare name", "ebrochures", "brochure.pdf", true, "uploads/ebrochures/brochure.pdf"},
		{"legacy upload root", "ebrochures", "/uploads/brochure.pdf", true, "uploads/ebrochures/brochure.pdf"},
		{"legacy canonical", "ebrochures", "/uploads/ebrochures/brochure.pdf", true, "uploads/ebrochures/brochure.pdf"},
		{"legacy other dir", "ebrochures", "uploads/images/cover.png", true, "uploads/ebrochures/images/cover.png"},
		{"legacy dated subdir", "ebrochures", "uploads/2023/brochure.pdf", true, "uploads/ebrochures/2023/brochure.pdf"},
		{"legacy relative path", "ebrochures", "images/brochure.pdf", true, "uploads/ebrochures/images/brochure.pdf"},
		{"legacy nested upload root kept", "ebrochures", "static/uploads/brochure.pdf", true, "static/uploads/brochure.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.dir, tt.path, tt.legacy))
		})
	}
}

func TestKeyFromPath(t *testing.T) {
	tests := []struct {
		path  string
		key   string
		found bool
	}{
		{"uploads/gallery/a.jpg", "gallery/a.jpg", true},
		{"/uploads/gallery/a.jpg", "gallery/a.jpg", true},
		{"http://example.com/uploads/gallery/a.jpg", "", false},
		{"gallery/a.jpg", "", false},
		{"uploads/../etc/passwd", "", false},
		{"uploads/.staging/abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, found := KeyFromPath(tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestNewName(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{13}-[0-9a-f]{8}-[a-zA-Z0-9._-]+$`)
	tests := []struct {
		original string
		suffix   string
	}{
		{"photo.JPG", "-photo.jpg"},
		{"my brochure (final).pdf", "-my-brochure-final.pdf"},
		{"../../etc/passwd", "-passwd"},
		{"C:\\Users\\me\\car.png", "-car.png"},
		{".png", "-file.png"},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name := NewName(tt.original)
			assert.Regexp(t, pattern, name)
			assert.Truef(t, len(name) > len(tt.suffix) && name[len(name)-len(tt.suffix):] == tt.suffix,
				"%s should end with %s", name, tt.suffix)
		})
	}
	assert.NotEqual(t, NewName("a.jpg"), NewName("a.jpg"))
}
