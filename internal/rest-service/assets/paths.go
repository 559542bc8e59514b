package assets

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix is the first segment of every stored asset path.
const Prefix = "uploads"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewName returns a collision-resistant file name that keeps the extension
// and a sanitized form of the original base name.
func NewName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(original, "\\", "/")), path.Ext(original))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], base, unsafeChars.ReplaceAllString(ext, ""))
}

// Key is the storage key of a file inside dir.
func Key(dir, name string) string {
	return path.Join(dir, name)
}

// PathFor is the canonical stored path of a key.
func PathFor(key string) string {
	return Prefix + "/" + key
}

func IsRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// KeyFromPath maps a stored path back to its storage key. Remote URLs and paths
// outside the upload root have no key.
func KeyFromPath(p string) (string, bool) {
	if p == "" || IsRemote(p) {
		return "", false
	}
	p = strings.TrimPrefix(p, "/")
	rest, ok := strings.CutPrefix(p, Prefix+"/")
	if !ok {
		return "", false
	}
	if !validKey(rest) {
		return "", false
	}
	return rest, true
}

// Normalize returns the canonical form of a stored path. For legacy slots paths
// under the upload root are moved into dir and relative paths outside it are
// placed below dir, keeping their subdirectories.
func Normalize(dir, p string, legacy bool) string {
	if p == "" || IsRemote(p) {
		return p
	}
	clean := strings.TrimLeft(p, "/")
	if !legacy || strings.HasPrefix(clean, Prefix+"/"+dir+"/") {
		return clean
	}
	if rest, ok := strings.CutPrefix(clean, Prefix+"/"); ok {
		return PathFor(dir + "/" + rest)
	}
	if strings.Contains(clean, Prefix+"/") {
		return clean
	}
	return PathFor(dir + "/" + clean)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return !strings.HasPrefix(key, stagingDir+"/")
}
