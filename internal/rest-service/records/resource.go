package records

import (
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
)

// Base is embedded by every record.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id" form:"-"`
	CreatedAt time.Time `json:"created_at" form:"-"`
	UpdatedAt time.Time `json:"updated_at" form:"-"`
}

func (b *Base) Meta() *Base {
	return b
}

// Model is implemented by pointers to records embedding Base.
type Model interface {
	Meta() *Base
}

type Mode int

const (
	// Replace resets fields missing from the request to their zero value.
	Replace Mode = iota
	// Preserve keeps stored values of fields missing from the request.
	Preserve
)

// Slot is a record field holding one or more stored file paths.
type Slot[T any] struct {
	Field    string
	Dir      string
	Multiple bool
	Max      int
	Required bool
	Accept   []string
	// Legacy slots may hold bare file names written by older clients.
	Legacy bool
	// Describe copies upload metadata onto the record.
	Describe func(rec *T, u Upload)

	single func(*T) **string
	multi  func(*T) *StringList
}

func Single[T any](field, dir string, ref func(*T) **string) Slot[T] {
	return Slot[T]{Field: field, Dir: dir, Max: 1, single: ref}
}

func Multi[T any](field, dir string, max int, ref func(*T) *StringList) Slot[T] {
	return Slot[T]{Field: field, Dir: dir, Multiple: true, Max: max, multi: ref}
}

func (s Slot[T]) Require() Slot[T] {
	s.Required = true
	return s
}

// Accepting limits uploads to the given file extensions.
func (s Slot[T]) Accepting(exts ...string) Slot[T] {
	s.Accept = exts
	return s
}

func (s Slot[T]) LegacyLayout() Slot[T] {
	s.Legacy = true
	return s
}

func (s Slot[T]) Described(fn func(rec *T, u Upload)) Slot[T] {
	s.Describe = fn
	return s
}

func (s Slot[T]) accepts(filename string) bool {
	if len(s.Accept) == 0 {
		return true
	}
	return slices.Contains(s.Accept, strings.ToLower(path.Ext(filename)))
}

func (s Slot[T]) get(rec *T) []string {
	if s.Multiple {
		return slices.Clone(*s.multi(rec))
	}
	if p := *s.single(rec); p != nil && *p != "" {
		return []string{*p}
	}
	return nil
}

func (s Slot[T]) set(rec *T, paths []string) {
	if s.Multiple {
		*s.multi(rec) = append(StringList{}, paths...)
		return
	}
	if len(paths) == 0 {
		*s.single(rec) = nil
		return
	}
	p := paths[0]
	*s.single(rec) = &p
}

func (s Slot[T]) normalize(p string) string {
	return assets.Normalize(s.Dir, p, s.Legacy)
}

// List is a JSON array field filled from a form value.
type List[T any] struct {
	Field string
	Ref   func(*T) *StringList
}

// Resource describes one table and how it is exposed.
type Resource[T any] struct {
	Name string
	Noun string
	Mode Mode

	Slots []Slot[T]
	Lists []List[T]

	Order      string
	Filters    []string
	Search     []string
	Facets     map[string]string
	SlugColumn string
	Statuses   []string

	// Prepare derives and checks fields before the record is written.
	Prepare func(rec *T) error
	// Refresh rewrites values stored by older clients into their current form
	// and returns the changed columns. It runs on every read and in
	// NormalizePaths.
	Refresh func(rec *T) []string
}

func (r Resource[T]) slot(field string) (Slot[T], bool) {
	for _, s := range r.Slots {
		if s.Field == field {
			return s, true
		}
	}
	return Slot[T]{}, false
}

// Dirs lists the storage directories used by the resource.
func (r Resource[T]) Dirs() []string {
	var dirs []string
	for _, s := range r.Slots {
		if !slices.Contains(dirs, s.Dir) {
			dirs = append(dirs, s.Dir)
		}
	}
	return dirs
}

func (r Resource[T]) SlotFields() []string {
	fields := make([]string, 0, len(r.Slots))
	for _, s := range r.Slots {
		fields = append(fields, s.Field)
	}
	return fields
}

// Upload is one file received with a request.
type Upload struct {
	Field    string
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Uploads carries the file related parts of a write request.
type Uploads struct {
	Files []Upload
	// Keep lists the current paths of a multi-file slot to retain. A slot
	// without an entry keeps everything.
	Keep map[string][]string
	// Remove clears a slot.
	Remove map[string]bool
}

func (u Uploads) For(field string) []Upload {
	var out []Upload
	for _, f := range u.Files {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}
