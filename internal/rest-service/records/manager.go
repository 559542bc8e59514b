package records

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
)

const (
	fileParallelism = 4
	batchSize       = 200
)

// Cleaner removes files that are no longer referenced. Failures are not
// reported back, a file that could not be removed stays as an orphan.
type Cleaner interface {
	Discard(ctx context.Context, resource string, paths ...string)
}

type Deps struct {
	DB      *gorm.DB
	Store   assets.Store
	Cleaner Cleaner
	Logger  *log.Entry
}

// Apply copies request fields onto a record.
type Apply[T any] func(rec *T) error

type Query struct {
	Filters map[string]string
	Search  string
	Page    int
	Limit   int
}

// Manager keeps the rows of one resource and the files they reference in step.
type Manager[T any] struct {
	res     Resource[T]
	db      *gorm.DB
	store   assets.Store
	cleaner Cleaner
	l       *log.Entry
}

func NewManager[T any](res Resource[T], deps Deps) *Manager[T] {
	if _, ok := any(new(T)).(Model); !ok {
		panic(fmt.Sprintf("records: %T does not embed records.Base", new(T)))
	}
	if res.Order == "" {
		res.Order = "id DESC"
	}
	if res.Noun == "" {
		res.Noun = "record"
	}
	l := deps.Logger
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return &Manager[T]{
		res:     res,
		db:      deps.DB,
		store:   deps.Store,
		cleaner: deps.Cleaner,
		l:       l.WithField("resource", res.Name),
	}
}

func (m *Manager[T]) Name() string {
	return m.res.Name
}

func (m *Manager[T]) Resource() Resource[T] {
	return m.res
}

func (m *Manager[T]) Create(ctx context.Context, apply Apply[T], up Uploads) (*T, error) {
	rec := new(T)
	if err := m.apply(rec, apply); err != nil {
		return nil, err
	}
	*meta(rec) = Base{}
	for _, s := range m.res.Slots {
		s.set(rec, nil)
	}
	if err := m.checkFiles(up); err != nil {
		return nil, err
	}
	for _, s := range m.res.Slots {
		if s.Required && len(up.For(s.Field)) == 0 {
			return nil, Invalid(s.Field, "file is required")
		}
	}
	m.describe(rec, up)
	if err := m.prepare(rec); err != nil {
		return nil, err
	}

	st, err := m.stage(ctx, up.Files)
	if err != nil {
		return nil, err
	}
	for _, s := range m.res.Slots {
		s.set(rec, stagedPaths(st, s.Field))
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return m.persistence(err, "can't insert record")
		}
		return m.promote(ctx, st)
	})
	if err != nil {
		m.unstage(ctx, st)
		return nil, m.fail(err)
	}
	m.l.WithField("id", meta(rec).ID).Info("record created")
	m.present(rec)
	return rec, nil
}

func (m *Manager[T]) Update(ctx context.Context, id uint, apply Apply[T], up Uploads) (*T, error) {
	if err := m.checkFiles(up); err != nil {
		return nil, err
	}

	var (
		st    []*staged
		stale []string
	)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := m.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		next := new(T)
		if m.res.Mode == Preserve {
			*next = *cur
		}
		if err := m.apply(next, apply); err != nil {
			return err
		}
		*meta(next) = *meta(cur)
		for _, s := range m.res.Slots {
			s.set(next, s.get(cur))
		}
		m.describe(next, up)
		if err := m.prepare(next); err != nil {
			return err
		}

		if st, err = m.stage(ctx, up.Files); err != nil {
			return err
		}
		if stale, err = m.merge(cur, next, up, st); err != nil {
			return err
		}
		if err := tx.Select("*").Omit("id", "created_at").Updates(next).Error; err != nil {
			return m.persistence(err, "can't update record")
		}
		return m.promote(ctx, st)
	})
	if err != nil {
		m.unstage(ctx, st)
		return nil, m.fail(err)
	}
	m.l.WithField("id", id).Info("record updated")
	m.discard(ctx, stale)
	return m.Get(ctx, id)
}

// Delete removes the row first and its files after the commit.
func (m *Manager[T]) Delete(ctx context.Context, id uint) error {
	var paths []string
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := m.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		paths = m.assetPaths(cur)
		res := tx.Delete(cur)
		if res.Error != nil {
			return m.persistence(res.Error, "can't delete record")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return m.fail(err)
	}
	m.l.WithField("id", id).Info("record deleted")
	m.discard(ctx, paths)
	return nil
}

// RemoveAsset drops one file from a slot. For multi-file slots p selects the
// file, for single slots it may be empty.
func (m *Manager[T]) RemoveAsset(ctx context.Context, id uint, field, p string) (*T, error) {
	s, ok := m.res.slot(field)
	if !ok {
		return nil, Invalid(field, "unknown file field")
	}
	if s.Multiple && p == "" {
		return nil, Invalid(field, "path is required")
	}

	var stale []string
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := m.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		current := s.get(cur)
		idx := -1
		for i, c := range current {
			if p == "" || s.normalize(c) == s.normalize(p) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		kept := slices.Delete(slices.Clone(current), idx, idx+1)
		if s.Required && len(kept) == 0 {
			return Invalid(field, "file is required")
		}
		stale = []string{s.normalize(current[idx])}
		s.set(cur, kept)
		if err := tx.Model(cur).Select(s.Field).Updates(cur).Error; err != nil {
			return m.persistence(err, "can't update record")
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(err)
	}
	m.discard(ctx, stale)
	return m.Get(ctx, id)
}

func (m *Manager[T]) SetStatus(ctx context.Context, id uint, status string) (*T, error) {
	if len(m.res.Statuses) == 0 {
		return nil, ErrNotFound
	}
	if !slices.Contains(m.res.Statuses, status) {
		return nil, Invalid("status", "must be one of: %s", strings.Join(m.res.Statuses, ", "))
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := m.find(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		if err := tx.Model(cur).Update("status", status).Error; err != nil {
			return m.persistence(err, "can't update status")
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(err)
	}
	return m.Get(ctx, id)
}

func (m *Manager[T]) Get(ctx context.Context, id uint) (*T, error) {
	rec, err := m.find(m.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	m.present(rec)
	return rec, nil
}

// GetBySlug finds a record by its slug, case-insensitively. Filters narrow the
// lookup for tables where a slug is unique per group only.
func (m *Manager[T]) GetBySlug(ctx context.Context, slug string, filters map[string]string) (*T, error) {
	if m.res.SlugColumn == "" {
		return nil, ErrNotFound
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	rec := new(T)
	err := m.where(m.db.WithContext(ctx), Query{Filters: filters}).
		Where(clause.Expr{SQL: "LOWER(?) = ?", Vars: []any{clause.Column{Name: m.res.SlugColumn}, slug}}).
		First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, m.persistence(err, "can't load record by slug")
	}
	m.present(rec)
	return rec, nil
}

// List returns one page of records and the number of records matching q.
func (m *Manager[T]) List(ctx context.Context, q Query) ([]T, int64, error) {
	base := m.where(m.db.WithContext(ctx).Model(new(T)), q).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, m.persistence(err, "can't count records")
	}
	items := []T{}
	if err := base.Order(m.res.Order).Scopes(database.Paginate(q.Page, q.Limit)).Find(&items).Error; err != nil {
		return nil, 0, m.persistence(err, "can't list records")
	}
	for i := range items {
		m.present(&items[i])
	}
	return items, total, nil
}

// Facet returns the distinct non-empty values of a facet column.
func (m *Manager[T]) Facet(ctx context.Context, name string, filters map[string]string) ([]string, error) {
	col, ok := m.res.Facets[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := []string{}
	err := m.where(m.db.WithContext(ctx).Model(new(T)), Query{Filters: filters}).
		Where(clause.Neq{Column: clause.Column{Name: col}, Value: ""}).
		Order(col).
		Distinct().
		Pluck(col, &out).Error
	if err != nil {
		return nil, m.persistence(err, "can't load facet")
	}
	return out, nil
}

// ReferencedPaths lists every stored path referenced by the table.
func (m *Manager[T]) ReferencedPaths(ctx context.Context) ([]string, error) {
	if len(m.res.Slots) == 0 {
		return nil, nil
	}
	var (
		out   []string
		batch []T
	)
	err := m.db.WithContext(ctx).Model(new(T)).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			out = append(out, m.assetPaths(&batch[i])...)
		}
		return nil
	}).Error
	if err != nil {
		return nil, m.persistence(err, "can't scan records")
	}
	return out, nil
}

// NormalizePaths rewrites stored paths and refreshed values to their canonical
// form and returns the number of changed rows.
func (m *Manager[T]) NormalizePaths(ctx context.Context) (int, error) {
	if len(m.res.Slots) == 0 && m.res.Refresh == nil {
		return 0, nil
	}
	var (
		changed int
		batch   []T
	)
	err := m.db.WithContext(ctx).Model(new(T)).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			rec := &batch[i]
			var cols []string
			for _, s := range m.res.Slots {
				cur := s.get(rec)
				norm := make([]string, len(cur))
				for j, p := range cur {
					norm[j] = s.normalize(p)
				}
				if !slices.Equal(cur, norm) {
					s.set(rec, norm)
					cols = append(cols, s.Field)
				}
			}
			if m.res.Refresh != nil {
				cols = append(cols, m.res.Refresh(rec)...)
			}
			if len(cols) == 0 {
				continue
			}
			if err := m.db.WithContext(ctx).Model(rec).Select(cols).UpdateColumns(rec).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	}).Error
	if err != nil {
		return changed, m.persistence(err, "can't normalize paths")
	}
	if changed > 0 {
		m.l.WithField("rows", changed).Info("stored paths normalized")
	}
	return changed, nil
}

func meta(rec any) *Base {
	return rec.(Model).Meta()
}

func (m *Manager[T]) apply(rec *T, apply Apply[T]) error {
	if apply == nil {
		return nil
	}
	return asValidation(apply(rec))
}

func (m *Manager[T]) prepare(rec *T) error {
	if m.res.Prepare == nil {
		return nil
	}
	return asValidation(m.res.Prepare(rec))
}

func asValidation(err error) error {
	if err == nil || errors.Is(err, ErrValidation) {
		return err
	}
	return &ValidationError{Reason: err.Error()}
}

func (m *Manager[T]) describe(rec *T, up Uploads) {
	for _, s := range m.res.Slots {
		if s.Describe == nil {
			continue
		}
		if files := up.For(s.Field); len(files) > 0 {
			s.Describe(rec, files[0])
		}
	}
}

func (m *Manager[T]) checkFiles(up Uploads) error {
	counts := map[string]int{}
	for _, f := range up.Files {
		s, ok := m.res.slot(f.Field)
		if !ok {
			return Invalid(f.Field, "unexpected file")
		}
		if !s.accepts(f.Filename) {
			return Invalid(f.Field, "file type of %q is not allowed, expected %s", f.Filename, strings.Join(s.Accept, ", "))
		}
		counts[f.Field]++
		if s.Max > 0 && counts[f.Field] > s.Max {
			return Invalid(f.Field, "at most %d files allowed", s.Max)
		}
	}
	return nil
}

// merge computes the new slot values of next and returns the stored paths
// that are no longer referenced.
func (m *Manager[T]) merge(cur, next *T, up Uploads, st []*staged) ([]string, error) {
	var stale []string
	for _, s := range m.res.Slots {
		current := s.get(cur)
		added := stagedPaths(st, s.Field)

		var kept []string
		switch {
		case up.Remove[s.Field]:
		case !s.Multiple && len(added) > 0:
		case s.Multiple:
			if keep, ok := up.Keep[s.Field]; ok {
				kept = m.keep(s, current, keep)
			} else {
				kept = current
			}
		default:
			kept = current
		}

		final := slices.Concat(kept, added)
		if s.Multiple && s.Max > 0 && len(final) > s.Max {
			return nil, Invalid(s.Field, "at most %d files allowed", s.Max)
		}
		if s.Required && len(final) == 0 {
			return nil, Invalid(s.Field, "file is required")
		}
		s.set(next, final)
		for _, p := range current {
			if !slices.Contains(kept, p) {
				stale = append(stale, s.normalize(p))
			}
		}
	}
	return stale, nil
}

// keep returns the current paths listed in keep, in stored order. Paths the
// record does not reference are ignored.
func (m *Manager[T]) keep(s Slot[T], current, keep []string) []string {
	want := make(map[string]bool, len(keep))
	for _, k := range keep {
		want[s.normalize(k)] = true
	}
	var kept []string
	for _, p := range current {
		if want[s.normalize(p)] {
			kept = append(kept, p)
		}
	}
	return kept
}

func (m *Manager[T]) assetPaths(rec *T) []string {
	var out []string
	for _, s := range m.res.Slots {
		for _, p := range s.get(rec) {
			out = append(out, s.normalize(p))
		}
	}
	return out
}

// present puts stored values into their canonical form for reading.
func (m *Manager[T]) present(rec *T) {
	if m.res.Refresh != nil {
		m.res.Refresh(rec)
	}
	for _, s := range m.res.Slots {
		if s.Multiple {
			l := s.multi(rec)
			if *l == nil {
				*l = StringList{}
			}
			for i := range *l {
				(*l)[i] = s.normalize((*l)[i])
			}
			continue
		}
		if p := s.single(rec); *p != nil {
			n := s.normalize(**p)
			*p = &n
		}
	}
}

func (m *Manager[T]) find(tx *gorm.DB, id uint) (*T, error) {
	rec := new(T)
	err := tx.First(rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, m.persistence(err, "can't load record")
	}
	return rec, nil
}

func (m *Manager[T]) where(tx *gorm.DB, q Query) *gorm.DB {
	for col, val := range q.Filters {
		if slices.Contains(m.res.Filters, col) {
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: val})
		}
	}
	search := strings.TrimSpace(q.Search)
	if search == "" || len(m.res.Search) == 0 {
		return tx
	}
	pattern := "%" + strings.ToLower(search) + "%"
	exprs := make([]clause.Expression, 0, len(m.res.Search))
	for _, col := range m.res.Search {
		exprs = append(exprs, clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{clause.Column{Name: col}, pattern}})
	}
	return tx.Where(clause.Or(exprs...))
}

func (m *Manager[T]) persistence(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Invalid("", "%s already exists", m.res.Noun)
	}
	m.l.WithError(err).Error(msg)
	return ErrPersistence
}

func (m *Manager[T]) fail(err error) error {
	if known(err) {
		return err
	}
	m.l.WithError(err).Error(ErrPersistence)
	return ErrPersistence
}

func (m *Manager[T]) discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if m.cleaner == nil {
		m.l.WithField("paths", paths).Warn("no cleaner configured, files left in place")
		return
	}
	m.cleaner.Discard(context.WithoutCancel(ctx), m.res.Name, paths...)
}

type staged struct {
	field    string
	token    string
	key      string
	promoted bool
}

func stagedPaths(st []*staged, field string) []string {
	var out []string
	for _, s := range st {
		if s.field == field {
			out = append(out, assets.PathFor(s.key))
		}
	}
	return out
}

func (m *Manager[T]) stage(ctx context.Context, files []Upload) ([]*staged, error) {
	if len(files) == 0 {
		return nil, nil
	}
	out := make([]*staged, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileParallelism)
	for i, f := range files {
		s, _ := m.res.slot(f.Field)
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			token, err := m.store.Stage(gctx, rc, f.Size)
			if err != nil {
				return err
			}
			out[i] = &staged{field: f.Field, token: token, key: assets.Key(s.Dir, assets.NewName(f.Filename))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.l.WithError(err).Error(ErrStorage)
		m.unstage(ctx, out)
		return nil, ErrStorage
	}
	return out, nil
}

func (m *Manager[T]) promote(ctx context.Context, st []*staged) error {
	if len(st) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileParallelism)
	for _, s := range st {
		g.Go(func() error {
			if err := m.store.Promote(gctx, s.token, s.key); err != nil {
				return err
			}
			s.promoted = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.l.WithError(err).Error(ErrStorage)
		return ErrStorage
	}
	return nil
}

// unstage undoes stage and promote after a failed write.
func (m *Manager[T]) unstage(ctx context.Context, st []*staged) {
	ctx = context.WithoutCancel(ctx)
	for _, s := range st {
		if s == nil {
			continue
		}
		var err error
		if s.promoted {
			err = m.store.Remove(ctx, s.key)
		} else {
			err = m.store.Discard(ctx, s.token)
		}
		if err != nil {
			m.l.WithFields(log.Fields{"key": s.key, "token": s.token}).WithError(err).Warn("can't roll back uploaded file")
		}
	}
}
