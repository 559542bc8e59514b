package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"

	"github.com/konorlevich/dealership_api/internal/rest-service/cache"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

// Mounter registers the routes of one resource under its group.
type Mounter interface {
	Name() string
	Mount(r gin.IRouter)
}

type crud[T any] struct {
	res      records.Resource[T]
	m        *records.Manager[T]
	cache    cache.Cache
	maxBytes int64
	l        *log.Entry
}

// Bind exposes a manager over HTTP.
func Bind[T any](m *records.Manager[T], deps Deps) Mounter {
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	l := deps.Logger
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return &crud[T]{
		res:      m.Resource(),
		m:        m,
		cache:    c,
		maxBytes: deps.MaxBodyBytes,
		l:        l.WithField("resource", m.Name()),
	}
}

func (h *crud[T]) Name() string {
	return h.res.Name
}

func (h *crud[T]) Mount(r gin.IRouter) {
	r.GET("", h.list)
	r.POST("", h.create)
	r.GET("/:id", h.get)
	r.PUT("/:id", h.update)
	r.DELETE("/:id", h.delete)
	if len(h.res.Slots) > 0 {
		r.DELETE("/:id/assets/:slot", h.removeAsset)
	}
	if len(h.res.Statuses) > 0 {
		r.PATCH("/:id/status", h.setStatus)
	}
	if h.res.SlugColumn != "" {
		r.GET("/slug/:slug", h.bySlug)
	}
	if len(h.res.Facets) > 0 {
		r.GET("/facets/:facet", h.facet)
	}
}

func (h *crud[T]) list(c *gin.Context) {
	q := records.Query{Filters: filters(c, queryPage, queryLimit, querySearch), Search: c.Query(querySearch)}
	var err error
	if q.Page, err = queryInt(c, queryPage); err != nil {
		h.fail(c, err)
		return
	}
	if q.Limit, err = queryInt(c, queryLimit); err != nil {
		h.fail(c, err)
		return
	}
	if q.Limit > database.MaxPageSize {
		q.Limit = database.MaxPageSize
	}
	if q.Limit > 0 && q.Page < 1 {
		q.Page = 1
	}

	h.cached(c, func() (envelope, error) {
		items, total, err := h.m.List(c.Request.Context(), q)
		if err != nil {
			return envelope{}, err
		}
		env := envelope{Success: true, Data: items}
		if q.Limit > 0 {
			env.Meta = newPageMeta(q.Page, q.Limit, total)
		}
		return env, nil
	})
}

func (h *crud[T]) get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cached(c, func() (envelope, error) {
		rec, err := h.m.Get(c.Request.Context(), id)
		return envelope{Success: true, Data: rec}, err
	})
}

func (h *crud[T]) bySlug(c *gin.Context) {
	h.cached(c, func() (envelope, error) {
		rec, err := h.m.GetBySlug(c.Request.Context(), c.Param(paramSlug), filters(c))
		return envelope{Success: true, Data: rec}, err
	})
}

func (h *crud[T]) facet(c *gin.Context) {
	h.cached(c, func() (envelope, error) {
		values, err := h.m.Facet(c.Request.Context(), c.Param(paramFacet), filters(c))
		return envelope{Success: true, Data: values}, err
	})
}

func (h *crud[T]) create(c *gin.Context) {
	rd, err := newRequestData(c, h.res.SlotFields(), h.maxBytes, h.l)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.m.Create(c.Request.Context(), h.binder(c, rd), rd.uploads)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.res.Name)
	success(c, http.StatusCreated, h.message("created"), rec)
}

func (h *crud[T]) update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rd, err := newRequestData(c, h.res.SlotFields(), h.maxBytes, h.l)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.m.Update(c.Request.Context(), id, h.binder(c, rd), rd.uploads)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.res.Name)
	success(c, http.StatusOK, h.message("updated"), rec)
}

func (h *crud[T]) delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.m.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.res.Name)
	success(c, http.StatusOK, h.message("deleted"), nil)
}

type assetRequest struct {
	Path string `json:"path" form:"path"`
}

func (h *crud[T]) removeAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	req := assetRequest{Path: c.Query(queryPath)}
	if req.Path == "" && c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			h.fail(c, bindError(err))
			return
		}
	}
	rec, err := h.m.RemoveAsset(c.Request.Context(), id, c.Param(paramSlot), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.res.Name)
	success(c, http.StatusOK, "File removed successfully", rec)
}

type statusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}

func (h *crud[T]) setStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	rec, err := h.m.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.res.Name)
	success(c, http.StatusOK, "Status updated successfully", rec)
}

// binder copies the request body onto a record. List fields are read from the
// raw form since they arrive as JSON strings or repeated values.
func (h *crud[T]) binder(c *gin.Context, rd *requestData) records.Apply[T] {
	return func(rec *T) error {
		if c.ContentType() == binding.MIMEJSON {
			if err := binding.JSON.BindBody(rd.body, rec); err != nil {
				return bindError(err)
			}
			return nil
		}
		if err := c.ShouldBindWith(rec, binding.Form); err != nil {
			return bindError(err)
		}
		for _, l := range h.res.Lists {
			if vals, ok := rd.form[l.Field]; ok {
				*l.Ref(rec) = records.ParseList(vals)
			}
		}
		return nil
	}
}

// cached serves GET responses from the cache, rendering and storing them on a
// miss.
func (h *crud[T]) cached(c *gin.Context, load func() (envelope, error)) {
	ctx := c.Request.Context()
	key := c.Request.URL.RequestURI()
	if body, ok := h.cache.Get(ctx, h.res.Name, key); ok {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, binding.MIMEJSON+"; charset=utf-8", body)
		return
	}
	env, err := load()
	if err != nil {
		h.fail(c, err)
		return
	}
	body, err := json.Marshal(env)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Set(ctx, h.res.Name, key, body)
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, binding.MIMEJSON+"; charset=utf-8", body)
}

func (h *crud[T]) fail(c *gin.Context, err error) {
	status, _, _ := classify(h.res.Noun, err)
	l := h.l.WithFields(log.Fields{"method": c.Request.Method, "path": c.Request.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		l.WithError(err).Error("request failed")
	} else {
		l.WithError(err).Debug("request rejected")
	}
	failure(c, h.res.Noun, err)
}

func (h *crud[T]) message(action string) string {
	noun := h.res.Noun
	if noun == "" {
		return "Record " + action + " successfully"
	}
	return capitalize(noun) + " " + action + " successfully"
}

// filters collects the query parameters used to narrow a read.
func filters(c *gin.Context, skip ...string) map[string]string {
	out := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if slices.Contains(skip, k) {
			continue
		}
		if len(v) > 0 && v[0] != "" {
			out[k] = v[0]
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
