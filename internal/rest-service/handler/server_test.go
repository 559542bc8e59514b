package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konorlevich/dealership_api/internal/config"
	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/cleanup"
	"github.com/konorlevich/dealership_api/internal/rest-service/database"
	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type car struct {
	records.Base
	Title    string             `json:"title" form:"title" binding:"required"`
	Slug     string             `json:"slug" form:"-" gorm:"uniqueIndex"`
	Category string             `json:"category" form:"category"`
	Status   string             `json:"status" form:"-"`
	Features records.StringList `json:"features" form:"-"`
	Cover    *string            `json:"cover" form:"-"`
	Photos   records.StringList `json:"photos" form:"-"`
}

var carResource = records.Resource[car]{
	Name: "cars",
	Noun: "car",
	Mode: records.Preserve,
	Slots: []records.Slot[car]{
		records.Single("cover", "covers", func(c *car) **string { return &c.Cover }).Accepting(".jpg", ".png"),
		records.Multi("photos", "photos", 3, func(c *car) *records.StringList { return &c.Photos }),
	},
	Lists:      []records.List[car]{{Field: "features", Ref: func(c *car) *records.StringList { return &c.Features }}},
	Filters:    []string{"category", "status"},
	Search:     []string{"title"},
	Facets:     map[string]string{"categories": "category"},
	SlugColumn: "slug",
	Statuses:   []string{"New", "Resolved"},
	Prepare: func(c *car) error {
		c.Slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(c.Title), " ", "-"))
		if c.Status == "" {
			c.Status = "New"
		}
		return nil
	},
}

// memCache is an in-memory cache that counts invalidations.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
}

func (m *memCache) Get(_ context.Context, resource, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[resource+key]
	return b, ok
}

func (m *memCache) Set(_ context.Context, resource, key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[resource+key] = body
}

func (m *memCache) Invalidate(_ context.Context, resource string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, resource) {
			delete(m.entries, k)
		}
	}
	m.invalidated++
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *pageMeta       `json:"meta"`
}

type testServer struct {
	engine *gin.Engine
	cache  *memCache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDb(config.DB{
		Driver:   config.DriverSqlite,
		File:     filepath.Join(dir, "test.db"),
		LogLevel: "silent",
	}, getLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db, &car{}))

	store, err := assets.NewLocal(filepath.Join(dir, "uploads"), getLogger())
	require.NoError(t, err)
	require.NoError(t, store.Prepare(context.Background(), carResource.Dirs()...))

	m := records.NewManager(carResource, records.Deps{
		DB:      db,
		Store:   store,
		Cleaner: cleanup.NewDirect(store, getLogger()),
		Logger:  getLogger(),
	})
	mc := &memCache{}
	deps := Deps{DB: db, Store: store, Cache: mc, Logger: getLogger(), MaxBodyBytes: 1 << 20}
	return &testServer{engine: NewHandler(deps, Bind(m, deps)), cache: mc}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	var res response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return rec, res
}

func (s *testServer) create(t *testing.T, values url.Values, files ...formFile) car {
	t.Helper()
	rec, res := s.do(t, createMultipartRequest(http.MethodPost, "/api/cars", values, files...))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c car
	require.NoError(t, json.Unmarshal(res.Data, &c))
	return c
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServer_Service(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		description    string
		target         string
		expectedStatus int
		expectedOk     bool
	}{
		{description: "greeting", target: "/", expectedStatus: http.StatusOK, expectedOk: true},
		{description: "health", target: "/health", expectedStatus: http.StatusOK, expectedOk: true},
		{description: "unknown route", target: "/api/unknown", expectedStatus: http.StatusNotFound},
		{description: "missing upload", target: "/uploads/covers/nope.jpg", expectedStatus: http.StatusNotFound},
		{description: "upload outside the root", target: "/uploads/../test.db", expectedStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			rec, res := s.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedOk, res.Success)
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.create(t,
		url.Values{"title": {"Grand Vitara"}, "category": {"SUV"}, "features": {`["ABS","6 airbags"]`}},
		formFile{"cover", "front.JPG", "front"},
		formFile{"photos", "a.png", "a"},
	)
	require.NotNil(t, created.Cover)
	assert.True(t, strings.HasPrefix(*created.Cover, "uploads/covers/"))
	assert.True(t, strings.HasSuffix(*created.Cover, "-front.jpg"))
	assert.Equal(t, "grand-vitara", created.Slug)
	assert.Equal(t, "New", created.Status)
	assert.Equal(t, records.StringList{"ABS", "6 airbags"}, created.Features)
	require.Len(t, created.Photos, 1)

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/"+*created.Cover, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "front", rec.Body.String())

	target := fmt.Sprintf("/api/cars/%d", created.ID)
	rec, res := s.do(t, createMultipartRequest(http.MethodPut, target,
		url.Values{"category": {"Hybrid"}, "existing_photos": {"[]"}},
		formFile{"cover", "back.png", "back"},
		formFile{"photos", "b.png", "b"},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Car updated successfully", res.Message)
	var updated car
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, "Grand Vitara", updated.Title)
	assert.Equal(t, "Hybrid", updated.Category)
	assert.Equal(t, records.StringList{"ABS", "6 airbags"}, updated.Features)
	require.NotNil(t, updated.Cover)
	assert.NotEqual(t, *created.Cover, *updated.Cover)
	require.Len(t, updated.Photos, 1)
	assert.NotEqual(t, created.Photos[0], updated.Photos[0])

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+*created.Cover, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+created.Photos[0], nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, res = s.do(t, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/assets/photos?path=%s", target, url.QueryEscape(updated.Photos[0])), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var trimmed car
	require.NoError(t, json.Unmarshal(res.Data, &trimmed))
	assert.Empty(t, trimmed.Photos)

	rec, res = s.do(t, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Car deleted successfully", res.Message)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+*updated.Cover, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, res = s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, res.Success)
	assert.Equal(t, "car not found", res.Message)
	assert.Equal(t, codeNotFound, res.Error)
}

func TestServer_JSONSlotChanges(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, url.Values{"title": {"Creta"}},
		formFile{"cover", "front.jpg", "front"},
		formFile{"photos", "a.png", "a"},
		formFile{"photos", "b.png", "b"},
	)
	require.NotNil(t, created.Cover)
	require.Len(t, created.Photos, 2)

	body := fmt.Sprintf(`{"category":"SUV","remove_cover":true,"existing_photos":[%q]}`, created.Photos[1])
	rec, res := s.do(t, jsonRequest(http.MethodPut, fmt.Sprintf("/api/cars/%d", created.ID), body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated car
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, "Creta", updated.Title)
	assert.Equal(t, "SUV", updated.Category)
	assert.Nil(t, updated.Cover)
	assert.Equal(t, records.StringList{created.Photos[1]}, updated.Photos)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+*created.Cover, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+created.Photos[0], nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/"+created.Photos[1], nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Rejects(t *testing.T) {
	s := newTestServer(t)
	existing := s.create(t, url.Values{"title": {"Swift"}})

	tests := []struct {
		description     string
		request         *http.Request
		expectedStatus  int
		expectedMessage string
	}{
		{
			description:     "missing required field",
			request:         createMultipartRequest(http.MethodPost, "/api/cars", url.Values{"category": {"SUV"}}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "title is required",
		},
		{
			description: "file type not accepted",
			request: createMultipartRequest(http.MethodPost, "/api/cars", url.Values{"title": {"Baleno"}},
				formFile{"cover", "virus.exe", "x"}),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "cover",
		},
		{
			description:     "duplicate slug",
			request:         jsonRequest(http.MethodPost, "/api/cars", `{"title":"swift"}`),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "already exists",
		},
		{
			description:     "broken json",
			request:         jsonRequest(http.MethodPost, "/api/cars", `{"title":`),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "can't read request",
		},
		{
			description:     "bad id",
			request:         httptest.NewRequest(http.MethodGet, "/api/cars/abc", nil),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: errInvalidID.Error(),
		},
		{
			description:     "bad limit",
			request:         httptest.NewRequest(http.MethodGet, "/api/cars?limit=ten", nil),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "limit",
		},
		{
			description:     "update of a missing record",
			request:         createMultipartRequest(http.MethodPut, "/api/cars/9999", url.Values{"title": {"X"}}),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "car not found",
		},
		{
			description:     "unknown status",
			request:         jsonRequest(http.MethodPatch, fmt.Sprintf("/api/cars/%d/status", existing.ID), `{"status":"Lost"}`),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "must be one of: New, Resolved",
		},
		{
			description:     "unknown file field",
			request:         httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/cars/%d/assets/brochure", existing.ID), nil),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "unknown file field",
		},
		{
			description:     "unknown facet",
			request:         httptest.NewRequest(http.MethodGet, "/api/cars/facets/colors", nil),
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "car not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			rec, res := s.do(t, tt.request)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			assert.False(t, res.Success)
			assert.Contains(t, res.Message, tt.expectedMessage)
		})
	}
}

func TestServer_Reads(t *testing.T) {
	s := newTestServer(t)
	for _, v := range []url.Values{
		{"title": {"Swift"}, "category": {"Hatchback"}},
		{"title": {"Baleno"}, "category": {"Hatchback"}},
		{"title": {"Brezza"}, "category": {"SUV"}},
	} {
		s.create(t, v)
	}

	rec, res := s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars?limit=2&page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &pageMeta{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, res.Meta)
	var page []car
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "Swift", page[0].Title)

	rec, res = s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars?category=Hatchback&search=bal", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, res.Meta)
	var found []car
	require.NoError(t, json.Unmarshal(res.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Baleno", found[0].Title)

	rec, res = s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars/slug/BREZZA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var bySlug car
	require.NoError(t, json.Unmarshal(res.Data, &bySlug))
	assert.Equal(t, "Brezza", bySlug.Title)

	rec, res = s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars/facets/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var facets []string
	require.NoError(t, json.Unmarshal(res.Data, &facets))
	assert.Equal(t, []string{"Hatchback", "SUV"}, facets)

	rec, res = s.do(t, jsonRequest(http.MethodPatch, fmt.Sprintf("/api/cars/%d/status", bySlug.ID), `{"status":"Resolved"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resolved car
	require.NoError(t, json.Unmarshal(res.Data, &resolved))
	assert.Equal(t, "Resolved", resolved.Status)
}

func TestServer_Cache(t *testing.T) {
	s := newTestServer(t)
	s.create(t, url.Values{"title": {"Swift"}})
	invalidated := s.cache.invalidated

	rec, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec, res := s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.True(t, res.Success)

	s.create(t, url.Values{"title": {"Dzire"}})
	assert.Equal(t, invalidated+1, s.cache.invalidated)

	rec, res = s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var items []car
	require.NoError(t, json.Unmarshal(res.Data, &items))
	assert.Len(t, items, 2)

	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/cars/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, cached := s.cache.Get(context.Background(), "cars", "/api/cars/9999")
	assert.False(t, cached)
}

func TestServer_ServesUploadRanges(t *testing.T) {
	s := newTestServer(t)
	c := s.create(t, url.Values{"title": {"Swift"}}, formFile{"cover", "a.jpg", "0123456789"})

	req := httptest.NewRequest(http.MethodGet, "/"+*c.Cover, nil)
	req.Header.Set("Range", "bytes=2-4")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusPartialContent, rec.Code)
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "234", string(b))
}
