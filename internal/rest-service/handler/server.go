package handler

import (
	"context"
	"errors"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/konorlevich/dealership_api/internal/rest-service/assets"
	"github.com/konorlevich/dealership_api/internal/rest-service/cache"
	"github.com/konorlevich/dealership_api/internal/rest-service/handler/middleware"
)

const healthTimeout = 2 * time.Second

type Deps struct {
	DB             *gorm.DB
	Store          assets.Store
	Cache          cache.Cache
	Logger         *log.Entry
	MaxBodyBytes   int64
	AllowedOrigins []string
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

func NewHandler(deps Deps, mounters ...Mounter) *gin.Engine {
	l := deps.Logger
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}

	r := gin.New()
	r.Use(middleware.Recovery(l), middleware.RequestLogger(l), cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/", func(c *gin.Context) {
		success(c, http.StatusOK, "Dealership API is running", nil)
	})
	r.GET("/health", health(deps.DB))
	if deps.Store != nil {
		r.GET("/"+assets.Prefix+"/*key", serveAsset(deps.Store, l))
		r.HEAD("/"+assets.Prefix+"/*key", serveAsset(deps.Store, l))
	}

	api := r.Group("/api")
	for _, m := range mounters {
		m.Mount(api.Group("/" + m.Name()))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Success: false, Message: "route not found", Error: codeNotFound})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"database": "unknown", "time": time.Now().UTC().Format(time.RFC3339)}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				data["database"] = "down"
				c.JSON(http.StatusServiceUnavailable, envelope{Success: false, Message: "database is unreachable", Error: codeInternal, Data: data})
				return
			}
			data["database"] = "up"
		}
		success(c, http.StatusOK, "ok", data)
	}
}

// serveAsset streams a stored file. Range and conditional requests are handled
// by http.ServeContent.
func serveAsset(store assets.Store, l *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		obj, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, assets.ErrFileNotFound) || errors.Is(err, assets.ErrInvalidKey) {
				c.JSON(http.StatusNotFound, envelope{Success: false, Message: "file not found", Error: codeNotFound})
				return
			}
			l.WithField("key", key).WithError(err).Error("can't open stored file")
			c.JSON(http.StatusInternalServerError, envelope{Success: false, Message: "can't read file", Error: codeStorage})
			return
		}
		defer obj.Close()
		c.Header("Cache-Control", "public, max-age=86400")
		http.ServeContent(c.Writer, c.Request, path.Base(key), time.Time{}, obj)
	}
}
