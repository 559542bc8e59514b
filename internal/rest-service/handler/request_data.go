package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/konorlevich/dealership_api/internal/rest-service/records"
)

const (
	paramID    = "id"
	paramSlug  = "slug"
	paramSlot  = "slot"
	paramFacet = "facet"

	queryPage   = "page"
	queryLimit  = "limit"
	querySearch = "search"
	queryPath   = "path"

	fieldPrefixExisting = "existing_"
	fieldPrefixRemove   = "remove_"

	multipartMemory = 8 << 20
)

var (
	errCantParseForm = errors.New("can't parse request form")
	errBodyTooLarge  = errors.New("request body is too large")
	errInvalidID     = errors.New("invalid record id")
)

// requestData is the parsed body of a write request.
type requestData struct {
	form    url.Values
	body    []byte
	uploads records.Uploads
}

func newRequestData(c *gin.Context, slots []string, maxBytes int64, logger *log.Entry) (*requestData, error) {
	r := c.Request
	if maxBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(c.Writer, r.Body, maxBytes)
	}
	rd := &requestData{
		form:    url.Values{},
		uploads: records.Uploads{Keep: map[string][]string{}, Remove: map[string]bool{}},
	}
	l := logger.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path})

	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, formError(l, err)
		}
		rd.form = r.PostForm
		for _, field := range slots {
			for _, fh := range r.MultipartForm.File[field] {
				rd.uploads.Files = append(rd.uploads.Files, records.Upload{
					Field:    field,
					Filename: fh.Filename,
					Size:     fh.Size,
					Open:     func() (io.ReadCloser, error) { return fh.Open() },
				})
			}
		}
	case binding.MIMEJSON:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, formError(l, err)
		}
		rd.body = body
		jsonSlotFields(rd.form, body, slots)
	case binding.MIMEPOSTForm:
		if err := r.ParseForm(); err != nil {
			return nil, formError(l, err)
		}
		rd.form = r.PostForm
	}

	for _, field := range slots {
		if vals, ok := rd.form[fieldPrefixExisting+field]; ok {
			rd.uploads.Keep[field] = records.ParseList(vals)
		}
		if ok, _ := strconv.ParseBool(rd.form.Get(fieldPrefixRemove + field)); ok {
			rd.uploads.Remove[field] = true
		}
	}
	return rd, nil
}

// jsonSlotFields copies the slot keep lists and remove flags of a JSON body into
// form so they are read the same way as form fields.
func jsonSlotFields(form url.Values, body []byte, slots []string) {
	if !gjson.ValidBytes(body) {
		return
	}
	for _, field := range slots {
		for _, key := range []string{fieldPrefixExisting + field, fieldPrefixRemove + field} {
			v := gjson.GetBytes(body, gjson.Escape(key))
			if !v.Exists() {
				continue
			}
			if v.Type == gjson.String {
				form.Set(key, v.String())
			} else {
				form.Set(key, v.Raw)
			}
		}
	}
}

func formError(l *log.Entry, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		l.WithError(err).Warn(errBodyTooLarge)
		return errBodyTooLarge
	}
	l.WithError(err).Warn(errCantParseForm)
	return records.Invalid("", "%s", errCantParseForm)
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param(paramID), 10, 64)
	if err != nil || id == 0 {
		return 0, records.Invalid(paramID, "%s", errInvalidID)
	}
	return uint(id), nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, records.Invalid(name, "must be a positive number")
	}
	return n, nil
}

// bindError turns binding failures into validation errors naming the
// offending request fields.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return records.Invalid("", "can't read request: %v", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fe.Field()+" "+reason(fe))
	}
	return records.Invalid("", "%s", strings.Join(msgs, "; "))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

// fieldName reports validation errors with the request field names.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
