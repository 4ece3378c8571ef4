package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zugzwang/internal/middleware"
	"zugzwang/internal/models"
	"zugzwang/internal/services"
	"zugzwang/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps engine error kinds onto HTTP statuses.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError writes err as the JSON error envelope. Unclassified errors are logged
// and reported as a bare 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFrom(c)))
		_ = c.Error(err)
		middleware.AbortWithError(c, status, string(services.KindInternal), "internal server error")
		return
	}

	message := err.Error()
	var e *services.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	middleware.AbortWithError(c, status, string(kind), message)
}

func invalid(c *gin.Context, format string, args ...any) {
	middleware.AbortWithError(c, http.StatusBadRequest, string(services.KindValidation), fmt.Sprintf(format, args...))
}

// parseID reads a positive id path parameter; on failure it has already responded.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		invalid(c, "%s must be a positive integer", name)
	}
	return id, ok
}

// jsonFields decodes a JSON object body keeping each value raw, so handlers can tell
// absent keys from explicit ones and reject keys that do not belong to the endpoint.
type jsonFields map[string]json.RawMessage

func bindFields(c *gin.Context) (jsonFields, bool) {
	var fields jsonFields
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		invalid(c, "body must be a JSON object")
		return nil, false
	}
	return fields, true
}

// reject fails when any of keys is present.
func (f jsonFields) reject(keys ...string) error {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return services.Invalid("field %q is not accepted here", k)
		}
	}
	return nil
}

func (f jsonFields) str(key string) (*string, error) {
	raw, ok := f[key]
	if !ok {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, services.Invalid("%s must be a string", key)
	}
	return &s, nil
}

// flag accepts the loose boolean spellings utils.ParseFlag knows.
func (f jsonFields) flag(key string) (*bool, error) {
	raw, ok := f[key]
	if !ok {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, services.Invalid("%s must be a boolean", key)
	}
	b, ok := utils.ParseFlag(v)
	if !ok {
		return nil, services.Invalid("%s must be a boolean", key)
	}
	return &b, nil
}

func (f jsonFields) status(key string) (*models.ContentStatus, error) {
	s, err := f.str(key)
	if err != nil || s == nil {
		return nil, err
	}
	st := models.ContentStatus(strings.ToLower(strings.TrimSpace(*s)))
	if !st.Valid() {
		return nil, services.Invalid("%s must be active or inactive", key)
	}
	return &st, nil
}

// categories accepts an array of names or ids, or a comma separated string.
func (f jsonFields) categories(key string) (*[]string, error) {
	raw, ok := f[key]
	if !ok {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, services.Invalid("%s must be a list", key)
	}
	tokens, err := categoryTokens(v)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func categoryTokens(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return utils.SplitCSV(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch x := item.(type) {
			case string:
				out = append(out, utils.SplitCSV(x)...)
			case float64:
				out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
			default:
				return nil, services.Invalid("categories must be names or ids")
			}
		}
		return out, nil
	case nil:
		return []string{}, nil
	}
	return nil, services.Invalid("categories must be a list")
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps or plain dates. A plain date used as an upper
// bound covers the whole day.
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, services.Invalid("invalid date %q, expected YYYY-MM-DD or RFC 3339", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// pageParams reads page and limit; both must be positive for page mode.
func pageParams(c *gin.Context) (int, int) {
	return utils.StringToInt(c.Query("page")), utils.StringToInt(c.Query("limit"))
}

// writeList responds with a bare array in full-list mode or {items, paging} for a page.
func writeList(c *gin.Context, items any, paging *services.Paging) {
	if paging == nil {
		c.JSON(http.StatusOK, items)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "paging": paging})
}
