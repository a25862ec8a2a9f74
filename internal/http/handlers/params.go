package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
)

// Date accepts "2006-01-02" or RFC 3339 in JSON bodies and query strings.
type Date struct {
	time.Time
}

func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return Date{t.UTC()}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, err
	}
	return Date{t.UTC()}, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func badRequest(op, msg string, err error) error {
	return domainagg.NewError(domainagg.CodeValidation, op, msg, err)
}

func cwidParam(c *gin.Context, op string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("cwid")), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(op, "invalid cwid", err)
	}
	return id, nil
}

func uuidParam(c *gin.Context, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, badRequest(op, "invalid id", err)
	}
	return id, nil
}

// asOfQuery reads ?asOf=, defaulting to now.
func asOfQuery(c *gin.Context, op string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("asOf"))
	if raw == "" {
		return time.Now().UTC(), nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest(op, "invalid asOf", err)
	}
	return d.Time, nil
}

func bindJSON(c *gin.Context, op string, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest(op, "invalid request body", err)
	}
	return nil
}
