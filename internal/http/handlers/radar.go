package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/project-radar/internal/http/response"
	"github.com/yungbote/project-radar/internal/services"
)

type RadarHandler struct {
	radar services.RadarService
}

func NewRadarHandler(radar services.RadarService) *RadarHandler {
	return &RadarHandler{radar: radar}
}

type createEditionRequest struct {
	Year    int    `json:"year"`
	Release int    `json:"release"`
	Summary string `json:"summary"`
}

type updateEditionRequest struct {
	Summary *string `json:"summary"`
}

type advanceRequest struct {
	CutoffDate Date `json:"cutoff_date"`
}

// GET /api/radars
func (h *RadarHandler) List(c *gin.Context) {
	editions, err := h.radar.ListEditions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"radars": editions})
}

// GET /api/radars/live
func (h *RadarHandler) Live(c *gin.Context) {
	out, err := h.radar.GetLiveRendering(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/radars/:slug
func (h *RadarHandler) BySlug(c *gin.Context) {
	out, err := h.radar.GetRenderingBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/radars/:slug/image.png
func (h *RadarHandler) Image(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	var (
		out *services.EditionRendering
		err error
	)
	// an edition's artifact never changes; "live" moves on every advance
	cacheControl := "public, max-age=31536000, immutable"
	if slug == "live" {
		cacheControl = "no-cache"
		out, err = h.radar.GetLiveRendering(c.Request.Context())
	} else {
		out, err = h.radar.GetRenderingBySlug(c.Request.Context(), slug)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	writeArtifact(c, out, cacheControl)
}

// POST /api/admin/radars
func (h *RadarHandler) Create(c *gin.Context) {
	const op = "HTTP.Radars.Create"
	var req createEditionRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	e, err := h.radar.CreateEdition(c.Request.Context(), services.EditionInput{Year: req.Year, Release: req.Release, Summary: req.Summary})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"radar": e})
}

// PATCH /api/admin/radars/:id
func (h *RadarHandler) Update(c *gin.Context) {
	const op = "HTTP.Radars.Update"
	id, err := uuidParam(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req updateEditionRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.Summary == nil {
		response.Error(c, badRequest(op, "summary is required", nil))
		return
	}
	e, err := h.radar.UpdateSummary(c.Request.Context(), id, *req.Summary)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"radar": e})
}

// DELETE /api/admin/radars/:id
func (h *RadarHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "HTTP.Radars.Delete")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.radar.DeleteEdition(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/radars/:id/advance
// body: { "cutoff_date": "2024-01-01" }
func (h *RadarHandler) Advance(c *gin.Context) {
	const op = "HTTP.Radars.Advance"
	id, err := uuidParam(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req advanceRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.radar.Advance(c.Request.Context(), id, req.CutoffDate.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/admin/radars/:id/preview.png
func (h *RadarHandler) Preview(c *gin.Context) {
	id, err := uuidParam(c, "HTTP.Radars.Preview")
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.radar.Preview(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeArtifact(c, out, "no-store")
}

func writeArtifact(c *gin.Context, out *services.EditionRendering, cacheControl string) {
	r := out.Rendering
	if r.Checksum != "" {
		etag := `"` + r.Checksum + `"`
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.Header("Cache-Control", cacheControl)
	c.Data(http.StatusOK, r.ContentType, r.Artifact)
}
