package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/project-radar/internal/http/response"
	"github.com/yungbote/project-radar/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
	facts    services.FactService
}

func NewProjectHandler(projects services.ProjectService, facts services.FactService) *ProjectHandler {
	return &ProjectHandler{projects: projects, facts: facts}
}

type projectRequest struct {
	Name            string  `json:"name"`
	RCN             string  `json:"rcn"`
	Title           string  `json:"title"`
	Teaser          string  `json:"teaser"`
	Call            string  `json:"call"`
	Type            string  `json:"type"`
	ProjectURL      string  `json:"project_url"`
	FundingBodyLink string  `json:"funding_body_link"`
	HubURL          string  `json:"hub_url"`
	StartDate       Date    `json:"start_date"`
	EndDate         Date    `json:"end_date"`
	Budget          float64 `json:"budget"`
}

func (r projectRequest) input() services.ProjectInput {
	return services.ProjectInput{
		Name:            r.Name,
		RCN:             r.RCN,
		Title:           r.Title,
		Teaser:          r.Teaser,
		Call:            r.Call,
		Type:            r.Type,
		ProjectURL:      r.ProjectURL,
		FundingBodyLink: r.FundingBodyLink,
		HubURL:          r.HubURL,
		StartDate:       r.StartDate.Ptr(),
		EndDate:         r.EndDate.Ptr(),
		Budget:          r.Budget,
	}
}

type projectUpdateRequest struct {
	Name            *string  `json:"name"`
	Title           *string  `json:"title"`
	Teaser          *string  `json:"teaser"`
	Call            *string  `json:"call"`
	Type            *string  `json:"type"`
	ProjectURL      *string  `json:"project_url"`
	FundingBodyLink *string  `json:"funding_body_link"`
	HubURL          *string  `json:"hub_url"`
	StartDate       *Date    `json:"start_date"`
	EndDate         *Date    `json:"end_date"`
	Budget          *float64 `json:"budget"`
}

type importRequest struct {
	Projects []projectRequest `json:"projects"`
}

type classificationRequest struct {
	Term          string `json:"term"`
	ClassifiedBy  string `json:"classified_by"`
	ChangeSummary string `json:"change_summary"`
	EffectiveDate Date   `json:"effective_date"`
}

type scoreRequest struct {
	MRL         int    `json:"mrl"`
	TRL         int    `json:"trl"`
	ScoredBy    string `json:"scored_by"`
	Description string `json:"description"`
	ScoringDate Date   `json:"scoring_date"`
}

// GET /api/overview
func (h *ProjectHandler) Overview(c *gin.Context) {
	out, err := h.projects.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/widget/project/:cwid
func (h *ProjectHandler) Widget(c *gin.Context) {
	id, err := cwidParam(c, "HTTP.Projects.Widget")
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.projects.Widget(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/projects/:cwid/classification?asOf=2024-01-01
func (h *ProjectHandler) Classification(c *gin.Context) {
	const op = "HTTP.Projects.Classification"
	id, asOf, err := cwidAsOf(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	f, err := h.facts.ResolveClassification(c.Request.Context(), id, asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	if f == nil {
		response.RespondOK(c, gin.H{"cw_id": id, "as_of": asOf, "status": "unclassified"})
		return
	}
	response.RespondOK(c, gin.H{"cw_id": id, "as_of": asOf, "status": "classified", "term": f.Term, "classification": f})
}

// GET /api/projects/:cwid/score?asOf=2024-01-01
func (h *ProjectHandler) Score(c *gin.Context) {
	const op = "HTTP.Projects.Score"
	id, asOf, err := cwidAsOf(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	f, err := h.facts.ResolveScore(c.Request.Context(), id, asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	if f == nil {
		response.RespondOK(c, gin.H{"cw_id": id, "as_of": asOf, "status": "unscored"})
		return
	}
	response.RespondOK(c, gin.H{"cw_id": id, "as_of": asOf, "status": "scored", "mrl": f.MRL, "trl": f.TRL, "score": f})
}

// GET /api/projects/:cwid/history?asOf=2024-01-01
func (h *ProjectHandler) History(c *gin.Context) {
	id, asOf, err := cwidAsOf(c, "HTTP.Projects.History")
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.facts.History(c.Request.Context(), id, asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/admin/projects
func (h *ProjectHandler) List(c *gin.Context) {
	out, err := h.projects.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": out})
}

// POST /api/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := bindJSON(c, "HTTP.Projects.Create", &req); err != nil {
		response.Error(c, err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// POST /api/admin/projects/import
// body: { "projects": [ {...}, ... ] }
func (h *ProjectHandler) Import(c *gin.Context) {
	var req importRequest
	if err := bindJSON(c, "HTTP.Projects.Import", &req); err != nil {
		response.Error(c, err)
		return
	}
	rows := make([]services.ProjectInput, 0, len(req.Projects))
	for _, p := range req.Projects {
		rows = append(rows, p.input())
	}
	out, err := h.projects.Import(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"projects": out, "count": len(out)})
}

// PATCH /api/admin/projects/:cwid
func (h *ProjectHandler) Update(c *gin.Context) {
	const op = "HTTP.Projects.Update"
	id, err := cwidParam(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req projectUpdateRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	p, err := h.projects.Update(c.Request.Context(), id, services.ProjectUpdate{
		Name:            req.Name,
		Title:           req.Title,
		Teaser:          req.Teaser,
		Call:            req.Call,
		Type:            req.Type,
		ProjectURL:      req.ProjectURL,
		FundingBodyLink: req.FundingBodyLink,
		HubURL:          req.HubURL,
		StartDate:       req.StartDate.Ptr(),
		EndDate:         req.EndDate.Ptr(),
		Budget:          req.Budget,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/admin/projects/:cwid
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := cwidParam(c, "HTTP.Projects.Delete")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/projects/:cwid/classifications
func (h *ProjectHandler) AppendClassification(c *gin.Context) {
	const op = "HTTP.Projects.AppendClassification"
	id, err := cwidParam(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req classificationRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	f, err := h.facts.AppendClassification(c.Request.Context(), id, services.ClassificationInput{
		Term:          req.Term,
		ClassifiedBy:  req.ClassifiedBy,
		ChangeSummary: req.ChangeSummary,
		EffectiveDate: req.EffectiveDate.Time,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"classification": f})
}

// POST /api/admin/projects/:cwid/scores
func (h *ProjectHandler) AppendScore(c *gin.Context) {
	const op = "HTTP.Projects.AppendScore"
	id, err := cwidParam(c, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req scoreRequest
	if err := bindJSON(c, op, &req); err != nil {
		response.Error(c, err)
		return
	}
	f, err := h.facts.AppendScore(c.Request.Context(), id, services.ScoreInput{
		MRL:         req.MRL,
		TRL:         req.TRL,
		ScoredBy:    req.ScoredBy,
		Description: req.Description,
		ScoringDate: req.ScoringDate.Time,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"score": f})
}

func cwidAsOf(c *gin.Context, op string) (int64, time.Time, error) {
	id, err := cwidParam(c, op)
	if err != nil {
		return 0, time.Time{}, err
	}
	asOf, err := asOfQuery(c, op)
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, asOf, nil
}
