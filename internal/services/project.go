package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/project-radar/internal/data/aggregates"
	"github.com/yungbote/project-radar/internal/data/repos"
	types "github.com/yungbote/project-radar/internal/domain"
	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
	"github.com/yungbote/project-radar/internal/platform/dbctx"
	"github.com/yungbote/project-radar/internal/platform/logger"
	"github.com/yungbote/project-radar/internal/radar/cache"
	"github.com/yungbote/project-radar/internal/temporal"
)

type ProjectService interface {
	Create(ctx context.Context, in ProjectInput) (*types.Project, error)
	Update(ctx context.Context, externalID int64, in ProjectUpdate) (*types.Project, error)
	Get(ctx context.Context, externalID int64) (*types.Project, error)
	// List returns every project, oldest external id first, with the facts in effect now.
	List(ctx context.Context) ([]ProjectView, error)
	Delete(ctx context.Context, externalID int64) error
	// Import creates every row or none.
	Import(ctx context.Context, rows []ProjectInput) ([]*types.Project, error)

	Overview(ctx context.Context) (Overview, error)
	Widget(ctx context.Context, externalID int64) (*Widget, error)
}

type ProjectView struct {
	*types.Project
	Classification *types.ClassificationFact `json:"classification"`
	Score          *types.ScoreFact          `json:"score"`
}

// Overview holds the portfolio KPIs. Budget is in EUR billions and Span in
// years, both rounded to one decimal.
type Overview struct {
	Budget   float64 `json:"budget"`
	Projects int64   `json:"projects"`
	Calls    int64   `json:"calls"`
	Span     float64 `json:"span"`
}

type Widget struct {
	ExternalID  int64     `json:"cw_id"`
	Name        string    `json:"name"`
	Title       string    `json:"title,omitempty"`
	MRL         int       `json:"mrl"`
	TRL         int       `json:"trl"`
	ScoringDate time.Time `json:"scoring_date"`
}

type projectService struct {
	log             *logger.Logger
	runner          aggregates.TxRunner
	sequence        SequenceService
	projects        repos.ProjectRepo
	classifications repos.ClassificationRepo
	scores          repos.ScoreRepo
	editions        repos.EditionRepo
	cache           cache.Cache
	now             func() time.Time
}

func NewProjectService(log *logger.Logger, runner aggregates.TxRunner, sequence SequenceService, set repos.Set, c cache.Cache) ProjectService {
	return &projectService{
		log:             log.With("service", "ProjectService"),
		runner:          runner,
		sequence:        sequence,
		projects:        set.Projects,
		classifications: set.Classification,
		scores:          set.Score,
		editions:        set.Editions,
		cache:           c,
		now:             time.Now,
	}
}

func (s *projectService) Create(ctx context.Context, in ProjectInput) (*types.Project, error) {
	const op = "Radar.Projects.Create"
	rows, err := s.createAll(ctx, op, []ProjectInput{in})
	if err != nil {
		return nil, err
	}
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	s.log.Info("project created", "cw_id", rows[0].ExternalID, "name", rows[0].Name)
	return rows[0], nil
}

func (s *projectService) Import(ctx context.Context, rows []ProjectInput) ([]*types.Project, error) {
	const op = "Radar.Projects.Import"
	if len(rows) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "empty import", nil)
	}
	out, err := s.createAll(ctx, op, rows)
	if err != nil {
		return nil, err
	}
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	s.log.Info("projects imported", "count", len(out))
	return out, nil
}

// createAll validates the whole batch before allocating ids, then inserts in
// one transaction. Allocated ids are not reused when the insert fails.
func (s *projectService) createAll(ctx context.Context, op string, in []ProjectInput) ([]*types.Project, error) {
	names := map[string]int{}
	rcns := map[string]int{}
	for i, row := range in {
		if err := validateInput(op, row); err != nil {
			return nil, rowError(op, len(in), i, err)
		}
		if err := validateDateRange(op, row.StartDate, row.EndDate); err != nil {
			return nil, rowError(op, len(in), i, err)
		}
		name, rcn := strings.TrimSpace(row.Name), strings.TrimSpace(row.RCN)
		if j, dup := names[name]; dup {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("rows %d and %d share name %q", j, i, name), nil)
		}
		if j, dup := rcns[rcn]; dup {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("rows %d and %d share rcn %q", j, i, rcn), nil)
		}
		names[name], rcns[rcn] = i, i
	}

	now := temporal.Normalize(s.now())
	rows := make([]*types.Project, 0, len(in))
	for _, row := range in {
		extID, err := s.sequence.Next(ctx, types.SequenceProject)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.Project{
			ID:              uuid.New(),
			ExternalID:      extID,
			Name:            strings.TrimSpace(row.Name),
			RCN:             strings.TrimSpace(row.RCN),
			Title:           strings.TrimSpace(row.Title),
			Teaser:          strings.TrimSpace(row.Teaser),
			Call:            strings.TrimSpace(row.Call),
			Type:            strings.TrimSpace(row.Type),
			ProjectURL:      strings.TrimSpace(row.ProjectURL),
			FundingBodyLink: strings.TrimSpace(row.FundingBodyLink),
			HubURL:          strings.TrimSpace(row.HubURL),
			StartDate:       normalizePtr(row.StartDate),
			EndDate:         normalizePtr(row.EndDate),
			Budget:          row.Budget,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		_, err := s.projects.Create(dbc, rows)
		return err
	})
	if err != nil {
		if aggregates.IsUniqueViolation(err) {
			return nil, domainagg.NewError(domainagg.CodeConflict, op, "project name or rcn already exists", err)
		}
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func rowError(op string, total, i int, err error) error {
	if total == 1 {
		return err
	}
	return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("row %d: %s", i, messageOf(err)), err)
}

func messageOf(err error) string {
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return aggErr.Message
	}
	return err.Error()
}

func (s *projectService) Update(ctx context.Context, externalID int64, in ProjectUpdate) (*types.Project, error) {
	const op = "Radar.Projects.Update"
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	current, err := s.mustGet(ctx, op, externalID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("name", in.Name)
	setString("title", in.Title)
	setString("teaser", in.Teaser)
	setString("funding_call", in.Call)
	setString("type", in.Type)
	setString("project_url", in.ProjectURL)
	setString("funding_body_link", in.FundingBodyLink)
	setString("hub_url", in.HubURL)
	start, end := current.StartDate, current.EndDate
	if in.StartDate != nil {
		start = normalizePtr(in.StartDate)
		updates["start_date"] = *start
	}
	if in.EndDate != nil {
		end = normalizePtr(in.EndDate)
		updates["end_date"] = *end
	}
	if in.Budget != nil {
		updates["budget"] = *in.Budget
	}
	if err := validateDateRange(op, start, end); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return current, nil
	}
	updates["updated_at"] = temporal.Normalize(s.now())

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		return s.projects.UpdateFields(dbc, current.ID, updates)
	})
	if err != nil {
		if aggregates.IsUniqueViolation(err) {
			return nil, domainagg.NewError(domainagg.CodeConflict, op, "project name already exists", err)
		}
		return nil, aggregates.MapError(op, err)
	}
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	return s.mustGet(ctx, op, externalID)
}

func (s *projectService) Get(ctx context.Context, externalID int64) (*types.Project, error) {
	return s.mustGet(ctx, "Radar.Projects.Get", externalID)
}

func (s *projectService) List(ctx context.Context) ([]ProjectView, error) {
	const op = "Radar.Projects.List"
	dbc := dbctx.Background(ctx)
	rows, err := s.projects.List(dbc)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	now := s.now()
	out := make([]ProjectView, 0, len(rows))
	for _, p := range rows {
		c, err := s.classifications.LatestAsOf(dbc, p.ID, now)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		sc, err := s.scores.LatestAsOf(dbc, p.ID, now)
		if err != nil {
			return nil, aggregates.MapError(op, err)
		}
		out = append(out, ProjectView{Project: p, Classification: c, Score: sc})
	}
	return out, nil
}

func (s *projectService) Delete(ctx context.Context, externalID int64) error {
	const op = "Radar.Projects.Delete"
	p, err := s.mustGet(ctx, op, externalID)
	if err != nil {
		return err
	}
	if err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		return s.projects.SoftDeleteByIDs(dbc, []uuid.UUID{p.ID})
	}); err != nil {
		return aggregates.MapError(op, err)
	}
	invalidateDrafts(ctx, s.log, s.editions, s.cache)
	s.log.Info("project deleted", "cw_id", externalID)
	return nil
}

func (s *projectService) Overview(ctx context.Context) (Overview, error) {
	st, err := s.projects.Stats(dbctx.Background(ctx))
	if err != nil {
		return Overview{}, aggregates.MapError("Radar.Projects.Overview", err)
	}
	out := Overview{
		Budget:   round1(st.TotalBudget / 1e9),
		Projects: st.Count,
		Calls:    st.DistinctCalls,
	}
	if st.FirstStart != nil && st.LastEnd != nil {
		months := wholeMonths(*st.FirstStart, *st.LastEnd) + 1
		out.Span = round1(float64(months) / 12)
	}
	return out, nil
}

func (s *projectService) Widget(ctx context.Context, externalID int64) (*Widget, error) {
	const op = "Radar.Projects.Widget"
	p, err := s.mustGet(ctx, op, externalID)
	if err != nil {
		return nil, err
	}
	sc, err := s.scores.LatestAsOf(dbctx.Background(ctx), p.ID, s.now())
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if sc == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "project has no score", nil)
	}
	return &Widget{
		ExternalID:  p.ExternalID,
		Name:        p.Name,
		Title:       p.Title,
		MRL:         sc.MRL,
		TRL:         sc.TRL,
		ScoringDate: sc.ScoringDate,
	}, nil
}

func (s *projectService) mustGet(ctx context.Context, op string, externalID int64) (*types.Project, error) {
	if externalID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "invalid project id", nil)
	}
	p, err := s.projects.GetByExternalID(dbctx.Background(ctx), externalID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project %d not found", externalID), nil)
	}
	return p, nil
}

// wholeMonths counts complete calendar months from a to b.
func wholeMonths(a, b time.Time) int {
	if b.Before(a) {
		return -wholeMonths(b, a)
	}
	a, b = a.UTC(), b.UTC()
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if a.AddDate(0, months, 0).After(b) {
		months--
	}
	return months
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func normalizePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := temporal.Normalize(*t)
	return &n
}
