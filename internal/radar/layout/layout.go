// Package layout places radar blips deterministically. The radar is the unit
// disc: taxonomy dimensions split it into equal sectors and maturity bands
// into equal-width rings, innermost band at the centre.
package layout

import (
	"math"
	"sort"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/radar/vocab"
)

const (
	coordPrecision = 1e6
	// upper bound on spiral points examined per pass before the grid takes over
	maxSpiralPoints = 250000
)

// Entry is one project's resolved classification and score.
type Entry struct {
	ProjectID  uuid.UUID
	ExternalID int64
	Name       string
	Term       string
	MRL        int
	TRL        int
}

type Result struct {
	Blips    []types.Blip
	Unplaced []types.UnplacedProject
}

type cellKey struct {
	quadrant int
	ring     int
}

// Layout maps entries to blips. Entries whose term is unknown or whose score
// lies outside the configured bounds are returned as unplaced. Identical input
// always produces identical output, regardless of entry order.
func Layout(cfg *vocab.Config, entries []Entry) Result {
	out := Result{Blips: []types.Blip{}, Unplaced: []types.UnplacedProject{}}
	if cfg == nil {
		return out
	}
	cells := map[cellKey][]Entry{}
	for _, e := range entries {
		q, ok := cfg.DimensionOf(e.Term)
		if !ok {
			out.Unplaced = append(out.Unplaced, unplaced(e, types.UnplacedUnknownTerm))
			continue
		}
		r, ok := cfg.BandOf(e.MRL, e.TRL)
		if !ok {
			out.Unplaced = append(out.Unplaced, unplaced(e, types.UnplacedOutOfBand))
			continue
		}
		k := cellKey{quadrant: q, ring: r}
		cells[k] = append(cells[k], e)
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].quadrant != keys[j].quadrant {
			return keys[i].quadrant < keys[j].quadrant
		}
		return keys[i].ring < keys[j].ring
	})

	for _, k := range keys {
		members := cells[k]
		sortEntries(members)
		c := CellOf(cfg, k.quadrant, k.ring)
		pts := place(c, len(members), cfg.Layout.SpiralStep, cfg.Layout.MaxDensify)
		for i, e := range members {
			out.Blips = append(out.Blips, types.Blip{
				ProjectID:  e.ProjectID,
				ExternalID: e.ExternalID,
				Name:       e.Name,
				Term:       e.Term,
				Quadrant:   cfg.Dimensions[k.quadrant].Name,
				Ring:       cfg.Bands[k.ring].Name,
				X:          round(pts[i].X),
				Y:          round(pts[i].Y),
			})
		}
	}
	sort.SliceStable(out.Unplaced, func(i, j int) bool {
		return out.Unplaced[i].ExternalID < out.Unplaced[j].ExternalID
	})
	return out
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].ExternalID != es[j].ExternalID {
			return es[i].ExternalID < es[j].ExternalID
		}
		return es[i].ProjectID.String() < es[j].ProjectID.String()
	})
}

func unplaced(e Entry, reason string) types.UnplacedProject {
	return types.UnplacedProject{
		ProjectID:  e.ProjectID,
		ExternalID: e.ExternalID,
		Name:       e.Name,
		Reason:     reason,
	}
}

func round(v float64) float64 {
	r := math.Round(v*coordPrecision) / coordPrecision
	if r == 0 {
		return 0 // no negative zero in JSON
	}
	return r
}
