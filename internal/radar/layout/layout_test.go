package layout

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/project-radar/internal/domain"
	"github.com/yungbote/project-radar/internal/radar/vocab"
)

func testConfig(t *testing.T) *vocab.Config {
	t.Helper()
	cfg, err := vocab.Default()
	if err != nil {
		t.Fatalf("vocab.Default: %v", err)
	}
	return cfg
}

func makeEntries(cfg *vocab.Config, n int, seed int64) []Entry {
	rng := rand.New(rand.NewSource(seed))
	terms := cfg.Terms()
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Entry{
			ProjectID:  uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i), byte(i >> 8)}),
			ExternalID: int64(i + 1),
			Name:       "project",
			Term:       terms[rng.Intn(len(terms))],
			MRL:        1 + rng.Intn(9),
			TRL:        1 + rng.Intn(9),
		})
	}
	return out
}

func TestLayoutIsByteIdentical(t *testing.T) {
	cfg := testConfig(t)
	entries := makeEntries(cfg, 120, 42)

	a, err := json.Marshal(Layout(cfg, entries))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	shuffled := append([]Entry(nil), entries...)
	rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	b, err := json.Marshal(Layout(cfg, shuffled))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("layout not deterministic across runs and input order")
	}
}

func TestLayoutPlacesEveryEntryInsideItsCell(t *testing.T) {
	cfg := testConfig(t)
	entries := makeEntries(cfg, 300, 9)
	res := Layout(cfg, entries)
	if len(res.Blips) != len(entries) {
		t.Fatalf("blips: want=%d got=%d (unplaced=%d)", len(entries), len(res.Blips), len(res.Unplaced))
	}
	seen := map[[2]float64]int64{}
	for _, b := range res.Blips {
		key := [2]float64{b.X, b.Y}
		if other, dup := seen[key]; dup {
			t.Fatalf("blips %d and %d share position %v", other, b.ExternalID, key)
		}
		seen[key] = b.ExternalID

		q, r := quadrantIndex(cfg, b.Quadrant), ringIndex(cfg, b.Ring)
		if !CellOf(cfg, q, r).Contains(Point{X: b.X, Y: b.Y}, -1e-6) {
			t.Fatalf("blip %d at (%f,%f) outside cell %s/%s", b.ExternalID, b.X, b.Y, b.Quadrant, b.Ring)
		}
	}
}

func TestLayoutOrdering(t *testing.T) {
	cfg := testConfig(t)
	res := Layout(cfg, makeEntries(cfg, 80, 5))
	for i := 1; i < len(res.Blips); i++ {
		prev, cur := res.Blips[i-1], res.Blips[i]
		pq, cq := quadrantIndex(cfg, prev.Quadrant), quadrantIndex(cfg, cur.Quadrant)
		pr, cr := ringIndex(cfg, prev.Ring), ringIndex(cfg, cur.Ring)
		if pq > cq || (pq == cq && pr > cr) || (pq == cq && pr == cr && prev.ExternalID >= cur.ExternalID) {
			t.Fatalf("blips out of order at %d: %+v before %+v", i, prev, cur)
		}
	}
}

func TestLayoutDensifiesCrowdedCell(t *testing.T) {
	cfg := testConfig(t)
	entries := make([]Entry, 0, 400)
	for i := 0; i < 400; i++ {
		entries = append(entries, Entry{ExternalID: int64(i + 1), Term: "robotics", MRL: 9, TRL: 9})
	}
	res := Layout(cfg, entries)
	if len(res.Blips) != 400 {
		t.Fatalf("crowded cell dropped blips: got=%d", len(res.Blips))
	}
	c := CellOf(cfg, 1, 0)
	seen := map[[2]float64]bool{}
	for _, b := range res.Blips {
		if !c.Contains(Point{X: b.X, Y: b.Y}, -1e-6) {
			t.Fatalf("blip %d escaped its cell", b.ExternalID)
		}
		key := [2]float64{b.X, b.Y}
		if seen[key] {
			t.Fatalf("duplicate position %v", key)
		}
		seen[key] = true
	}
}

func TestLayoutFirstBlipAtCentroid(t *testing.T) {
	cfg := testConfig(t)
	res := Layout(cfg, []Entry{{ExternalID: 1, Term: "composites", MRL: 5, TRL: 5}})
	if len(res.Blips) != 1 {
		t.Fatalf("blips: want=1 got=%d", len(res.Blips))
	}
	ctr := CellOf(cfg, 2, 1).Centroid()
	b := res.Blips[0]
	if math.Abs(b.X-ctr.X) > 1e-6 || math.Abs(b.Y-ctr.Y) > 1e-6 {
		t.Fatalf("single blip: want centroid %+v got (%f,%f)", ctr, b.X, b.Y)
	}
	if b.Quadrant != "materials" || b.Ring != "trial" {
		t.Fatalf("cell: want materials/trial got %s/%s", b.Quadrant, b.Ring)
	}
}

func TestLayoutUnplaced(t *testing.T) {
	cfg := testConfig(t)
	res := Layout(cfg, []Entry{
		{ExternalID: 2, Term: "astrology", MRL: 5, TRL: 5},
		{ExternalID: 1, Term: "robotics", MRL: 0, TRL: 12},
		{ExternalID: 3, Term: "robotics", MRL: 3, TRL: 3},
	})
	if len(res.Blips) != 1 || res.Blips[0].ExternalID != 3 {
		t.Fatalf("blips: want only 3 got %+v", res.Blips)
	}
	if len(res.Unplaced) != 2 {
		t.Fatalf("unplaced: want=2 got=%d", len(res.Unplaced))
	}
	if res.Unplaced[0].Reason != types.UnplacedOutOfBand || res.Unplaced[1].Reason != types.UnplacedUnknownTerm {
		t.Fatalf("unplaced reasons: got %+v", res.Unplaced)
	}
}

func TestGridExactCount(t *testing.T) {
	c := Cell{Inner: 0.2, Outer: 0.4, StartAngle: 0, EndAngle: math.Pi / 2}
	pts := grid(c, 7)
	if len(pts) != 7 {
		t.Fatalf("grid: want=7 got=%d", len(pts))
	}
	for _, p := range pts {
		if !c.Contains(p, 0) {
			t.Fatalf("grid point %+v outside cell", p)
		}
	}
}

func TestPlaceFallsBackToGrid(t *testing.T) {
	c := Cell{Inner: 0.2, Outer: 0.4, StartAngle: 0, EndAngle: math.Pi / 2}
	pts := place(c, 50, 0.5, 0)
	if len(pts) != 50 {
		t.Fatalf("place: want=50 got=%d", len(pts))
	}
}

func quadrantIndex(cfg *vocab.Config, name string) int {
	for i, d := range cfg.Dimensions {
		if d.Name == name {
			return i
		}
	}
	return -1
}

func ringIndex(cfg *vocab.Config, name string) int {
	for i, b := range cfg.Bands {
		if b.Name == name {
			return i
		}
	}
	return -1
}
