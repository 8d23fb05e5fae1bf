// Package matcher ranks catalog symptoms against a free-text query.
package matcher

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/themobileprof/medibot-be/internal/catalog"
	"github.com/themobileprof/medibot-be/internal/fuzzy"
)

// parallelCutoff is the catalog size below which scoring stays on the
// calling goroutine.
const parallelCutoff = 512

// Candidate is a scored catalog row.
type Candidate struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Matcher scores queries with fuzzy.WRatio.
type Matcher struct {
	workers int
	logger  *zap.Logger
}

// New creates a matcher. workers bounds the goroutines used for large
// catalogs; values below 1 mean sequential scoring.
func New(workers int, logger *zap.Logger) *Matcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{workers: workers, logger: logger}
}

// Match scores every catalog symptom against query and returns candidates by
// descending score, ties broken by ascending index. At most limit candidates
// are returned; limit <= 0 returns all of them.
func (m *Matcher) Match(query string, cat *catalog.Catalog, limit int) []Candidate {
	n := cat.Len()
	if n == 0 {
		return []Candidate{}
	}

	q := fuzzy.Process(strings.ToLower(strings.TrimSpace(norm.NFKC.String(query))))
	scores := make([]Candidate, n)

	if n < parallelCutoff || m.workers == 1 {
		scoreRange(q, cat, scores, 0, n)
	} else {
		m.scoreParallel(q, cat, scores)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Index < scores[j].Index
	})

	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}

	if ce := m.logger.Check(zap.DebugLevel, "symptom match"); ce != nil {
		top := 0.0
		if len(scores) > 0 {
			top = scores[0].Score
		}
		ce.Write(zap.Int("catalog_size", n), zap.Int("returned", len(scores)), zap.Float64("top_score", top))
	}
	return scores
}

// scoreParallel splits the catalog into one contiguous chunk per worker.
// Each chunk writes only its own slots so the output matches sequential scoring.
func (m *Matcher) scoreParallel(q string, cat *catalog.Catalog, out []Candidate) {
	n := len(out)
	chunk := (n + m.workers - 1) / m.workers

	var g errgroup.Group
	g.SetLimit(m.workers)
	for start := 0; start < n; start += chunk {
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			scoreRange(q, cat, out, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func scoreRange(q string, cat *catalog.Catalog, out []Candidate, lo, hi int) {
	for i := lo; i < hi; i++ {
		out[i] = Candidate{Index: i, Score: fuzzy.WRatio(q, fuzzy.Process(cat.Key(i)))}
	}
}
