// Package diagnosis turns ranked symptom matches into aligned lists of
// possible diseases and treatments.
package diagnosis

import (
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/catalog"
	"github.com/themobileprof/medibot-be/internal/matcher"
)

const (
	// NoMatchDisease and NoMatchTreatment form the single row returned when
	// nothing scores high enough.
	NoMatchDisease   = "No matching disease found"
	NoMatchTreatment = "Please consult a doctor for proper treatment."

	DefaultTopN     = 10
	DefaultMinScore = 60.0
)

// Options tunes how many matches are considered and how good they must be.
type Options struct {
	TopN     int
	MinScore float64
}

// DefaultOptions returns TopN 10 and MinScore 60.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, MinScore: DefaultMinScore}
}

// Result holds index-aligned diseases, treatments and scores. NoMatch marks
// the sentinel row, which has no scores.
type Result struct {
	Diseases   []string  `json:"diseases"`
	Treatments []string  `json:"treatments"`
	Scores     []float64 `json:"scores"`
	NoMatch    bool      `json:"no_match"`
}

// Len is the number of rows.
func (r Result) Len() int { return len(r.Diseases) }

// NoMatchResult returns a fresh sentinel result.
func NoMatchResult() Result {
	return Result{
		Diseases:   []string{NoMatchDisease},
		Treatments: []string{NoMatchTreatment},
		Scores:     []float64{},
		NoMatch:    true,
	}
}

// Aggregator filters matcher output into a Result. It holds no per-query
// state and is safe for concurrent use.
type Aggregator struct {
	matcher *matcher.Matcher
	opts    Options
	logger  *zap.Logger
}

// New creates an aggregator. Zero-valued options fall back to the defaults.
func New(m *matcher.Matcher, opts Options, logger *zap.Logger) *Aggregator {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{matcher: m, opts: opts, logger: logger}
}

// Options returns the aggregator's configured options.
func (a *Aggregator) Options() Options { return a.opts }

// Diagnose matches query against cat with the configured options.
func (a *Aggregator) Diagnose(query string, cat *catalog.Catalog) Result {
	return a.DiagnoseWith(query, cat, a.opts)
}

// DiagnoseWith is Diagnose with per-call options. Rows are not deduplicated.
func (a *Aggregator) DiagnoseWith(query string, cat *catalog.Catalog, opts Options) Result {
	if opts.TopN <= 0 {
		opts.TopN = a.opts.TopN
	}
	if cat.Len() == 0 {
		return NoMatchResult()
	}

	candidates := a.matcher.Match(query, cat, opts.TopN)
	res := Result{
		Diseases:   make([]string, 0, len(candidates)),
		Treatments: make([]string, 0, len(candidates)),
		Scores:     make([]float64, 0, len(candidates)),
	}
	for _, c := range candidates {
		if c.Score < opts.MinScore {
			continue
		}
		rec := cat.Record(c.Index)
		res.Diseases = append(res.Diseases, rec.Diseases)
		res.Treatments = append(res.Treatments, rec.Treatment)
		res.Scores = append(res.Scores, c.Score)
	}

	if len(res.Diseases) == 0 {
		a.logger.Debug("no catalog row above threshold",
			zap.Int("candidates", len(candidates)),
			zap.Float64("min_score", opts.MinScore))
		return NoMatchResult()
	}
	return res
}
