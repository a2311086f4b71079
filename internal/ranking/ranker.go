package ranking

import (
	"context"
	"sort"
	"strings"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/settings"
)

// Blacklisted terms stripped from the keyword string before scoring. These
// words show up in almost every question and would inflate every score.
var blacklisted = []string{"api"}

// ScoredPath pairs an entry's dotted path with its similarity score, for
// diagnostics.
type ScoredPath struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// Stats describes one ranking pass: bucket sizes, per-entry scores, and the
// knob values in effect when the pass ran.
type Stats struct {
	TotalFunctions int          `json:"total_functions"`
	TotalVariables int          `json:"total_variables"`
	FunctionScores []ScoredPath `json:"function_scores,omitempty"`
	VariableScores []ScoredPath `json:"variable_scores,omitempty"`
	MatchCount     int          `json:"match_count"`
	Config         StatsConfig  `json:"config"`
}

// StatsConfig echoes the settings a ranking pass used.
type StatsConfig struct {
	FunctionMatchLimit         int     `json:"function_match_limit"`
	VariableMatchLimit         int     `json:"variable_match_limit"`
	SimilarityThreshold        int     `json:"similarity_threshold"`
	ExtractKeywordsTemperature float64 `json:"extract_keywords_temperature"`
}

// Ranker scores catalog entries against keyword strings. Thresholds and
// limits come from settings and are read fresh on every call.
type Ranker struct {
	settings *settings.Settings
}

// NewRanker creates a Ranker over the given settings.
func NewRanker(s *settings.Settings) *Ranker {
	return &Ranker{settings: s}
}

// Rank partitions the catalog into function-like and variable buckets, scores
// every entry against the keyword string, and returns the entries that clear
// their bucket's threshold, best first, functions before variables. An empty
// keyword string matches everything at the sentinel score -1.
func (r *Ranker) Rank(ctx context.Context, specs []catalog.Spec, keywords string) ([]catalog.Spec, Stats) {
	functionThreshold := r.settings.FunctionSimilarityThreshold(ctx)
	variableThreshold := r.settings.VariableSimilarityThreshold(ctx)

	stats := Stats{
		Config: StatsConfig{
			FunctionMatchLimit:         r.settings.FunctionMatchLimit(ctx),
			VariableMatchLimit:         r.settings.VariableMatchLimit(ctx),
			SimilarityThreshold:        functionThreshold,
			ExtractKeywordsTemperature: r.settings.ExtractKeywordsTemperature(ctx),
		},
	}

	var funcs, variables []catalog.Spec
	for _, s := range specs {
		if s.Kind.FunctionLike() {
			funcs = append(funcs, s)
		} else {
			variables = append(variables, s)
		}
	}
	stats.TotalFunctions = len(funcs)
	stats.TotalVariables = len(variables)

	// Keyword-less is decided on the raw string: keywords that survive only
	// as blacklisted terms still get scored (and match nothing), they do not
	// accept the whole catalog.
	keywordless := keywords == ""
	needle := stripBlacklist(strings.ToLower(keywords))

	scoredFuncs := scoreBucket(funcs, needle, keywordless)
	scoredVars := scoreBucket(variables, needle, keywordless)

	// Keyword-less ranking accepts everything, so the caps do not apply.
	functionLimit, variableLimit := stats.Config.FunctionMatchLimit, stats.Config.VariableMatchLimit
	if keywordless {
		functionLimit, variableLimit = 0, 0
	}
	topFuncs := takeTop(scoredFuncs, functionThreshold, functionLimit)
	topVars := takeTop(scoredVars, variableThreshold, variableLimit)

	// The function threshold governs the diagnostic match count for both
	// buckets, matching what the similarity_threshold field echoes.
	seen := map[string]bool{}
	for _, sc := range scoredFuncs {
		stats.FunctionScores = append(stats.FunctionScores, ScoredPath{Path: sc.spec.Path(), Score: sc.score})
		if sc.score > functionThreshold {
			seen[sc.spec.ID] = true
		}
	}
	for _, sc := range scoredVars {
		stats.VariableScores = append(stats.VariableScores, ScoredPath{Path: sc.spec.Path(), Score: sc.score})
		if sc.score > functionThreshold {
			seen[sc.spec.ID] = true
		}
	}
	stats.MatchCount = len(seen)

	return append(topFuncs, topVars...), stats
}

// FilterByHTTPMethod keeps only matches whose method is in the comma-separated
// allow-list. An empty allow-list keeps everything. Entries without a method
// (custom functions, variables) always pass.
func FilterByHTTPMethod(specs []catalog.Spec, httpMethods string) []catalog.Spec {
	if strings.TrimSpace(httpMethods) == "" {
		return specs
	}
	allowed := map[string]bool{}
	for _, m := range strings.Split(httpMethods, ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			allowed[m] = true
		}
	}

	var out []catalog.Spec
	for _, s := range specs {
		if s.Method == "" || allowed[strings.ToUpper(s.Method)] {
			out = append(out, s)
		}
	}
	return out
}

type scored struct {
	spec  catalog.Spec
	score int
}

func scoreBucket(specs []catalog.Spec, needle string, keywordless bool) []scored {
	out := make([]scored, 0, len(specs))
	for _, s := range specs {
		out = append(out, scored{spec: s, score: scoreSpec(s, needle, keywordless)})
	}
	// Stable keeps catalog order among equal scores.
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// scoreSpec compares the keyword string against the entry's context, name,
// and description. No keywords means everything matches at the sentinel -1.
func scoreSpec(s catalog.Spec, needle string, keywordless bool) int {
	if keywordless {
		return -1
	}

	var parts []string
	if s.Context != "" {
		parts = append(parts, s.Context)
	}
	if s.Name != "" {
		parts = append(parts, s.Name)
	}
	haystack := strings.ToLower(strings.Join(parts, " "))
	if s.Description != "" {
		haystack += "\n" + s.Description
	}

	return TokenSetRatio(needle, haystack)
}

func takeTop(items []scored, threshold, limit int) []catalog.Spec {
	var out []catalog.Spec
	for _, sc := range items {
		if sc.score == -1 || sc.score > threshold {
			out = append(out, sc.spec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func stripBlacklist(keywords string) string {
	for _, word := range blacklisted {
		keywords = strings.ReplaceAll(keywords, word, "")
	}
	return keywords
}
