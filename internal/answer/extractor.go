// Package answer pulls structured function selections out of free-form model
// text. Parsing is layered: strict fenced JSON first, then a UUID scan over
// the raw text, and failures always degrade to "no match" rather than errors.
package answer

import (
	"encoding/json"
	"log"
	"regexp"
	"strconv"
	"strings"
)

var uuidPattern = regexp.MustCompile(
	`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// scoreWrongDomain is the tier the choice prompt assigns to functions from
// the wrong domain entirely; those selections are discarded.
const scoreWrongDomain = 1

type selection struct {
	ID    string          `json:"id"`
	Score json.RawMessage `json:"score"`
}

// ExtractIDs returns the ids the model selected, in the order given. Fenced
// JSON segments are tried first; the first segment that parses wins. If no
// fence parses, every UUID-shaped substring in the raw text is returned.
func ExtractIDs(raw string) []string {
	if ids, ok := extractFromFences(raw); ok {
		return ids
	}
	return uuidPattern.FindAllString(raw, -1)
}

// extractFromFences splits on triple-backtick fences and tries each segment
// as JSON. Accepts a single {id, score} object or a list of them; selections
// scored as wrong-domain are dropped.
func extractFromFences(raw string) ([]string, bool) {
	if !strings.Contains(raw, "```") {
		return nil, false
	}

	for _, segment := range strings.Split(raw, "```") {
		segment = strings.TrimSpace(segment)
		segment = strings.TrimPrefix(segment, "json")
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		var list []selection
		if err := json.Unmarshal([]byte(segment), &list); err == nil {
			return keepUsable(list), true
		}
		var single selection
		if err := json.Unmarshal([]byte(segment), &single); err == nil && single.ID != "" {
			return keepUsable([]selection{single}), true
		}
	}
	return nil, false
}

func keepUsable(selections []selection) []string {
	var ids []string
	for _, sel := range selections {
		if sel.ID == "" {
			continue
		}
		if score, ok := numericScore(sel.Score); ok && score == scoreWrongDomain {
			continue
		}
		ids = append(ids, sel.ID)
	}
	return ids
}

// numericScore tolerates both numbers and numeric strings; the model does not
// always quote consistently.
func numericScore(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return parsed, true
		}
	}
	return 0, false
}

// Rehydrate maps short aliases back to real ids. Ids that are not aliases
// (UUID-shaped fallback results) pass through untouched; an unresolvable
// alias is a protocol violation, logged and dropped.
func Rehydrate(ids []string, resolve func(alias string) (string, bool)) []string {
	if resolve == nil {
		return ids
	}

	var out []string
	for _, id := range ids {
		if uuidPattern.MatchString(id) {
			out = append(out, id)
			continue
		}
		real, ok := resolve(id)
		if !ok {
			log.Printf("answer: model returned unknown alias %q", id)
			continue
		}
		out = append(out, real)
	}
	return out
}
