package prompt

import "strconv"

// AliasMap rewrites verbose catalog ids to short integer aliases so prompts
// stay small. The mapping lives only for one turn and is never persisted.
type AliasMap struct {
	next    int
	byAlias map[string]string
}

// NewAliasMap creates an empty alias map.
func NewAliasMap() *AliasMap {
	return &AliasMap{next: 1, byAlias: map[string]string{}}
}

// Alias returns the short alias for the given real id, assigning the next
// integer on first sight.
func (a *AliasMap) Alias(realID string) string {
	for alias, id := range a.byAlias {
		if id == realID {
			return alias
		}
	}
	alias := strconv.Itoa(a.next)
	a.next++
	a.byAlias[alias] = realID
	return alias
}

// Resolve maps an alias back to its real id.
func (a *AliasMap) Resolve(alias string) (string, bool) {
	id, ok := a.byAlias[alias]
	return id, ok
}

// Len returns how many aliases have been assigned.
func (a *AliasMap) Len() int {
	return len(a.byAlias)
}
