// Package router classifies questions into pipeline routes based on a
// leading slash command.
package router

import "strings"

// Route names a processing path for a question.
type Route string

const (
	RouteFunction      Route = "function"
	RouteGeneral       Route = "general"
	RouteDocumentation Route = "documentation"
	RouteHelp          Route = "help"
)

var aliases = map[string]Route{
	"f":             RouteFunction,
	"function":      RouteFunction,
	"p":             RouteDocumentation,
	"poly":          RouteDocumentation,
	"d":             RouteDocumentation,
	"docs":          RouteDocumentation,
	"documentation": RouteDocumentation,
	"h":             RouteHelp,
	"help":          RouteHelp,
	"g":             RouteGeneral,
	"general":       RouteGeneral,
}

// Classify maps a raw question to its route and strips the slash command.
// Questions without a leading slash always take the function route; unknown
// commands do too, keeping the remainder as the question.
func Classify(question string) (Route, string) {
	if !strings.HasPrefix(question, "/") {
		return RouteFunction, question
	}

	command, rest, found := strings.Cut(question, " ")
	if !found {
		rest = ""
	}
	rest = strings.TrimSpace(rest)

	route, ok := aliases[strings.ToLower(strings.TrimPrefix(command, "/"))]
	if !ok {
		return RouteFunction, rest
	}
	return route, rest
}
