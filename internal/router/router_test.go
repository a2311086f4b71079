package router

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		question  string
		wantRoute Route
		wantText  string
	}{
		{"/f list products", RouteFunction, "list products"},
		{"/function list products", RouteFunction, "list products"},
		{"/g what is rest?", RouteGeneral, "what is rest?"},
		{"/general what is rest?", RouteGeneral, "what is rest?"},
		{"/d how do I install?", RouteDocumentation, "how do I install?"},
		{"/docs how do I install?", RouteDocumentation, "how do I install?"},
		{"/documentation setup", RouteDocumentation, "setup"},
		{"/p setup", RouteDocumentation, "setup"},
		{"/poly setup", RouteDocumentation, "setup"},
		{"/h", RouteHelp, ""},
		{"/help", RouteHelp, ""},
		{"/help me", RouteHelp, "me"},
		{"/unknowncommand do things", RouteFunction, "do things"},
		{"get weather", RouteFunction, "get weather"},
		{"", RouteFunction, ""},
	}

	for _, tt := range tests {
		route, text := Classify(tt.question)
		if route != tt.wantRoute || text != tt.wantText {
			t.Errorf("Classify(%q) = (%s, %q), want (%s, %q)",
				tt.question, route, text, tt.wantRoute, tt.wantText)
		}
	}
}
