// Package routes declares HTTP routes as nested groups and registers them
// on a ServeMux.
package routes

import (
	"net/http"
	"slices"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Group organizes routes under a common prefix. Middleware applies to the
// group's routes and to every child group.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(pattern string, handler http.Handler) {
		mux.Handle(pattern, handler)
	})
}

// Patterns lists the "METHOD /path" patterns the groups register, in
// declaration order.
func Patterns(groups ...Group) []string {
	var out []string
	walk(groups, func(pattern string, _ http.Handler) {
		out = append(out, pattern)
	})
	return out
}

func walk(groups []Group, visit func(pattern string, handler http.Handler)) {
	for _, group := range groups {
		walkGroup("", nil, group, visit)
	}
}

func walkGroup(parentPrefix string, parentMW []Middleware, group Group, visit func(string, http.Handler)) {
	prefix := parentPrefix + group.Prefix
	stack := append(slices.Clone(parentMW), group.Middleware...)

	for _, route := range group.Routes {
		var handler http.Handler = route.Handler
		for i := len(stack) - 1; i >= 0; i-- {
			handler = stack[i](handler)
		}
		visit(route.Method+" "+prefix+route.Pattern, handler)
	}
	for _, child := range group.Children {
		walkGroup(prefix, stack, child, visit)
	}
}
