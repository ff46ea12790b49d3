package analyzer

import "strings"

// Naming conventions the classifier relies on. Like any naming heuristic these
// only catch the common spellings.

// appInstanceNames are identifiers treated as the application instance binding
var appInstanceNames = map[string]bool{
	"app":         true,
	"server":      true,
	"application": true,
}

// routeReceivers are identifiers whose method calls register JavaScript routes
var routeReceivers = map[string]bool{
	"app":         true,
	"server":      true,
	"application": true,
	"router":      true,
}

// routeMethods are member names that register a route handler
var routeMethods = map[string]bool{
	"get":     true,
	"post":    true,
	"put":     true,
	"patch":   true,
	"delete":  true,
	"options": true,
	"head":    true,
	"all":     true,
	"use":     true,
	"route":   true,
}

const (
	// routeDecorator is the attribute name marking a route handler
	routeDecorator = "route"

	// pythonEntryName is the identifier compared in Python's entry guard
	pythonEntryName = "__name__"
)

// isAppInstanceName reports whether an identifier names the application instance
func isAppInstanceName(name string) bool {
	return appInstanceNames[name]
}

// isRouteReceiver reports whether an identifier can register JavaScript routes
func isRouteReceiver(name string) bool {
	return routeReceivers[name]
}

// isRouteMethod reports whether a member name registers a route handler
func isRouteMethod(name string) bool {
	return routeMethods[strings.ToLower(name)]
}

// canonicalize renders a fragment for dedup and bucket storage: trailing
// whitespace is removed from every line and blank edges are trimmed.
func canonicalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
