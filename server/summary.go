package server

import (
	"strings"
	"unicode"
)

// System route paths registered by default (health, info, metrics).
// They sort after the API routes in the startup summary.
var systemPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/metrics": true,
}

// methodRank orders HTTP methods in route listings, GET first.
var methodRank = map[string]int{
	"GET":    0,
	"POST":   1,
	"PUT":    2,
	"PATCH":  3,
	"DELETE": 4,
}

func methodOrder(method string) int {
	if rank, ok := methodRank[method]; ok {
		return rank
	}
	return len(methodRank)
}

// formatHandlerName reduces Gin's fully qualified handler path to a
// readable name for the startup summary. Gin stores handlers like
// "github.com/skillsenselab/vbdiar/service.(*Service).handleResegment-fm";
// this yields "Service.handleResegment".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	// Closures register as "Server.RegisterDefaultEndpoints.Health.func1";
	// keep the last named segment.
	if strings.Contains(name, ".func") {
		name = lastNamedSegment(name)
	}

	return trimPackageQualifier(name)
}

func lastNamedSegment(name string) string {
	parts := strings.Split(name, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if !strings.HasPrefix(parts[i], "func") {
			return strings.ToLower(parts[i])
		}
	}
	return name
}

// trimPackageQualifier drops a leading all-lowercase package name, so
// "service.Service.handleResegment" reads "Service.handleResegment".
func trimPackageQualifier(name string) string {
	head, rest, ok := strings.Cut(name, ".")
	if !ok || rest == "" {
		return name
	}
	if strings.ContainsFunc(head, unicode.IsUpper) {
		return name
	}
	return rest
}
