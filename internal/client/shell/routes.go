package shell

import (
	"net/url"
	"strings"
)

type Route string

const (
	RouteLogin           Route = "login"
	RouteHome            Route = "/"
	RouteDashboard       Route = "/dashboard"
	RoutePatients        Route = "/pacientes"
	RouteConsultations   Route = "/consultas"
	RouteNewConsultation Route = "/nova-consulta"
)

// Match is the outcome of resolving a path.
type Match struct {
	Route Route
	// Path is the location the view renders under, after any redirect.
	Path       string
	PatientID  string
	Redirected bool
}

// Resolve maps a path to a view. Without a session every path resolves to
// the login view. Unknown paths redirect to the dashboard.
func Resolve(path string, authenticated bool) Match {
	clean := normalize(path)
	if !authenticated {
		return Match{Route: RouteLogin, Path: clean}
	}

	switch clean {
	case string(RouteHome):
		return Match{Route: RouteHome, Path: clean}
	case string(RouteDashboard):
		return Match{Route: RouteDashboard, Path: clean}
	case string(RoutePatients):
		return Match{Route: RoutePatients, Path: clean}
	case string(RouteConsultations):
		return Match{Route: RouteConsultations, Path: clean}
	case string(RouteNewConsultation):
		return Match{Route: RouteNewConsultation, Path: clean}
	}

	if rest, ok := strings.CutPrefix(clean, string(RouteNewConsultation)+"/"); ok && rest != "" && !strings.Contains(rest, "/") {
		id, err := url.PathUnescape(rest)
		if err == nil {
			return Match{Route: RouteNewConsultation, Path: clean, PatientID: id}
		}
	}
	return Match{Route: RouteDashboard, Path: string(RouteDashboard), Redirected: true}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
