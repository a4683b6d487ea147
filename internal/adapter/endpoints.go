package adapter

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint describes one store API call. Global endpoints are served from
// the API host rather than a project host.
type Endpoint struct {
	Global       bool
	Method       string
	Path         string
	SearchParams [][2]string
}

// Visibility controls when the effects of a mutation become visible to queries.
type Visibility string

// Visibility modes.
const (
	VisibilityAsync    Visibility = "async"
	VisibilitySync     Visibility = "sync"
	VisibilityDeferred Visibility = "deferred"
)

// MutateOptions are the query options of the mutate endpoint.
type MutateOptions struct {
	ReturnIDs       bool
	ReturnDocuments bool
	Visibility      Visibility
	DryRun          bool
	Tag             string
}

// UsersMeEndpoint returns the current-user endpoint.
func UsersMeEndpoint() Endpoint {
	return Endpoint{Global: true, Method: "GET", Path: "/users/me"}
}

// DataQueryEndpoint returns the query endpoint for dataset.
func DataQueryEndpoint(dataset string) Endpoint {
	return Endpoint{Method: "GET", Path: "/query/" + dataset}
}

// DataExportEndpoint returns the export endpoint for dataset restricted to documentTypes.
func DataExportEndpoint(dataset string, documentTypes []string) Endpoint {
	return Endpoint{
		Method:       "GET",
		Path:         "/data/export/" + dataset,
		SearchParams: [][2]string{{"types", strings.Join(documentTypes, ",")}},
	}
}

// DataMutateEndpoint returns the mutate endpoint for dataset. Options that
// are unset are left out of the query.
func DataMutateEndpoint(dataset string, options MutateOptions) Endpoint {
	var params [][2]string

	if options.Tag != "" {
		params = append(params, [2]string{"tag", options.Tag})
	}

	if options.ReturnIDs {
		params = append(params, [2]string{"returnIds", "true"})
	}

	if options.ReturnDocuments {
		params = append(params, [2]string{"returnDocuments", "true"})
	}

	if options.Visibility != "" {
		params = append(params, [2]string{"visibility", string(options.Visibility)})
	}

	if options.DryRun {
		params = append(params, [2]string{"dryRun", "true"})
	}

	return Endpoint{Method: "POST", Path: "/data/mutate/" + dataset, SearchParams: params}
}

// APIConfig identifies the store project and credentials.
type APIConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	// BaseURL overrides the API host, e.g. for a local test server.
	BaseURL string
}

const defaultAPIHost = "api.sanity.io"

// URL resolves e against the configured project.
func (c APIConfig) URL(e Endpoint) (string, error) {
	version := strings.TrimPrefix(c.APIVersion, "v")
	if version == "" {
		return "", fmt.Errorf("api version is required")
	}

	base := c.BaseURL

	switch {
	case base != "":
		base = strings.TrimSuffix(base, "/")
	case e.Global:
		base = "https://" + defaultAPIHost
	case c.ProjectID == "":
		return "", fmt.Errorf("project id is required for %s", e.Path)
	default:
		base = "https://" + c.ProjectID + "." + defaultAPIHost
	}

	u, err := url.Parse(base + "/v" + version + e.Path)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	if len(e.SearchParams) > 0 {
		parts := make([]string, 0, len(e.SearchParams))
		for _, p := range e.SearchParams {
			parts = append(parts, url.QueryEscape(p[0])+"="+url.QueryEscape(p[1]))
		}

		u.RawQuery = strings.Join(parts, "&")
	}

	return u.String(), nil
}
