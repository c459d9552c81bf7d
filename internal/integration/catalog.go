// Package integration tracks which external capability bundles a session has
// enabled and exposes the static catalog of integrations available per agent
// role.
package integration

import (
	"github.com/growthmate/agent-server/pkg/tools"
)

// Integration describes one connectable capability bundle.
type Integration struct {
	Name        string
	Description string
	Category    string
	Tools       []tools.Tool
}

var catalog = []Integration{
	{
		Name:        "shopify",
		Description: "Store orders, products and customer insights from Shopify.",
		Category:    "commerce",
		Tools:       tools.Shopify(),
	},
	{
		Name:        "google-ads",
		Description: "Campaign performance and spend metrics from Google Ads.",
		Category:    "advertising",
		Tools:       tools.GoogleAds(),
	},
	{
		Name:        "google-analytics",
		Description: "Traffic and behavior reports from Google Analytics.",
		Category:    "analytics",
		Tools:       tools.GoogleAnalytics(),
	},
	{
		Name:        "klaviyo",
		Description: "Email campaign and subscriber list metrics from Klaviyo.",
		Category:    "email",
		Tools:       tools.Klaviyo(),
	},
}

// roleCandidates lists which integrations each agent role may use.
var roleCandidates = map[string][]string{
	"growth":  {"shopify", "google-ads", "google-analytics", "klaviyo"},
	"analyst": {"shopify", "google-analytics"},
}

// All returns the full catalog in declaration order.
func All() []Integration {
	out := make([]Integration, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds one integration by name.
func Lookup(name string) (Integration, bool) {
	for _, in := range catalog {
		if in.Name == name {
			return in, true
		}
	}
	return Integration{}, false
}

// CandidatesForRole returns the candidate integrations for an agent role.
// Roles without an explicit entry get the whole catalog.
func CandidatesForRole(role string) []Integration {
	names, ok := roleCandidates[role]
	if !ok {
		return All()
	}
	out := make([]Integration, 0, len(names))
	for _, n := range names {
		if in, ok := Lookup(n); ok {
			out = append(out, in)
		}
	}
	return out
}
