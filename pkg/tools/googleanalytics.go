package tools

import (
	"encoding/json"
	"math/rand"
)

// GoogleAnalytics returns the google-analytics tool bundle.
func GoogleAnalytics() []Tool {
	return []Tool{
		&mockTool{
			name: "analytics_get_traffic_report",
			desc: "Reports sessions, users and conversion rate broken down by channel.",
			schema: json.RawMessage(`{"type":"object","properties":{
				"days":{"type":"number","description":"Lookback window in days"}}}`),
			generate: func(r *rand.Rand, _ map[string]any) any {
				channels := []string{"organic", "paid_search", "direct", "email", "social"}
				rows := make([]map[string]any, 0, len(channels))
				for _, c := range channels {
					rows = append(rows, map[string]any{
						"channel":         c,
						"sessions":        1000 + r.Intn(50000),
						"users":           800 + r.Intn(40000),
						"conversion_rate": float64(1+r.Intn(60)) / 1000,
					})
				}
				return map[string]any{"channels": rows}
			},
		},
		&mockTool{
			name:   "analytics_get_top_pages",
			desc:   "Lists the most visited pages with views and bounce rate.",
			schema: objectSchema,
			generate: func(r *rand.Rand, _ map[string]any) any {
				paths := []string{"/", "/collections/new", "/products/best-seller", "/blog/buying-guide", "/pages/about"}
				pages := make([]map[string]any, 0, len(paths))
				for _, p := range paths {
					pages = append(pages, map[string]any{
						"path":        p,
						"views":       500 + r.Intn(30000),
						"bounce_rate": float64(20+r.Intn(60)) / 100,
					})
				}
				return map[string]any{"pages": pages}
			},
		},
	}
}
