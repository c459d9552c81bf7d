package tools

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// GoogleAds returns the google-ads tool bundle.
func GoogleAds() []Tool {
	return []Tool{
		&mockTool{
			name:   "google_ads_get_campaigns",
			desc:   "Lists active Google Ads campaigns with budget and delivery status.",
			schema: objectSchema,
			generate: func(r *rand.Rand, _ map[string]any) any {
				names := []string{"Brand Search", "Generic Search", "Shopping - All Products", "Performance Max", "Remarketing Display"}
				campaigns := make([]map[string]any, 0, len(names))
				for _, n := range names {
					campaigns = append(campaigns, map[string]any{
						"name":         n,
						"status":       "ENABLED",
						"daily_budget": float64(r.Intn(20000)+1000) / 100,
						"impressions":  r.Intn(200000),
						"clicks":       r.Intn(8000),
					})
				}
				return map[string]any{"campaigns": campaigns}
			},
		},
		&mockTool{
			name: "google_ads_get_metrics",
			desc: "Returns aggregate performance metrics (spend, conversions, ROAS) for a date range.",
			schema: json.RawMessage(`{"type":"object","properties":{
				"days":{"type":"number","description":"Lookback window in days"}}}`),
			generate: func(r *rand.Rand, args map[string]any) any {
				days := intArg(args, "days", 30)
				spend := float64(r.Intn(500000)+50000) / 100
				conversions := 50 + r.Intn(900)
				return map[string]any{
					"period":          fmt.Sprintf("last_%d_days", days),
					"spend":           spend,
					"conversions":     conversions,
					"cost_per_conv":   spend / float64(conversions),
					"roas":            float64(150+r.Intn(450)) / 100,
					"ctr":             float64(1+r.Intn(8)) / 100,
					"avg_cpc":         float64(r.Intn(400)+40) / 100,
				}
			},
		},
	}
}
