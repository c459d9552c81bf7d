package tools

import (
	"math/rand"
)

// Klaviyo returns the klaviyo email-marketing tool bundle.
func Klaviyo() []Tool {
	return []Tool{
		&mockTool{
			name:   "klaviyo_get_campaigns",
			desc:   "Lists recent email campaigns with open and click rates.",
			schema: objectSchema,
			generate: func(r *rand.Rand, _ map[string]any) any {
				names := []string{"Welcome Series", "Abandoned Cart", "Spring Sale", "Win-back", "New Arrivals"}
				campaigns := make([]map[string]any, 0, len(names))
				for _, n := range names {
					campaigns = append(campaigns, map[string]any{
						"name":       n,
						"sent":       1000 + r.Intn(20000),
						"open_rate":  float64(15+r.Intn(40)) / 100,
						"click_rate": float64(1+r.Intn(10)) / 100,
					})
				}
				return map[string]any{"campaigns": campaigns}
			},
		},
		&mockTool{
			name:   "klaviyo_get_list_growth",
			desc:   "Summarizes subscriber list growth and churn over the last month.",
			schema: objectSchema,
			generate: func(r *rand.Rand, _ map[string]any) any {
				return map[string]any{
					"subscribers":     5000 + r.Intn(50000),
					"new_last_30d":    100 + r.Intn(2000),
					"unsubscribed":    10 + r.Intn(400),
					"net_growth_rate": float64(r.Intn(80)) / 1000,
				}
			},
		},
	}
}
