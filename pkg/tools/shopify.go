package tools

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// Shopify returns the shopify tool bundle.
func Shopify() []Tool {
	return []Tool{
		&mockTool{
			name: "shopify_get_orders",
			desc: "Fetches recent orders from the Shopify store, including totals and fulfillment status.",
			schema: json.RawMessage(`{"type":"object","properties":{
				"limit":{"type":"number","description":"Maximum number of orders to return"}}}`),
			generate: func(r *rand.Rand, args map[string]any) any {
				limit := intArg(args, "limit", 5)
				orders := make([]map[string]any, 0, limit)
				statuses := []string{"fulfilled", "partial", "unfulfilled"}
				for i := 0; i < limit; i++ {
					orders = append(orders, map[string]any{
						"id":         fmt.Sprintf("#%d", 1000+r.Intn(9000)),
						"total":      float64(r.Intn(40000)+500) / 100,
						"currency":   "USD",
						"status":     statuses[r.Intn(len(statuses))],
						"created_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, r.Intn(180)).Format(time.RFC3339),
					})
				}
				return map[string]any{"orders": orders, "count": len(orders)}
			},
		},
		&mockTool{
			name: "shopify_get_products",
			desc: "Lists products in the Shopify catalog with inventory levels and pricing.",
			schema: json.RawMessage(`{"type":"object","properties":{
				"limit":{"type":"number","description":"Maximum number of products to return"}}}`),
			generate: func(r *rand.Rand, args map[string]any) any {
				limit := intArg(args, "limit", 5)
				names := []string{"Trail Running Shoes", "Merino Base Layer", "Insulated Bottle", "Packable Rain Jacket", "Climbing Chalk Bag", "Wool Hiking Socks"}
				products := make([]map[string]any, 0, limit)
				for i := 0; i < limit; i++ {
					products = append(products, map[string]any{
						"title":     names[r.Intn(len(names))],
						"price":     float64(r.Intn(15000)+999) / 100,
						"inventory": r.Intn(500),
						"vendor":    "growthmate-demo",
					})
				}
				return map[string]any{"products": products}
			},
		},
		&mockTool{
			name:   "shopify_get_customers",
			desc:   "Summarizes the customer base: new vs returning counts and average order value.",
			schema: objectSchema,
			generate: func(r *rand.Rand, _ map[string]any) any {
				return map[string]any{
					"total_customers":     1200 + r.Intn(4000),
					"new_last_30d":        50 + r.Intn(300),
					"returning_rate":      float64(20+r.Intn(40)) / 100,
					"average_order_value": float64(r.Intn(12000)+2000) / 100,
				}
			},
		},
	}
}
