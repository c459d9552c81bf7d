package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBundlesSatisfyDescriptorContract(t *testing.T) {
	bundles := map[string][]Tool{
		"shopify":          Shopify(),
		"google-ads":       GoogleAds(),
		"google-analytics": GoogleAnalytics(),
		"klaviyo":          Klaviyo(),
	}
	for name, bundle := range bundles {
		require.NotEmpty(t, bundle, name)
		for _, tool := range bundle {
			require.NotEmpty(t, tool.Name())
			require.NotEmpty(t, tool.Description())
			var schema map[string]any
			require.NoError(t, json.Unmarshal(tool.InputSchema(), &schema), tool.Name())
			require.Equal(t, "object", schema["type"])
		}
	}
}

func TestExecutorsArePure(t *testing.T) {
	orders := Shopify()[0]
	args := map[string]any{"limit": float64(3)}

	first, err := orders.Run(context.Background(), args)
	require.NoError(t, err)
	second, err := orders.Run(context.Background(), args)
	require.NoError(t, err)
	require.Equal(t, first, second, "identical input yields identical output")

	other, err := orders.Run(context.Background(), map[string]any{"limit": float64(4)})
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestOrdersRespectLimit(t *testing.T) {
	out, err := Shopify()[0].Run(context.Background(), map[string]any{"limit": float64(2)})
	require.NoError(t, err)

	var parsed struct {
		Orders []map[string]any `json:"orders"`
		Count  int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Orders, 2)
	require.Equal(t, 2, parsed.Count)
}
