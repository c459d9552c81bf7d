// Package tools defines the capability descriptor contract and the mock
// integration tool bundles. Executors are pure and stateless: identical
// input always produces identical output.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
)

// Tool is the interface every callable capability satisfies.
type Tool interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Run(ctx context.Context, args map[string]any) (string, error)
}

// mockTool backs every mock integration tool with a deterministic generator.
type mockTool struct {
	name     string
	desc     string
	schema   json.RawMessage
	generate func(r *rand.Rand, args map[string]any) any
}

// Name returns the name of the tool
func (t *mockTool) Name() string { return t.name }

// Description returns the description of the tool
func (t *mockTool) Description() string { return t.desc }

// InputSchema returns the JSON schema for the tool arguments
func (t *mockTool) InputSchema() json.RawMessage { return t.schema }

// Run runs the tool
func (t *mockTool) Run(_ context.Context, args map[string]any) (string, error) {
	out := t.generate(rng(t.name, args), args)
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal %s output: %w", t.name, err)
	}
	return string(b), nil
}

// rng seeds a generator from the tool name and arguments so repeated calls
// with the same input yield the same data.
func rng(name string, args map[string]any) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%v", k, args[k])
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

var objectSchema = json.RawMessage(`{"type":"object","properties":{}}`)
