package dataimport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/placeholder"
	"github.com/kayz/promptsmith/internal/security"
)

const maxGraphQLResponse = 8 << 20

// GraphQLRequest is one query against an endpoint.
type GraphQLRequest struct {
	Endpoint  string            `json:"endpoint"`
	Headers   map[string]string `json:"headers,omitempty"`
	Query     string            `json:"query"`
	Variables map[string]any    `json:"variables,omitempty"`
}

// GraphQLError is an entry of the response's errors array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLResult is a decoded response.
type GraphQLResult struct {
	Data   map[string]any `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// Lookup resolves a dot path relative to the data object.
func (r *GraphQLResult) Lookup(field string) (any, bool) {
	if r == nil || r.Data == nil {
		return nil, false
	}
	return placeholder.Resolve(r.Data, field)
}

// Fields lists the dot paths of every scalar leaf of the data object.
func (r *GraphQLResult) Fields() []string {
	if r == nil {
		return nil
	}
	return ExtractFields(r.Data)
}

// GraphQLClient posts queries and caches results for a short time.
type GraphQLClient struct {
	http   *http.Client
	policy security.EndpointPolicy
	cache  *expirable.LRU[string, *GraphQLResult]
}

// NewGraphQLClient builds a client from config. A zero cache size disables caching.
func NewGraphQLClient(cfg config.GraphQLConfig) *GraphQLClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &GraphQLClient{
		http:   &http.Client{Timeout: timeout},
		policy: security.EndpointPolicy{AllowPrivate: cfg.AllowPrivate},
	}
	if cfg.CacheSize > 0 {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		c.cache = expirable.NewLRU[string, *GraphQLResult](cfg.CacheSize, nil, ttl)
	}
	return c
}

// Query runs req. A response carrying errors but no data is an error;
// partial data is returned with its errors.
func (c *GraphQLClient) Query(ctx context.Context, req GraphQLRequest) (*GraphQLResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("graphql query is required")
	}
	endpoint, err := c.policy.Validate(req.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("graphql endpoint: %w", err)
	}
	req.Endpoint = endpoint

	key := cacheKey(req)
	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok {
			logger.Debug("GraphQL cache hit for %s", endpoint)
			return res, nil
		}
	}

	body, err := json.Marshal(map[string]any{"query": req.Query, "variables": req.Variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphQLResponse))
	if err != nil {
		return nil, fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql endpoint returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var res GraphQLResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if res.Data == nil && len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", res.Errors[0].Message)
	}
	logger.Info("GraphQL query to %s returned %d fields in %s", endpoint, len(res.Fields()), time.Since(start).Round(time.Millisecond))

	if c.cache != nil {
		c.cache.Add(key, &res)
	}
	return &res, nil
}

func cacheKey(req GraphQLRequest) string {
	headers := make([]string, 0, len(req.Headers))
	for k, v := range req.Headers {
		headers = append(headers, strings.ToLower(k)+"="+v)
	}
	sort.Strings(headers)
	vars, _ := json.Marshal(req.Variables)
	h := sha256.New()
	for _, part := range []string{req.Endpoint, req.Query, strings.Join(headers, "\n"), string(vars)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExtractFields walks data depth-first and returns the dot path of each
// scalar leaf. __typename keys are skipped and lists contribute their first
// element. Map keys are visited in sorted order.
func ExtractFields(data any) []string {
	var fields []string
	var walk func(v any, prefix string)
	walk = func(v any, prefix string) {
		switch t := v.(type) {
		case map[string]any:
			for _, k := range sortedKeys(t) {
				if k == "__typename" {
					continue
				}
				path := k
				if prefix != "" {
					path = prefix + "." + k
				}
				switch t[k].(type) {
				case map[string]any, []any:
					walk(t[k], path)
				default:
					fields = append(fields, path)
				}
			}
		case []any:
			if len(t) > 0 {
				walk(t[0], prefix)
			}
		}
	}
	walk(data, "")
	return fields
}
