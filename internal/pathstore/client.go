package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client communicates with the pathstore HTTP key/value API.
type Client struct {
	baseURL    string
	apiKey     string
	source     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		source:  "docscope",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is an unexpected HTTP status from pathstore.
type StatusError struct {
	Op         string
	Key        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Key, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NodeRequest is the body for PUT /kv/{key}.
type NodeRequest struct {
	Value     any    `json:"value"`
	MergeMode string `json:"merge_mode,omitempty"`
	Source    string `json:"source,omitempty"`
}

// Node is a key with its raw JSON value.
type Node struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

// Decode unmarshals the node's value into dst.
func (n Node) Decode(dst any) error {
	if err := json.Unmarshal(n.Value, dst); err != nil {
		return fmt.Errorf("decode %s: %w", n.Key, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path, key string, body any, ok ...int) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, code := range ok {
		if resp.StatusCode == code {
			return resp, nil
		}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, &StatusError{Op: op, Key: key, StatusCode: resp.StatusCode, Body: string(respBody)}
}

// PutNode replaces the value stored at key.
func (c *Client) PutNode(ctx context.Context, key string, value any) error {
	req := NodeRequest{Value: value, MergeMode: "replace", Source: c.source}
	resp, err := c.do(ctx, "put node", http.MethodPut, "/kv/"+key, key, req, http.StatusOK, http.StatusCreated)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// GetNode retrieves a node by key. It returns nil when the key is absent.
func (c *Client) GetNode(ctx context.Context, key string) (*Node, error) {
	resp, err := c.do(ctx, "get node", http.MethodGet, "/kv/"+key, key, nil, http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var node Node
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	if node.Key == "" {
		node.Key = key
	}
	return &node, nil
}

// DeleteNode deletes a node and optionally its children. Deleting an absent
// key is not an error.
func (c *Client) DeleteNode(ctx context.Context, key string, recursive bool) error {
	path := "/kv/" + key
	if recursive {
		path += "?children=true"
	}
	resp, err := c.do(ctx, "delete node", http.MethodDelete, path, key, nil, http.StatusOK, http.StatusNoContent, http.StatusNotFound)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ListChildren does a prefix scan under the given key.
func (c *Client) ListChildren(ctx context.Context, key string, limit int) ([]Node, error) {
	path := "/kv/" + key + "/*"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", limit))
	}
	resp, err := c.do(ctx, "list children", http.MethodGet, path, key, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Nodes []Node `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	return result.Nodes, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
