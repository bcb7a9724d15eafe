package api

import (
	"context"
	"net/http"
)

// Query runs a conversational query, optionally scoped to a set of file ids.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/query", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}
