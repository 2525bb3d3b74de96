package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// scan posts one token and returns the notice the API answered with. Any
// status with a notice body is a result, not an error.
func (c *client) scan(ctx context.Context, token string) (notice, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return notice{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scans", bytes.NewReader(body))
	if err != nil {
		return notice{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return notice{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Notice *notice `json:"notice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Notice == nil {
		return notice{}, fmt.Errorf("unexpected response: %s", resp.Status)
	}
	return *out.Notice, nil
}
