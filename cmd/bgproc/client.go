package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/loykin/bgproc/internal/action"
)

// APIClient provides HTTP client functionality to communicate with the
// bgproc daemon.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8951/api"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *APIClient) IsReachable() bool {
	resp, err := c.client.Get(c.baseURL + "/list")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Start launches a new background process via the daemon.
func (c *APIClient) Start(req action.StartRequest) (*action.StartResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Post(c.baseURL+"/start", "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var out action.StartResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches all tracked records.
func (c *APIClient) List() (*action.ListResult, error) {
	resp, err := c.client.Get(c.baseURL + "/list")
	if err != nil {
		return nil, err
	}
	var out action.ListResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Output fetches the rendered recent output of one process.
func (c *APIClient) Output(target string) (*action.OutputResult, error) {
	resp, err := c.client.Get(c.baseURL + "/output?id=" + url.QueryEscape(target))
	if err != nil {
		return nil, err
	}
	var out action.OutputResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logs fetches the log file paths of one process.
func (c *APIClient) Logs(target string) (*action.LogsResult, error) {
	resp, err := c.client.Get(c.baseURL + "/logs?id=" + url.QueryEscape(target))
	if err != nil {
		return nil, err
	}
	var out action.LogsResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Kill asks the daemon to terminate a process.
func (c *APIClient) Kill(target string) (*action.KillResult, error) {
	resp, err := c.client.Post(c.baseURL+"/kill?id="+url.QueryEscape(target), "application/json", nil)
	if err != nil {
		return nil, err
	}
	var out action.KillResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear removes finished records from the daemon's registry.
func (c *APIClient) Clear() (*action.ClearResult, error) {
	resp, err := c.client.Post(c.baseURL+"/clear", "application/json", nil)
	if err != nil {
		return nil, err
	}
	var out action.ClearResult
	if err := decodeResp(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeResp(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
