package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "http://127.0.0.1:11434"

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type VersionResponse struct {
	Version string `json:"version"`
}

func (c *Client) Version(ctx context.Context) (*VersionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/version", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("version status=%d", res.StatusCode)
	}
	var out VersionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitReady polls the version endpoint until the server answers or the
// timeout elapses. Bridges the gap between `systemctl start` and a
// usable API.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := c.Version(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server at %s not ready after %s", c.BaseURL, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// HasModel reports whether a model is already present locally. A bare
// name matches any tag of it ("llama3" matches "llama3:latest").
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return false, fmt.Errorf("tags status=%d", res.StatusCode)
	}
	var out TagsResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, err
	}

	want, wantTag, wantTagged := strings.Cut(name, ":")
	for _, m := range out.Models {
		have, haveTag, _ := strings.Cut(m.Name, ":")
		if have != want {
			continue
		}
		if !wantTagged || haveTag == wantTag {
			return true, nil
		}
	}
	return false, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate runs a single non-streaming completion against a local model
// and returns its response text. Used as the post-install smoke test.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, _ := json.Marshal(generateRequest{Model: model, Prompt: prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	// First-token latency on a cold model can far exceed the default
	// timeout while the weights load.
	httpc := *c.HTTP
	httpc.Timeout = 0
	res, err := httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("generate %s status=%d", model, res.StatusCode)
	}
	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("generate %s: %s", model, out.Error)
	}
	return out.Response, nil
}

type pullRequest struct {
	Name string `json:"name"`
}

// PullStatus is one line of the streaming pull response.
type PullStatus struct {
	Status    string `json:"status"`
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
	Error     string `json:"error"`
}

// Pull downloads a model, invoking progress for each status line the
// server streams back. progress may be nil. Pulls of already-present
// models succeed quickly by the server's own contract.
func (c *Client) Pull(ctx context.Context, name string, progress func(PullStatus)) error {
	body, _ := json.Marshal(pullRequest{Name: name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Model downloads outlast the default client timeout. Keep the
	// configured transport, drop only the deadline.
	httpc := *c.HTTP
	httpc.Timeout = 0
	res, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("pull %s status=%d", name, res.StatusCode)
	}

	sc := bufio.NewScanner(res.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var st PullStatus
		if err := json.Unmarshal(line, &st); err != nil {
			continue
		}
		if st.Error != "" {
			return fmt.Errorf("pull %s: %s", name, st.Error)
		}
		if progress != nil {
			progress(st)
		}
	}
	return sc.Err()
}
