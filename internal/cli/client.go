package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// client is a thin JSON client for the daemon API.
type client struct {
	base string
	http *http.Client
}

func newClient() *client {
	addr := rootAddr
	if addr == "" {
		addr = os.Getenv("FORGE_ADDR")
	}
	if addr == "" {
		addr = "127.0.0.1:9730"
	}
	return &client{
		base: "http://" + addr,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the daemon's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Kind    string `json:"kind"`
	} `json:"error"`
}

func (c *client) do(method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if json.NewDecoder(resp.Body).Decode(&ae) == nil && ae.Error.Message != "" {
			return fmt.Errorf("%s", ae.Error.Message)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *client) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *client) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}
