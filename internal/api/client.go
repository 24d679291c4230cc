// Package api reads mosque documents from the remote document API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

const defaultBaseURL = "https://api.mosque-times.app/v1"

// ErrNotFound is returned when the store has no such document.
var ErrNotFound = errors.New("document not found")

// envelope is the top-level document API response.
type envelope[T any] struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// Client communicates with the mosque document API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Exported for testing with httptest.
	BaseURL string
	// MosqueID selects the mosque whose documents are read.
	MosqueID string
	// Token, when set, is sent as a bearer token.
	Token string
}

// NewClient creates a new API client with sensible defaults.
func NewClient(baseURL, mosqueID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MosqueID: mosqueID,
	}
}

// FetchPrayerTimes fetches the prayer schedule for the given mosque-local date.
func (c *Client) FetchPrayerTimes(date time.Time) (*mosque.PrayerTimeSet, error) {
	var out envelope[mosque.PrayerTimeSet]
	if err := c.get(c.docURL("prayerTimes", date.Format("2006-01-02")), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// FetchJumuah fetches the current Jumu'ah sessions.
func (c *Client) FetchJumuah() (*mosque.JumuahTimeSet, error) {
	var out envelope[mosque.JumuahTimeSet]
	if err := c.get(c.docURL("jumuahTimes", "current"), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// FetchSettings fetches the mosque settings document.
func (c *Client) FetchSettings() (*mosque.Settings, error) {
	var out envelope[mosque.Settings]
	if err := c.get(c.docURL("settings"), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) docURL(parts ...string) string {
	escaped := []string{c.BaseURL, "mosques", url.PathEscape(c.MosqueID)}
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

func (c *Client) get(reqURL string, out any) error {
	if c.MosqueID == "" {
		return fmt.Errorf("no mosque configured; set one with 'mosque-times config set mosque_id <id>'")
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", reqURL, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read API response: %w", err)
	}

	var head struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	if head.Code != http.StatusOK {
		return fmt.Errorf("API error: code=%d status=%s", head.Code, head.Status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}

	return nil
}
