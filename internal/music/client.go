package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIBase  = "https://api.spotify.com/v1"

	// Spotify 搜索接口单次最多返回的条数
	maxSearchLimit = 20
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Track describes one search result in the shape the dashboard consumes.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	ImageURL   string `json:"image_url"`
	EmbedURL   string `json:"embed_url"`
	PreviewURL string `json:"preview_url"`
	DurationMS int    `json:"duration_ms"`
}

// Client resolves text queries against the Spotify search API using the
// client-credentials flow. Search is best-effort: every failure path yields
// an empty result set instead of an error.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBase      string
	http         httpDoer
}

// NewClient creates a music lookup client with the given service credentials.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		tokenURL:     defaultTokenURL,
		apiBase:      defaultAPIBase,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
		return
	}
	c.http = client
}

// SetEndpoints overrides the token and API base URLs, mainly for tests.
func (c *Client) SetEndpoints(tokenURL, apiBase string) {
	if trimmed := strings.TrimSpace(tokenURL); trimmed != "" {
		c.tokenURL = trimmed
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(apiBase), "/"); trimmed != "" {
		c.apiBase = trimmed
	}
}

// Configured reports whether service credentials are present.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type searchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
			PreviewURL string `json:"preview_url"`
			DurationMS int    `json:"duration_ms"`
		} `json:"items"`
	} `json:"tracks"`
}

// Search resolves a query to a list of track descriptors. Any failure
// (missing credentials, auth error, rate limit, network error) returns an
// empty slice; the caller never sees an error.
func (c *Client) Search(ctx context.Context, query string, limit int) []Track {
	if !c.Configured() {
		return nil
	}

	// 令牌不跨请求缓存，每次搜索重新换取
	token, err := c.fetchToken(ctx)
	if err != nil {
		log.Printf("music search: token exchange failed: %v", err)
		return nil
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", "BR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("music search: request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("music search: unexpected status %d", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("music search: decode failed: %v", err)
		return nil
	}

	results := make([]Track, 0, len(parsed.Tracks.Items))
	for _, item := range parsed.Tracks.Items {
		track := Track{
			ID:         item.ID,
			Name:       item.Name,
			Artist:     "未知艺术家",
			PreviewURL: item.PreviewURL,
			DurationMS: item.DurationMS,
			EmbedURL:   EnsureEmbedURL(fmt.Sprintf("https://open.spotify.com/track/%s", item.ID)),
		}
		if len(item.Artists) > 0 && item.Artists[0].Name != "" {
			track.Artist = item.Artists[0].Name
		}
		if len(item.Album.Images) > 0 {
			track.ImageURL = item.Album.Images[0].URL
		}
		results = append(results, track)
	}

	return results
}

// Ping verifies the credentials by performing a token exchange.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return errors.New("music lookup not configured")
	}
	_, err := c.fetchToken(ctx)
	return err
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access token")
	}
	return parsed.AccessToken, nil
}
