// Package platform is the HTTP client for the content platform the agents
// act on. Every call is context-bound and returns an error on non-2xx
// responses; callers treat failures as soft and move on.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"botfarm/internal/config"
	"botfarm/internal/models"
)

// Client talks to the platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
}

// NewClient builds a platform client from config.
func NewClient(cfg config.PlatformConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout.Std()},
		baseURL:    cfg.BaseURL,
		adminKey:   cfg.AdminAPIKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, actingUser int, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.adminKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.adminKey)
	}
	if actingUser != 0 {
		req.Header.Set("X-Acting-User", fmt.Sprintf("%d", actingUser))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("platform returned %d for %s %s: %s", resp.StatusCode, method, path, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RecentPosts returns the newest posts, optionally filtered by community.
func (c *Client) RecentPosts(ctx context.Context, community string, limit int) ([]models.Post, error) {
	path := fmt.Sprintf("/posts/?limit=%d", limit)
	if community != "" {
		path += "&community=" + url.QueryEscape(community)
	}
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(ctx context.Context, postID int) (*models.Post, error) {
	var post models.Post
	path := fmt.Sprintf("/posts/%d/", postID)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostResponses returns all responses on a post, top-level and nested.
func (c *Client) PostResponses(ctx context.Context, postID int) ([]models.Response, error) {
	var responses []models.Response
	path := fmt.Sprintf("/comments/?post=%d", postID)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// PendingReplies returns responses addressed to the user's content that the
// user has not answered.
func (c *Client) PendingReplies(ctx context.Context, userID int) ([]models.Response, error) {
	var replies []models.Response
	path := fmt.Sprintf("/users/%d/pending_replies/", userID)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// UserResponsesOnPost returns the user's own responses on one post; the
// decision layer uses it to detect an existing top-level response.
func (c *Client) UserResponsesOnPost(ctx context.Context, userID, postID int) ([]models.Response, error) {
	var responses []models.Response
	path := fmt.Sprintf("/users/%d/post_comments/?post_id=%d", userID, postID)
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// CreatePost publishes a new post as the given user.
func (c *Client) CreatePost(ctx context.Context, userID int, community, title, body string) (*models.Post, error) {
	payload := map[string]string{"community": community, "title": title, "content": body}
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/posts/", userID, payload, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreateComment adds a top-level response to a post.
func (c *Client) CreateComment(ctx context.Context, userID, postID int, body string) (*models.Response, error) {
	payload := map[string]string{"content": body}
	var resp models.Response
	path := fmt.Sprintf("/posts/%d/comment/", postID)
	if err := c.do(ctx, http.MethodPost, path, userID, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateReply answers an existing response.
func (c *Client) CreateReply(ctx context.Context, userID, responseID int, body string) (*models.Response, error) {
	payload := map[string]string{"content": body}
	var resp models.Response
	path := fmt.Sprintf("/comments/%d/reply/", responseID)
	if err := c.do(ctx, http.MethodPost, path, userID, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VotePost casts a vote on a post.
func (c *Client) VotePost(ctx context.Context, userID, postID int, direction models.VoteDirection) error {
	payload := map[string]int{"direction": int(direction)}
	path := fmt.Sprintf("/posts/%d/vote/", postID)
	return c.do(ctx, http.MethodPost, path, userID, payload, nil)
}

// VoteComment casts a vote on a response.
func (c *Client) VoteComment(ctx context.Context, userID, responseID int, direction models.VoteDirection) error {
	payload := map[string]int{"direction": int(direction)}
	path := fmt.Sprintf("/comments/%d/vote/", responseID)
	return c.do(ctx, http.MethodPost, path, userID, payload, nil)
}

// Communities lists the platform's communities.
func (c *Client) Communities(ctx context.Context) ([]models.Community, error) {
	var communities []models.Community
	if err := c.do(ctx, http.MethodGet, "/communities/", 0, nil, &communities); err != nil {
		return nil, err
	}
	return communities, nil
}

// CreateAgentUser provisions a platform account for a new agent and
// returns its user id. Admin-only.
func (c *Client) CreateAgentUser(ctx context.Context, name string) (int, error) {
	payload := map[string]string{"username": name}
	var created struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/users/", 0, payload, &created); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("platform returned no user id for %q", name)
	}
	return created.ID, nil
}

// DeactivateUser disables a retired agent's account. The account is never
// deleted; its content stays up.
func (c *Client) DeactivateUser(ctx context.Context, userID int) error {
	payload := map[string]bool{"is_active": false}
	path := fmt.Sprintf("/users/%d/", userID)
	return c.do(ctx, http.MethodPatch, path, 0, payload, nil)
}

// CheckHealth pings the platform.
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health/", 0, nil, nil)
}

// ActiveUserCount reports how many human users were active recently, fed
// into community activity scoring.
func (c *Client) ActiveUserCount(ctx context.Context, community string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	path := "/users/active_count/"
	if community != "" {
		path += "?community=" + url.QueryEscape(community)
	}
	if err := c.do(ctx, http.MethodGet, path, 0, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
