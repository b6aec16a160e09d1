package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

type Story struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	MediaURL  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Viewers   []string  `json:"viewers"`
}

// RegisterUser creates a new account with a unique email derived from baseName
func (c *APIClient) RegisterUser(baseName, password string) (*User, string, error) {
	suffix := time.Now().UnixNano() % 1000000
	body := map[string]string{
		"name":     baseName,
		"lastName": "Sim",
		"email":    fmt.Sprintf("%s_%d@sim.local", strings.ToLower(baseName), suffix),
		"password": password,
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusOK, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.AccessToken, nil
}

// Login returns a fresh access token
func (c *APIClient) Login(email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return result.AccessToken, nil
}

// Me reports whether token is still accepted
func (c *APIClient) Me(token string) (*User, error) {
	var user User
	if err := c.do(http.MethodGet, "/auth/me", nil, token, http.StatusOK, &user); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &user, nil
}

// LogoutAll revokes every token issued to the caller
func (c *APIClient) LogoutAll(token string) error {
	if err := c.do(http.MethodPost, "/auth/logout-all", nil, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("logout-all: %w", err)
	}
	return nil
}

// SaveCategories replaces the caller's interest categories
func (c *APIClient) SaveCategories(token string, categories []string) error {
	body := map[string][]string{"categories": categories}
	if err := c.do(http.MethodPost, "/auth/categories", body, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

// CreateStory posts a text story
func (c *APIClient) CreateStory(token, text string) (*Story, error) {
	var story Story
	if err := c.do(http.MethodPost, "/stories", map[string]string{"text": text}, token, http.StatusCreated, &story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return &story, nil
}

// ListStories fetches the live story feed
func (c *APIClient) ListStories(token string) ([]Story, error) {
	var stories []Story
	if err := c.do(http.MethodGet, "/stories", nil, token, http.StatusOK, &stories); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

// ViewStory records the caller as a viewer of storyID
func (c *APIClient) ViewStory(token, storyID string) error {
	if err := c.do(http.MethodPut, "/stories/"+storyID+"/view", nil, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("view story: %w", err)
	}
	return nil
}

// WebSocketURL returns the feed endpoint for token
func (c *APIClient) WebSocketURL(token string) string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws?token=" + token
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
