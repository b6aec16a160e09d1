package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name         string
	lastName     string
	email        string
	password     string
	status       domain.UserStatus
	tokenVersion int64
	categories   []string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:     "Test",
		lastName: "User " + suffix,
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		password: "testpassword123",
		status:   domain.UserStatusActive,
	}
}

func (b *UserBuilder) WithName(name, lastName string) *UserBuilder {
	b.name = name
	b.lastName = lastName
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithStatus(status domain.UserStatus) *UserBuilder {
	b.status = status
	return b
}

func (b *UserBuilder) WithTokenVersion(v int64) *UserBuilder {
	b.tokenVersion = v
	return b
}

func (b *UserBuilder) WithCategories(categories ...string) *UserBuilder {
	b.categories = categories
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         b.name,
		LastName:     b.lastName,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		Categories:   datatypes.JSONSlice[string](b.categories),
		Status:       b.status,
		TokenVersion: b.tokenVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		LastName string `json:"lastName"`
		Email    string `json:"email"`
		Status   string `json:"status"`
	} `json:"user"`
	AccessToken string `json:"accessToken"`
}

// BuildAndAuthenticate registers the user via the API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"name":     b.name,
		"lastName": b.lastName,
		"email":    b.email,
		"password": b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:       userID,
		Name:     authResp.User.Name,
		LastName: authResp.User.LastName,
		Email:    authResp.User.Email,
	}

	return user, authResp.AccessToken
}

// Login logs in through the API and returns the access token
func Login(t *testing.T, ts *TestServer, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return authResp.AccessToken
}

// StoryBuilder creates stories directly in the database
type StoryBuilder struct {
	owner     *domain.User
	text      string
	mediaURL  string
	createdAt time.Time
	viewers   []uuid.UUID
}

func NewStoryBuilder() *StoryBuilder {
	return &StoryBuilder{
		text:      "a story",
		createdAt: time.Now().UTC(),
	}
}

func (b *StoryBuilder) WithOwner(user *domain.User) *StoryBuilder {
	b.owner = user
	return b
}

func (b *StoryBuilder) WithText(text string) *StoryBuilder {
	b.text = text
	return b
}

func (b *StoryBuilder) WithMediaURL(url string) *StoryBuilder {
	b.mediaURL = url
	return b
}

func (b *StoryBuilder) WithCreatedAt(at time.Time) *StoryBuilder {
	b.createdAt = at.UTC()
	return b
}

func (b *StoryBuilder) WithViewers(ids ...uuid.UUID) *StoryBuilder {
	b.viewers = ids
	return b
}

func (b *StoryBuilder) Build(t *testing.T, db *gorm.DB) *domain.Story {
	t.Helper()

	if b.owner == nil {
		b.owner, _ = NewUserBuilder().Build(t, db)
	}

	story := &domain.Story{
		ID:             domain.NewStoryID(),
		UserID:         b.owner.ID,
		UserName:       b.owner.DisplayName(),
		UserProfilePic: b.owner.ProfilePic,
		Text:           b.text,
		MediaURL:       b.mediaURL,
		CreatedAt:      b.createdAt,
	}

	if err := db.Omit("Views").Create(story).Error; err != nil {
		t.Fatalf("failed to create story: %v", err)
	}

	for _, viewer := range b.viewers {
		view := domain.StoryView{StoryID: story.ID, ViewerID: viewer, ViewedAt: time.Now().UTC()}
		if err := db.Create(&view).Error; err != nil {
			t.Fatalf("failed to create story view: %v", err)
		}
		story.Views = append(story.Views, view)
	}

	return story
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// FormFile is a file part for CreateMultipartRequest
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// CreateMultipartRequest builds an authenticated multipart/form-data request
func CreateMultipartRequest(t *testing.T, method, url string, fields map[string]string, files []FormFile, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.Content)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends req with the default client and fails the test on transport errors
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
