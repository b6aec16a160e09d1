package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skillshare/skillshare-backend/internal/api/middleware"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/service"
)

type StoryHandler struct {
	storyService   *service.StoryService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewStoryHandler(storyService *service.StoryService, maxUploadBytes int64, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		storyService:   storyService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "handlers.story"),
	}
}

type StoryTextRequest struct {
	Text string `json:"text"`
}

type StoryResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	UserProfilePic string    `json:"userProfilePic"`
	Text           string    `json:"text"`
	MediaURL       string    `json:"mediaUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	Viewers        []string  `json:"viewers"`
}

func newStoryResponse(s *domain.Story) StoryResponse {
	viewers := make([]string, 0, len(s.Views))
	for _, id := range s.ViewerIDs() {
		viewers = append(viewers, id.String())
	}
	return StoryResponse{
		ID:             s.ID,
		UserID:         s.UserID.String(),
		UserName:       s.UserName,
		UserProfilePic: s.UserProfilePic,
		Text:           s.Text,
		MediaURL:       s.MediaURL,
		CreatedAt:      s.CreatedAt,
		Viewers:        viewers,
	}
}

// Create accepts either a JSON body with text or a multipart form with an
// optional text field and an optional media file.
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	input := service.CreateStoryInput{UserID: userID}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req StoryTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		input.Text = req.Text
	} else {
		if err := parseForm(w, r, h.maxUploadBytes); err != nil {
			writeFormError(w, err)
			return
		}
		input.Text = r.FormValue("text")

		upload, file, err := formUpload(r, "media")
		if err != nil {
			http.Error(w, "Invalid file upload", http.StatusBadRequest)
			return
		}
		if file != nil {
			defer file.Close()
		}
		input.Media = upload
	}

	story, err := h.storyService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newStoryResponse(story))
}

func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storyService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := make([]StoryResponse, 0, len(stories))
	for _, s := range stories {
		resp = append(resp, newStoryResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	story, err := h.storyService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newStoryResponse(story))
}

func (h *StoryHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.storyService.RegisterView(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w)
}

func (h *StoryHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StoryTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	story, err := h.storyService.UpdateText(r.Context(), chi.URLParam(r, "id"), userID, req.Text)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newStoryResponse(story))
}

func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.storyService.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w)
}

func (h *StoryHandler) Viewers(w http.ResponseWriter, r *http.Request) {
	viewers, err := h.storyService.Viewers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := make([]string, 0, len(viewers))
	for _, id := range viewers {
		resp = append(resp, id.String())
	}
	writeJSON(w, http.StatusOK, resp)
}
