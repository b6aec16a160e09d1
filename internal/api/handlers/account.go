package handlers

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/api/middleware"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewAccountHandler(accountService *service.AccountService, maxUploadBytes int64, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "handlers.account"),
	}
}

type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

type CategoriesRequest struct {
	Categories []string `json:"categories"`
}

// PublicProfileResponse is what any caller may see about an account.
type PublicProfileResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	LastName   string   `json:"lastName"`
	ProfilePic string   `json:"profilePic"`
	CoverPic   string   `json:"coverPic"`
	Categories []string `json:"categories"`
}

func newPublicProfileResponse(u *domain.User) PublicProfileResponse {
	categories := []string(u.Categories)
	if categories == nil {
		categories = []string{}
	}
	return PublicProfileResponse{
		ID:         u.ID.String(),
		Name:       u.Name,
		LastName:   u.LastName,
		ProfilePic: u.ProfilePic,
		CoverPic:   u.CoverPic,
		Categories: categories,
	}
}

func (h *AccountHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.accountService.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newPublicProfileResponse(user))
}

// UpdateProfile accepts a multipart form with optional name, lastName,
// profilePic and coverPic parts. Omitted parts are left unchanged.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := parseForm(w, r, h.maxUploadBytes); err != nil {
		writeFormError(w, err)
		return
	}

	var input service.UpdateProfileInput
	input.Name = formValue(r, "name")
	input.LastName = formValue(r, "lastName")

	var files []multipart.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for field, dst := range map[string]**service.Upload{
		"profilePic": &input.ProfilePic,
		"coverPic":   &input.CoverPic,
	} {
		upload, file, err := formUpload(r, field)
		if err != nil {
			http.Error(w, "Invalid file upload", http.StatusBadRequest)
			return
		}
		if file != nil {
			files = append(files, file)
		}
		*dst = upload
	}

	user, err := h.accountService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AccountHandler) SaveCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.accountService.SaveCategories(r.Context(), userID, req.Categories)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.accountService.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := make([]PublicProfileResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newPublicProfileResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChangeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewEmail == "" {
		http.Error(w, "New email is required", http.StatusBadRequest)
		return
	}

	user, err := h.accountService.ChangeEmail(r.Context(), userID, req.NewEmail)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.accountService.Deactivate(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w)
}
