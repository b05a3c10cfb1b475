package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"scholartrack/internal/apperrors"
	"scholartrack/internal/middleware"
	"scholartrack/internal/service"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	StudentNo *string `json:"student_no,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GrantRoleRequest represents the role grant request body
type GrantRoleRequest struct {
	Role string `json:"role"`
}

// AuthHandler handles registration, login and account requests
type AuthHandler struct {
	userService *service.UserService
	auditMw     *middleware.AuditMiddleware
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *service.UserService, auditMw *middleware.AuditMiddleware) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		auditMw:     auditMw,
	}
}

// Register creates a new user account
// @Summary Register
// @Description Register a new portal account. The first account created becomes the admin.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	user, err := h.userService.Register(req.Email, req.Password, req.FirstName, req.LastName, req.StudentNo)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	_ = h.auditMw.LogAction(&user.ID, "user.register", "users", "User registered", getIP(r), r.UserAgent())

	respondWithJSON(w, http.StatusCreated, user)
}

// Login authenticates a user and issues a JWT
// @Summary Login
// @Description Authenticate with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token and user"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	token, user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	_ = h.auditMw.LogAction(&user.ID, "user.login", "users", "User logged in", getIP(r), r.UserAgent())

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user with roles
// @Summary Current user
// @Description Get the authenticated user's profile and roles
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserWithRoles
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	user, err := h.userService.GetWithRoles(userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// GrantRole assigns a role to a user (admin only)
// @Summary Grant role
// @Description Assign a role to a user (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role body GrantRoleRequest true "Role name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/users/{id}/roles [post]
func (h *AuthHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r, h.userService)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	userID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidUserID)
		return
	}

	var req GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := h.userService.GrantRole(actor, userID, req.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Role granted",
	})
}

// Helper functions

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The status is already on the wire, nothing to salvage here
	if err := JSONResponse(w, payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps a typed service error to its HTTP status.
// Internal errors are logged and never leak their message to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		message = ErrMsgInternal
	}
	respondWithError(w, status, message)
}

// requestActor builds the acting user from the authenticated request.
func requestActor(r *http.Request, users *service.UserService) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		return service.Actor{}, false
	}
	roles, err := users.RoleNames(userID)
	if err != nil {
		slog.Error("Failed to load roles for actor", "user_id", userID, "error", err)
		return service.Actor{}, false
	}
	return service.Actor{ID: userID, Roles: roles}, true
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func getIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return forwarded
	}
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
