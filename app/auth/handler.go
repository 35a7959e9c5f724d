package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vega6/storefront/app/api"
	"github.com/vega6/storefront/models"
)

const bcryptCost = 10

type UserProvider interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
}

type Handler struct {
	users  UserProvider
	maker  *TokenMaker
	otp    OTPStore
	mailer Mailer
	logger zerolog.Logger
}

func NewHandler(users UserProvider, maker *TokenMaker, otp OTPStore, mailer Mailer, logger zerolog.Logger) *Handler {
	return &Handler{
		users:  users,
		maker:  maker,
		otp:    otp,
		mailer: mailer,
		logger: logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/send-otp", h.handleSendOTP)
		r.Post("/verify-otp", h.handleVerifyOTP)
		r.With(Authenticate(h.maker), RequireRoles(models.RoleAdmin, models.RoleCustomer)).
			Get("/me", h.handleMe)
	})
}

type userResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

type registerRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	AdminID  string `json:"adminId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}

	if req.Username == "" || req.Role == "" || req.Email == "" || req.Password == "" {
		api.WriteError(w, api.Validation("All fields required"))
		return
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		api.WriteError(w, api.Validation("Role must be admin or customer"))
		return
	}

	var adminID *string
	if role == models.RoleAdmin {
		trimmed := strings.TrimSpace(req.AdminID)
		if trimmed == "" {
			api.WriteError(w, api.Validation("Admin ID is required when role is Admin"))
			return
		}
		adminID = &trimmed
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
		AdminID:  adminID,
	}
	if err := h.users.Create(user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			api.WriteError(w, api.Conflict("User already exists"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, api.Validation("Invalid JSON body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		api.WriteError(w, api.Validation("Email and password are required"))
		return
	}

	user, err := h.users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.WriteError(w, api.Unauthenticated("Invalid email or password"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		api.WriteError(w, api.Unauthenticated("Invalid email or password"))
		return
	}

	token, err := h.maker.CreateToken(user)
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user": userResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	user, err := h.users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.WriteError(w, api.NotFound("User not found"))
			return
		}
		api.WriteError(w, api.Internal(err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": struct {
			userResponse
			AdminID   *string   `json:"adminId"`
			CreatedAt time.Time `json:"createdAt"`
		}{
			userResponse: userResponse{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				Role:     user.Role,
			},
			AdminID:   user.AdminID,
			CreatedAt: user.CreatedAt,
		},
	})
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		api.WriteError(w, api.Validation("Email required"))
		return
	}

	code, err := GenerateOTP()
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	if err := h.otp.Put(r.Context(), req.Email, code, OTPTTL); err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}

	if err := h.mailer.SendOTP(req.Email, code); err != nil {
		h.logger.Error().Err(err).Str("email", req.Email).Msg("failed to send OTP mail")
		api.WriteError(w, &api.Error{Status: http.StatusInternalServerError, Message: "Failed to send OTP", Err: err})
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent to email",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.OTP == "" {
		api.WriteError(w, api.Validation("Email & OTP required"))
		return
	}

	ok, err := h.otp.TakeIfMatch(r.Context(), req.Email, req.OTP)
	if err != nil {
		api.WriteError(w, api.Internal(err))
		return
	}
	if !ok {
		api.WriteError(w, api.Validation("Invalid OTP"))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP verified successfully",
	})
}
