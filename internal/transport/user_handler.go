package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	InviteCode string `json:"invite_code,omitempty"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func newUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes. Login is rate limited separately and
// protected adds further routes behind authMiddleware.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, loginLimiter func(http.Handler) http.Handler, protected ...func(chi.Router)) {
	if loginLimiter == nil {
		loginLimiter = passthrough
	}
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(loginLimiter).Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			for _, routes := range protected {
				routes(r)
			}
		})
	})
}

// userErrors maps account failures to the status and message a client sees
var userErrors = []struct {
	err     error
	status  int
	message string
}{
	{repository.ErrUserAlreadyExists, http.StatusConflict, "user with this email already exists"},
	{service.ErrInvalidInviteCode, http.StatusForbidden, "invalid seller invite code"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "refresh token expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "invalid refresh token"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user not found"},
}

// respondUserError writes the mapped response for err, or a 500 carrying
// fallback after logging the cause.
func (h *UserHandler) respondUserError(w http.ResponseWriter, err error, op, fallback string) {
	for _, e := range userErrors {
		if errors.Is(err, e.err) {
			h.logger.Debug(op+" rejected", zap.Error(err))
			middleware.RespondWithError(w, e.status, e.message)
			return
		}
	}
	h.logger.Error(op+" failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// decode reads and validates the body into dst, answering the request on failure
func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := middleware.DecodeAndValidate(r, dst); err != nil {
		h.logger.Debug("Rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}

// Register creates an account; a valid invite code makes it a seller
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.InviteCode)
	if err != nil {
		h.respondUserError(w, err, "Registration", "failed to register user")
		return
	}

	h.logger.Info("Account created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
	)
	middleware.RespondWithSuccess(w, http.StatusCreated, newUserProfile(user))
}

// Login exchanges credentials for an access and refresh token pair
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	accessToken, refreshToken, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondUserError(w, err, "Login", "failed to login")
		return
	}

	h.logger.Info("Signed in", zap.String("user_id", user.ID.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         newUserProfile(user),
	})
}

// Logout revokes the given refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.respondUserError(w, err, "Logout", "failed to logout")
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "logged out successfully")
}

// RefreshToken issues a new access token for a live refresh token
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	accessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondUserError(w, err, "Token refresh", "failed to refresh token")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// GetProfile returns the caller's account
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, err, "Profile lookup", "failed to get user profile")
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, newUserProfile(user))
}
