package auth

import (
	"errors"
	"net/http"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles authentication requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,min=4,max=30"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
// Credential is either the email address or the username.
type LoginRequest struct {
	Credential string `json:"credential" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func userToResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Signup handles user registration
// @Summary Sign up
// @Description Create a new user account and receive a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} httpx.ErrorResponse "Validation error"
// @Failure 409 {object} httpx.ErrorResponse "User already exists"
// @Router /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	// Report every taken identifier at once so the form can show both
	taken := map[string]string{}
	var count int64
	h.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		taken["email"] = "User with that email already exists"
	}
	h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		taken["username"] = "User with that username already exists"
	}
	if len(taken) > 0 {
		c.AbortWithStatusJSON(http.StatusConflict, httpx.ErrorResponse{
			Message:    "User already exists",
			StatusCode: http.StatusConflict,
			Errors:     taken,
		})
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleUser,
	}
	if err := h.db.Create(&user).Error; err != nil {
		// Lost a race with a concurrent signup for the same identifiers
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.Error(c, http.StatusConflict, "User already exists")
			return
		}
		httpx.Abort(c, err)
		return
	}

	token, err := GenerateToken(user.ID, user.Email, string(user.SystemRole))
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	httpx.Logger(c).Info("user signed up", "user_id", user.ID)
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: userToResponse(user)})
}

// Login handles user login
// @Summary Log in
// @Description Authenticate with email or username and password to receive a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} httpx.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	var user models.User
	if err := h.db.Where("email = ? OR username = ?", req.Credential, req.Credential).First(&user).Error; err != nil {
		httpx.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		httpx.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := GenerateToken(user.ID, user.Email, string(user.SystemRole))
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userToResponse(user)})
}

// Me returns the current authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, _ := GetUserID(c)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httpx.Error(c, http.StatusNotFound, "User couldn't be found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

// Logout handles user logout (client-side token invalidation)
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", AuthMiddleware(), h.Me)
}
