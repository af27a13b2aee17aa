package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/auth"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/httpx"
	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// KeyLength is the length of the generated API key in bytes (32 bytes = 64 hex chars)
	KeyLength = 32
	// KeyPrefixLength is the number of characters to store as prefix for identification
	KeyPrefixLength = 8
)

// Handler handles API key requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new API keys handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// APIKeyResponse represents an API key in responses
type APIKeyResponse struct {
	ID          uint       `json:"id"`
	KeyPrefix   string     `json:"keyPrefix"`
	Description string     `json:"description"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Description string `json:"description" binding:"max=255"`
}

// CreateAPIKeyResponse includes the full key (only shown once)
type CreateAPIKeyResponse struct {
	ID          uint      `json:"id"`
	Key         string    `json:"key"`
	KeyPrefix   string    `json:"keyPrefix"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func generateAPIKey() (string, error) {
	buf := make([]byte, KeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Create creates a new API key for the authenticated user
// @Summary Create API key
// @Tags api-keys
// @Accept json
// @Produce json
// @Success 201 {object} CreateAPIKeyResponse
// @Security BearerAuth
// @Router /api-keys [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateAPIKeyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BindError(c, err)
			return
		}
	}

	key, err := generateAPIKey()
	if err != nil {
		httpx.Abort(c, err)
		return
	}

	apiKey := models.APIKey{
		UserID:      userID,
		KeyHash:     hashAPIKey(key),
		KeyPrefix:   key[:KeyPrefixLength],
		Description: req.Description,
	}
	if err := h.db.Create(&apiKey).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	// The full key is only ever visible in this response
	c.JSON(http.StatusCreated, CreateAPIKeyResponse{
		ID:          apiKey.ID,
		Key:         key,
		KeyPrefix:   apiKey.KeyPrefix,
		Description: apiKey.Description,
		CreatedAt:   apiKey.CreatedAt,
	})
}

// List returns all API keys for the authenticated user
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var apiKeys []models.APIKey
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&apiKeys).Error; err != nil {
		httpx.Abort(c, err)
		return
	}

	responses := make([]APIKeyResponse, len(apiKeys))
	for i, key := range apiKeys {
		responses[i] = APIKeyResponse{
			ID:          key.ID,
			KeyPrefix:   key.KeyPrefix,
			Description: key.Description,
			LastUsedAt:  key.LastUsedAt,
			CreatedAt:   key.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"ApiKeys": responses})
}

// Delete revokes one of the authenticated user's API keys
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	keyID, ok := httpx.ParamID(c, "keyId", "API key couldn't be found")
	if !ok {
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", keyID, userID).Delete(&models.APIKey{})
	if result.Error != nil {
		httpx.Abort(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		httpx.Error(c, http.StatusNotFound, "API key couldn't be found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
}

// ValidateAPIKey looks up the key record matching a presented key
func ValidateAPIKey(db *gorm.DB, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := db.Where("key_hash = ?", hashAPIKey(key)).First(&apiKey).Error; err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// UpdateLastUsed updates the last_used_at timestamp for an API key
func UpdateLastUsed(db *gorm.DB, apiKeyID uint) error {
	return db.Model(&models.APIKey{}).Where("id = ?", apiKeyID).Update("last_used_at", time.Now()).Error
}

// CombinedAuthMiddleware authenticates via JWT or API key.
// Both are passed as "Authorization: Bearer <token>"; JWTs contain dots,
// API keys are hex strings without dots.
func CombinedAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok, err := auth.BearerToken(c)
		if !ok {
			httpx.Error(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		if msg, ok := authenticate(c, db, token); !ok {
			httpx.Error(c, http.StatusUnauthorized, msg)
			return
		}
		c.Next()
	}
}

// OptionalCombinedAuth identifies the caller from a JWT or API key when one is
// sent and otherwise lets the request through anonymously. A bad credential is
// treated the same as none.
func OptionalCombinedAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok, err := auth.BearerToken(c)
		if ok && err == nil {
			authenticate(c, db, token)
		}
		c.Next()
	}
}

// authenticate resolves token to a user and records it on the context.
// On failure it returns the message to show the client.
func authenticate(c *gin.Context, db *gorm.DB, token string) (string, bool) {
	if strings.Contains(token, ".") {
		claims, err := auth.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return "Token has expired", false
			}
			return "Invalid token", false
		}
		auth.SetUser(c, claims.UserID, claims.Email, claims.SystemRole)
		return "", true
	}

	apiKey, err := ValidateAPIKey(db, token)
	if err != nil {
		return "Invalid API key", false
	}

	var user models.User
	if err := db.First(&user, apiKey.UserID).Error; err != nil {
		return "Invalid API key", false
	}

	if err := UpdateLastUsed(db, apiKey.ID); err != nil {
		httpx.Logger(c).Warn("api key last-used update failed", "api_key_id", apiKey.ID, "error", err)
	}

	auth.SetUser(c, user.ID, user.Email, string(user.SystemRole))
	return "", true
}

// RegisterRoutes registers API key routes. Managing keys requires a JWT.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	keys := rg.Group("/api-keys", auth.AuthMiddleware())
	keys.POST("", h.Create)
	keys.GET("", h.List)
	keys.DELETE("/:keyId", h.Delete)
}
