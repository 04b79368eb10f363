// Package oidc implements single-provider OIDC login. The provider is
// configured through OIDC_ISSUER, OIDC_CLIENT_ID, and OIDC_CLIENT_SECRET;
// when OIDC_ISSUER is unset the routes are simply not registered.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/store"
)

var usernameChars = regexp.MustCompile(`[^a-z0-9_]`)

// Handler handles OIDC login requests
type Handler struct {
	users    *store.UserStore
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// StateData stores OIDC state for validation
type StateData struct {
	ReturnURL string `json:"return_url"`
	Nonce     string `json:"nonce"`
}

// NewHandlerFromEnv builds an OIDC handler from environment variables.
// Returns (nil, nil) when OIDC_ISSUER is unset, meaning OIDC login is
// disabled.
func NewHandlerFromEnv(users *store.UserStore, baseURL string) (*Handler, error) {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		return nil, nil
	}

	clientID := os.Getenv("OIDC_CLIENT_ID")
	clientSecret := os.Getenv("OIDC_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("OIDC_ISSUER set but OIDC_CLIENT_ID or OIDC_CLIENT_SECRET missing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed for %s: %w", issuer, err)
	}

	config := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  baseURL + "/api/oidc/callback",
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Handler{
		users:    users,
		config:   config,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthURLRequest represents a request for an auth URL
type AuthURLRequest struct {
	ReturnURL string `json:"return_url"`
}

// GetAuthURL returns the provider's authorization URL
// @Summary Start OIDC login
// @Description Get the identity provider's authorization URL to begin login
// @Tags oidc
// @Accept json
// @Produce json
// @Param request body AuthURLRequest false "Optional frontend return URL"
// @Success 200 {object} map[string]string
// @Router /oidc/auth [post]
func (h *Handler) GetAuthURL(c *gin.Context) {
	var req AuthURLRequest
	c.ShouldBindJSON(&req)

	nonce := generateRandomString(32)
	stateJSON, _ := json.Marshal(StateData{ReturnURL: req.ReturnURL, Nonce: nonce})
	state := base64.URLEncoding.EncodeToString(stateJSON)

	c.JSON(http.StatusOK, gin.H{"auth_url": h.config.AuthCodeURL(state, oidc.Nonce(nonce))})
}

// Callback handles the OIDC callback
// @Summary OIDC callback
// @Description Exchange the authorization code, verify the ID token, and issue a session token
// @Tags oidc
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "Opaque state from the auth URL"
// @Success 200 {object} map[string]interface{}
// @Router /oidc/callback [get]
func (h *Handler) Callback(c *gin.Context) {
	stateJSON, err := base64.URLEncoding.DecodeString(c.Query("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}
	var stateData StateData
	if err := json.Unmarshal(stateJSON, &stateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		errorDesc := c.Query("error_description")
		if errorDesc == "" {
			errorDesc = c.Query("error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentication failed: " + errorDesc})
		return
	}

	ctx := c.Request.Context()
	oauth2Token, err := h.config.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange token"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No ID token in response"})
		return
	}

	idToken, err := h.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify ID token"})
		return
	}

	if idToken.Nonce != stateData.Nonce {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nonce"})
		return
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse claims"})
		return
	}
	if claims.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email not provided by identity provider"})
		return
	}

	user, err := h.findOrCreateUser(ctx, idToken.Subject, claims.Email, claims.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process user"})
		return
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.AuthID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	if stateData.ReturnURL != "" {
		c.Redirect(http.StatusFound, stateData.ReturnURL+"?token="+token)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  auth.ToUserResponse(user),
	})
}

// findOrCreateUser looks up the shadow user for an OIDC subject and
// provisions one on first login.
func (h *Handler) findOrCreateUser(ctx context.Context, subject, email, name string) (*models.User, error) {
	authID := "oidc:" + subject

	user, err := h.users.GetByAuthID(ctx, authID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	username, err := h.pickUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	newUser := models.User{
		AuthID:      authID,
		Username:    username,
		DisplayName: name,
		Email:       strings.ToLower(email),
	}
	if err := h.users.Create(ctx, &newUser); err != nil {
		// A concurrent first login may have won the race on auth_id
		if errors.Is(err, store.ErrDuplicate) {
			return h.users.GetByAuthID(ctx, authID)
		}
		return nil, err
	}
	return &newUser, nil
}

// pickUsername derives a username from the email local part, appending a
// numeric suffix until it is free.
func (h *Handler) pickUsername(ctx context.Context, email string) (string, error) {
	base := usernameChars.ReplaceAllString(strings.ToLower(strings.Split(email, "@")[0]), "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 1; i < 100; i++ {
		taken, err := h.users.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}

	// Give up on readable names and fall back to a random suffix
	random := generateRandomString(6)
	log.Printf("Username %s heavily contended, using %s%s", base, base, random)
	return base + strings.ToLower(usernameChars.ReplaceAllString(random, "")), nil
}

// RegisterRoutes registers public OIDC routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/oidc/auth", h.GetAuthURL)
	rg.GET("/oidc/callback", h.Callback)
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)[:length]
}
