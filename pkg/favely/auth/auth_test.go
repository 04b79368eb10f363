package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPasswordHashing(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == password {
		t.Error("Hash should not equal plain password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}
}

func TestJWTToken(t *testing.T) {
	token, err := GenerateToken("64f1a2b3c4d5e6f708192a3b", "local:abc123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != "64f1a2b3c4d5e6f708192a3b" {
		t.Errorf("Expected UserID 64f1a2b3c4d5e6f708192a3b, got %s", claims.UserID)
	}

	if claims.AuthID != "local:abc123" {
		t.Errorf("Expected auth id local:abc123, got %s", claims.AuthID)
	}

	if claims.Username != "alice" {
		t.Errorf("Expected username alice, got %s", claims.Username)
	}
}

func TestInvalidToken(t *testing.T) {
	_, err := ValidateToken("invalid-token")
	if err == nil {
		t.Error("Expected error for invalid token")
	}
}

func setupMiddlewareRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		authID, _ := GetAuthID(c)
		c.JSON(http.StatusOK, gin.H{"auth_id": authID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	router := setupMiddlewareRouter(AuthMiddleware())

	token, err := GenerateToken("64f1a2b3c4d5e6f708192a3b", "local:abc123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAuthMiddlewareWithoutToken(t *testing.T) {
	router := setupMiddlewareRouter(AuthMiddleware())

	req, _ := http.NewRequest("GET", "/whoami", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestAuthMiddlewareWithGarbageToken(t *testing.T) {
	router := setupMiddlewareRouter(AuthMiddleware())

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	router := setupMiddlewareRouter(OptionalAuthMiddleware())

	// Anonymous request passes through
	req, _ := http.NewRequest("GET", "/whoami", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for anonymous request, got %d", resp.Code)
	}

	// Malformed token is treated as anonymous, not rejected
	req, _ = http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for malformed token, got %d", resp.Code)
	}

	// A valid token still identifies the caller
	token, _ := GenerateToken("64f1a2b3c4d5e6f708192a3b", "local:abc123", "alice")
	req, _ = http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}
}
