package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/collaborators"
	"github.com/zenopia/favely/pkg/favely/email"
	"github.com/zenopia/favely/pkg/favely/feedback"
	"github.com/zenopia/favely/pkg/favely/follows"
	"github.com/zenopia/favely/pkg/favely/items"
	"github.com/zenopia/favely/pkg/favely/lists"
	"github.com/zenopia/favely/pkg/favely/middleware"
	"github.com/zenopia/favely/pkg/favely/notifications"
	"github.com/zenopia/favely/pkg/favely/pins"
	"github.com/zenopia/favely/pkg/favely/store"
	"github.com/zenopia/favely/pkg/favely/users"
)

// testStores builds stores over an unconnected client. The mongo driver
// only dials on the first operation, so route registration and the health
// endpoints work without a database.
func testStores(t *testing.T) (*store.UserStore, *store.ListStore, *store.PinStore, *store.FollowStore, *store.InviteStore, *store.NotificationStore, *store.FeedbackStore) {
	t.Helper()

	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("mongo.Connect failed: %v", err)
	}
	db := client.Database("favely_route_test")

	return store.NewUserStore(db.Collection("users")),
		store.NewListStore(db.Collection("lists")),
		store.NewPinStore(db.Collection("pins")),
		store.NewFollowStore(db.Collection("follows")),
		store.NewInviteStore(db.Collection("invitations")),
		store.NewNotificationStore(db.Collection("notifications")),
		store.NewFeedbackStore(db.Collection("feedback"))
}

// setupFullServer registers every route the way cmd/favely-server does.
// Gin panics on conflicting route patterns, so simply building this router
// catches registration mistakes.
func setupFullServer(t *testing.T) *gin.Engine {
	t.Helper()

	userStore, listStore, pinStore, followStore, inviteStore, notificationStore, feedbackStore := testStores(t)
	mailer := email.NewFromEnv("http://localhost:8080")

	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	limiter := middleware.NewLimiterStore(30, 10, 5*time.Minute)
	t.Cleanup(limiter.Stop)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "favely",
			})
		})

		authHandler := auth.NewHandler(userStore)
		authHandler.RegisterRoutes(api.Group("/auth", middleware.RateLimit(limiter)))

		listsHandler := lists.NewHandler(listStore, userStore, pinStore, inviteStore)
		itemsHandler := items.NewHandler(listStore)
		pinsHandler := pins.NewHandler(pinStore, listStore, userStore)
		followsHandler := follows.NewHandler(followStore, userStore, notificationStore)
		collabHandler := collaborators.NewHandler(listStore, inviteStore, userStore, notificationStore, mailer)
		usersHandler := users.NewHandler(userStore, listStore, followStore, pinStore)
		notificationsHandler := notifications.NewHandler(notificationStore)
		feedbackHandler := feedback.NewHandler(feedbackStore, mailer)

		public := api.Group("", auth.OptionalAuthMiddleware())
		listsHandler.RegisterPublicRoutes(public)
		usersHandler.RegisterPublicRoutes(public)
		feedbackHandler.RegisterRoutes(public.Group("", middleware.RateLimit(limiter)))

		protected := api.Group("", auth.AuthMiddleware())
		listsHandler.RegisterRoutes(protected)
		itemsHandler.RegisterRoutes(protected)
		pinsHandler.RegisterRoutes(protected)
		followsHandler.RegisterRoutes(protected)
		collabHandler.RegisterRoutes(protected)
		usersHandler.RegisterRoutes(protected)
		notificationsHandler.RegisterRoutes(protected)
	}

	return r
}

// TestServerStartup verifies that all routes register without conflicts.
// Static routes like /lists/public and /users/me must coexist with the
// :id and :username params beside them.
func TestServerStartup(t *testing.T) {
	router := setupFullServer(t)
	if router == nil {
		t.Fatal("Expected router to be created")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupFullServer(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.Code)
	}
}

func TestAPIHealthEndpoint(t *testing.T) {
	router := setupFullServer(t)

	req, _ := http.NewRequest("GET", "/api/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := setupFullServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{"GET", "/api/lists"},
		{"GET", "/api/pins"},
		{"GET", "/api/follows/followers"},
		{"GET", "/api/notifications"},
		{"GET", "/api/invitations"},
		{"PATCH", "/api/users/me"},
	}

	for _, tc := range cases {
		req, _ := http.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", tc.method, tc.path, resp.Code)
		}
	}
}
