package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/controller"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	"github.com/ikkim/provider-portal-backend/internal/db"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
	"github.com/ikkim/provider-portal-backend/internal/router"
	"github.com/ikkim/provider-portal-backend/internal/storage"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	pkgredis "github.com/ikkim/provider-portal-backend/pkg/redis"
	"github.com/ikkim/provider-portal-backend/pkg/stripeclient"
	"github.com/ikkim/provider-portal-backend/pkg/util"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "integration-secret"

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStorage) Put(_ context.Context, key string, body []byte, _ string) (*storage.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	return &storage.StoredObject{Key: key, FileURL: "https://cdn.example.com/" + key}, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

type verifiedStripe struct{}

func (verifiedStripe) CreateIdentitySession(context.Context, uint) (*stripeclient.IdentitySession, error) {
	return &stripeclient.IdentitySession{ID: "vs_1", Status: "requires_input", URL: "https://verify.stripe.com/start/vs_1"}, nil
}

func (verifiedStripe) GetIdentitySession(_ context.Context, id string) (*stripeclient.IdentitySession, error) {
	return &stripeclient.IdentitySession{ID: id, Status: "verified"}, nil
}

func (verifiedStripe) CreateConnectAccount(context.Context, string, uint) (string, error) {
	return "acct_1", nil
}

func (verifiedStripe) CreateAccountLink(_ context.Context, accountID string) (*stripeclient.AccountLink, error) {
	return &stripeclient.AccountLink{URL: "https://connect.stripe.com/setup/" + accountID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (verifiedStripe) GetAccount(_ context.Context, accountID string) (*stripeclient.AccountStatus, error) {
	return &stripeclient.AccountStatus{ID: accountID, DetailsSubmitted: true, PayoutsEnabled: true}, nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
	Mail   *outbox
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://portal.example.com"}},
		Onboarding: config.OnboardingConfig{
			LinkBaseURL:       "https://portal.example.com/onboarding/phase2",
			TokenTTL:          72 * time.Hour,
			UploadMaxAttempts: 2,
			UploadConcurrency: 2,
		},
		RateLimit: config.RateLimitConfig{PhaseGatePerMinute: 600, PhaseGateBurst: 100},
	}

	businessRepo := repository.NewBusinessRepository(testDB)
	providerRepo := repository.NewProviderRepository(testDB)
	tokenRepo := repository.NewOnboardingTokenRepository(testDB)
	documentRepo := repository.NewDocumentRepository(testDB)
	catalogRepo := repository.NewCatalogRepository(testDB)
	offeringRepo := repository.NewBusinessServiceRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	m := metrics.New()
	hub := websocket.NewHub()
	mail := &outbox{}
	stripe := verifiedStripe{}

	onboardingService := service.NewOnboardingService(cfg.Onboarding, service.OnboardingDeps{
		Businesses: businessRepo,
		Providers:  providerRepo,
		Tokens:     tokenRepo,
		Documents:  documentRepo,
		Catalog:    catalogRepo,
		Offerings:  offeringRepo,
		Identity:   stripe,
		Payouts:    stripe,
		Events:     hub,
		Metrics:    m,
	})
	documentService := service.NewDocumentService(cfg.Onboarding, businessRepo, documentRepo,
		&memoryStorage{objects: map[string][]byte{}}, hub, m)
	moderationService := service.NewModerationService(businessRepo, reviewRepo, onboardingService, mail, hub, m)

	r := router.NewRouter(
		router.Controllers{
			Onboarding: controller.NewOnboardingController(onboardingService),
			Document:   controller.NewDocumentController(documentService),
			Business:   controller.NewBusinessController(service.NewBusinessCatalogService(catalogRepo, offeringRepo)),
			Booking:    controller.NewBookingController(service.NewBookingService(bookingRepo, pkgredis.NewStore(redisClient), mail, m)),
			Staff:      controller.NewStaffController(service.NewStaffService(providerRepo)),
			Admin:      controller.NewAdminController(moderationService),
			WebSocket:  controller.NewWebSocketController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(testSecret),
		middleware.NewRoleMiddleware(providerRepo),
		middleware.NewPhaseGate(onboardingService, cfg.RateLimit, m),
		m,
		cfg,
	)

	require.NoError(t, catalogRepo.UpsertService(context.Background(), &model.Service{
		Name: "Deep Tissue Massage", CategoryID: "wellness", MinPrice: 80, DefaultDurationMinutes: 60, IsActive: true,
	}))

	return &TestServer{Router: r.Setup(), DB: testDB, Mail: mail}
}

type call struct {
	method string
	path   string
	body   interface{}
	bearer string
	link   string
}

func (ts *TestServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.link != "" {
		req.Header.Set(middleware.OnboardingTokenHeader, c.link)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func session(t *testing.T, userID, appRole string) string {
	token, err := util.GenerateAccessToken(userID, userID+"@example.com", appRole, testSecret, 15*time.Minute)
	require.NoError(t, err)
	return token
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

func pdf() string {
	return base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\nbody"))
}

func TestCompleteProviderJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	owner := session(t, "user_owner", "")
	admin := session(t, "user_admin", util.AppRoleAdmin)

	t.Log("Step 1: business info")
	w := ts.do(t, call{method: "POST", path: "/api/onboarding/business-info", bearer: owner, body: map[string]interface{}{
		"business_name": "Glow Studio",
		"business_type": "independent",
		"contact_email": "owner@glow.example.com",
		"first_name":    "Ada",
		"last_name":     "Owner",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	businessID := data(t, w)["business_id"]

	t.Log("Step 2: identity verification")
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/identity/session", bearer: owner, body: map[string]interface{}{"business_id": businessID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/identity/confirm", bearer: owner, body: map[string]interface{}{"business_id": businessID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "verified", data(t, w)["identity_verification_status"])

	t.Log("Step 3: submit application; phase 2 stays locked until approval")
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/submit-application", bearer: owner, body: map[string]interface{}{"business_id": businessID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, call{method: "POST", path: fmtPath("/api/admin/businesses/%v/approve-application", businessID), bearer: owner})
	assert.Equal(t, http.StatusForbidden, w.Code, "owners cannot approve themselves")

	w = ts.do(t, call{method: "POST", path: fmtPath("/api/admin/businesses/%v/approve-application", businessID), bearer: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	link := linkToken(t, ts.Mail.last().Body)
	require.NotEmpty(t, link)

	t.Log("Step 4: documents through the emailed link")
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/upload-documents/batch", link: link, body: map[string]interface{}{
		"files": []map[string]interface{}{
			{"document_type": "liability_insurance", "file_name": "insurance.pdf", "file_base64": pdf()},
			{"document_type": "professional_license", "file_name": "license.pdf", "file_base64": pdf()},
		},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), data(t, w)["succeeded"])

	t.Log("Step 5-7: services, payout, hours")
	w = ts.do(t, call{method: "PUT", path: "/api/onboarding/phase2/services", link: link, body: map[string]interface{}{
		"services": []map[string]interface{}{{"service_id": 1, "business_price": 60, "business_duration_minutes": 60}},
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be at least $80")

	w = ts.do(t, call{method: "PUT", path: "/api/onboarding/phase2/services", link: link, body: map[string]interface{}{
		"services": []map[string]interface{}{{"service_id": 1, "business_price": 95, "business_duration_minutes": 60}},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, call{method: "POST", path: "/api/onboarding/phase2/payout-link", link: link})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/phase2/payout-confirm", link: link})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, call{method: "PUT", path: "/api/onboarding/phase2/business-hours", link: link, body: map[string]interface{}{
		"business_hours": []map[string]interface{}{
			{"day": "monday", "open_time": "09:00", "close_time": "17:00"},
			{"day": "sunday", "closed": true},
		},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Log("Step 8: submit; the link stops working and nothing is auto-approved")
	w = ts.do(t, call{method: "POST", path: "/api/onboarding/phase2/submit", link: link})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pending", data(t, w)["verification_status"])
	assert.Equal(t, true, data(t, w)["setup_completed"])

	w = ts.do(t, call{method: "GET", path: "/api/onboarding/phase2/status", link: link})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	t.Log("Step 9: admin approves the business")
	w = ts.do(t, call{method: "PATCH", path: fmtPath("/api/admin/businesses/%v/moderate", businessID), bearer: admin, body: map[string]interface{}{
		"action": "approve",
		"notes":  "documents check out",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := data(t, w)
	assert.Equal(t, "approved", approved["verification_status"])
	assert.Equal(t, "user_admin", approved["moderated_by"])

	t.Log("Step 10: the owner manages services through the role gate")
	w = ts.do(t, call{method: "GET", path: "/api/business/services", bearer: owner})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPhaseTwoBeforeSubmitListsMissingItems(t *testing.T) {
	ts := setupIntegrationTest(t)
	owner := session(t, "user_owner", "")
	admin := session(t, "user_admin", util.AppRoleAdmin)

	w := ts.do(t, call{method: "POST", path: "/api/onboarding/business-info", bearer: owner, body: map[string]interface{}{
		"business_name": "Glow Studio",
		"business_type": "independent",
		"contact_email": "owner@glow.example.com",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	businessID := data(t, w)["business_id"]
	for _, step := range []string{"identity/session", "identity/confirm", "submit-application"} {
		w = ts.do(t, call{method: "POST", path: "/api/onboarding/" + step, bearer: owner, body: map[string]interface{}{"business_id": businessID}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = ts.do(t, call{method: "POST", path: fmtPath("/api/admin/businesses/%v/approve-application", businessID), bearer: admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	link := linkToken(t, ts.Mail.last().Body)

	w = ts.do(t, call{method: "POST", path: "/api/onboarding/phase2/submit", link: link})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code    string `json:"code"`
		Details struct {
			Missing []map[string]interface{} `json:"missing"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ONBOARDING_INCOMPLETE", body.Code)

	steps := map[string]bool{}
	for _, d := range body.Details.Missing {
		steps[d["step"].(string)] = true
	}
	for _, want := range []string{"documents", "services", "payout", "business_hours"} {
		assert.True(t, steps[want], "missing %s", want)
	}
}

func fmtPath(format string, id interface{}) string {
	return strings.Replace(format, "%v", jsonNumber(id), 1)
}

func jsonNumber(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// linkToken pulls the token query parameter out of the approval email.
func linkToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "https://")
	require.GreaterOrEqual(t, i, 0, body)
	raw, _, _ := strings.Cut(body[i:], "\r\n")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("token")
}
