package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/db"
	"github.com/ikkim/provider-portal-backend/internal/storage"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	"github.com/ikkim/provider-portal-backend/pkg/stripeclient"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testRepos struct {
	db         *gorm.DB
	businesses repository.BusinessRepository
	providers  repository.ProviderRepository
	tokens     repository.OnboardingTokenRepository
	documents  repository.DocumentRepository
	catalog    repository.CatalogRepository
	offerings  repository.BusinessServiceRepository
	bookings   repository.BookingRepository
	reviews    repository.ReviewRepository
}

func setupServiceTest(t *testing.T) *testRepos {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testRepos{
		db:         testDB,
		businesses: repository.NewBusinessRepository(testDB),
		providers:  repository.NewProviderRepository(testDB),
		tokens:     repository.NewOnboardingTokenRepository(testDB),
		documents:  repository.NewDocumentRepository(testDB),
		catalog:    repository.NewCatalogRepository(testDB),
		offerings:  repository.NewBusinessServiceRepository(testDB),
		bookings:   repository.NewBookingRepository(testDB),
		reviews:    repository.NewReviewRepository(testDB),
	}
}

func testOnboardingConfig() config.OnboardingConfig {
	return config.OnboardingConfig{
		LinkBaseURL:       "https://portal.example.com/onboarding/phase2",
		TokenTTL:          72 * time.Hour,
		UploadMaxAttempts: 2,
		UploadConcurrency: 4,
		TokenPurgeSpec:    "0 3 * * *",
	}
}

// createBusiness makes a business with its owner; approved unlocks phase 2.
func createBusiness(t *testing.T, r *testRepos, userID string, approved bool) (*model.BusinessProfile, *model.Provider) {
	t.Helper()
	business := &model.BusinessProfile{
		BusinessName: "Glow Studio",
		BusinessType: model.BusinessTypeIndependent,
		ContactEmail: "owner@glow.example.com",
		SetupStep:    int(model.StepBusinessInfo),
	}
	owner := &model.Provider{UserID: userID, FirstName: "Ada", LastName: "Owner", Email: "owner@glow.example.com"}
	require.NoError(t, r.businesses.CreateWithOwner(context.Background(), business, owner))

	if approved {
		now := time.Now().UTC()
		require.NoError(t, r.db.Model(&model.BusinessProfile{}).Where("id = ?", business.ID).Updates(map[string]interface{}{
			"identity_verification_status": model.IdentityVerified,
			"application_submitted_at":     now,
			"application_approved_at":      now,
			"setup_step":                   int(model.StepApplicationSubmitted),
		}).Error)
	}

	found, err := r.businesses.FindByID(context.Background(), business.ID)
	require.NoError(t, err)
	return found, owner
}

func createCatalogService(t *testing.T, r *testRepos, name string, minPrice float64) *model.Service {
	t.Helper()
	svc := &model.Service{Name: name, CategoryID: "beauty", MinPrice: minPrice, DefaultDurationMinutes: 60, IsActive: true}
	require.NoError(t, r.catalog.UpsertService(context.Background(), svc))
	return svc
}

func addStaff(t *testing.T, r *testRepos, businessID uint, userID string, role model.ProviderRole) *model.Provider {
	t.Helper()
	p := &model.Provider{BusinessID: businessID, UserID: userID, FirstName: "Sam", LastName: string(role), ProviderRole: role, IsActive: true}
	require.NoError(t, r.providers.Create(context.Background(), p))
	return p
}

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

// pdfPayload returns a base64 PDF of exactly size bytes.
func pdfPayload(size int) string {
	body := make([]byte, size)
	copy(body, pdfHeader)
	for i := len(pdfHeader); i < size; i++ {
		body[i] = 'a'
	}
	return base64.StdEncoding.EncodeToString(body)
}

// fakeStorage fails the first failPuts writes of any key whose name contains
// failMatch (every key when failMatch is empty). onFail runs after each
// injected failure.
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failPuts  int
	failMatch string
	onFail    func()
	puts      int
	deleted   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Put(_ context.Context, key string, body []byte, _ string) (*storage.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts > 0 && strings.Contains(key, f.failMatch) {
		f.failPuts--
		if f.onFail != nil {
			f.onFail()
		}
		return nil, errors.New("connection reset by peer")
	}
	f.objects[key] = body
	return &storage.StoredObject{Key: key, FileURL: "https://cdn.example.com/" + key}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key + "?sig=1", nil
}

func (f *fakeStorage) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type fakeStripe struct {
	identityStatus   string
	detailsSubmitted bool
	payoutsEnabled   bool
	accountsCreated  int
}

func (f *fakeStripe) CreateIdentitySession(_ context.Context, _ uint) (*stripeclient.IdentitySession, error) {
	return &stripeclient.IdentitySession{ID: "vs_123", Status: "requires_input", URL: "https://verify.stripe.com/start/vs_123"}, nil
}

func (f *fakeStripe) GetIdentitySession(_ context.Context, id string) (*stripeclient.IdentitySession, error) {
	return &stripeclient.IdentitySession{ID: id, Status: f.identityStatus}, nil
}

func (f *fakeStripe) CreateConnectAccount(_ context.Context, _ string, _ uint) (string, error) {
	f.accountsCreated++
	return "acct_123", nil
}

func (f *fakeStripe) CreateAccountLink(_ context.Context, accountID string) (*stripeclient.AccountLink, error) {
	return &stripeclient.AccountLink{URL: "https://connect.stripe.com/setup/" + accountID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeStripe) GetAccount(_ context.Context, accountID string) (*stripeclient.AccountStatus, error) {
	return &stripeclient.AccountStatus{ID: accountID, DetailsSubmitted: f.detailsSubmitted, PayoutsEnabled: f.payoutsEnabled}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(e websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
