package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/internal/storage"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const documentURLTTL = 15 * time.Minute

var allowedContentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// UploadInput is one file as it arrives over JSON.
type UploadInput struct {
	DocumentType model.DocumentType
	FileName     string
	FileBase64   string
	UploadedBy   string
}

// UploadResult reports one file of a batch. Err is nil on success.
type UploadResult struct {
	Index        int
	FileName     string
	DocumentType model.DocumentType
	Attempts     int
	Document     *model.BusinessDocument
	Err          error
}

type DocumentService interface {
	FormTypes() []model.DocumentPolicy
	Upload(ctx context.Context, businessID uint, input UploadInput) (*model.BusinessDocument, error)
	UploadBatch(ctx context.Context, businessID uint, inputs []UploadInput) ([]UploadResult, error)
	List(ctx context.Context, businessID uint) ([]model.BusinessDocument, error)
	Delete(ctx context.Context, businessID, id uint) error

	// admin
	Verify(ctx context.Context, adminID string, id uint, status model.DocumentStatus, reason string) (*model.BusinessDocument, error)
	DownloadURL(ctx context.Context, id uint) (string, error)
}

type documentService struct {
	cfg          config.OnboardingConfig
	businessRepo repository.BusinessRepository
	documentRepo repository.DocumentRepository
	storage      ObjectStorage
	events       EventPublisher
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewDocumentService(
	cfg config.OnboardingConfig,
	businessRepo repository.BusinessRepository,
	documentRepo repository.DocumentRepository,
	objectStorage ObjectStorage,
	events EventPublisher,
	m *metrics.Metrics,
) DocumentService {
	if cfg.UploadMaxAttempts < 1 {
		cfg.UploadMaxAttempts = 1
	}
	if cfg.UploadConcurrency < 1 {
		cfg.UploadConcurrency = 1
	}
	return &documentService{
		cfg:          cfg,
		businessRepo: businessRepo,
		documentRepo: documentRepo,
		storage:      objectStorage,
		events:       publisherOrNoop(events),
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) FormTypes() []model.DocumentPolicy {
	return model.FormDocumentTypes()
}

// preparedUpload is a file that passed every local check.
type preparedUpload struct {
	policy      model.DocumentPolicy
	fileName    string
	body        []byte
	contentType string
	uploadedBy  string
}

// prepare runs the checks that need no network: type, extension, encoding,
// size and content sniffing.
func prepare(input UploadInput) (*preparedUpload, error) {
	if !input.DocumentType.Known() {
		return nil, ErrDocumentInvalidType.WithMessage("Unknown document type %q", input.DocumentType)
	}
	policy, ok := model.PolicyFor(input.DocumentType)
	if !ok {
		return nil, ErrDocumentNotUploadable
	}

	name := filepath.Base(strings.TrimSpace(input.FileName))
	if name == "." || name == "/" || name == "" {
		return nil, ErrInvalidInput.WithDetails(map[string]string{"file_name": "required"})
	}
	if !model.AllowedDocumentExtension(filepath.Ext(name)) {
		return nil, ErrDocumentExtension
	}

	payload := input.FileBase64
	if strings.HasPrefix(payload, "data:") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}
	payload = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, ErrDocumentEmpty
	}

	tooLarge := ErrDocumentTooLarge.WithMessage("%s must be %d MB or smaller", policy.Label, policy.MaxBytes/(1024*1024))
	// reject oversized payloads before allocating for the decode
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > policy.MaxBytes+2 {
		return nil, tooLarge
	}
	body, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrDocumentEncoding
	}
	if len(body) == 0 {
		return nil, ErrDocumentEmpty
	}
	if int64(len(body)) > policy.MaxBytes {
		return nil, tooLarge
	}

	detected := mimetype.Detect(body)
	if !mimetype.EqualsAny(detected.String(), allowedContentTypes...) {
		return nil, ErrDocumentContent.WithDetails(map[string]string{"detected": detected.String()})
	}

	return &preparedUpload{
		policy:      policy,
		fileName:    name,
		body:        body,
		contentType: detected.String(),
		uploadedBy:  input.UploadedBy,
	}, nil
}

type entryState int

const (
	entryIdle entryState = iota
	entryInFlight
	entryDone
	entryFailed
)

type trackedEntry struct {
	docType model.DocumentType
	state   entryState
}

// uploadTracker is the live entry list of one upload request. Duplicate
// checks look at stored documents plus the in-flight and finished entries.
type uploadTracker struct {
	mu      sync.Mutex
	entries []trackedEntry
}

func newUploadTracker(inputs []UploadInput) *uploadTracker {
	t := &uploadTracker{entries: make([]trackedEntry, len(inputs))}
	for i, in := range inputs {
		t.entries[i].docType = in.DocumentType
	}
	return t
}

// claim validates entry i against the current list and marks it in flight.
func (t *uploadTracker) claim(i int, policy model.DocumentPolicy, stored []model.BusinessDocument) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// a failed entry is removed before it is validated again
	t.entries[i].state = entryIdle

	if !policy.Multiple {
		for k := range stored {
			if stored[k].DocumentType == policy.Type && stored[k].Counts() {
				return ErrDocumentDuplicate
			}
		}
		for j, e := range t.entries {
			if j != i && e.docType == policy.Type && (e.state == entryInFlight || e.state == entryDone) {
				return ErrDocumentDuplicate
			}
		}
	}

	t.entries[i].state = entryInFlight
	return nil
}

func (t *uploadTracker) finish(i int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.entries[i].state = entryDone
	} else {
		t.entries[i].state = entryFailed
	}
}

// storageWriteError marks a failure that resubmitting the same blob may fix.
type storageWriteError struct {
	err error
}

func (e *storageWriteError) Error() string { return e.err.Error() }

func (e *storageWriteError) Unwrap() error { return e.err }

func (s *documentService) uploadableBusiness(ctx context.Context, businessID uint) (*model.BusinessProfile, error) {
	business, err := s.businessRepo.FindActiveByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if !business.ApplicationApproved() {
		return nil, ErrStepLocked.WithMessage("Your application has not been approved yet")
	}
	if business.SetupCompleted {
		return nil, ErrAlreadySubmitted
	}
	return business, nil
}

// uploadOne runs the full pipeline for entry i, retrying failed storage
// writes. Every attempt re-validates against the current document list.
// The first attempt may reuse checks already run by the caller.
func (s *documentService) uploadOne(ctx context.Context, businessID uint, tracker *uploadTracker, i int, input UploadInput, prepared *preparedUpload) (*model.BusinessDocument, int, error) {
	attempt := 0
	for {
		attempt++

		if prepared == nil {
			var err error
			if prepared, err = prepare(input); err != nil {
				s.metrics.DocumentUpload(string(input.DocumentType), "invalid")
				return nil, attempt, err
			}
		}

		stored, err := s.documentRepo.ListByBusiness(ctx, businessID)
		if err != nil {
			return nil, attempt, err
		}
		if err := tracker.claim(i, prepared.policy, stored); err != nil {
			s.metrics.DocumentUpload(string(input.DocumentType), "duplicate")
			return nil, attempt, err
		}

		doc, err := s.store(ctx, businessID, prepared)
		if err == nil {
			tracker.finish(i, true)
			s.metrics.DocumentUpload(string(input.DocumentType), "ok")
			return doc, attempt, nil
		}
		tracker.finish(i, false)
		if errors.Is(err, ErrDocumentDuplicate) {
			s.metrics.DocumentUpload(string(input.DocumentType), "duplicate")
			return nil, attempt, err
		}
		s.metrics.DocumentUpload(string(input.DocumentType), "error")
		prepared = nil

		var writeErr *storageWriteError
		if !errors.As(err, &writeErr) || attempt >= s.cfg.UploadMaxAttempts || ctx.Err() != nil {
			return nil, attempt, presentStorageError(err)
		}

		logger.Warn("Document upload failed, retrying", map[string]interface{}{
			"business_id":   businessID,
			"document_type": input.DocumentType,
			"file_name":     input.FileName,
			"attempt":       attempt,
			"error":         err.Error(),
		})
	}
}

// presentStorageError keeps S3 API errors for the shared normaliser and
// gives anything else a storage error code.
func presentStorageError(err error) error {
	var writeErr *storageWriteError
	if !errors.As(err, &writeErr) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return writeErr.err
	}
	return ErrStorageFailed.Wrap(writeErr.err)
}

// store writes the object then the metadata row. A failed row insert removes
// the orphaned object.
func (s *documentService) store(ctx context.Context, businessID uint, p *preparedUpload) (*model.BusinessDocument, error) {
	folder := fmt.Sprintf("businesses/%d/documents/%s", businessID, p.policy.Type)
	key := storage.ObjectKey(folder, p.fileName)

	obj, err := s.storage.Put(ctx, key, p.body, p.contentType)
	if err != nil {
		return nil, &storageWriteError{err: err}
	}

	doc := &model.BusinessDocument{
		BusinessID:         businessID,
		DocumentType:       p.policy.Type,
		FileName:           p.fileName,
		FileSize:           int64(len(p.body)),
		ContentType:        p.contentType,
		StorageKey:         obj.Key,
		FileURL:            obj.FileURL,
		VerificationStatus: model.DocumentPending,
		UploadedBy:         p.uploadedBy,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, obj.Key); delErr != nil {
			logger.Error("Failed to remove orphaned document object", delErr, map[string]interface{}{
				"key": obj.Key,
			})
		}
		// another request stored a live row of this type first
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDocumentDuplicate
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Upload(ctx context.Context, businessID uint, input UploadInput) (*model.BusinessDocument, error) {
	prepared, err := prepare(input)
	if err != nil {
		s.metrics.DocumentUpload(string(input.DocumentType), "invalid")
		return nil, err
	}
	if _, err := s.uploadableBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	tracker := newUploadTracker([]UploadInput{input})
	doc, attempts, err := s.uploadOne(ctx, businessID, tracker, 0, input, prepared)
	if err != nil {
		logger.Warn("Document upload rejected", map[string]interface{}{
			"business_id":   businessID,
			"document_type": input.DocumentType,
			"attempts":      attempts,
			"error":         err.Error(),
		})
		return nil, err
	}

	s.afterUpload(ctx, businessID, doc)
	return doc, nil
}

// UploadBatch uploads every file independently with bounded concurrency.
// One file failing never cancels the others.
func (s *documentService) UploadBatch(ctx context.Context, businessID uint, inputs []UploadInput) ([]UploadResult, error) {
	if len(inputs) == 0 {
		return nil, ErrInvalidInput.WithMessage("No files to upload")
	}

	results := make([]UploadResult, len(inputs))
	prepared := make([]*preparedUpload, len(inputs))
	valid := 0
	for i := range inputs {
		p, err := prepare(inputs[i])
		if err != nil {
			s.metrics.DocumentUpload(string(inputs[i].DocumentType), "invalid")
			results[i] = UploadResult{
				Index:        i,
				FileName:     inputs[i].FileName,
				DocumentType: inputs[i].DocumentType,
				Attempts:     1,
				Err:          err,
			}
			continue
		}
		prepared[i] = p
		valid++
	}
	if valid == 0 {
		return results, nil
	}
	if _, err := s.uploadableBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	tracker := newUploadTracker(inputs)

	var g errgroup.Group
	g.SetLimit(s.cfg.UploadConcurrency)
	for i := range inputs {
		if prepared[i] == nil {
			continue
		}
		i := i
		g.Go(func() error {
			doc, attempts, err := s.uploadOne(ctx, businessID, tracker, i, inputs[i], prepared[i])
			results[i] = UploadResult{
				Index:        i,
				FileName:     inputs[i].FileName,
				DocumentType: inputs[i].DocumentType,
				Attempts:     attempts,
				Document:     doc,
				Err:          err,
			}
			return nil
		})
	}
	_ = g.Wait()

	var uploaded *model.BusinessDocument
	succeeded := 0
	for i := range results {
		if results[i].Err == nil {
			succeeded++
			uploaded = results[i].Document
			s.events.Publish(documentEvent(websocket.EventDocumentUploaded, results[i].Document, ""))
		}
	}
	if uploaded != nil {
		s.advanceDocumentsStep(ctx, businessID)
	}

	logger.Info("Document batch processed", map[string]interface{}{
		"business_id": businessID,
		"files":       len(inputs),
		"succeeded":   succeeded,
	})
	return results, nil
}

func (s *documentService) afterUpload(ctx context.Context, businessID uint, doc *model.BusinessDocument) {
	s.events.Publish(documentEvent(websocket.EventDocumentUploaded, doc, ""))
	s.advanceDocumentsStep(ctx, businessID)
}

func documentEvent(eventType string, doc *model.BusinessDocument, actor string) websocket.Event {
	return websocket.Event{
		Type:       eventType,
		EntityType: "document",
		EntityID:   doc.ID,
		BusinessID: doc.BusinessID,
		Actor:      actor,
		Data: map[string]interface{}{
			"document_type":       doc.DocumentType,
			"verification_status": doc.VerificationStatus,
		},
	}
}

// advanceDocumentsStep moves the cursor past documents once every required
// type has a usable row.
func (s *documentService) advanceDocumentsStep(ctx context.Context, businessID uint) {
	business, err := s.businessRepo.FindByID(ctx, businessID)
	if err != nil {
		return
	}
	docs, err := s.documentRepo.ListByBusiness(ctx, businessID)
	if err != nil {
		return
	}

	present := make(map[model.DocumentType]bool, len(docs))
	for i := range docs {
		if docs[i].Counts() {
			present[docs[i].DocumentType] = true
		}
	}
	for _, t := range model.RequiredDocumentTypes(business.BusinessType) {
		if !present[t] {
			return
		}
	}

	if err := s.businessRepo.SaveStep(ctx, businessID, model.StepDocuments, nil); err != nil {
		logger.Error("Failed to advance onboarding past documents", err, map[string]interface{}{
			"business_id": businessID,
		})
		return
	}
	s.metrics.OnboardingStep(model.StepDocuments.String(), "ok")
}

func (s *documentService) List(ctx context.Context, businessID uint) ([]model.BusinessDocument, error) {
	return s.documentRepo.ListByBusiness(ctx, businessID)
}

// Delete removes a pending document and its stored object.
func (s *documentService) Delete(ctx context.Context, businessID, id uint) error {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if doc.BusinessID != businessID {
		return ErrDocumentNotFound
	}
	if doc.VerificationStatus != model.DocumentPending {
		return ErrDocumentNotRemovable
	}

	if err := s.documentRepo.Delete(ctx, businessID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		logger.Error("Failed to delete document object", err, map[string]interface{}{
			"document_id": id,
			"key":         doc.StorageKey,
		})
	}

	logger.Info("Document deleted", map[string]interface{}{
		"business_id": businessID,
		"document_id": id,
	})
	return nil
}

// Verify records an admin decision. Rejections need a reason the provider
// can act on.
func (s *documentService) Verify(ctx context.Context, adminID string, id uint, status model.DocumentStatus, reason string) (*model.BusinessDocument, error) {
	switch status {
	case model.DocumentVerified:
		reason = ""
	case model.DocumentRejected:
		if strings.TrimSpace(reason) == "" {
			return nil, ErrInvalidInput.WithDetails(map[string]string{"reason": "required"})
		}
	default:
		return nil, ErrInvalidInput.WithMessage("Status must be verified or rejected")
	}

	rows, err := s.documentRepo.SetVerification(ctx, id, status, adminID, strings.TrimSpace(reason), s.now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrDocumentNotFound
	}

	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Moderation("document", string(status))
	s.events.Publish(documentEvent(websocket.EventDocumentVerified, doc, adminID))
	logger.Info("Document verification recorded", map[string]interface{}{
		"document_id": id,
		"status":      status,
		"admin_id":    adminID,
	})
	return doc, nil
}

// DownloadURL returns a short-lived link for an admin to open the file.
func (s *documentService) DownloadURL(ctx context.Context, id uint) (string, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", err
	}
	return s.storage.PresignGet(ctx, doc.StorageKey, documentURLTTL)
}
