package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
)

type DocumentController struct {
	documentService service.DocumentService
}

func NewDocumentController(documentService service.DocumentService) *DocumentController {
	return &DocumentController{documentService: documentService}
}

// UploadDocumentRequest is one file in JSON transport. content_type and
// storage_path are accepted for client compatibility; the stored type is
// sniffed and the object key is always generated server side.
type UploadDocumentRequest struct {
	BusinessID   uint               `json:"business_id"`
	UserID       string             `json:"user_id"`
	DocumentType model.DocumentType `json:"document_type" binding:"required"`
	FileName     string             `json:"file_name" binding:"required,max=255"`
	ContentType  string             `json:"content_type"`
	FileBase64   string             `json:"file_base64" binding:"required"`
	StoragePath  string             `json:"storage_path"`
}

type UploadBatchRequest struct {
	Files []UploadDocumentRequest `json:"files" binding:"required,min=1,max=10,dive"`
}

// MaxBatchFiles matches the max tag on UploadBatchRequest.Files.
const MaxBatchFiles = 10

// UploadBodyLimit sizes the request body cap for files documents: base64
// grows each file by 4/3 and every file gets room for its JSON fields.
func UploadBodyLimit(files int) int64 {
	const envelope = 64 << 10
	encoded := (model.MaxDocumentBytes() + 2) / 3 * 4
	return int64(files) * (encoded + envelope)
}

type VerifyDocumentRequest struct {
	Status model.DocumentStatus `json:"status" binding:"required"`
	Reason string               `json:"reason"`
}

// BatchFileResult reports the outcome of one file of a batch upload.
type BatchFileResult struct {
	Index        int                     `json:"index"`
	FileName     string                  `json:"file_name"`
	DocumentType model.DocumentType      `json:"document_type"`
	Status       string                  `json:"status"`
	Attempts     int                     `json:"attempts"`
	Document     *model.BusinessDocument `json:"document,omitempty"`
	Error        *apperrors.ErrorInfo    `json:"error,omitempty"`
}

// uploadInput maps a request to the service input. A business_id that
// disagrees with the link's business is refused.
func uploadInput(c *gin.Context, businessID uint, req UploadDocumentRequest) (service.UploadInput, bool) {
	if req.BusinessID != 0 && req.BusinessID != businessID {
		apperrors.Respond(c, service.ErrBusinessMismatch)
		return service.UploadInput{}, false
	}
	uploadedBy := req.UserID
	if uploadedBy == "" {
		uploadedBy = "onboarding-link:" + c.GetString(middleware.OnboardingTokenKey)
	}
	return service.UploadInput{
		DocumentType: req.DocumentType,
		FileName:     req.FileName,
		FileBase64:   req.FileBase64,
		UploadedBy:   uploadedBy,
	}, true
}

// Upload 4단계: 서류 단건 업로드
// @Router /onboarding/upload-documents [post]
func (ctrl *DocumentController) Upload(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	var req UploadDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	input, ok := uploadInput(c, businessID, req)
	if !ok {
		return
	}

	doc, err := ctrl.documentService.Upload(c.Request.Context(), businessID, input)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusCreated, doc)
}

// UploadBatch 4단계: 서류 다건 업로드 (파일별 독립 처리)
// @Router /onboarding/upload-documents/batch [post]
func (ctrl *DocumentController) UploadBatch(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	var req UploadBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	inputs := make([]service.UploadInput, 0, len(req.Files))
	for _, f := range req.Files {
		input, ok := uploadInput(c, businessID, f)
		if !ok {
			return
		}
		inputs = append(inputs, input)
	}

	results, err := ctrl.documentService.UploadBatch(c.Request.Context(), businessID, inputs)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	out := make([]BatchFileResult, 0, len(results))
	succeeded := 0
	for _, r := range results {
		item := BatchFileResult{
			Index:        r.Index,
			FileName:     r.FileName,
			DocumentType: r.DocumentType,
			Attempts:     r.Attempts,
			Document:     r.Document,
			Status:       "uploaded",
		}
		if r.Err != nil {
			info := apperrors.Normalize(r.Err)
			item.Status = "failed"
			item.Error = &info
		} else {
			succeeded++
		}
		out = append(out, item)
	}

	respondData(c, http.StatusOK, gin.H{
		"results":   out,
		"succeeded": succeeded,
		"failed":    len(out) - succeeded,
	})
}

// List 업로드된 서류 목록
// @Router /onboarding/phase2/documents [get]
func (ctrl *DocumentController) List(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	docs, err := ctrl.documentService.List(c.Request.Context(), businessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, docs)
}

// FormTypes 업로드 가능한 서류 종류
// @Router /onboarding/phase2/document-types [get]
func (ctrl *DocumentController) FormTypes(c *gin.Context) {
	respondData(c, http.StatusOK, ctrl.documentService.FormTypes())
}

// Delete 심사 대기 중인 서류 삭제
// @Router /onboarding/phase2/documents/{id} [delete]
func (ctrl *DocumentController) Delete(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.documentService.Delete(c.Request.Context(), businessID, id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Verify 관리자 서류 승인/반려
// @Router /admin/documents/{id}/verify [patch]
func (ctrl *DocumentController) Verify(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req VerifyDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := ctrl.documentService.Verify(c.Request.Context(), adminID, id, req.Status, req.Reason)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, doc)
}

// DownloadURL 관리자용 서류 다운로드 URL 발급
// @Router /admin/documents/{id}/download [get]
func (ctrl *DocumentController) DownloadURL(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	url, err := ctrl.documentService.DownloadURL(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": url})
}
