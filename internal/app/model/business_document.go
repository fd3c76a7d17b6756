package model

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type DocumentType string

const (
	DocLiabilityInsurance      DocumentType = "liability_insurance"
	DocProfessionalLicense     DocumentType = "professional_license"
	DocProfessionalCertificate DocumentType = "professional_certificate"
	DocBusinessLicense         DocumentType = "business_license"
	DocDriversLicense          DocumentType = "drivers_license"
	DocProofOfAddress          DocumentType = "proof_of_address"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

const megabyte = 1 << 20

// DocumentPolicy is the upload rule for one document type.
type DocumentPolicy struct {
	Type     DocumentType `json:"document_type"`
	Label    string       `json:"label"`
	MaxBytes int64        `json:"max_bytes"`
	Multiple bool         `json:"multiple"`
}

// documentPolicies is the single canonical upload policy. Identity documents
// are verified through the identity provider and have no entry here.
var documentPolicies = map[DocumentType]DocumentPolicy{
	DocLiabilityInsurance:      {Type: DocLiabilityInsurance, Label: "Liability Insurance", MaxBytes: 5 * megabyte},
	DocProfessionalLicense:     {Type: DocProfessionalLicense, Label: "Professional License", MaxBytes: 5 * megabyte, Multiple: true},
	DocProfessionalCertificate: {Type: DocProfessionalCertificate, Label: "Professional Certificate", MaxBytes: 2 * megabyte},
	DocBusinessLicense:         {Type: DocBusinessLicense, Label: "Business License", MaxBytes: 5 * megabyte},
}

var requiredDocuments = map[BusinessType][]DocumentType{
	BusinessTypeIndependent: {DocLiabilityInsurance, DocProfessionalLicense},
	BusinessTypeBusiness:    {DocLiabilityInsurance, DocBusinessLicense},
}

// AllowedDocumentExtensions are matched case-insensitively.
var AllowedDocumentExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

func AllowedDocumentExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range AllowedDocumentExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (t DocumentType) Known() bool {
	switch t {
	case DocLiabilityInsurance, DocProfessionalLicense, DocProfessionalCertificate,
		DocBusinessLicense, DocDriversLicense, DocProofOfAddress:
		return true
	}
	return false
}

// IsIdentityDocument reports types handled by identity verification.
func (t DocumentType) IsIdentityDocument() bool {
	return t == DocDriversLicense || t == DocProofOfAddress
}

// PolicyFor returns the upload policy; ok is false for non-uploadable types.
func PolicyFor(t DocumentType) (DocumentPolicy, bool) {
	p, ok := documentPolicies[t]
	return p, ok
}

// FormDocumentTypes is the set offered by the upload form, ordered by type.
func FormDocumentTypes() []DocumentPolicy {
	out := make([]DocumentPolicy, 0, len(documentPolicies))
	for _, p := range documentPolicies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// MaxDocumentBytes is the largest decoded size any uploadable type accepts.
func MaxDocumentBytes() int64 {
	var max int64
	for _, p := range documentPolicies {
		if p.MaxBytes > max {
			max = p.MaxBytes
		}
	}
	return max
}

// SingleUploadDocumentTypes are the uploadable types limited to one live row.
func SingleUploadDocumentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(documentPolicies))
	for t, p := range documentPolicies {
		if !p.Multiple {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RequiredDocumentTypes is the set the final submit insists on.
func RequiredDocumentTypes(bt BusinessType) []DocumentType {
	req, ok := requiredDocuments[bt]
	if !ok {
		req = requiredDocuments[BusinessTypeIndependent]
	}
	return append([]DocumentType(nil), req...)
}

type BusinessDocument struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	BusinessID         uint           `gorm:"not null;index" json:"business_id"`
	DocumentType       DocumentType   `gorm:"type:varchar(40);not null;index" json:"document_type"`
	FileName           string         `gorm:"not null" json:"file_name"`
	FileSize           int64          `json:"file_size"`
	ContentType        string         `gorm:"type:varchar(100)" json:"content_type"`
	StorageKey         string         `gorm:"not null" json:"storage_key"`
	FileURL            string         `gorm:"type:text" json:"file_url"`
	VerificationStatus DocumentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"verification_status"`
	UploadedBy         string         `json:"uploaded_by,omitempty"`
	VerifiedBy         string         `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time     `json:"verified_at,omitempty"`
	RejectionReason    string         `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BusinessDocument) TableName() string {
	return "business_documents"
}

// Counts reports whether the row satisfies a requirement or blocks a duplicate.
func (d *BusinessDocument) Counts() bool {
	return d.VerificationStatus != DocumentRejected
}
