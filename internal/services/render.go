package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/clients/storage"
	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// RenderService produces the canonical locked artifact for an issued
// document and registers its storage reference. Page layout is a
// different system; this artifact is the stable machine-readable record
// the defence pack bundles.
type RenderService interface {
	RenderDocument(ctx context.Context, documentID uuid.UUID) (*types.RenderedArtifact, error)
}

type renderService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	artifactRepo repos.RenderedArtifactRepo
	bucket       storage.BucketService
}

func NewRenderService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	artifactRepo repos.RenderedArtifactRepo,
	bucket storage.BucketService,
) RenderService {
	return &renderService{
		db:           db,
		log:          log.With("service", "RenderService"),
		documentRepo: documentRepo,
		artifactRepo: artifactRepo,
		bucket:       bucket,
	}
}

// renderedDocument is the canonical artifact payload. Field order is
// fixed by the struct, so identical documents render identical bytes.
type renderedDocument struct {
	ID               uuid.UUID       `json:"id"`
	BaseDocumentID   uuid.UUID       `json:"base_document_id"`
	VersionNumber    int             `json:"version_number"`
	Title            string          `json:"title"`
	Reference        string          `json:"reference,omitempty"`
	IssueStatus      string          `json:"issue_status"`
	IssueDate        *time.Time      `json:"issue_date,omitempty"`
	IssuedBy         *uuid.UUID      `json:"issued_by,omitempty"`
	ExecutiveSummary string          `json:"executive_summary,omitempty"`
	Modules          json.RawMessage `json:"modules"`
}

func (s *renderService) RenderDocument(ctx context.Context, documentID uuid.UUID) (*types.RenderedArtifact, error) {
	doc, err := s.documentRepo.GetByID(dbctx.New(ctx, nil), documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsLocked() {
		return nil, types.ErrDocumentNotIssued
	}

	modules := json.RawMessage(doc.Modules)
	if len(modules) == 0 {
		modules = json.RawMessage(`{}`)
	}
	payload, err := json.MarshalIndent(renderedDocument{
		ID:               doc.ID,
		BaseDocumentID:   doc.BaseDocumentID,
		VersionNumber:    doc.VersionNumber,
		Title:            doc.Title,
		Reference:        doc.Reference,
		IssueStatus:      doc.IssueStatus,
		IssueDate:        doc.IssueDate,
		IssuedBy:         doc.IssuedBy,
		ExecutiveSummary: doc.ExecutiveSummary,
		Modules:          modules,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(payload)
	key := fmt.Sprintf("%s/v%d.json", doc.BaseDocumentID, doc.VersionNumber)
	if err := s.bucket.Upload(ctx, storage.BucketCategoryArtifact, key, bytes.NewReader(payload)); err != nil {
		s.log.Error("artifact upload failed", "document_id", doc.ID, "error", err)
		return nil, fmt.Errorf("%w: artifact storage: %v", types.ErrDependencyUnavailable, err)
	}

	artifact := &types.RenderedArtifact{
		ID:          uuid.New(),
		DocumentID:  doc.ID,
		StorageKey:  key,
		ContentType: "application/json",
		Checksum:    hex.EncodeToString(sum[:]),
		SizeBytes:   int64(len(payload)),
		RenderedAt:  time.Now().UTC(),
	}
	if err := s.artifactRepo.Upsert(dbctx.New(ctx, nil), artifact); err != nil {
		return nil, err
	}

	s.log.Info("document rendered",
		"document_id", doc.ID,
		"storage_key", key,
		"size_bytes", artifact.SizeBytes)
	return artifact, nil
}
