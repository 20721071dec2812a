package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type AddEvidenceInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// EvidenceService records metadata about supporting files. The bytes
// live with the upload pipeline; the pack assembler only ever snapshots
// this metadata.
type EvidenceService interface {
	AddEvidence(ctx context.Context, documentID, userID uuid.UUID, input AddEvidenceInput) (*types.EvidenceFile, error)
	ListEvidence(ctx context.Context, documentID uuid.UUID) ([]*types.EvidenceFile, error)
}

type evidenceService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	evidenceRepo repos.EvidenceFileRepo
}

func NewEvidenceService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	evidenceRepo repos.EvidenceFileRepo,
) EvidenceService {
	return &evidenceService{
		db:           db,
		log:          log.With("service", "EvidenceService"),
		documentRepo: documentRepo,
		evidenceRepo: evidenceRepo,
	}
}

func (s *evidenceService) AddEvidence(ctx context.Context, documentID, userID uuid.UUID, input AddEvidenceInput) (*types.EvidenceFile, error) {
	if input.FileName == "" {
		return nil, &types.ValidationError{Reasons: []string{"evidence file name is required"}}
	}

	var out *types.EvidenceFile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx, tx)
		doc, err := s.documentRepo.GetByID(dbc, documentID)
		if err != nil {
			return err
		}
		if doc.IsLocked() {
			return types.ErrDocumentLocked
		}

		out = &types.EvidenceFile{
			ID:          uuid.New(),
			DocumentID:  documentID,
			FileName:    input.FileName,
			ContentType: input.ContentType,
			SizeBytes:   input.SizeBytes,
			UploadedBy:  userID,
			UploadedAt:  time.Now().UTC(),
		}
		return s.evidenceRepo.Create(dbc, []*types.EvidenceFile{out})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *evidenceService) ListEvidence(ctx context.Context, documentID uuid.UUID) ([]*types.EvidenceFile, error) {
	return s.evidenceRepo.ListByDocumentID(dbctx.New(ctx, nil), documentID)
}
