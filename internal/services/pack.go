package services

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clearform/assurance-backend/internal/clients/storage"
	"github.com/clearform/assurance-backend/internal/data/repos"
	types "github.com/clearform/assurance-backend/internal/domain"
	"github.com/clearform/assurance-backend/internal/platform/dbctx"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type PackService interface {
	// BuildDefencePack assembles the immutable bundle for an issued
	// document. Idempotent: a pack that already exists is returned
	// unchanged, including when a concurrent builder wins the insert.
	BuildDefencePack(ctx context.Context, documentID, userID uuid.UUID) (*types.DefencePack, error)
	GetPack(ctx context.Context, packID uuid.UUID) (*types.DefencePack, error)
	GetPackForDocument(ctx context.Context, documentID uuid.UUID) (*types.DefencePack, error)
	// VerifyPack recomputes the bundle checksum from storage and compares
	// it against the stored value.
	VerifyPack(ctx context.Context, packID uuid.UUID) (*PackVerification, error)
}

type PackVerification struct {
	PackID           uuid.UUID `json:"pack_id"`
	Valid            bool      `json:"valid"`
	StoredChecksum   string    `json:"stored_checksum"`
	ComputedChecksum string    `json:"computed_checksum"`
}

// packManifest is frozen into the bundle and the pack row at build time.
type packManifest struct {
	DocumentID    uuid.UUID       `json:"document_id"`
	VersionNumber int             `json:"version_number"`
	BuiltAt       time.Time       `json:"built_at"`
	Entries       []manifestEntry `json:"entries"`
	ActionCount   int             `json:"action_count"`
	EvidenceCount int             `json:"evidence_count"`
}

type manifestEntry struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// actionSnapshot is the flat point-in-time copy of one action. Later
// status changes never reach back into a built pack.
type actionSnapshot struct {
	ID             uuid.UUID  `json:"id"`
	Reference      string     `json:"reference,omitempty"`
	Description    string     `json:"description"`
	Recommendation string     `json:"recommendation,omitempty"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	Owner          string     `json:"owner,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	SourceType     string     `json:"source_type"`
	CreatedAt      time.Time  `json:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

type evidenceSnapshot struct {
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type packService struct {
	db           *gorm.DB
	log          *logger.Logger
	documentRepo repos.DocumentRepo
	actionRepo   repos.ActionRepo
	packRepo     repos.DefencePackRepo
	artifactRepo repos.RenderedArtifactRepo
	evidenceRepo repos.EvidenceFileRepo
	bucket       storage.BucketService
}

func NewPackService(
	db *gorm.DB,
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	actionRepo repos.ActionRepo,
	packRepo repos.DefencePackRepo,
	artifactRepo repos.RenderedArtifactRepo,
	evidenceRepo repos.EvidenceFileRepo,
	bucket storage.BucketService,
) PackService {
	return &packService{
		db:           db,
		log:          log.With("service", "PackService"),
		documentRepo: documentRepo,
		actionRepo:   actionRepo,
		packRepo:     packRepo,
		artifactRepo: artifactRepo,
		evidenceRepo: evidenceRepo,
		bucket:       bucket,
	}
}

func (s *packService) BuildDefencePack(ctx context.Context, documentID, userID uuid.UUID) (*types.DefencePack, error) {
	dbc := dbctx.New(ctx, nil)

	doc, err := s.documentRepo.GetByID(dbc, documentID)
	if err != nil {
		return nil, err
	}
	// Superseded rows passed through issued and stay packable; only a
	// draft has no locked state to bundle.
	if !doc.IsLocked() {
		return nil, types.ErrDocumentNotIssued
	}

	if existing, err := s.packRepo.GetByDocumentID(dbc, documentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	artifact, err := s.artifactRepo.GetByDocumentID(dbc, documentID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrRenderedArtifactMissing
		}
		return nil, err
	}

	// Collect the bundle inputs concurrently; any failure aborts the
	// build before anything is persisted.
	var (
		artifactBytes []byte
		actions       []*types.Action
		evidence      []*types.EvidenceFile
		prior         *types.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc, err := s.bucket.Download(gctx, storage.BucketCategoryArtifact, artifact.StorageKey)
		if err != nil {
			return fmt.Errorf("%w: artifact fetch: %v", types.ErrDependencyUnavailable, err)
		}
		defer rc.Close()
		artifactBytes, err = io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("%w: artifact read: %v", types.ErrDependencyUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		actions, err = s.actionRepo.ListByDocumentID(dbctx.New(gctx, nil), documentID, false)
		return err
	})
	g.Go(func() error {
		var err error
		evidence, err = s.evidenceRepo.ListByDocumentID(dbctx.New(gctx, nil), documentID)
		return err
	})
	g.Go(func() error {
		var err error
		prior, err = s.priorVersion(dbctx.New(gctx, nil), doc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := BuildChangeSummary(prior, doc)
	if err != nil {
		return nil, err
	}

	bundle, manifest, err := s.assembleBundle(doc, artifactBytes, summary, actions, evidence)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(bundle)
	checksum := hex.EncodeToString(sum[:])

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}

	packID := uuid.New()
	// The key embeds the pack id so a losing concurrent builder's upload
	// can never overwrite the winner's bundle.
	bundleKey := fmt.Sprintf("%s/%s.zip", documentID, packID)
	if err := s.bucket.Upload(ctx, storage.BucketCategoryPack, bundleKey, bytes.NewReader(bundle)); err != nil {
		s.log.Error("pack upload failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("%w: pack storage: %v", types.ErrDependencyUnavailable, err)
	}

	pack := &types.DefencePack{
		ID:            packID,
		DocumentID:    documentID,
		BundleKey:     bundleKey,
		Checksum:      checksum,
		SizeBytes:     int64(len(bundle)),
		Manifest:      datatypes.JSON(manifestJSON),
		ActionCount:   len(actions),
		EvidenceCount: len(evidence),
		CreatedBy:     userID,
	}
	created, err := s.packRepo.CreateIfAbsent(dbc, pack)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the race; drop our orphan bundle and return the winner's.
		if delErr := s.bucket.Delete(ctx, storage.BucketCategoryPack, bundleKey); delErr != nil {
			s.log.Warn("orphan bundle cleanup failed", "bundle_key", bundleKey, "error", delErr)
		}
		return s.packRepo.GetByDocumentID(dbc, documentID)
	}

	s.log.Info("defence pack built",
		"document_id", documentID,
		"pack_id", pack.ID,
		"size_bytes", pack.SizeBytes,
		"actions", pack.ActionCount,
		"evidence", pack.EvidenceCount)
	return pack, nil
}

func (s *packService) GetPack(ctx context.Context, packID uuid.UUID) (*types.DefencePack, error) {
	return s.packRepo.GetByID(dbctx.New(ctx, nil), packID)
}

func (s *packService) GetPackForDocument(ctx context.Context, documentID uuid.UUID) (*types.DefencePack, error) {
	return s.packRepo.GetByDocumentID(dbctx.New(ctx, nil), documentID)
}

func (s *packService) VerifyPack(ctx context.Context, packID uuid.UUID) (*PackVerification, error) {
	pack, err := s.packRepo.GetByID(dbctx.New(ctx, nil), packID)
	if err != nil {
		return nil, err
	}
	rc, err := s.bucket.Download(ctx, storage.BucketCategoryPack, pack.BundleKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bundle fetch: %v", types.ErrDependencyUnavailable, err)
	}
	defer rc.Close()

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return nil, fmt.Errorf("%w: bundle read: %v", types.ErrDependencyUnavailable, err)
	}
	computed := hex.EncodeToString(h.Sum(nil))

	return &PackVerification{
		PackID:           pack.ID,
		Valid:            computed == pack.Checksum,
		StoredChecksum:   pack.Checksum,
		ComputedChecksum: computed,
	}, nil
}

// priorVersion finds the version the change summary compares against:
// the highest-numbered earlier version of the family.
func (s *packService) priorVersion(dbc dbctx.Context, doc *types.Document) (*types.Document, error) {
	family, err := s.documentRepo.GetFamily(dbc, doc.BaseDocumentID)
	if err != nil {
		return nil, err
	}
	var prior *types.Document
	for _, d := range family {
		if d.VersionNumber >= doc.VersionNumber {
			continue
		}
		if prior == nil || d.VersionNumber > prior.VersionNumber {
			prior = d
		}
	}
	return prior, nil
}

// assembleBundle writes the zip. Entry timestamps are pinned to the
// issue date so the bundle bytes depend only on the bundled data.
func (s *packService) assembleBundle(
	doc *types.Document,
	artifactBytes []byte,
	summary *ChangeSummary,
	actions []*types.Action,
	evidence []*types.EvidenceFile,
) ([]byte, *packManifest, error) {
	actionList := make([]actionSnapshot, 0, len(actions))
	for _, a := range actions {
		actionList = append(actionList, actionSnapshot{
			ID:             a.ID,
			Reference:      a.Reference,
			Description:    a.Description,
			Recommendation: a.Recommendation,
			Priority:       a.Priority,
			Status:         a.Status,
			Owner:          a.Owner,
			DueDate:        a.DueDate,
			SourceType:     a.SourceType,
			CreatedAt:      a.CreatedAt,
			ClosedAt:       a.ClosedAt,
		})
	}
	evidenceList := make([]evidenceSnapshot, 0, len(evidence))
	for _, ev := range evidence {
		evidenceList = append(evidenceList, evidenceSnapshot{
			FileName:    ev.FileName,
			ContentType: ev.ContentType,
			SizeBytes:   ev.SizeBytes,
			UploadedAt:  ev.UploadedAt,
		})
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	actionsJSON, err := json.MarshalIndent(actionList, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	evidenceJSON, err := json.MarshalIndent(evidenceList, "", "  ")
	if err != nil {
		return nil, nil, err
	}

	modTime := time.Now().UTC()
	if doc.IssueDate != nil {
		modTime = doc.IssueDate.UTC()
	}

	manifest := &packManifest{
		DocumentID:    doc.ID,
		VersionNumber: doc.VersionNumber,
		BuiltAt:       time.Now().UTC(),
		ActionCount:   len(actionList),
		EvidenceCount: len(evidenceList),
	}

	entries := []struct {
		name string
		data []byte
	}{
		{"document.json", artifactBytes},
		{"change_summary.json", summaryJSON},
		{"actions.json", actionsJSON},
		{"evidence.json", evidenceJSON},
	}
	for _, e := range entries {
		sum := sha256.Sum256(e.data)
		manifest.Entries = append(manifest.Entries, manifestEntry{
			Name:      e.name,
			SizeBytes: int64(len(e.data)),
			Checksum:  hex.EncodeToString(sum[:]),
		})
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	for _, e := range entries {
		if err := write(e.name, e.data); err != nil {
			return nil, nil, err
		}
	}
	if err := write("manifest.json", manifestJSON); err != nil {
		return nil, nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), manifest, nil
}
