// Package testutil centralizes test fixture construction for pkg/ekn, the
// way the teacher's own pkg/testutil does for its alert/workflow/vector
// domain types.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// Default test values, eliminating magic literals scattered across _test.go
// files (mirrors the teacher's own DefaultTestNamespace-style constants).
const (
	DefaultTestBatchID          = int64(1)
	DefaultTestSourceDescriptor = "test-corpus"
	DefaultTestMIMEType         = "text/plain"
	DefaultPermissiveConfidence = 0.95
	DefaultQuarantineConfidence = 0.4
	DefaultEmbeddingDimensions  = 8
)

// TestDataFactory provides centralized fixture construction for
// pkg/ekn's model, rights, and runner types.
type TestDataFactory struct{}

// NewTestDataFactory creates a new test data factory.
func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// =============================================================================
// BATCH AND ITEM PATTERNS
// =============================================================================

// CreateStandardBatch creates a batch in the pending status.
func (f *TestDataFactory) CreateStandardBatch() *model.IngestBatch {
	return &model.IngestBatch{
		ID:               DefaultTestBatchID,
		SourceDescriptor: DefaultTestSourceDescriptor,
		Status:           model.BatchStatus("pending"),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// CreateBatchWithUniqueSource creates a batch with a generated, collision-free
// SourceDescriptor, for tests that create many batches against a shared
// store and need SourceDescriptor uniqueness.
func (f *TestDataFactory) CreateBatchWithUniqueSource(id int64) *model.IngestBatch {
	batch := f.CreateStandardBatch()
	batch.ID = id
	batch.SourceDescriptor = generateSourceDescriptor()
	return batch
}

// CreateStandardItem creates an ingest item with triage still pending, the
// state intake leaves behind for the rights stage to pick up.
func (f *TestDataFactory) CreateStandardItem(batchID int64) *model.IngestItem {
	return f.CreateCustomItem(batchID, DefaultTestMIMEType, "This document describes a standard test fixture.")
}

// CreateCustomItem creates an ingest item over the given content, computing
// ContentHash the way pkg/ekn/stages.IntakeJob does (sha256 over the raw
// bytes) so the fixture satisfies IngestItem's len=64 validation.
func (f *TestDataFactory) CreateCustomItem(batchID int64, mimeType, content string) *model.IngestItem {
	sample := content
	if len(sample) > model.ContentSampleBytes {
		sample = sample[:model.ContentSampleBytes]
	}
	return &model.IngestItem{
		BatchID:       batchID,
		ContentHash:   hashContent(content),
		Size:          int64(len(content)),
		MIMEType:      mimeType,
		Content:       content,
		ContentSample: sample,
		ItemStageStatuses: model.ItemStageStatuses{
			Triage:    model.StatusPending,
			Lexicon:   model.StatusPending,
			Pool:      model.StatusPending,
			Graph:     model.StatusPending,
			Embedding: model.StatusPending,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateQuarantinedItem creates an item whose triage stage already ran and
// quarantined it for low rights confidence.
func (f *TestDataFactory) CreateQuarantinedItem(batchID int64) *model.IngestItem {
	item := f.CreateStandardItem(batchID)
	item.Quarantined = true
	item.Triage = model.StatusQuarantined
	return item
}

// =============================================================================
// RIGHTS AND PROVENANCE PATTERNS
// =============================================================================

// CreatePermissiveRights creates a rights record confident enough to clear
// MinimumConfidenceForPermissiveRights and eligible for both training and
// publication.
func (f *TestDataFactory) CreatePermissiveRights() *model.ProvenanceAndRights {
	return &model.ProvenanceAndRights{
		License:           model.LicenseCreativeCommons,
		Consent:           model.ConsentGranted,
		Publishable:       true,
		TrainingEligible:  true,
		ValidTimeStart:    time.Now().Add(-24 * time.Hour),
		Confidence:        DefaultPermissiveConfidence,
		SourceIdentifiers: []string{"test-source"},
		CreatedAt:         time.Now(),
	}
}

// CreateDeniedRights creates a rights record whose consent has been denied,
// the case rights.Policy's allow_training/allow_publish rules both reject
// regardless of confidence.
func (f *TestDataFactory) CreateDeniedRights() *model.ProvenanceAndRights {
	rights := f.CreatePermissiveRights()
	rights.Consent = model.ConsentDenied
	rights.Publishable = false
	rights.TrainingEligible = false
	return rights
}

// CreateLowConfidenceRights creates a rights record below
// MinimumConfidenceForPermissiveRights, the case pkg/ekn/stages.RightsJob
// quarantines rather than advances.
func (f *TestDataFactory) CreateLowConfidenceRights() *model.ProvenanceAndRights {
	rights := f.CreatePermissiveRights()
	rights.Confidence = DefaultQuarantineConfidence
	rights.TrainingEligible = false
	return rights
}

// =============================================================================
// LEXICON AND POOL PATTERNS
// =============================================================================

// CreateLexiconEntry creates a canonical-term lexicon entry sourced from
// sourceItemID.
func (f *TestDataFactory) CreateLexiconEntry(batchID, sourceItemID int64) *model.LexiconEntry {
	return &model.LexiconEntry{
		BatchID:        batchID,
		CanonicalTerm:  "test concept",
		SurfaceForms:   []string{"test concept", "the concept"},
		Pool:           string(model.PoolIdea),
		Description:    "A concept used for testing.",
		SourceItemID:   sourceItemID,
		ValidTimeStart: time.Now(),
	}
}

// CreateIdeaEntity creates a standard Idea pool entity.
func (f *TestDataFactory) CreateIdeaEntity(batchID, rightsID int64) *model.Idea {
	return &model.Idea{
		PoolEntity: model.PoolEntity{
			BatchID:  batchID,
			Pool:     model.PoolIdea,
			ReprText: "A discrete test idea.",
			RightsID: rightsID,
			Fields:   map[string]interface{}{},
		},
		Label: "Test Idea",
	}
}

// CreateManifestEntity creates a standard Manifest pool entity.
func (f *TestDataFactory) CreateManifestEntity(batchID, rightsID int64) *model.Manifest {
	return &model.Manifest{
		PoolEntity: model.PoolEntity{
			BatchID:  batchID,
			Pool:     model.PoolManifest,
			ReprText: "A concrete test artifact.",
			RightsID: rightsID,
			Fields:   map[string]interface{}{},
		},
		Label: "Test Manifest",
		Type:  "document",
	}
}

// CreateExperienceEntity creates a standard Experience pool entity, whose
// valid-time window is replaced by ObservedAt (spec.md §3).
func (f *TestDataFactory) CreateExperienceEntity(batchID, rightsID int64) *model.Experience {
	observedAt := time.Now()
	return &model.Experience{
		PoolEntity: model.PoolEntity{
			BatchID:    batchID,
			Pool:       model.PoolExperience,
			ReprText:   "An observed test event.",
			RightsID:   rightsID,
			ObservedAt: &observedAt,
			Fields:     map[string]interface{}{},
		},
		AgentLabel:    "test-agent",
		NarrativeText: "The agent observed a standard test event unfold.",
	}
}

// CreateRelation creates a typed edge between source and target with the
// given verb, awaiting load into the graph store.
func (f *TestDataFactory) CreateRelation(batchID, rightsID int64, source, target model.Ref, verb model.Verb) *model.Relation {
	return &model.Relation{
		BatchID:  batchID,
		Source:   source,
		Target:   target,
		Verb:     verb,
		Strength: 1.0,
		RightsID: rightsID,
	}
}

// =============================================================================
// EMBEDDING PATTERNS
// =============================================================================

// CreateEmbedding creates a fixed-dimension embedding for ref, filling the
// vector with a deterministic, non-zero pattern rather than zeros so
// cosine-similarity-based tests don't degenerate.
func (f *TestDataFactory) CreateEmbedding(ref model.Ref) *model.Embedding {
	vector := make([]float32, DefaultEmbeddingDimensions)
	for i := range vector {
		vector[i] = float32(i+1) / float32(DefaultEmbeddingDimensions)
	}
	return &model.Embedding{
		EntityRef:  ref,
		Vector:     vector,
		ModelID:    "test-embedding-model",
		Dimensions: DefaultEmbeddingDimensions,
		CreatedAt:  time.Now(),
	}
}

// =============================================================================
// PIPELINE RUN PATTERNS
// =============================================================================

// CreateStandardRun creates a freshly-started pipeline run for batchID.
func (f *TestDataFactory) CreateStandardRun(batchID int64) *runner.PipelineRun {
	return runner.NewPipelineRun(batchID)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// generateUniqueID creates a unique identifier with the given prefix,
// mirroring the teacher's own ID-generation convenience functions.
func generateUniqueID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

func generateSourceDescriptor() string { return generateUniqueID("test-source") }
