// Package model defines the relational and graph-facing entities of an
// Enliterated Knowledge Navigator (EKN): batches, items, rights records,
// lexicon entries, the ten pool entities, relations, pipeline runs, and
// embeddings (spec.md §3).
package model

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate is a shared validator instance used by every Validate() method in
// this package. go-playground/validator/v10 resolves the spec's Open
// Question about closed enum membership for Emanation.influence_type,
// Relational.relation_type, and Practical.steps (see DESIGN.md).
var Validate = validator.New(validator.WithRequiredStructEnabled())

// Ref is a polymorphic pointer to another entity: a label (pool name or
// "ProvenanceAndRights") and a relational id. It is never stored as a
// struct on a graph node — graph writers split it into two primitive
// columns, `<field>_id` and `<field>_type` (spec.md §4.4.3, Design Note on
// polymorphic references).
type Ref struct {
	Label string `json:"label" validate:"required"`
	ID    int64  `json:"id" validate:"required"`
}

// BatchStatus is the IngestBatch lifecycle status.
type BatchStatus string

const (
	BatchInitialized BatchStatus = "initialized"
	BatchTriaging    BatchStatus = "triaging"
	BatchLexicon     BatchStatus = "lexicon"
	BatchPooling     BatchStatus = "pooling"
	BatchGraph       BatchStatus = "graph"
	BatchEmbedding   BatchStatus = "embedding"
	BatchScoring     BatchStatus = "scoring"
	BatchDelivered   BatchStatus = "delivered"
	BatchFailed      BatchStatus = "failed"
)

// IngestBatch is a logical collection of documents submitted together. It
// owns a logical graph database name (GraphDatabaseName) and, transitively,
// its items and its per-EKN graph database.
type IngestBatch struct {
	ID               int64       `json:"id" db:"id"`
	SourceDescriptor string      `json:"source_descriptor" db:"source_descriptor"`
	Status           BatchStatus `json:"status" db:"status"`
	LiteracyScore    float64     `json:"literacy_score" db:"literacy_score"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// GraphDatabaseName computes the per-EKN database name, ekn-<id>, validated
// against ^ekn-[0-9]+$ by the graph package before use (spec.md §4.4.1).
func (b *IngestBatch) GraphDatabaseName() string {
	return GraphDatabaseNameFor(b.ID)
}

// GraphDatabaseNameFor formats the logical database name for a batch id
// without requiring a loaded IngestBatch.
func GraphDatabaseNameFor(batchID int64) string {
	return "ekn-" + strconv.FormatInt(batchID, 10)
}

// StageStatus is the per-item, per-stage processing status (spec.md §3).
type StageStatus string

const (
	StatusPending     StageStatus = "pending"
	StatusInProgress  StageStatus = "in-progress"
	StatusCompleted   StageStatus = "completed"
	StatusFailed      StageStatus = "failed"
	StatusQuarantined StageStatus = "quarantined"
)

// ItemStageStatuses holds one status per item-facing stage. Earlier stages
// never regress once completed, except under an explicit reset_to_stage
// (spec.md §3 Invariants).
type ItemStageStatuses struct {
	Triage    StageStatus `json:"triage_status" db:"triage_status"`
	Lexicon   StageStatus `json:"lexicon_status" db:"lexicon_status"`
	Pool      StageStatus `json:"pool_status" db:"pool_status"`
	Graph     StageStatus `json:"graph_status" db:"graph_status"`
	Embedding StageStatus `json:"embedding_status" db:"embedding_status"`
}

// IngestItem is one file/document within a batch.
type IngestItem struct {
	ID            int64  `json:"id" db:"id"`
	BatchID       int64  `json:"batch_id" db:"batch_id"`
	ContentHash   string `json:"content_hash" db:"content_hash" validate:"required,len=64"`
	Size          int64  `json:"size" db:"size"`
	MIMEType      string `json:"mime_type" db:"mime_type"`
	Content       string `json:"content" db:"content"`
	ContentSample string `json:"content_sample" db:"content_sample"`
	Quarantined   bool   `json:"quarantined" db:"quarantined"`
	RightsID      *int64 `json:"rights_id,omitempty" db:"rights_id"`

	ItemStageStatuses

	TriageError    string `json:"triage_error,omitempty" db:"triage_error"`
	LexiconError   string `json:"lexicon_error,omitempty" db:"lexicon_error"`
	PoolError      string `json:"pool_error,omitempty" db:"pool_error"`
	GraphError     string `json:"graph_error,omitempty" db:"graph_error"`
	EmbeddingError string `json:"embedding_error,omitempty" db:"embedding_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContentSampleBytes bounds the sample recorded at intake (spec.md §4.3).
const ContentSampleBytes = 5 * 1024

// License/Consent enums for ProvenanceAndRights.
type License string

const (
	LicenseUnknown         License = "unknown"
	LicensePublicDomain    License = "public_domain"
	LicenseCreativeCommons License = "creative_commons"
	LicenseProprietary     License = "proprietary"
	LicenseSynthetic       License = "synthetic"
)

type Consent string

const (
	ConsentUnknown Consent = "unknown"
	ConsentGranted Consent = "granted"
	ConsentDenied  Consent = "denied"
)

// ProvenanceAndRights is the authoritative rights record referenced by every
// content-bearing entity (spec.md §3 Invariants, §8 "Rights propagation").
type ProvenanceAndRights struct {
	ID                int64      `json:"id" db:"id"`
	License           License    `json:"license" db:"license"`
	Consent           Consent    `json:"consent" db:"consent"`
	Publishable       bool       `json:"publishable" db:"publishable"`
	TrainingEligible  bool       `json:"training_eligible" db:"training_eligible"`
	ValidTimeStart    time.Time  `json:"valid_time_start" db:"valid_time_start" validate:"required"`
	ValidTimeEnd      *time.Time `json:"valid_time_end,omitempty" db:"valid_time_end"`
	Confidence        float64    `json:"confidence" db:"confidence" validate:"gte=0,lte=1"`
	SourceIdentifiers []string   `json:"source_identifiers,omitempty" db:"-"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// MinimumConfidenceForPermissiveRights is the threshold below which an item
// is quarantined rather than advanced (spec.md §4.3).
const MinimumConfidenceForPermissiveRights = 0.7

// LexiconEntry is a canonical term + surface forms, unique per batch by
// canonical term (spec.md §3).
type LexiconEntry struct {
	ID                   int64      `json:"id" db:"id"`
	BatchID              int64      `json:"batch_id" db:"batch_id"`
	CanonicalTerm        string     `json:"canonical_term" db:"canonical_term" validate:"required"`
	SurfaceForms         []string   `json:"surface_forms,omitempty" db:"-"`
	NegativeSurfaceForms []string   `json:"negative_surface_forms,omitempty" db:"-"`
	Pool                 string     `json:"pool,omitempty" db:"pool"`
	Description          string     `json:"description,omitempty" db:"description"`
	CanonicalDescription string     `json:"canonical_description,omitempty" db:"canonical_description"`
	SourceItemID         int64      `json:"source_item_id" db:"source_item_id" validate:"required"`
	ValidTimeStart       time.Time  `json:"valid_time_start" db:"valid_time_start"`
	ValidTimeEnd         *time.Time `json:"valid_time_end,omitempty" db:"valid_time_end"`
}

// ResolveCanonicalDescription applies the stage's required-defaults rule
// (spec.md §4.4.3): blank canonical_description defaults to Description,
// else the literal string "Extracted term".
func (l *LexiconEntry) ResolveCanonicalDescription() string {
	if l.CanonicalDescription != "" {
		return l.CanonicalDescription
	}
	if l.Description != "" {
		return l.Description
	}
	return "Extracted term"
}
