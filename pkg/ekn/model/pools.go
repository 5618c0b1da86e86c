package model

import "time"

// PoolLabel names one of the ten canonical pools (spec.md Glossary).
type PoolLabel string

const (
	PoolIdea        PoolLabel = "Idea"
	PoolManifest    PoolLabel = "Manifest"
	PoolExperience  PoolLabel = "Experience"
	PoolRelational  PoolLabel = "Relational"
	PoolEvolutionary PoolLabel = "Evolutionary"
	PoolPractical   PoolLabel = "Practical"
	PoolEmanation   PoolLabel = "Emanation"
	PoolActor       PoolLabel = "Actor"
	PoolSpatial     PoolLabel = "Spatial"
	PoolEvidence    PoolLabel = "Evidence"
	PoolRisk        PoolLabel = "Risk"
	PoolMethod      PoolLabel = "Method"
)

// RequiredPools are the seven always-present pools (spec.md §1). ContentPools
// is the subset that carries rights_id/repr_text existence constraints
// (spec.md §4.4.2).
var RequiredPools = []PoolLabel{
	PoolIdea, PoolManifest, PoolExperience, PoolRelational,
	PoolEvolutionary, PoolPractical, PoolEmanation,
}

var ContentPools = []PoolLabel{
	PoolIdea, PoolManifest, PoolExperience, PoolPractical, PoolEmanation,
}

// OptionalPools may be present or absent depending on the batch's content.
var OptionalPools = []PoolLabel{PoolActor, PoolSpatial, PoolEvidence, PoolRisk, PoolMethod}

// connectivityRequired are labels for which Orphan Removal applies
// (spec.md §4.4.6); ProvenanceAndRights, Lexicon, Intent, and the optional
// pools may be isolated.
var connectivityRequired = map[PoolLabel]bool{
	PoolIdea: true, PoolManifest: true, PoolExperience: true, PoolRelational: true,
	PoolEvolutionary: true, PoolPractical: true, PoolEmanation: true,
}

// RequiresConnectivity reports whether label must have at least one
// non-HAS_RIGHTS edge after Orphan Removal.
func RequiresConnectivity(label PoolLabel) bool {
	return connectivityRequired[label]
}

// PoolEntity is the common shape every pool-typed record satisfies: an id,
// representative text, a rights reference, and a valid-time window (or
// ObservedAt for Experience/Intent, spec.md §3).
type PoolEntity struct {
	ID         int64     `json:"id" db:"id"`
	BatchID    int64     `json:"batch_id" db:"batch_id"`
	Pool       PoolLabel `json:"pool" db:"pool"`
	ReprText   string    `json:"repr_text" db:"repr_text" validate:"required"`
	RightsID   int64     `json:"rights_id" db:"rights_id" validate:"required"`
	ValidTimeStart *time.Time `json:"valid_time_start,omitempty" db:"valid_time_start"`
	ValidTimeEnd   *time.Time `json:"valid_time_end,omitempty" db:"valid_time_end"`
	ObservedAt     *time.Time `json:"observed_at,omitempty" db:"observed_at"`
	Fields     map[string]interface{} `json:"fields" db:"-"`
}

// Idea is a discrete concept or claim.
type Idea struct {
	PoolEntity
	Label string `json:"label" validate:"required"`
}

// Manifest is a concrete artifact embodying one or more Ideas.
type Manifest struct {
	PoolEntity
	Label string `json:"label" validate:"required"`
	Type  string `json:"type" validate:"required"`
}

// Experience is an observed, agent-attributed event (valid-time replaced by
// ObservedAt, spec.md §3).
type Experience struct {
	PoolEntity
	AgentLabel    string `json:"agent_label"`
	NarrativeText string `json:"narrative_text" validate:"required"`
}

// First100 returns the first 100 characters of NarrativeText, used as a
// dedup key component (spec.md §4.4.5).
func (e *Experience) First100() string {
	r := []rune(e.NarrativeText)
	if len(r) <= 100 {
		return string(r)
	}
	return string(r[:100])
}

// RelationalEntity records a relationship-bearing claim between actors
// (distinct from the graph-level Relation edge, spec.md §3/§4.4.4's
// co_occurs_with verb operates between these nodes).
type RelationalEntity struct {
	PoolEntity
	RelationType string `json:"relation_type" validate:"required,oneof=kinship alliance rivalry mentorship collaboration patronage"`
}

// AllowedRelationTypes is the closed enum for RelationalEntity.RelationType,
// resolving the spec's Open Question on Relational.relation_type.
var AllowedRelationTypes = []string{"kinship", "alliance", "rivalry", "mentorship", "collaboration", "patronage"}

// Evolutionary captures a revision/refinement relationship over time.
type Evolutionary struct {
	PoolEntity
	Label string `json:"label"`
}

// Practical is an actionable method or procedure.
type Practical struct {
	PoolEntity
	Steps []string `json:"steps" validate:"required,min=1,dive,oneof=prepare gather execute verify document review"`
}

// AllowedPracticalSteps is the closed enum for Practical.Steps, resolving
// the spec's Open Question on Practical.steps.
var AllowedPracticalSteps = []string{"prepare", "gather", "execute", "verify", "document", "review"}

// Emanation is a downstream effect or influence radiating from an Idea.
type Emanation struct {
	PoolEntity
	InfluenceType string `json:"influence_type" validate:"required,oneof=direct indirect cascading residual catalytic"`
}

// AllowedInfluenceTypes is the closed enum for Emanation.InfluenceType,
// resolving the spec's Open Question on Emanation.influence_type.
var AllowedInfluenceTypes = []string{"direct", "indirect", "cascading", "residual", "catalytic"}

// Actor, Spatial, Evidence, Risk, Method are the five optional pools.

type Actor struct {
	PoolEntity
	Name string `json:"name"`
}

type Spatial struct {
	PoolEntity
	Name string `json:"name" validate:"required"`
	Year int    `json:"year"`
}

type Evidence struct {
	PoolEntity
	SourceURI string `json:"source_uri"`
}

type Risk struct {
	PoolEntity
	Severity string `json:"severity" validate:"omitempty,oneof=minimal low medium high critical"`
}

type Method struct {
	PoolEntity
	Name string `json:"name"`
}

// Verb is the closed edge-type name from the Verb Glossary (spec.md
// §4.4.4). The glossary table itself (source/target labels, reverse,
// symmetric) lives in pkg/ekn/graph/glossary.go, which is the single
// authority for verb metadata (Design Note: dynamic verb dispatch replaced
// by a compile-time table).
type Verb string

// Relation is a typed, directed edge awaiting load into the graph store.
type Relation struct {
	ID       int64   `json:"id" db:"id"`
	BatchID  int64   `json:"batch_id" db:"batch_id"`
	Source   Ref     `json:"source" validate:"required"`
	Target   Ref     `json:"target" validate:"required"`
	Verb     Verb    `json:"verb" validate:"required"`
	Strength float64 `json:"strength,omitempty"`
	ValidTimeStart *time.Time `json:"valid_time_start,omitempty"`
	ValidTimeEnd   *time.Time `json:"valid_time_end,omitempty"`
	RightsID       int64      `json:"rights_id" validate:"required"`
}

// Embedding is a fixed-dimension vector attached to a pool entity, stored on
// the corresponding graph node as a vector property (spec.md §3, §4.5).
type Embedding struct {
	EntityRef  Ref       `json:"entity_ref"`
	Vector     []float32 `json:"vector" validate:"required,min=1"`
	ModelID    string    `json:"model_id" validate:"required"`
	Dimensions int       `json:"dimensions" validate:"required,gt=0"`
	CreatedAt  time.Time `json:"created_at"`
}
