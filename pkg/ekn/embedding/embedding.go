package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"

	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// Embedder drives the Embeddings stage's per-entity work: call the
// configured Embedding Service with retry, fall back to a deterministic
// placeholder vector when the service is unavailable, and store the result
// on the entity's graph node (spec.md §4.5).
type Embedder struct {
	svc     services.EmbeddingService
	retrier *Retrier
	log     logr.Logger
}

// NewEmbedder wires an EmbeddingService behind the embedding-tuned retry
// policy.
func NewEmbedder(svc services.EmbeddingService, log logr.Logger) *Embedder {
	return NewEmbedderWithRetryConfig(svc, EmbeddingRetryConfig(), log)
}

// NewEmbedderWithRetryConfig wires an EmbeddingService behind an explicit
// retry policy, used by tests that need faster backoff than the production
// default.
func NewEmbedderWithRetryConfig(svc services.EmbeddingService, retryConfig RetryConfig, log logr.Logger) *Embedder {
	return &Embedder{
		svc:     svc,
		retrier: NewRetrier(retryConfig, logrus.StandardLogger()),
		log:     log,
	}
}

// Result is one entity's embedding outcome.
type Result struct {
	Vector       []float32
	FallbackUsed bool
}

// Embed encodes reprText via the Embedding Service, retrying transient
// failures. If every retry is exhausted the call falls back to a
// deterministic placeholder vector rather than failing the stage outright
// (spec.md §4.5: "Stage fallback behavior is allowed but MUST be recorded as
// embeddings_fallback_used in metrics").
func (e *Embedder) Embed(ctx context.Context, reprText string) Result {
	raw, err := e.retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
		return e.svc.Encode(ctx, reprText)
	})
	if err != nil {
		e.log.V(1).Info("embedding service unavailable, using fallback vector", "error", err.Error())
		return Result{Vector: fallbackVector(reprText, e.svc.Dimensions()), FallbackUsed: true}
	}
	return Result{Vector: raw.([]float32)}
}

// fallbackVector derives a deterministic, content-stable vector from a
// SHA-256 digest of the input text so repeated fallback calls for the same
// entity are idempotent (spec.md §8 "Idempotent item progression" extends
// naturally to a degraded embedding path: re-running Embeddings while the
// service is still down must not flip the node's vector on every retry).
func fallbackVector(text string, dims int) []float32 {
	digest := sha256.Sum256([]byte(text))
	vec := make([]float32, dims)
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = (float32(b)/255.0)*2 - 1
	}
	return vec
}

// EnsureVectorIndexes creates (or confirms) a vector index on the
// `embedding` property for every content pool label, honoring spec.md
// §4.5's "A vector index on the label's embedding property MUST be created
// (or confirmed present)". Runs as its own schema-only transaction, never
// mixed with data writes (spec.md §4.4's schema/data separation invariant
// applies here too).
func EnsureVectorIndexes(ctx context.Context, store *graph.Store, databaseName string, labels []model.PoolLabel, dimensions int) error {
	statements := make([]graph.Statement, 0, len(labels))
	for _, label := range labels {
		indexName := fmt.Sprintf("embedding_%s", label)
		cypher := fmt.Sprintf(
			"CREATE VECTOR INDEX `%s` IF NOT EXISTS FOR (n:%s) ON (n.embedding) "+
				"OPTIONS {indexConfig: {`vector.dimensions`: $dims, `vector.similarity_function`: 'cosine'}}",
			indexName, label)
		statements = append(statements, graph.Statement{Cypher: cypher, Params: map[string]any{"dims": dimensions}})
	}
	return store.RunTransaction(ctx, databaseName, statements)
}

// StoreEmbedding attaches a computed vector to its owning graph node.
func StoreEmbedding(ctx context.Context, store *graph.Store, databaseName string, ref model.Ref, vector []float32) error {
	cypher := fmt.Sprintf("MATCH (n:%s {id: $id}) SET n.embedding = $vector", ref.Label)
	return store.RunTransaction(ctx, databaseName, []graph.Statement{
		{Cypher: cypher, Params: map[string]any{"id": ref.ID, "vector": vector}},
	})
}
