package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// MemoryKind classifies a memory record.
type MemoryKind string

const (
	MemoryObservation MemoryKind = "observation"
	MemoryPlan        MemoryKind = "plan"
	MemoryReflection  MemoryKind = "reflection"
	MemoryAction      MemoryKind = "action"
)

// MemoryRecord is one entry in an agent's append-only stream. Importance is
// immutable once set; LastAccessedAt is the only field that mutates after
// creation (refreshed when retrieval selects the record). Links are set only
// on reflections and point at the supporting record ids.
type MemoryRecord struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	CreatedAt      int64      `json:"created_at"`
	LastAccessedAt int64      `json:"last_accessed_at"`
	Importance     int        `json:"importance"` // 1..10
	Kind           MemoryKind `json:"kind"`
	Links          []string   `json:"links,omitempty"`
	Embedding      []float64  `json:"-"`
}

// MemoryStream is one agent's record log. Records are appended in tick
// order and never reordered or deleted.
type MemoryStream struct {
	owner    string
	records  []*MemoryRecord
	embedder Embedder
	decay    float64
	k        int
	budget   int // max summed description length per retrieval; 0 = unlimited
}

// NewMemoryStream wires the owning agent's stream to its embedding
// collaborator.
func NewMemoryStream(owner string, cfg MemoryConfig, embedder Embedder) *MemoryStream {
	return &MemoryStream{
		owner:    owner,
		embedder: embedder,
		decay:    cfg.RecencyDecay,
		k:        cfg.RetrievalK,
		budget:   cfg.ContextBudget,
	}
}

// Len returns the number of records in the stream.
func (m *MemoryStream) Len() int { return len(m.records) }

// Records returns the stream contents in append order. The slice is the
// stream's internal storage -- callers may iterate but must not modify it.
func (m *MemoryStream) Records() []*MemoryRecord { return m.records }

// Since returns records appended at or after the given stream index.
func (m *MemoryStream) Since(index int) []*MemoryRecord {
	if index < 0 {
		index = 0
	}
	if index >= len(m.records) {
		return nil
	}
	return m.records[index:]
}

// Append creates a record at the end of the stream. Record ids are name-based
// UUIDs over (owner, stream position), so same-seed runs produce identical
// ids, and therefore identical reflection links and durable logs.
func (m *MemoryStream) Append(description string, tick int64, importance int, kind MemoryKind, links []string) *MemoryRecord {
	rec := &MemoryRecord{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", m.owner, len(m.records)))).String(),
		Description:    description,
		CreatedAt:      tick,
		LastAccessedAt: tick,
		Importance:     clampImportance(importance),
		Kind:           kind,
		Links:          append([]string(nil), links...),
		Embedding:      m.embedder.Embed(description),
	}
	m.records = append(m.records, rec)
	return rec
}

// Retrieve scores every record against the query and returns the top-k that
// fit the context budget, refreshing LastAccessedAt on the selected records
// only. Scoring follows the classic retrieval formula: exponential recency
// decay on last access, cosine relevance to the query embedding, and linear
// importance, each min-max normalized across the candidate set and summed
// with equal weights. When a component is constant across candidates its
// normalized value is 0 for everyone.
func (m *MemoryStream) Retrieve(query string, tick int64) []*MemoryRecord {
	if len(m.records) == 0 {
		return nil
	}
	queryEmbedding := m.embedder.Embed(query)

	recency := make([]float64, len(m.records))
	relevance := make([]float64, len(m.records))
	importance := make([]float64, len(m.records))
	for i, rec := range m.records {
		recency[i] = math.Exp(-m.decay * float64(tick-rec.LastAccessedAt))
		relevance[i] = cosineSimilarity(queryEmbedding, rec.Embedding)
		importance[i] = float64(rec.Importance-1) / 9.0
	}
	minMaxNormalize(recency)
	minMaxNormalize(relevance)
	minMaxNormalize(importance)

	order := make([]int, len(m.records))
	scores := make([]float64, len(m.records))
	for i := range m.records {
		order[i] = i
		scores[i] = recency[i] + relevance[i] + importance[i]
	}
	// Stable rank: higher score first, stream position breaks ties.
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	var selected []*MemoryRecord
	used := 0
	for _, idx := range order {
		if len(selected) == m.k {
			break
		}
		rec := m.records[idx]
		if m.budget > 0 && used+len(rec.Description) > m.budget {
			continue
		}
		used += len(rec.Description)
		selected = append(selected, rec)
	}
	for _, rec := range selected {
		rec.LastAccessedAt = tick
	}
	return selected
}

// minMaxNormalize rescales values to [0,1] in place. A constant slice maps
// to all zeros, which keeps the degenerate case out of the divisor.
func minMaxNormalize(values []float64) {
	if len(values) == 0 {
		return
	}
	lo := floats.Min(values)
	hi := floats.Max(values)
	if hi == lo {
		for i := range values {
			values[i] = 0
		}
		return
	}
	for i := range values {
		values[i] = (values[i] - lo) / (hi - lo)
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	a, b = a[:n], b[:n]
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func clampImportance(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
