// Package search owns the stochastic refinement tree: scored draft nodes,
// the bounded heap frontier, duplicate suppression, and the epsilon-greedy
// expansion loop that drives the action and evaluation pipelines.
package search

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// EscalationSuggestion asks the document owner for access to a forbidden
// source the draft could not use directly.
type EscalationSuggestion struct {
	Topic          string `json:"topic"`
	ForbiddenDocID string `json:"forbidden_doc_id"`
	URL            string `json:"url"`
	OwnerName      string `json:"owner_name"`
	OwnerEmail     string `json:"owner_email"`
}

// Metrics is the structured scoring record attached to a node: scalar score,
// leak flag, per-axis quality scores and whatever else the formatter merged.
type Metrics map[string]any

// Score extracts the scalar fitness value, zero when absent.
func (m Metrics) Score() float64 {
	if v, ok := m["score"].(float64); ok {
		return v
	}
	return 0
}

// DocumentState is one candidate document as produced by the composer or
// supplied by the caller: the draft text plus its citations and escalation
// suggestions, before scoring.
type DocumentState struct {
	Draft       string
	Citations   []string
	Escalations []EscalationSuggestion
}

// DraftNode is one candidate document in the search tree. Nodes are immutable
// once constructed: refinement always produces a new node at depth+1, never a
// mutation of an existing one.
type DraftNode struct {
	ID           uuid.UUID
	Draft        string
	Citations    []string
	Escalations  []EscalationSuggestion
	Metrics      Metrics
	Depth        int
	ParentHash   string
	RevisitIndex int
}

// NewDraftNode builds a node from a scored document state.
func NewDraftNode(state DocumentState, metrics Metrics, depth int, parentHash string) *DraftNode {
	return &DraftNode{
		ID:          uuid.New(),
		Draft:       state.Draft,
		Citations:   append([]string{}, state.Citations...),
		Escalations: append([]EscalationSuggestion{}, state.Escalations...),
		Metrics:     copyMetrics(metrics),
		Depth:       depth,
		ParentHash:  parentHash,
	}
}

// Clone deep-copies the node, including its citation, escalation and metrics
// containers, so two frontier entries never alias the same backing storage.
func (n *DraftNode) Clone() *DraftNode {
	return &DraftNode{
		ID:           n.ID,
		Draft:        n.Draft,
		Citations:    append([]string{}, n.Citations...),
		Escalations:  append([]EscalationSuggestion{}, n.Escalations...),
		Metrics:      copyMetrics(n.Metrics),
		Depth:        n.Depth,
		ParentHash:   n.ParentHash,
		RevisitIndex: n.RevisitIndex,
	}
}

// Hash returns the content hash of the node's draft text.
func (n *DraftNode) Hash() string {
	return HashDraft(n.Draft)
}

// HashDraft computes the sha256 hex digest used for duplicate suppression.
func HashDraft(draft string) string {
	sum := sha256.Sum256([]byte(draft))
	return hex.EncodeToString(sum[:])
}

func copyMetrics(m Metrics) Metrics {
	if m == nil {
		return nil
	}
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = copyValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = copyValue(nested)
		}
		return out
	default:
		return v
	}
}
