package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraftNodeCopiesContainers(t *testing.T) {
	state := DocumentState{
		Draft:     "hello",
		Citations: []string{"doc1"},
		Escalations: []EscalationSuggestion{
			{Topic: "salary data", OwnerName: "owner"},
		},
	}
	metrics := Metrics{"score": 0.5}

	node := NewDraftNode(state, metrics, 1, "parent")

	state.Citations[0] = "mutated"
	metrics["score"] = -1.0

	assert.Equal(t, "doc1", node.Citations[0])
	assert.Equal(t, 0.5, node.Metrics.Score())
	assert.Equal(t, 1, node.Depth)
	assert.Equal(t, "parent", node.ParentHash)
	assert.NotEqual(t, "", node.ID.String())
}

func TestCloneIsDeep(t *testing.T) {
	node := NewDraftNode(DocumentState{
		Draft:     "hello",
		Citations: []string{"doc1"},
	}, Metrics{
		"score": 0.5,
		"quality_assessment": map[string]any{
			"clarity_score": 0.9,
		},
		"next_actions": []any{"fix intro"},
	}, 2, "parent")
	node.RevisitIndex = 1

	clone := node.Clone()

	require.Equal(t, node.ID, clone.ID)
	assert.Equal(t, node.Depth, clone.Depth)
	assert.Equal(t, node.RevisitIndex, clone.RevisitIndex)

	clone.Citations[0] = "mutated"
	clone.Metrics["score"] = -1.0
	clone.Metrics["quality_assessment"].(map[string]any)["clarity_score"] = 0.0
	clone.Metrics["next_actions"].([]any)[0] = "changed"

	assert.Equal(t, "doc1", node.Citations[0])
	assert.Equal(t, 0.5, node.Metrics.Score())
	assert.Equal(t, 0.9, node.Metrics["quality_assessment"].(map[string]any)["clarity_score"])
	assert.Equal(t, "fix intro", node.Metrics["next_actions"].([]any)[0])
}

func TestHashDependsOnlyOnDraft(t *testing.T) {
	a := NewDraftNode(DocumentState{Draft: "same"}, Metrics{"score": 1.0}, 0, "")
	b := NewDraftNode(DocumentState{Draft: "same"}, Metrics{"score": 2.0}, 3, "other")

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, HashDraft("same"), a.Hash())
	assert.NotEqual(t, a.Hash(), HashDraft("different"))
}

func TestMetricsScore(t *testing.T) {
	assert.Equal(t, 0.8, Metrics{"score": 0.8}.Score())
	assert.Zero(t, Metrics{}.Score())
	assert.Zero(t, Metrics{"score": "high"}.Score())
}
