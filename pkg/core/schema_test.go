package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindObject, "object"},
		{KindArray, "array"},
		{KindString, "string"},
		{KindNumber, "number"},
		{KindInteger, "integer"},
		{KindBoolean, "boolean"},
		{KindAny, "any"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestWithFieldDoesNotMutateOriginal(t *testing.T) {
	base := Object(map[string]Shape{"a": String()})
	derived := base.WithField("b", Integer())

	assert.Len(t, base.Fields, 1)
	assert.Len(t, derived.Fields, 2)
	assert.Equal(t, KindInteger, derived.Fields["b"].Kind)
}

func TestWithFieldOnNonObjectIsNoop(t *testing.T) {
	s := String()
	assert.Equal(t, s, s.WithField("a", String()))
}

func TestShapeStringRendersJSON(t *testing.T) {
	shape := Object(map[string]Shape{
		"name":  String(),
		"tags":  Array(String()),
		"inner": Object(map[string]Shape{"n": Number()}),
	})

	var rendered map[string]any
	require.NoError(t, json.Unmarshal([]byte(shape.String()), &rendered))
	assert.Equal(t, "string", rendered["name"])
	assert.Equal(t, []any{"string"}, rendered["tags"])
	assert.Equal(t, map[string]any{"n": "number"}, rendered["inner"])
}

func TestSortedKeys(t *testing.T) {
	shape := Object(map[string]Shape{"b": String(), "a": String(), "c": String()})
	assert.Equal(t, []string{"a", "b", "c"}, shape.SortedKeys())
	assert.Nil(t, String().SortedKeys())
}

func TestArrayWithoutElemSerializesEmpty(t *testing.T) {
	s := Shape{Kind: KindArray}
	assert.Equal(t, []any{}, s.Serializable())
}
