package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relate/internal/condition"
)

func relate(source, destination string) *condition.ParentChildCondition {
	return &condition.ParentChildCondition{
		Source:      source,
		Destination: destination,
		Filter:      condition.AllOf(condition.FieldEquals("pid", "id")),
	}
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil))
	assert.Empty(t, AnalyzeCycles(condition.NewDefinition()))
}

func TestAnalyzeCycles_SelfLoopIsATree(t *testing.T) {
	defn := condition.NewDefinition()
	defn.AddChildConditions(relate("tl_page", "tl_page"), relate("tl_page", "tl_article"))
	assert.Empty(t, AnalyzeCycles(defn))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	defn := condition.NewDefinition()
	defn.AddChildConditions(
		relate("tl_page", "tl_article"),
		relate("tl_article", "tl_content"),
		relate("tl_page", "tl_content"),
	)
	assert.Empty(t, AnalyzeCycles(defn))
}

func TestAnalyzeCycles_TwoNodeCycle(t *testing.T) {
	defn := condition.NewDefinition()
	defn.AddChildConditions(relate("tl_b", "tl_a"), relate("tl_a", "tl_b"))

	warnings := AnalyzeCycles(defn)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"tl_a", "tl_b", "tl_a"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "tl_a → tl_b → tl_a")
}

func TestAnalyzeCycles_ThreeNodeCycleAndSeparateCycle(t *testing.T) {
	defn := condition.NewDefinition()
	defn.AddChildConditions(
		relate("c", "a"),
		relate("a", "b"),
		relate("b", "c"),
		relate("x", "y"),
		relate("y", "x"),
		relate("c", "z"),
	)

	warnings := AnalyzeCycles(defn)
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
	assert.Equal(t, []string{"x", "y", "x"}, warnings[1].Path)
}
