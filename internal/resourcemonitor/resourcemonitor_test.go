package resourcemonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendAdmitsAllWhenWithinBudget(t *testing.T) {
	reqs := map[string]int{"knowledge_graph": 100, "web_search": 20}
	rec := recommendWithinBudget(200, []string{"knowledge_graph", "web_search"}, reqs)

	assert.ElementsMatch(t, []string{"knowledge_graph", "web_search"}, rec.Recommended)
	assert.Empty(t, rec.Skipped)
	assert.Equal(t, 120, rec.RequiredMB)
}

func TestRecommendGreedilyAdmitsSmallestFirst(t *testing.T) {
	reqs := map[string]int{"sandbox": 500, "web_search": 20, "knowledge_graph": 100}
	rec := recommendWithinBudget(130, []string{"sandbox", "web_search", "knowledge_graph"}, reqs)

	assert.Equal(t, []string{"web_search", "knowledge_graph"}, rec.Recommended)
	assert.Equal(t, []string{"sandbox"}, rec.Skipped)
}

func TestRecommendTieBreaksByName(t *testing.T) {
	reqs := map[string]int{"zeta": 10, "alpha": 10}
	rec := recommendWithinBudget(10, []string{"zeta", "alpha"}, reqs)

	assert.Equal(t, []string{"alpha"}, rec.Recommended)
	assert.Equal(t, []string{"zeta"}, rec.Skipped)
}

func TestRecommendZeroBudgetSkipsEverything(t *testing.T) {
	reqs := map[string]int{"browser": 500}
	rec := recommendWithinBudget(0, []string{"browser"}, reqs)

	assert.Empty(t, rec.Recommended)
	assert.Equal(t, []string{"browser"}, rec.Skipped)
}
