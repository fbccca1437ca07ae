package workflow

import (
	"testing"

	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow() *managementapi.Workflow {
	return &managementapi.Workflow{
		ID:       "wf-1",
		Codename: "default",
		Steps: []managementapi.WorkflowStep{
			{ID: "s1", Codename: "draft", TransitionsTo: []string{"s2", "pub"}},
			{ID: "s2", Codename: "review", TransitionsTo: []string{"pub", "s1"}},
		},
		PublishedStep: managementapi.WorkflowStep{ID: "pub", Codename: "published", TransitionsTo: []string{"s1"}},
		ArchivedStep:  managementapi.WorkflowStep{ID: "arch", Codename: "archived", TransitionsTo: []string{"s1"}},
		ScheduledStep: managementapi.WorkflowStep{ID: "sched", Codename: "scheduled", TransitionsTo: []string{"pub"}},
	}
}

func TestByCodename(t *testing.T) {
	workflows := []managementapi.Workflow{*testWorkflow()}

	found, err := ByCodename(workflows, "default")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", found.ID)

	_, err = ByCodename(workflows, "missing")
	assert.Error(t, err)
}

func TestStepByIDAndCodename(t *testing.T) {
	wf := testWorkflow()

	step, ok := StepByID(wf, "s2")
	require.True(t, ok)
	assert.Equal(t, "review", step.Codename)

	step, ok = StepByCodename(wf, "published")
	require.True(t, ok)
	assert.Equal(t, "pub", step.ID)

	_, ok = StepByID(wf, "nope")
	assert.False(t, ok)
}

func TestClassification(t *testing.T) {
	wf := testWorkflow()
	assert.True(t, IsPublished(wf, "published"))
	assert.True(t, IsArchived(wf, "archived"))
	assert.True(t, IsScheduled(wf, "scheduled"))
	assert.False(t, IsPublished(wf, "draft"))
}

func TestFirstStep(t *testing.T) {
	wf := testWorkflow()
	first, err := FirstStep(wf)
	require.NoError(t, err)
	assert.Equal(t, "draft", first.Codename)

	_, err = FirstStep(&managementapi.Workflow{Codename: "empty"})
	assert.Error(t, err)
}

func TestShortestPath(t *testing.T) {
	wf := testWorkflow()

	path, err := ShortestPath(wf, "s1", "pub")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "pub"}, path)

	path, err = ShortestPath(wf, "s1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, path)

	_, err = ShortestPath(wf, "pub", "arch")
	assert.Error(t, err)
}

func TestPenultimateStepToPublished(t *testing.T) {
	wf := testWorkflow()

	step, err := PenultimateStepToPublished(wf, "s2")
	require.NoError(t, err)
	assert.Equal(t, "review", step.Codename)

	_, err = PenultimateStepToPublished(wf, wf.PublishedStep.ID)
	assert.Error(t, err)
}
