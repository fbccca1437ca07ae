// Package workflow implements C2, pure lookup/graph utilities over
// workflow definitions: finding steps, classifying a step's kind, and
// computing the shortest transition path between two steps. Nothing here
// calls the network; it operates purely on []managementapi.Workflow.
package workflow

import (
	"fmt"
	"sort"

	"github.com/artemis/kontent-migrate/internal/managementapi"
)

// ByCodename finds a workflow by its codename.
func ByCodename(workflows []managementapi.Workflow, codename string) (*managementapi.Workflow, error) {
	for i := range workflows {
		if workflows[i].Codename == codename {
			return &workflows[i], nil
		}
	}
	return nil, fmt.Errorf("workflow %q not found", codename)
}

// StepByID finds a step within a workflow by its id.
func StepByID(wf *managementapi.Workflow, id string) (*managementapi.WorkflowStep, bool) {
	if wf.PublishedStep.ID == id {
		return &wf.PublishedStep, true
	}
	if wf.ArchivedStep.ID == id {
		return &wf.ArchivedStep, true
	}
	if wf.ScheduledStep.ID == id {
		return &wf.ScheduledStep, true
	}
	for i := range wf.Steps {
		if wf.Steps[i].ID == id {
			return &wf.Steps[i], true
		}
	}
	return nil, false
}

// StepByCodename finds a step within a workflow by its codename.
func StepByCodename(wf *managementapi.Workflow, codename string) (*managementapi.WorkflowStep, bool) {
	if wf.PublishedStep.Codename == codename {
		return &wf.PublishedStep, true
	}
	if wf.ArchivedStep.Codename == codename {
		return &wf.ArchivedStep, true
	}
	if wf.ScheduledStep.Codename == codename {
		return &wf.ScheduledStep, true
	}
	for i := range wf.Steps {
		if wf.Steps[i].Codename == codename {
			return &wf.Steps[i], true
		}
	}
	return nil, false
}

// IsPublished reports whether codename names the workflow's published
// pseudo-step.
func IsPublished(wf *managementapi.Workflow, codename string) bool {
	return wf.PublishedStep.Codename == codename
}

// IsArchived reports whether codename names the workflow's archived
// pseudo-step.
func IsArchived(wf *managementapi.Workflow, codename string) bool {
	return wf.ArchivedStep.Codename == codename
}

// IsScheduled reports whether codename names the workflow's scheduled
// pseudo-step.
func IsScheduled(wf *managementapi.Workflow, codename string) bool {
	return wf.ScheduledStep.Codename == codename
}

// FirstStep returns the first regular (non-pseudo) step of the workflow,
// the state new drafts land in (§4.11 "first step of the target workflow").
func FirstStep(wf *managementapi.Workflow) (*managementapi.WorkflowStep, error) {
	if len(wf.Steps) == 0 {
		return nil, fmt.Errorf("workflow %q has no steps", wf.Codename)
	}
	return &wf.Steps[0], nil
}

// ShortestPath returns the minimum-hop sequence of step ids from `from` to
// `to`, inclusive of both ends, found by BFS over the directed graph
// defined by each step's TransitionsTo edges. Ties are broken by the
// insertion order of wf.Steps: each step's neighbors are visited in that
// order, with the pseudo-steps after every regular step.
func ShortestPath(wf *managementapi.Workflow, from, to string) ([]string, error) {
	if from == to {
		return []string{from}, nil
	}

	adjacency := buildAdjacency(wf)
	rank := make(map[string]int, len(wf.Steps))
	for i, s := range wf.Steps {
		rank[s.ID] = i
	}
	order := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(wf.Steps)
	}

	type frame struct {
		id   string
		path []string
	}

	visited := map[string]bool{from: true}
	queue := []frame{{id: from, path: []string{from}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors := append([]string{}, adjacency[cur.id]...)
		sort.SliceStable(neighbors, func(i, j int) bool { return order(neighbors[i]) < order(neighbors[j]) })
		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			path := append(append([]string{}, cur.path...), next)
			if next == to {
				return path, nil
			}
			visited[next] = true
			queue = append(queue, frame{id: next, path: path})
		}
	}

	return nil, fmt.Errorf("no path from step %q to step %q in workflow %q", from, to, wf.Codename)
}

// buildAdjacency indexes every step (including pseudo-steps) by id so
// ShortestPath can traverse transitions that lead into/out of published
// and archived, not just the regular step list.
func buildAdjacency(wf *managementapi.Workflow) map[string][]string {
	adjacency := make(map[string][]string, len(wf.Steps)+3)
	all := append(append([]managementapi.WorkflowStep{}, wf.Steps...), wf.PublishedStep, wf.ArchivedStep, wf.ScheduledStep)
	for _, s := range all {
		adjacency[s.ID] = s.TransitionsTo
	}
	return adjacency
}

// PenultimateStepToPublished returns the step immediately preceding the
// published step on the shortest path from `from`, because the REST API
// only allows publishing from specific predecessor steps (§4.2, §4.11).
func PenultimateStepToPublished(wf *managementapi.Workflow, from string) (*managementapi.WorkflowStep, error) {
	path, err := ShortestPath(wf, from, wf.PublishedStep.ID)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("step %q has no predecessor path to published", from)
	}
	penultimateID := path[len(path)-2]
	step, ok := StepByID(wf, penultimateID)
	if !ok {
		return nil, fmt.Errorf("penultimate step %q not found in workflow %q", penultimateID, wf.Codename)
	}
	return step, nil
}
