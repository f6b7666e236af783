package expander

import (
	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
)

// computeEdges implements spec.md 4.3 step 5: for each task T, its
// upstream set U(T) becomes pending_count, and T is added to each
// upstream task's consumers list.
func computeEdges(replicas []*replica, taskMap map[string]*domain.Task) {
	for _, r := range replicas {
		upstream := r.task.InputRefs.Refs()
		r.task.PendingCount = len(upstream)
		for _, u := range upstream {
			if dep, ok := taskMap[u]; ok {
				dep.Consumers = append(dep.Consumers, r.task.ID)
			}
		}
	}
}

// checkAcyclic runs Kahn's algorithm over the edge set built by
// computeEdges and fails CYCLIC_TEMPLATE if a topological order does not
// exist (spec.md 4.3 step 6). This generalizes the single-node decrement
// the teacher's coordinator called "Kahn's Algorithm" at runtime into a
// full expansion-time sort over the template graph.
func checkAcyclic(replicas []*replica) error {
	inDegree := make(map[string]int, len(replicas))
	adj := make(map[string][]string, len(replicas))

	for _, r := range replicas {
		if _, ok := inDegree[r.task.ID]; !ok {
			inDegree[r.task.ID] = 0
		}
		for _, u := range r.task.InputRefs.Refs() {
			adj[u] = append(adj[u], r.task.ID)
			inDegree[r.task.ID]++
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(inDegree) {
		return orcherrors.Wrap(orcherrors.ErrCyclicTemplate, "dependency graph contains a cycle")
	}
	return nil
}
