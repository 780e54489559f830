package directory

import (
	"fmt"
	"strings"

	"github.com/ohare93/delegate/internal/domain"
)

// DetectLeaderCycle checks that no user is their own transitive leader.
// Returns a validation error describing the first cycle found, nil otherwise.
// Leaders that are not in users end a chain.
func DetectLeaderCycle(users []*domain.User) error {
	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	// Every user has at most one leader, so each chain is walked once
	visited := make(map[int64]bool)
	for _, start := range users {
		if visited[start.ID] {
			continue
		}

		inPath := make(map[int64]bool)
		var path []int64
		for u := start; u != nil; {
			if inPath[u.ID] {
				return domain.Invalid("leader_id", "leader cycle detected: %s", formatCyclePath(path, u.ID))
			}
			if visited[u.ID] {
				break
			}
			inPath[u.ID] = true
			path = append(path, u.ID)

			if u.LeaderID == nil {
				break
			}
			u = byID[*u.LeaderID]
		}

		for _, id := range path {
			visited[id] = true
		}
	}

	return nil
}

// formatCyclePath renders the cycle portion of path that closes at id
func formatCyclePath(path []int64, id int64) string {
	start := 0
	for i, p := range path {
		if p == id {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(path)-start+1)
	for _, p := range path[start:] {
		parts = append(parts, fmt.Sprintf("%d", p))
	}
	parts = append(parts, fmt.Sprintf("%d", id))
	return strings.Join(parts, " → ")
}
