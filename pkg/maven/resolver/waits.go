package resolver

import "context"

// waitGraph records which load is waiting on which. An edge that would close
// a cycle is refused, turning what would be a deadlock into a failed lookup.
type waitGraph map[string]map[string]int

// add records from -> to. It reports false if to already (transitively)
// waits on from. Requests from outside any load (from == "") always succeed.
func (g waitGraph) add(from, to string) bool {
	if from == "" {
		return true
	}
	if from == to || g.reaches(to, from) {
		return false
	}
	if g[from] == nil {
		g[from] = make(map[string]int)
	}
	g[from][to]++
	return true
}

func (g waitGraph) remove(from, to string) {
	edges := g[from]
	if edges == nil {
		return
	}
	if edges[to]--; edges[to] <= 0 {
		delete(edges, to)
	}
	if len(edges) == 0 {
		delete(g, from)
	}
}

func (g waitGraph) reaches(from, to string) bool {
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g[n] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

type requesterKey struct{}

// withRequester tags ctx with the key of the load running under it.
func withRequester(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, requesterKey{}, key)
}

func requesterFrom(ctx context.Context) string {
	key, _ := ctx.Value(requesterKey{}).(string)
	return key
}
