// Package usecases contains the pipeline engine: stage ordering, fan-out
// execution and run lifecycle management.
package usecases

import (
	"fmt"
	"sort"

	"reconx/internal/core/domain"
)

// Order computes the execution order of the pipeline with Kahn's
// algorithm. Ties are broken lexicographically so the order is
// deterministic for a given topology.
func Order(pipeline []domain.StageDef) ([]string, error) {
	byName := make(map[string]domain.StageDef, len(pipeline))
	inDegree := make(map[string]int, len(pipeline))
	dependents := make(map[string][]string)

	for _, s := range pipeline {
		byName[s.Name] = s
		inDegree[s.Name] = 0
	}
	for _, s := range pipeline {
		for _, req := range s.Requires {
			if _, ok := byName[req]; !ok {
				return nil, fmt.Errorf("%w: stage %s requires %q", domain.ErrUnknownStage, s.Name, req)
			}
			dependents[req] = append(dependents[req], s.Name)
			inDegree[s.Name]++
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(pipeline))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		released := false
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(pipeline) {
		return nil, domain.ErrCircularDependency
	}
	return order, nil
}

// Prerequisites narrows the pipeline to one target stage and its transitive
// requirements, preserving the original stage definitions.
func Prerequisites(pipeline []domain.StageDef, target string) ([]domain.StageDef, error) {
	byName := make(map[string]domain.StageDef, len(pipeline))
	for _, s := range pipeline {
		byName[s.Name] = s
	}
	if _, ok := byName[target]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStage, target)
	}

	needed := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if needed[name] {
			return
		}
		needed[name] = true
		for _, req := range byName[name].Requires {
			visit(req)
		}
	}
	visit(target)

	out := make([]domain.StageDef, 0, len(needed))
	for _, s := range pipeline {
		if needed[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
