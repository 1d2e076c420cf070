package tenant

import "fmt"

// columnsReferencedBy returns the source column names a rule reads from,
// used to build the computed-column dependency graph.
func columnsReferencedBy(r ComputedColumnRule) []string {
	switch r.Kind {
	case RuleConcat:
		if r.Concat != nil {
			return r.Concat.Columns
		}
	case RuleLookup:
		if r.Lookup != nil {
			return []string{r.Lookup.SourceColumn}
		}
	case RuleTransform:
		if r.Transform != nil {
			cols := make([]string, 0, len(r.Transform.Args))
			for _, v := range r.Transform.Args {
				cols = append(cols, v)
			}
			return cols
		}
	case RuleArithmetic:
		// Arithmetic expressions reference columns by identifier; the
		// expression parser resolves them at evaluation time, so the
		// dependency graph is built from ExtractIdentifiers instead.
		if r.Arithmetic != nil {
			return ExtractIdentifiers(r.Arithmetic.Expression)
		}
	}
	return nil
}

// BuildDependencyGraph topologically sorts rules so that any rule whose
// inputs include another rule's target runs after that rule. It returns
// an error if the rule set contains a cycle.
func BuildDependencyGraph(rules []ComputedColumnRule) ([]ComputedColumnRule, error) {
	byTarget := make(map[string]ComputedColumnRule, len(rules))
	for _, r := range rules {
		byTarget[r.Target] = r
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(rules))
	var order []ComputedColumnRule

	var visit func(target string, path []string) error
	visit = func(target string, path []string) error {
		switch state[target] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("computed column cycle detected: %v -> %s", path, target)
		}
		r, ok := byTarget[target]
		if !ok {
			return nil // references a source/mapped column, not another rule
		}
		state[target] = visiting
		for _, dep := range columnsReferencedBy(r) {
			if _, isRule := byTarget[dep]; isRule {
				if err := visit(dep, append(path, target)); err != nil {
					return err
				}
			}
		}
		state[target] = visited
		order = append(order, r)
		return nil
	}

	for _, r := range rules {
		if err := visit(r.Target, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
