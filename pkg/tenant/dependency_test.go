package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDependencyGraph_OrdersByDependency(t *testing.T) {
	rules := []ComputedColumnRule{
		{
			Target: "total_with_tax",
			Kind:   RuleArithmetic,
			Arithmetic: &ArithmeticParams{
				Expression: "subtotal + tax_amount",
			},
		},
		{
			Target: "tax_amount",
			Kind:   RuleArithmetic,
			Arithmetic: &ArithmeticParams{
				Expression: "subtotal * tax_rate",
			},
		},
	}

	ordered, err := BuildDependencyGraph(rules)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	require.Equal(t, "tax_amount", ordered[0].Target)
	require.Equal(t, "total_with_tax", ordered[1].Target)
}

func TestBuildDependencyGraph_DetectsCycle(t *testing.T) {
	rules := []ComputedColumnRule{
		{
			Target:     "a",
			Kind:       RuleArithmetic,
			Arithmetic: &ArithmeticParams{Expression: "b + 1"},
		},
		{
			Target:     "b",
			Kind:       RuleArithmetic,
			Arithmetic: &ArithmeticParams{Expression: "a + 1"},
		},
	}

	_, err := BuildDependencyGraph(rules)
	require.Error(t, err)
}

func TestBuildDependencyGraph_IndependentRulesAnyOrder(t *testing.T) {
	rules := []ComputedColumnRule{
		{
			Target: "full_name",
			Kind:   RuleConcat,
			Concat: &ConcatParams{Columns: []string{"first_name", "last_name"}, Separator: " "},
		},
		{
			Target: "region_label",
			Kind:   RuleLookup,
			Lookup: &LookupParams{SourceColumn: "region_code", Table: "regions"},
		},
	}

	ordered, err := BuildDependencyGraph(rules)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
}

func TestExtractIdentifiers(t *testing.T) {
	ids := ExtractIdentifiers("subtotal * (1 + tax_rate) and not refunded")
	require.ElementsMatch(t, []string{"subtotal", "tax_rate", "refunded"}, ids)
}
