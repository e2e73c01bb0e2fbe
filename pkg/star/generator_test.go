package star

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubRenderer renders a minimal one-line statement per table so the
// registry tests can assert ordering without a real dialect.
type stubRenderer struct{}

func (stubRenderer) RenderTable(m *TableModel) (string, error) {
	cols := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		cols = append(cols, c.Name)
	}
	return fmt.Sprintf("CREATE %s %s (%s);", strings.ToUpper(string(m.Kind)), m.Name, strings.Join(cols, ", ")), nil
}

func TestStarSchema_Star_Generator(t *testing.T) {
	t.Parallel()

	dimSample := map[string]any{"id": 1, "name": "Alice"}
	factSample := map[string]any{"id": 2, "value": 10, "customer_id": 1, "at": "2024-01-01"}

	t.Run("dimensions_precede_facts_regardless_of_insertion_order", func(t *testing.T) {
		g := NewGenerator(nil, stubRenderer{})

		require.NoError(t, g.AddFact("f", factSample, FactOptions{
			Measures:       []Measure{{Column: "value", Aggregation: AggSum}},
			DimensionKeys:  []string{"customer_id"},
			TimestampField: "at",
		}))
		require.NoError(t, g.AddDimension("d", dimSample, DimensionOptions{KeyField: "id"}))

		out, err := g.GenerateDDL()
		require.NoError(t, err)
		require.Less(t, strings.Index(out, "CREATE DIMENSION d"), strings.Index(out, "CREATE FACT f"))
	})

	t.Run("output_is_deterministic", func(t *testing.T) {
		g := NewGenerator(nil, stubRenderer{})
		require.NoError(t, g.AddDimension("d1", dimSample, DimensionOptions{KeyField: "id"}))
		require.NoError(t, g.AddDimension("d2", dimSample, DimensionOptions{KeyField: "id"}))
		require.NoError(t, g.AddFact("f1", factSample, FactOptions{
			Measures: []Measure{{Column: "value", Aggregation: AggSum}},
		}))

		first, err := g.GenerateDDL()
		require.NoError(t, err)
		second, err := g.GenerateDDL()
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("readding_a_name_overwrites_in_place", func(t *testing.T) {
		g := NewGenerator(nil, stubRenderer{})
		require.NoError(t, g.AddDimension("d1", dimSample, DimensionOptions{KeyField: "id"}))
		require.NoError(t, g.AddDimension("d2", dimSample, DimensionOptions{KeyField: "id"}))
		require.NoError(t, g.AddDimension("d1", map[string]any{"id": 1, "renamed": "x"}, DimensionOptions{
			KeyField:   "id",
			Attributes: []string{"renamed"},
		}))

		dims := g.Dimensions()
		require.Len(t, dims, 2)
		require.Equal(t, "d1", dims[0].Name, "overwrite keeps original position")
		require.True(t, dims[0].HasColumn("renamed"))
	})

	t.Run("statements_are_blank_line_separated", func(t *testing.T) {
		g := NewGenerator(nil, stubRenderer{})
		require.NoError(t, g.AddDimension("d1", dimSample, DimensionOptions{KeyField: "id"}))
		require.NoError(t, g.AddDimension("d2", dimSample, DimensionOptions{KeyField: "id"}))

		out, err := g.GenerateDDL()
		require.NoError(t, err)
		require.Equal(t, 2, len(strings.Split(out, "\n\n")))
	})

	t.Run("build_errors_propagate_and_leave_registry_unchanged", func(t *testing.T) {
		g := NewGenerator(nil, stubRenderer{})
		err := g.AddDimension("d1", dimSample, DimensionOptions{
			KeyField:   "id",
			Attributes: []string{"missing"},
		})
		require.Error(t, err)
		require.Empty(t, g.Dimensions())
	})
}
