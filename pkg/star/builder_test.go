package star

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calyxdata/starschema/pkg/schema"
)

func TestStarSchema_Star_BuildDimension(t *testing.T) {
	t.Parallel()

	sample := map[string]any{
		"id":         1,
		"name":       "Alice",
		"country":    "US",
		"created_at": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"extra":      "ignored",
	}

	t.Run("infers_types_and_preserves_descriptor_order", func(t *testing.T) {
		model, err := BuildDimension("dim_customer", sample, DimensionOptions{
			KeyField:   "id",
			Attributes: []string{"name", "country", "created_at"},
		})
		require.NoError(t, err)

		require.Equal(t, KindDimension, model.Kind)
		require.Equal(t, []string{"id"}, model.PrimaryKey)

		names := make([]string, 0, len(model.Columns))
		for _, c := range model.Columns {
			names = append(names, c.Name)
		}
		require.Equal(t, []string{"id", "name", "country", "created_at"}, names)

		require.Equal(t, schema.TypeInt64, model.Columns[0].Type)
		require.Equal(t, schema.TypeString, model.Columns[1].Type)
		require.Equal(t, schema.TypeString, model.Columns[2].Type)
		require.Equal(t, schema.TypeDateTime, model.Columns[3].Type)
	})

	t.Run("missing_field_names_field_and_table", func(t *testing.T) {
		_, err := BuildDimension("dim_customer", sample, DimensionOptions{
			KeyField:   "id",
			Attributes: []string{"name", "middle_name"},
		})
		require.Error(t, err)

		var missing *schema.MissingFieldError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, "middle_name", missing.Field)
		require.Equal(t, "dim_customer", missing.Table)
		require.ErrorIs(t, err, schema.ErrMissingField)
	})

	t.Run("empty_sample_fails_fast", func(t *testing.T) {
		_, err := BuildDimension("dim_customer", nil, DimensionOptions{KeyField: "id"})
		require.ErrorIs(t, err, schema.ErrNoSampleData)

		_, err = BuildDimension("dim_customer", map[string]any{}, DimensionOptions{KeyField: "id"})
		require.ErrorIs(t, err, schema.ErrNoSampleData)
	})

	t.Run("nullable_field_from_nil_sample_value", func(t *testing.T) {
		model, err := BuildDimension("dim_customer", map[string]any{
			"id":   7,
			"note": nil,
		}, DimensionOptions{KeyField: "id", Attributes: []string{"note"}})
		require.NoError(t, err)
		require.True(t, model.Columns[1].Nullable)
		require.Equal(t, schema.TypeUnknown, model.Columns[1].Type)
	})
}

func TestStarSchema_Star_ReplicatedModelsCarryBookkeepingColumns(t *testing.T) {
	t.Parallel()

	t.Run("dimension_appends_is_deleted_and_lsn", func(t *testing.T) {
		model, err := BuildDimension("dim_customer", map[string]any{
			"id":   1,
			"name": "Alice",
		}, DimensionOptions{KeyField: "id", Attributes: []string{"name"}, Replicated: true})
		require.NoError(t, err)

		require.True(t, model.Replicated)
		names := make([]string, 0, len(model.Columns))
		for _, c := range model.Columns {
			names = append(names, c.Name)
		}
		require.Equal(t, []string{"id", "name", "is_deleted", "lsn"}, names)
	})

	t.Run("fact_appends_is_deleted_and_lsn", func(t *testing.T) {
		model, err := BuildFact("fact_order_item", map[string]any{
			"quantity": 2,
			"order_id": 1,
		}, FactOptions{
			Measures:      []Measure{{Column: "quantity", Aggregation: AggSum}},
			DimensionKeys: []string{"order_id"},
			Replicated:    true,
		})
		require.NoError(t, err)

		require.True(t, model.Replicated)
		require.True(t, model.HasColumn("is_deleted"))
		require.True(t, model.HasColumn("lsn"))
	})

	t.Run("non_replicated_models_stay_clean", func(t *testing.T) {
		model, err := BuildDimension("dim_customer", map[string]any{"id": 1}, DimensionOptions{KeyField: "id"})
		require.NoError(t, err)
		require.False(t, model.Replicated)
		require.False(t, model.HasColumn("is_deleted"))
		require.False(t, model.HasColumn("lsn"))
	})

	t.Run("validate_rejects_replicated_model_without_columns", func(t *testing.T) {
		m := &TableModel{
			Name:       "dim_bad",
			Kind:       KindDimension,
			Columns:    []schema.Column{{Name: "id", Type: schema.TypeInt64}},
			PrimaryKey: []string{"id"},
			Replicated: true,
		}
		err := m.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "bookkeeping column")
	})
}

func TestStarSchema_Star_PrimaryKeyFallback(t *testing.T) {
	t.Parallel()

	t.Run("explicit_key_wins", func(t *testing.T) {
		model, err := BuildDimension("dim_x", map[string]any{"id": 1, "code": "a"}, DimensionOptions{
			KeyField:   "code",
			Attributes: []string{"id"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"code"}, model.PrimaryKey)
	})

	t.Run("falls_back_to_id_column", func(t *testing.T) {
		model, err := BuildDimension("dim_x", map[string]any{"code": "a", "id": 1}, DimensionOptions{
			Attributes: []string{"code", "id"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"id"}, model.PrimaryKey)
	})

	t.Run("falls_back_to_first_declared_field", func(t *testing.T) {
		// No id column anywhere: the first declared field silently
		// becomes the key. Kept for descriptor parity.
		model, err := BuildDimension("dim_x", map[string]any{"code": "a", "label": "b"}, DimensionOptions{
			Attributes: []string{"code", "label"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"code"}, model.PrimaryKey)
	})
}

func TestStarSchema_Star_BuildFact(t *testing.T) {
	t.Parallel()

	sample := map[string]any{
		"quantity":   3,
		"unit_price": 19.99,
		"order_id":   10,
		"product_id": 20,
		"order_date": "2024-01-01T10:30:00Z",
		"id":         99,
	}

	t.Run("orders_measures_then_keys_then_timestamp", func(t *testing.T) {
		model, err := BuildFact("fact_order_item", sample, FactOptions{
			Measures: []Measure{
				{Column: "quantity", Aggregation: AggSum},
				{Column: "unit_price", Aggregation: AggAvg},
			},
			DimensionKeys:  []string{"order_id", "product_id"},
			TimestampField: "order_date",
		})
		require.NoError(t, err)

		names := make([]string, 0, len(model.Columns))
		for _, c := range model.Columns {
			names = append(names, c.Name)
		}
		require.Equal(t, []string{"quantity", "unit_price", "order_id", "product_id", "order_date"}, names)

		require.Equal(t, schema.TypeInt64, model.Columns[0].Type)
		require.Equal(t, schema.TypeFloat64, model.Columns[1].Type)
		require.Equal(t, schema.TypeDateTime, model.Columns[4].Type)
		require.Equal(t, "order_date", model.TimestampField)
	})

	t.Run("missing_dimension_key_fails", func(t *testing.T) {
		_, err := BuildFact("fact_order_item", sample, FactOptions{
			Measures:      []Measure{{Column: "quantity", Aggregation: AggSum}},
			DimensionKeys: []string{"customer_id"},
		})
		var missing *schema.MissingFieldError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, "customer_id", missing.Field)
	})

	t.Run("empty_sample_fails_fast", func(t *testing.T) {
		_, err := BuildFact("fact_order_item", map[string]any{}, FactOptions{
			Measures: []Measure{{Column: "quantity", Aggregation: AggSum}},
		})
		require.ErrorIs(t, err, schema.ErrNoSampleData)
	})
}

func TestStarSchema_Star_ModelValidate(t *testing.T) {
	t.Parallel()

	t.Run("rejects_primary_key_outside_columns", func(t *testing.T) {
		m := &TableModel{
			Name:       "dim_bad",
			Kind:       KindDimension,
			Columns:    []schema.Column{{Name: "a", Type: schema.TypeString}},
			PrimaryKey: []string{"missing"},
		}
		require.Error(t, m.Validate())
	})

	t.Run("rejects_duplicate_columns", func(t *testing.T) {
		m := &TableModel{
			Name: "dim_bad",
			Kind: KindDimension,
			Columns: []schema.Column{
				{Name: "a", Type: schema.TypeString},
				{Name: "a", Type: schema.TypeString},
			},
			PrimaryKey: []string{"a"},
		}
		err := m.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate column")
	})

	t.Run("rejects_fact_timestamp_outside_columns", func(t *testing.T) {
		m := &TableModel{
			Name:           "fact_bad",
			Kind:           KindFact,
			Columns:        []schema.Column{{Name: "v", Type: schema.TypeInt64}},
			PrimaryKey:     []string{"v"},
			TimestampField: "ts",
		}
		require.Error(t, m.Validate())
	})
}

func TestStarSchema_Star_ErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	// The taxonomy errors indicate caller configuration defects; they
	// must be distinguishable so callers can abort rather than retry.
	_, err := BuildDimension("dim_x", map[string]any{}, DimensionOptions{})
	require.True(t, errors.Is(err, schema.ErrNoSampleData))
}
