package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calyxdata/starschema/pkg/star"
)

const descriptorYAML = `
connection:
  host: pg.internal
  port: 5432
  user: reader
  database: shop

dimensions:
  - name: dim_customer
    source_table: customers
    key_field: id
    attributes: [name, country, created_at]
    replicated: true

facts:
  - name: fact_order_item
    source_table: order_items
    measures:
      - column: quantity
        aggregation: sum
      - column: unit_price
        aggregation: avg
    dimension_keys: [order_id, product_id]
    timestamp_field: order_date

dictionaries:
  - name: customer_dict
    fields:
      - name: id
        type: UInt64
      - name: country
        type: String
    primary_keys: [id]
    source:
      table: customers
      columns: [id, country]
    connection:
      password: s3cret
`

func TestStarSchema_Config_Parse(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(descriptorYAML))
	require.NoError(t, err)

	require.Len(t, f.Dimensions, 1)
	require.Equal(t, "dim_customer", f.Dimensions[0].Name)
	require.Equal(t, "customers", f.Dimensions[0].SourceTable)

	opts := f.Dimensions[0].Options()
	require.Equal(t, "id", opts.KeyField)
	require.Equal(t, []string{"name", "country", "created_at"}, opts.Attributes)
	require.True(t, opts.Replicated)

	require.Len(t, f.Facts, 1)
	factOpts := f.Facts[0].Options()
	require.Equal(t, []star.Measure{
		{Column: "quantity", Aggregation: star.AggSum},
		{Column: "unit_price", Aggregation: star.AggAvg},
	}, factOpts.Measures)
	require.Equal(t, []string{"order_id", "product_id"}, factOpts.DimensionKeys)
	require.Equal(t, "order_date", factOpts.TimestampField)
	require.False(t, factOpts.Replicated)
}

func TestStarSchema_Config_DictionaryInheritsConnection(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(descriptorYAML))
	require.NoError(t, err)
	require.Len(t, f.Dictionaries, 1)

	cfg := f.DictionaryConfig(f.Dictionaries[0])
	require.Equal(t, "customer_dict", cfg.Name)
	// Per-dictionary connection carries only the password; the rest
	// comes from the file-level defaults at model-build time.
	require.Equal(t, "s3cret", cfg.Connection.Password)
	require.Equal(t, "pg.internal", cfg.Defaults.Host)
	require.Equal(t, 5432, cfg.Defaults.Port)
	require.Equal(t, "reader", cfg.Defaults.User)
	require.NotNil(t, cfg.Source)
	require.Equal(t, "customers", cfg.Source.Table)
}

func TestStarSchema_Config_Validation(t *testing.T) {
	t.Parallel()

	t.Run("missing_source_table", func(t *testing.T) {
		_, err := Parse([]byte("dimensions:\n  - name: dim_x\n    key_field: id\n"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "source_table")
	})

	t.Run("duplicate_names_across_kinds", func(t *testing.T) {
		_, err := Parse([]byte(`
dimensions:
  - name: same
    source_table: a
facts:
  - name: same
    source_table: b
`))
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate")
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		_, err := Parse([]byte("dimensions: ["))
		require.Error(t, err)
	})
}
