package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStarSchema_Schema_Infer(t *testing.T) {
	t.Parallel()

	t.Run("nil_is_unknown_and_nullable", func(t *testing.T) {
		ct, nullable := Infer(nil)
		require.Equal(t, TypeUnknown, ct)
		require.True(t, nullable)
	})

	t.Run("time_is_datetime", func(t *testing.T) {
		ct, nullable := Infer(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		require.Equal(t, TypeDateTime, ct)
		require.False(t, nullable)
	})

	t.Run("nil_time_pointer_is_nullable_datetime", func(t *testing.T) {
		var tp *time.Time
		ct, nullable := Infer(tp)
		require.Equal(t, TypeDateTime, ct)
		require.True(t, nullable)
	})

	t.Run("iso8601_strings_are_datetime", func(t *testing.T) {
		for _, s := range []string{
			"2024-01-01T10:30:00Z",
			"2024-01-01T10:30:00.123456789Z",
			"2024-01-01 10:30:00",
			"2024-01-01",
		} {
			ct, _ := Infer(s)
			require.Equal(t, TypeDateTime, ct, "value %q", s)
		}
	})

	t.Run("plain_strings_stay_strings", func(t *testing.T) {
		for _, s := range []string{"Alice", "US", "", "not-a-date", "12345-6789"} {
			ct, _ := Infer(s)
			require.Equal(t, TypeString, ct, "value %q", s)
		}
	})

	t.Run("integral_numbers_are_int64", func(t *testing.T) {
		for _, v := range []any{42, int64(42), uint32(7), float64(42), float32(3)} {
			ct, _ := Infer(v)
			require.Equal(t, TypeInt64, ct, "value %v", v)
		}
	})

	t.Run("fractional_numbers_are_float64", func(t *testing.T) {
		for _, v := range []any{19.99, float32(0.5), -3.14} {
			ct, _ := Infer(v)
			require.Equal(t, TypeFloat64, ct, "value %v", v)
		}
	})

	t.Run("bool_is_bool", func(t *testing.T) {
		ct, _ := Infer(true)
		require.Equal(t, TypeBool, ct)
	})

	t.Run("unrecognized_types_fall_back_to_string", func(t *testing.T) {
		ct, _ := Infer(struct{ X int }{1})
		require.Equal(t, TypeString, ct)
	})
}

func TestStarSchema_Schema_ColumnDDLType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Int64", Column{Name: "id", Type: TypeInt64}.DDLType())
	require.Equal(t, "Nullable(String)", Column{Name: "note", Type: TypeString, Nullable: true}.DDLType())
	// Unknown renders as String so sparse samples still produce loadable tables.
	require.Equal(t, "Nullable(String)", Column{Name: "blob", Type: TypeUnknown, Nullable: true}.DDLType())
}
