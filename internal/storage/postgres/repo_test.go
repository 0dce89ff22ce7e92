package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcxai-loader/internal/storage"
)

func TestBuildCopySQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec storage.CopySpec
		want string
	}{
		{
			name: "schema_qualified_comma",
			spec: storage.CopySpec{
				Target:    storage.Target{Schema: "train", Table: "product"},
				Columns:   []string{"p_product_id", "name"},
				Delimiter: ',',
			},
			want: `COPY "train"."product"("p_product_id", "name") FROM STDIN (DELIMITER ',', FORMAT CSV, HEADER TRUE)`,
		},
		{
			name: "pipe_delimiter",
			spec: storage.CopySpec{
				Target:    storage.Target{Schema: "score", Table: "review"},
				Columns:   []string{"id"},
				Delimiter: '|',
			},
			want: `COPY "score"."review"("id") FROM STDIN (DELIMITER '|', FORMAT CSV, HEADER TRUE)`,
		},
		{
			name: "tab_delimiter_is_literal",
			spec: storage.CopySpec{
				Target:    storage.Target{Table: "t"},
				Columns:   []string{"a"},
				Delimiter: '\t',
			},
			want: "COPY \"t\"(\"a\") FROM STDIN (DELIMITER '\t', FORMAT CSV, HEADER TRUE)",
		},
		{
			name: "default_delimiter_and_reserved_words",
			spec: storage.CopySpec{
				Target:  storage.Target{Schema: "serve", Table: "order"},
				Columns: []string{"o_order_id", `we"ird`},
			},
			want: `COPY "serve"."order"("o_order_id", "we""ird") FROM STDIN (DELIMITER ',', FORMAT CSV, HEADER TRUE)`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := buildCopySQL(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildCopySQL_Rejects(t *testing.T) {
	t.Parallel()

	_, err := buildCopySQL(storage.CopySpec{Target: storage.Target{Schema: "train"}, Columns: []string{"a"}})
	assert.ErrorIs(t, err, storage.ErrInvalidTarget)

	_, err = buildCopySQL(storage.CopySpec{Target: storage.Target{Table: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestPgLiteral(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "';'", pgLiteral(";"))
	assert.Equal(t, "''''", pgLiteral("'"))
}
