package csv

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReader_StripsBOMAndReplacesInvalidBytes(t *testing.T) {
	t.Parallel()

	in := "\uFEFFid,name\n1,caf\xff\n"
	r := NewReader(strings.NewReader(in), ',')

	hdr, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, hdr)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "caf\uFFFD"}, rec)

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReader_AcceptsRaggedAndLazyQuotedRows(t *testing.T) {
	t.Parallel()

	in := "a|b|c\n1|2\n1|say \"hi\"|3|4\n"
	r := NewReader(strings.NewReader(in), '|')

	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Len(t, recs[1], 2)
	assert.Equal(t, `say "hi"`, recs[2][1])
	assert.Len(t, recs[2], 4)
}

func TestOpenSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "product.csv")
	require.NoError(t, os.WriteFile(path, []byte("p_product_id;name\n1;x\n"), 0o644))

	src, err := OpenSource(path, ';')
	require.NoError(t, err)
	defer src.Close()

	hdr, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"p_product_id", "name"}, hdr)
}

func TestNewReader_ReplacesInvalidBytesWithoutBOM(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("id,name\n1,caf\xff\xfe\n"), ',')

	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "caf\uFFFD\uFFFD", recs[1][1])
}
