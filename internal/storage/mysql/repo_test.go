package mysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcxai-loader/internal/storage"
)

func TestBuildLoadData(t *testing.T) {
	q, err := buildLoadData(storage.CopySpec{
		Target:    storage.Target{Schema: "train", Table: "order"},
		Columns:   []string{"o_order_id", "o_customer_sk"},
		Delimiter: '|',
	}, "tpcxai-copy-7")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q, "LOAD DATA LOCAL INFILE 'Reader::tpcxai-copy-7' INTO TABLE `train`.`order`"), q)
	assert.Contains(t, q, "FIELDS TERMINATED BY '|'")
	assert.Contains(t, q, "IGNORE 1 LINES (@c0, @c1)")
	assert.Contains(t, q, "SET `o_order_id` = NULLIF(@c0, ''), `o_customer_sk` = NULLIF(@c1, '')")
}

func TestBuildLoadData_DefaultsAndErrors(t *testing.T) {
	q, err := buildLoadData(storage.CopySpec{Target: storage.Target{Table: "t"}, Columns: []string{"a"}}, "r")
	require.NoError(t, err)
	assert.Contains(t, q, "FIELDS TERMINATED BY ','")
	assert.Contains(t, q, "INTO TABLE `t` ")

	_, err = buildLoadData(storage.CopySpec{Target: storage.Target{Schema: "s"}, Columns: []string{"a"}}, "r")
	assert.ErrorIs(t, err, storage.ErrInvalidTarget)

	_, err = buildLoadData(storage.CopySpec{Target: storage.Target{Table: "t"}}, "r")
	assert.Error(t, err)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, "`we``ird`", mysqlIdent("we`ird"))
	assert.Equal(t, `'it\'s'`, mysqlLiteral("it's"))
	assert.Equal(t, `'\\'`, mysqlLiteral(`\`))
	assert.Equal(t, "'\t'", mysqlLiteral("\t"))
}

func TestRepo_DDLCommitsImplicitly(t *testing.T) {
	assert.False(t, (&Repo{}).TransactionalDDL())
}
