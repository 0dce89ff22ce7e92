package transformer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqRow(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("f%d", i)
	}
	return out
}

func TestRepairRow_MergesOvershootByOne(t *testing.T) {
	t.Parallel()

	for _, headerLen := range []int{12, 13} {
		headerLen := headerLen
		t.Run(fmt.Sprintf("header_%d", headerLen), func(t *testing.T) {
			t.Parallel()

			row := seqRow(headerLen + 1)
			got := RepairRow(headerLen, row)

			require.Len(t, got, headerLen)
			assert.Equal(t, "f10, f11", got[10])
			assert.Equal(t, row[:10], got[:10])
			assert.Equal(t, row[12:], got[11:])
		})
	}
}

func TestRepairRow_PassThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		headerLen int
		rowLen    int
	}{
		{name: "exact_length", headerLen: 12, rowLen: 12},
		{name: "exact_length_13", headerLen: 13, rowLen: 13},
		{name: "overshoot_by_two", headerLen: 12, rowLen: 14},
		{name: "short_row", headerLen: 12, rowLen: 11},
		{name: "other_header_size", headerLen: 11, rowLen: 12},
		{name: "wide_header", headerLen: 14, rowLen: 15},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			row := seqRow(tc.rowLen)
			got := RepairRow(tc.headerLen, row)
			assert.Equal(t, row, got)
			assert.Len(t, got, tc.rowLen)
		})
	}
}

func TestRepairRow_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	row := seqRow(13)
	orig := append([]string(nil), row...)
	_ = RepairRow(12, row)
	assert.Equal(t, orig, row)
}

func TestRepairApplies(t *testing.T) {
	t.Parallel()

	assert.True(t, RepairApplies(12))
	assert.True(t, RepairApplies(13))
	assert.False(t, RepairApplies(0))
	assert.False(t, RepairApplies(11))
	assert.False(t, RepairApplies(14))
}
