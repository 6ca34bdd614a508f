package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStock_NoThreshold(t *testing.T) {
	for _, q := range []int{0, 1, 5, 100, 100000} {
		_, ok := ClassifyStock(q, 0)
		assert.False(t, ok, "quantity=%d", q)
	}
	_, ok := ClassifyStock(10, -3)
	assert.False(t, ok)
}

func TestClassifyStock_ZeroQuantityIsAlwaysLow(t *testing.T) {
	for _, m := range []int{1, 2, 5, 10, 49, 50, 51, 100, 1000, 123457} {
		level, ok := ClassifyStock(0, m)
		require.True(t, ok)
		assert.Equal(t, StockLow, level.Status, "minStock=%d", m)
		assert.Equal(t, 0, level.Percentage)
	}
}

func TestClassifyStock_MinStock100(t *testing.T) {
	cases := []struct {
		quantity int
		want     StockStatus
	}{
		{5, StockLow},
		{10, StockLow},
		{11, StockNormal},
		{50, StockNormal},
		{59, StockNormal},
		{60, StockHigh},
		{65, StockHigh},
		{500, StockHigh},
	}
	for _, c := range cases {
		level, ok := ClassifyStock(c.quantity, 100)
		require.True(t, ok)
		assert.Equal(t, c.want, level.Status, "quantity=%d", c.quantity)
	}

	level, _ := ClassifyStock(65, 100)
	assert.Equal(t, 65, level.Percentage)
	assert.InDelta(t, 10.0, level.LowThreshold, 1e-9)
	assert.InDelta(t, 60.0, level.HighThreshold, 1e-9)
}

func TestClassifyStock_OverlappingThresholdsLowWins(t *testing.T) {
	// minStock=5: low=5, high=3
	level, ok := ClassifyStock(3, 5)
	require.True(t, ok)
	assert.Equal(t, StockLow, level.Status)

	level, _ = ClassifyStock(5, 5)
	assert.Equal(t, StockLow, level.Status)
	assert.Equal(t, 100, level.Percentage)

	level, _ = ClassifyStock(6, 5)
	assert.Equal(t, StockHigh, level.Status)
}

func TestClassifyStock_LowThresholdFloor(t *testing.T) {
	// minStock*0.1 = 2 < 5, floor applies
	level, _ := ClassifyStock(5, 20)
	assert.Equal(t, StockLow, level.Status)
	assert.InDelta(t, 5.0, level.LowThreshold, 1e-9)

	level, _ = ClassifyStock(6, 20)
	assert.Equal(t, StockNormal, level.Status)

	level, _ = ClassifyStock(12, 20)
	assert.Equal(t, StockHigh, level.Status)
}

func TestClassifyStock_MonotonicAboveCrossover(t *testing.T) {
	for _, m := range []int{9, 10, 20, 37, 100, 250, 1000} {
		prev := -1
		for q := 0; q <= m*2; q++ {
			level, ok := ClassifyStock(q, m)
			require.True(t, ok)
			rank := level.Status.Rank()
			assert.GreaterOrEqual(t, rank, prev, "minStock=%d quantity=%d", m, q)
			prev = rank
		}
	}
}

func TestClassifyStock_Percentage(t *testing.T) {
	level, _ := ClassifyStock(1, 3)
	assert.Equal(t, 33, level.Percentage)

	level, _ = ClassifyStock(2, 3)
	assert.Equal(t, 67, level.Percentage)

	level, _ = ClassifyStock(1, 8)
	assert.Equal(t, 13, level.Percentage) // 12.5 rounds up
}

func TestClassifyStock_PercentageSaturates(t *testing.T) {
	level, ok := ClassifyStock(math.MaxInt, 1)
	require.True(t, ok)
	assert.Equal(t, StockHigh, level.Status)
	assert.Equal(t, math.MaxInt, level.Percentage)

	level, _ = ClassifyStock(math.MaxInt, math.MaxInt)
	assert.Equal(t, 100, level.Percentage)
}

func TestClassifyStock_NegativeQuantityClamped(t *testing.T) {
	level, ok := ClassifyStock(-4, 100)
	require.True(t, ok)
	assert.Equal(t, StockLow, level.Status)
	assert.Equal(t, 0, level.Percentage)
}

func TestClassifyStock_Idempotent(t *testing.T) {
	a, okA := ClassifyStock(42, 77)
	b, okB := ClassifyStock(42, 77)
	assert.Equal(t, okA, okB)
	assert.Equal(t, a, b)
}

func TestStockStatus_Labels(t *testing.T) {
	assert.Equal(t, "Stock Bajo", StockLow.Label(LangES))
	assert.Equal(t, "Low Stock", StockLow.Label(LangEN))
	assert.Equal(t, "Stock Normal", StockNormal.Label(LangES))
	assert.Equal(t, "Normal Stock", StockNormal.Label(LangEN))
	assert.Equal(t, "Stock Alto", StockHigh.Label(LangES))
	assert.Equal(t, "High Stock", StockHigh.Label(LangEN))
	assert.Equal(t, LangES, ParseLang("fr"))
	assert.Equal(t, LangEN, ParseLang("en"))
}
