package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []int{1, 2, 9}, SortedKeys(map[int]string{9: "", 1: "", 2: ""}))
}

func TestMinMaxSum(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2, Min(2, 5))
	assert.Equal(5.5, Max(2.0, 5.5))
	assert.Equal(int64(6), Sum([]int64{1, 2, 3}))
	assert.Equal(0, Sum([]int(nil)))
}

func TestHistogram(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(map[float64]int{0: 2, 5: 1, 10: 1}, Histogram([]float64{0.5, 4.9, 5, 12}, 5))
	assert.Empty(Histogram([]int{1, 2}, 0))
}
