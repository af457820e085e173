package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorgonia.org/tensor"
)

func denseOf(shape []int, backing []float32) *tensor.Dense {
	return tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(shape...),
		tensor.WithBacking(backing),
	)
}

func TestVStack(t *testing.T) {
	a := denseOf([]int{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	b := denseOf([]int{1, 4}, []float32{9, 10, 11, 12})

	stacked, err := VStack([]*tensor.Dense{a, b})
	assert.NoError(t, err)
	assert.Equal(t, []int{3, 4}, []int(stacked.Shape()))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, stacked.Float32s())
}

func TestVStack_SkipsEmpty(t *testing.T) {
	a := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 4))
	b := denseOf([]int{1, 4}, []float32{9, 10, 11, 12})

	stacked, err := VStack([]*tensor.Dense{a, b})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 4}, []int(stacked.Shape()))
	assert.Equal(t, []float32{9, 10, 11, 12}, stacked.Float32s())
}

func TestVStack_SingleIsCopied(t *testing.T) {
	a := denseOf([]int{1, 4}, []float32{1, 2, 3, 4})

	stacked, err := VStack([]*tensor.Dense{a})
	assert.NoError(t, err)

	stacked.Set(0, float32(-1))
	assert.Equal(t, []float32{1, 2, 3, 4}, a.Float32s())
}

func TestVStack_AllEmpty(t *testing.T) {
	a := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 4))

	stacked, err := VStack([]*tensor.Dense{a})
	assert.NoError(t, err)
	assert.Equal(t, 0, stacked.Shape()[0])
}

func TestHStack(t *testing.T) {
	boxes := denseOf([]int{2, 4}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	scores := denseOf([]int{2, 1}, []float32{0.9, 0.8})

	stacked, err := HStack([]*tensor.Dense{boxes, scores})
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 5}, []int(stacked.Shape()))
	assert.Equal(t, []float32{1, 2, 3, 4, 0.9, 5, 6, 7, 8, 0.8}, stacked.Float32s())
}

func TestArgSortDescending(t *testing.T) {
	scores := denseOf([]int{3}, []float32{0.2, 0.9, 0.5})

	order, err := ArgSortDescending(scores)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestArgSortDescending_Not1D(t *testing.T) {
	scores := denseOf([]int{1, 3}, []float32{0.2, 0.9, 0.5})

	_, err := ArgSortDescending(scores)
	assert.Error(t, err)
}

func TestSelectRows2D(t *testing.T) {
	src := denseOf([]int{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	selected, err := SelectRows2D(src, []int{2, 0, 2})
	assert.NoError(t, err)
	assert.Equal(t, []int{3, 2}, []int(selected.Shape()))
	assert.Equal(t, []float32{5, 6, 1, 2, 5, 6}, selected.Float32s())
}

func TestSelectRows2D_Validation(t *testing.T) {
	src := denseOf([]int{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	_, err := SelectRows2D(src, []int{3})
	assert.Error(t, err)

	_, err = SelectRows2D(src, []int{-1})
	assert.Error(t, err)

	flat := denseOf([]int{3}, []float32{1, 2, 3})
	_, err = SelectRows2D(flat, []int{0})
	assert.Error(t, err)
}
