package retinanet

import (
	"testing"

	"github.com/okieraised/go-retinanet-pipeline/processing"
	"github.com/stretchr/testify/assert"
	"gorgonia.org/tensor"
)

func TestShift_RowMajorOrdering(t *testing.T) {
	// a degenerate point template makes each output row the bare shift of
	// its cell, and a 1x1 image with stride 1 zeroes the centering offset
	template := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(1, 4),
		tensor.WithBacking(make([]float32, 4)),
	)

	shifted, err := Shift([]int{1, 1}, []int{2, 2}, 1, template)
	assert.NoError(t, err)
	assert.Equal(t, []int{4, 4}, []int(shifted.Shape()))
	assert.Equal(t, []float32{
		0, 0, 0, 0,
		1, 0, 1, 0,
		0, 1, 0, 1,
		1, 1, 1, 1,
	}, shifted.Float32s())
}

func TestShift_CenteringOffset(t *testing.T) {
	// a 2x2 grid at stride 1 covers 1 pixel of a 3x3 image, leaving a
	// margin of 2 split evenly, so the shifts are {1, 2} on both axes
	template := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(1, 4),
		tensor.WithBacking([]float32{-1, -1, 1, 1}),
	)

	shifted, err := Shift([]int{3, 3}, []int{2, 2}, 1, template)
	assert.NoError(t, err)
	assert.Equal(t, []float32{
		0, 0, 2, 2,
		1, 0, 3, 2,
		0, 1, 2, 3,
		1, 1, 3, 3,
	}, shifted.Float32s())
}

func TestShift_CountAndTemplateBlocks(t *testing.T) {
	templates, err := processing.GenerateAnchors(processing.AnchorConfig{
		BaseSize: 16,
		Ratios:   []float32{1},
		Scales:   []float32{1, 2},
	})
	assert.NoError(t, err)

	shifted, err := Shift([]int{48, 80}, []int{3, 5}, 16, templates)
	assert.NoError(t, err)
	assert.Equal(t, []int{3 * 5 * 2, 4}, []int(shifted.Shape()))

	// both templates of a cell share its shift, and the next cell along x
	// is one stride to the right
	data := shifted.Float32s()
	for colIdx := 0; colIdx < 4; colIdx++ {
		assert.Equal(t, data[4+colIdx]-data[colIdx], data[12+colIdx]-data[8+colIdx])
	}
	assert.Equal(t, data[0]+16, data[8])
	assert.Equal(t, data[1], data[9])
}

func TestShift_Validation(t *testing.T) {
	template := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(1, 4),
		tensor.WithBacking(make([]float32, 4)),
	)

	_, err := Shift([]int{100}, []int{2, 2}, 8, template)
	assert.Error(t, err)

	_, err = Shift([]int{100, 100}, []int{2}, 8, template)
	assert.Error(t, err)

	_, err = Shift([]int{100, 100}, []int{0, 2}, 8, template)
	assert.Error(t, err)

	_, err = Shift([]int{100, 100}, []int{2, 2}, 0, template)
	assert.Error(t, err)

	_, err = Shift([]int{100, 100}, []int{2, 2}, 8, nil)
	assert.Error(t, err)

	flat := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(4),
		tensor.WithBacking(make([]float32, 4)),
	)
	_, err = Shift([]int{100, 100}, []int{2, 2}, 8, flat)
	assert.Error(t, err)

	f64 := tensor.New(
		tensor.Of(tensor.Float64),
		tensor.WithShape(1, 4),
		tensor.WithBacking(make([]float64, 4)),
	)
	_, err = Shift([]int{100, 100}, []int{2, 2}, 8, f64)
	assert.Error(t, err)
}
