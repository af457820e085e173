package retinanet

import (
	"github.com/okieraised/go-retinanet-pipeline/processing"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Shift tiles the base anchor templates over every cell of a feature grid,
// producing one anchor per (cell, template) pair in image coordinates.
//
// The grid is centered on the image: cell centers sit stride pixels apart,
// and the margin left over after covering (dim - 1) * stride pixels is split
// evenly between both sides, so each shift is cell*stride + offset with
//
//	offset = (image_dim - (feature_dim - 1) * stride) / 2
//
// Rows run row-major over the grid, the outer index walking rows (y) and the
// inner walking columns (x), with the A templates contiguous per cell. The
// result has shape (Hf*Wf*A, 4).
func Shift(imageShape, featuresShape []int, stride int, baseAnchors *tensor.Dense) (*tensor.Dense, error) {
	if len(imageShape) < 2 {
		return nil, errors.Errorf("image shape needs at least 2 dimensions, got %v", imageShape)
	}
	if len(featuresShape) != 2 {
		return nil, errors.Errorf("features shape must be (height, width), got %v", featuresShape)
	}
	height, width := featuresShape[0], featuresShape[1]
	if height <= 0 || width <= 0 {
		return nil, errors.Errorf("feature grid extent must be positive, got %dx%d", height, width)
	}
	if stride <= 0 {
		return nil, errors.Errorf("stride must be positive, got %d", stride)
	}
	if baseAnchors == nil {
		return nil, errors.New("base anchors tensor is nil")
	}
	if baseAnchors.Dtype() != processing.Dtype {
		return nil, errors.Errorf("base anchors must have element type %v, got %v", processing.Dtype, baseAnchors.Dtype())
	}
	anchorShape := baseAnchors.Shape()
	if len(anchorShape) != 2 || anchorShape[1] != 4 || anchorShape[0] == 0 {
		return nil, errors.Errorf("base anchors must have shape (A, 4) with A > 0, got %v", anchorShape)
	}

	numAnchors := anchorShape[0]
	templates := baseAnchors.Float32s()

	offsetX := float32(imageShape[1]-(width-1)*stride) / 2
	offsetY := float32(imageShape[0]-(height-1)*stride) / 2

	shifted := make([]float32, height*width*numAnchors*4)
	idx := 0
	for iy := 0; iy < height; iy++ {
		shiftY := float32(iy*stride) + offsetY
		for ix := 0; ix < width; ix++ {
			shiftX := float32(ix*stride) + offsetX
			for a := 0; a < numAnchors; a++ {
				shifted[idx] = templates[a*4] + shiftX
				shifted[idx+1] = templates[a*4+1] + shiftY
				shifted[idx+2] = templates[a*4+2] + shiftX
				shifted[idx+3] = templates[a*4+3] + shiftY
				idx += 4
			}
		}
	}

	return tensor.New(
		tensor.Of(processing.Dtype),
		tensor.WithShape(height*width*numAnchors, 4),
		tensor.WithBacking(shifted),
	), nil
}
