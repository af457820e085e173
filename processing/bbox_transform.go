package processing

import (
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ImageDataFormat tells box operations how to read spatial extents out of an
// image tensor shape.
type ImageDataFormat int

const (
	// ImageDataFormatChannelsLast lays images out as (batch, height, width, channels).
	ImageDataFormatChannelsLast ImageDataFormat = iota
	// ImageDataFormatChannelsFirst lays images out as (batch, channels, height, width).
	ImageDataFormatChannelsFirst
)

var ImageDataFormatMapper = map[ImageDataFormat]string{
	ImageDataFormatChannelsLast:  "channels_last",
	ImageDataFormatChannelsFirst: "channels_first",
}

var (
	DefaultBBoxTransformMean = []float32{0, 0, 0, 0}
	DefaultBBoxTransformStd  = []float32{0.2, 0.2, 0.2, 0.2}
)

// BBoxTransformInv applies regression deltas to a batch of reference boxes.
// Deltas are fractions of the reference width and height, standardized during
// training by a per-coordinate mean and std that decoding reverses here:
//
//	x1' = x1 + (dx1*std[0] + mean[0]) * (x2 - x1)
//
// and likewise for the other three corners. A nil mean or std selects the
// package defaults. Corners move independently and are never reordered, so a
// strong delta can leave x1' > x2'.
func BBoxTransformInv(boxes, deltas *tensor.Dense, mean, std []float32) (*tensor.Dense, error) {
	if mean == nil {
		mean = DefaultBBoxTransformMean
	}
	if std == nil {
		std = DefaultBBoxTransformStd
	}
	if len(mean) != 4 {
		return nil, errors.Errorf("mean must hold 4 values, got %d", len(mean))
	}
	if len(std) != 4 {
		return nil, errors.Errorf("std must hold 4 values, got %d", len(std))
	}
	if err := checkBoxBatch(boxes, "boxes"); err != nil {
		return nil, err
	}
	if err := checkBoxBatch(deltas, "deltas"); err != nil {
		return nil, err
	}
	if !boxes.Shape().Eq(deltas.Shape()) {
		return nil, errors.Errorf("boxes shape %v does not match deltas shape %v", boxes.Shape(), deltas.Shape())
	}

	boxData := boxes.Float32s()
	deltaData := deltas.Float32s()
	decoded := make([]float32, len(boxData))
	for i := 0; i < len(boxData); i += 4 {
		width := boxData[i+2] - boxData[i]
		height := boxData[i+3] - boxData[i+1]
		decoded[i] = boxData[i] + (deltaData[i]*std[0]+mean[0])*width
		decoded[i+1] = boxData[i+1] + (deltaData[i+1]*std[1]+mean[1])*height
		decoded[i+2] = boxData[i+2] + (deltaData[i+2]*std[2]+mean[2])*width
		decoded[i+3] = boxData[i+3] + (deltaData[i+3]*std[3]+mean[3])*height
	}

	return tensor.New(
		tensor.Of(Dtype),
		tensor.WithShape(boxes.Shape()...),
		tensor.WithBacking(decoded),
	), nil
}

// SpatialDims resolves the height and width of an image tensor shape under
// the given data format.
func SpatialDims(imageShape []int, format ImageDataFormat) (int, int, error) {
	if len(imageShape) != 4 {
		return 0, 0, errors.Errorf("image shape must have 4 dimensions, got %v", imageShape)
	}
	switch format {
	case ImageDataFormatChannelsFirst:
		return imageShape[2], imageShape[3], nil
	case ImageDataFormatChannelsLast:
		return imageShape[1], imageShape[2], nil
	default:
		return 0, 0, errors.Errorf("unrecognized image data format %d", format)
	}
}

// ClipBoxes clamps every corner of every box into the image: x coordinates
// into [0, width-1] and y coordinates into [0, height-1]. Corners clamp
// independently, so an inverted box stays inverted.
func ClipBoxes(boxes *tensor.Dense, imageShape []int, format ImageDataFormat) (*tensor.Dense, error) {
	height, width, err := SpatialDims(imageShape, format)
	if err != nil {
		return nil, err
	}
	if height <= 0 || width <= 0 {
		return nil, errors.Errorf("image extent must be positive, got height %d and width %d", height, width)
	}
	if err := checkBoxBatch(boxes, "boxes"); err != nil {
		return nil, err
	}

	maxX := float64(width - 1)
	maxY := float64(height - 1)
	boxData := boxes.Float32s()
	clipped := make([]float32, len(boxData))
	for i := 0; i < len(boxData); i += 4 {
		clipped[i] = float32(math.Max(math.Min(float64(boxData[i]), maxX), 0))
		clipped[i+1] = float32(math.Max(math.Min(float64(boxData[i+1]), maxY), 0))
		clipped[i+2] = float32(math.Max(math.Min(float64(boxData[i+2]), maxX), 0))
		clipped[i+3] = float32(math.Max(math.Min(float64(boxData[i+3]), maxY), 0))
	}

	return tensor.New(
		tensor.Of(Dtype),
		tensor.WithShape(boxes.Shape()...),
		tensor.WithBacking(clipped),
	), nil
}

func checkBoxBatch(t *tensor.Dense, name string) error {
	if t == nil {
		return errors.Errorf("%s tensor is nil", name)
	}
	if t.Dtype() != Dtype {
		return errors.Errorf("%s must have element type %v, got %v", name, Dtype, t.Dtype())
	}
	shape := t.Shape()
	if len(shape) != 3 || shape[2] != 4 {
		return errors.Errorf("%s must have shape (batch, boxes, 4), got %v", name, shape)
	}
	return nil
}
