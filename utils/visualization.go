package utils

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// DefaultScoreThreshold decides which detections DrawDetections renders when
// the caller does not pass a threshold.
const DefaultScoreThreshold float32 = 0.5

// DrawBox draws a single (x1, y1, x2, y2) box onto the image.
func DrawBox(img *gocv.Mat, box *tensor.Dense, clr color.RGBA, thickness int) error {
	rect, err := boxToRect(box)
	if err != nil {
		return err
	}
	gocv.Rectangle(img, rect, clr, thickness)
	return nil
}

// DrawCaption draws text just above the top left corner of a box, white over
// a heavier black pass so it stays readable on any background.
func DrawCaption(img *gocv.Mat, box *tensor.Dense, caption string) error {
	rect, err := boxToRect(box)
	if err != nil {
		return err
	}
	org := image.Pt(rect.Min.X, rect.Min.Y-10)
	gocv.PutText(img, caption, org, gocv.FontHersheyPlain, 1, color.RGBA{R: 0, G: 0, B: 0}, 2)
	gocv.PutText(img, caption, org, gocv.FontHersheyPlain, 1, color.RGBA{R: 255, G: 255, B: 255}, 1)
	return nil
}

// DrawBoxes draws every row of an (N, 4) box tensor in the same color.
func DrawBoxes(img *gocv.Mat, boxes *tensor.Dense, clr color.RGBA, thickness int) error {
	shape := boxes.Shape()
	if len(shape) != 2 || shape[1] != 4 {
		return fmt.Errorf("boxes must have shape (N, 4), got %v", shape)
	}
	for i := 0; i < shape[0]; i++ {
		row, err := boxes.Slice(tensor.S(i), nil)
		if err != nil {
			return err
		}
		if err := DrawBox(img, row.(*tensor.Dense), clr, thickness); err != nil {
			return err
		}
	}
	return nil
}

// DrawDetections draws every detection whose score clears the threshold,
// captioned with its label and score. A nil color selects a per label palette
// color, a nil labelToName captions with the numeric label, and a nil
// scoreThreshold falls back to DefaultScoreThreshold.
func DrawDetections(img *gocv.Mat, boxes, scores *tensor.Dense, labels []int, clr *color.RGBA, labelToName func(int) string, scoreThreshold *float32) error {
	if scoreThreshold == nil {
		scoreThreshold = RefPointer(DefaultScoreThreshold)
	}
	shape := boxes.Shape()
	if len(shape) != 2 || shape[1] != 4 {
		return fmt.Errorf("boxes must have shape (N, 4), got %v", shape)
	}
	if len(scores.Shape()) != 1 || scores.Shape()[0] != shape[0] {
		return fmt.Errorf("scores shape %v does not match %d boxes", scores.Shape(), shape[0])
	}
	if len(labels) != shape[0] {
		return fmt.Errorf("%d labels do not match %d boxes", len(labels), shape[0])
	}

	for i := 0; i < shape[0]; i++ {
		score := scores.GetF32(i)
		if score <= DerefPointer(scoreThreshold) {
			continue
		}
		row, err := boxes.Slice(tensor.S(i), nil)
		if err != nil {
			return err
		}
		box := row.(*tensor.Dense)

		col := LabelColor(labels[i])
		if clr != nil {
			col = DerefPointer(clr)
		}
		if err := DrawBox(img, box, col, 2); err != nil {
			return err
		}

		name := strconv.Itoa(labels[i])
		if labelToName != nil {
			name = labelToName(labels[i])
		}
		if err := DrawCaption(img, box, fmt.Sprintf("%s: %.2f", name, score)); err != nil {
			return err
		}
	}
	return nil
}

// DrawAnnotations draws ground truth boxes with their label names.
func DrawAnnotations(img *gocv.Mat, boxes *tensor.Dense, labels []int, clr *color.RGBA, labelToName func(int) string) error {
	shape := boxes.Shape()
	if len(shape) != 2 || shape[1] != 4 {
		return fmt.Errorf("boxes must have shape (N, 4), got %v", shape)
	}
	if len(labels) != shape[0] {
		return fmt.Errorf("%d labels do not match %d boxes", len(labels), shape[0])
	}

	col := DefaultAnnotationColor
	if clr != nil {
		col = DerefPointer(clr)
	}
	for i := 0; i < shape[0]; i++ {
		row, err := boxes.Slice(tensor.S(i), nil)
		if err != nil {
			return err
		}
		box := row.(*tensor.Dense)

		name := strconv.Itoa(labels[i])
		if labelToName != nil {
			name = labelToName(labels[i])
		}
		if err := DrawCaption(img, box, name); err != nil {
			return err
		}
		if err := DrawBox(img, box, col, 2); err != nil {
			return err
		}
	}
	return nil
}

func boxToRect(box *tensor.Dense) (image.Rectangle, error) {
	if box.Shape().TotalSize() != 4 {
		return image.Rectangle{}, fmt.Errorf("box must hold 4 coordinates, got shape %v", box.Shape())
	}
	return image.Rect(
		int(box.GetF32(0)),
		int(box.GetF32(1)),
		int(box.GetF32(2)),
		int(box.GetF32(3)),
	), nil
}
