package processing

import (
	"github.com/chewxy/math32"
	"github.com/okieraised/go-retinanet-pipeline/utils"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// NMS greedily suppresses detections that overlap a higher scoring detection
// by more than threshold. dets holds one detection per row in
// (x1, y1, x2, y2, score) form. Overlap is intersection over union with box
// extents counted inclusively, width = x2 - x1 + 1. The returned indices
// reference surviving rows of dets in descending score order.
func NMS(dets *tensor.Dense, threshold float32) ([]int, error) {
	if dets == nil {
		return nil, errors.New("dets tensor is nil")
	}
	if dets.Dtype() != Dtype {
		return nil, errors.Errorf("dets must have element type %v, got %v", Dtype, dets.Dtype())
	}
	shape := dets.Shape()
	if len(shape) != 2 || shape[1] != 5 {
		return nil, errors.Errorf("dets must have shape (boxes, 5), got %v", shape)
	}
	if shape[0] == 0 {
		return []int{}, nil
	}

	x1Owned, err := ownedColumn(dets, 0)
	if err != nil {
		return nil, err
	}
	y1Owned, err := ownedColumn(dets, 1)
	if err != nil {
		return nil, err
	}
	x2Owned, err := ownedColumn(dets, 2)
	if err != nil {
		return nil, err
	}
	y2Owned, err := ownedColumn(dets, 3)
	if err != nil {
		return nil, err
	}
	scoresOwned, err := ownedColumn(dets, 4)
	if err != nil {
		return nil, err
	}

	x2SubX1, err := x2Owned.Sub(x1Owned)
	if err != nil {
		return nil, err
	}
	y2SubY1, err := y2Owned.Sub(y1Owned)
	if err != nil {
		return nil, err
	}

	wPlus1, err := x2SubX1.AddScalar(float32(1), true)
	if err != nil {
		return nil, err
	}
	hPlus1, err := y2SubY1.AddScalar(float32(1), true)
	if err != nil {
		return nil, err
	}

	areasT, err := wPlus1.Mul(hPlus1)
	if err != nil {
		return nil, err
	}

	// Sort scores in descending order
	order, err := utils.ArgSortDescending(scoresOwned)
	if err != nil {
		return nil, err
	}

	x1 := x1Owned.Float32s()
	y1 := y1Owned.Float32s()
	x2 := x2Owned.Float32s()
	y2 := y2Owned.Float32s()
	areas := areasT.Float32s()

	keep := make([]int, 0, len(order))
	suppressed := make([]bool, shape[0])
	for idx, i := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, i)

		for _, j := range order[idx+1:] {
			if suppressed[j] {
				continue
			}
			xx1 := math32.Max(x1[i], x1[j])
			yy1 := math32.Max(y1[i], y1[j])
			xx2 := math32.Min(x2[i], x2[j])
			yy2 := math32.Min(y2[i], y2[j])

			w := math32.Max(xx2-xx1+1, 0)
			h := math32.Max(yy2-yy1+1, 0)
			inter := w * h

			union := areas[i] + areas[j] - inter
			if union <= 0 {
				continue
			}
			if inter/union > threshold {
				suppressed[j] = true
			}
		}
	}

	return keep, nil
}

func ownedColumn(dets *tensor.Dense, col int) (*tensor.Dense, error) {
	view, err := dets.Slice(nil, tensor.S(col))
	if err != nil {
		return nil, err
	}
	owned := tensor.New(
		tensor.Of(Dtype),
		tensor.WithShape(view.Shape()...),
	)
	if err := tensor.Copy(owned, view); err != nil {
		return nil, err
	}
	return owned, nil
}
