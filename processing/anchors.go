package processing

import (
	"sort"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Dtype is the element type of every box, anchor, and delta tensor in the
// pipeline. Operations reject tensors of any other element type instead of
// converting silently.
var Dtype = tensor.Float32

type AnchorConfig struct {
	BaseSize int
	Ratios   []float32
	Scales   []float32
}

// GenerateAnchorsFPN builds one anchor template set per pyramid level,
// ordered by ascending feature stride. The configuration map is keyed by the
// decimal stride of each level.
func GenerateAnchorsFPN(cfg map[string]AnchorConfig) ([]*tensor.Dense, error) {
	featStrides := make([]int, 0)
	for k := range cfg {
		kAsInt, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid stride key %q", k)
		}
		featStrides = append(featStrides, kAsInt)
	}
	sort.Ints(featStrides)

	anchors := make([]*tensor.Dense, 0)
	for _, k := range featStrides {
		r, err := GenerateAnchors(cfg[strconv.Itoa(k)])
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, r)
	}
	return anchors, nil
}

// GenerateAnchors enumerates the base anchor templates for a single pyramid
// level. Templates are centered on the origin: for ratio r and scale s the
// box is w = base*s/sqrt(r) wide and h = w*r tall. The output has shape
// (len(ratios)*len(scales), 4) with ratios varying in the outer loop.
func GenerateAnchors(cfg AnchorConfig) (*tensor.Dense, error) {
	if cfg.BaseSize <= 0 {
		return nil, errors.Errorf("base size must be positive, got %d", cfg.BaseSize)
	}
	if len(cfg.Ratios) == 0 || len(cfg.Scales) == 0 {
		return nil, errors.Errorf("anchor config needs at least one ratio and one scale, got %d ratios and %d scales", len(cfg.Ratios), len(cfg.Scales))
	}

	numAnchors := len(cfg.Ratios) * len(cfg.Scales)
	backing := make([]float32, 0, numAnchors*4)
	for _, ratio := range cfg.Ratios {
		if ratio <= 0 {
			return nil, errors.Errorf("anchor ratio must be positive, got %v", ratio)
		}
		for _, scale := range cfg.Scales {
			if scale <= 0 {
				return nil, errors.Errorf("anchor scale must be positive, got %v", scale)
			}
			scaled := float32(cfg.BaseSize) * scale
			w := math32.Sqrt(scaled * scaled / ratio)
			h := w * ratio
			backing = append(backing, -0.5*w, -0.5*h, 0.5*w, 0.5*h)
		}
	}

	anchors := tensor.New(
		tensor.Of(Dtype),
		tensor.WithShape(numAnchors, 4),
		tensor.WithBacking(backing),
	)
	return anchors, nil
}
