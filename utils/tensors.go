package utils

import (
	"fmt"
	"sort"

	"gorgonia.org/tensor"
)

// VStack concatenates tensors along axis 0. Empty tensors are skipped, and a
// single survivor is returned as a copy rather than handed to Concat.
func VStack(tensors []*tensor.Dense) (*tensor.Dense, error) {
	nonEmptyTensors := make([]*tensor.Dense, 0, len(tensors))
	for _, t := range tensors {
		if t.Shape()[0] > 0 {
			nonEmptyTensors = append(nonEmptyTensors, t)
		}
	}

	if len(nonEmptyTensors) == 0 {
		return tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 1)), nil
	}
	if len(nonEmptyTensors) == 1 {
		return nonEmptyTensors[0].Clone().(*tensor.Dense), nil
	}

	result, err := nonEmptyTensors[0].Concat(0, nonEmptyTensors[1:]...)
	if err != nil {
		return nil, fmt.Errorf("error concatenating tensors: %v", err)
	}

	return result, nil
}

// HStack concatenates tensors along axis 1, with the same empty handling as
// VStack.
func HStack(tensors []*tensor.Dense) (*tensor.Dense, error) {
	nonEmptyTensors := make([]*tensor.Dense, 0, len(tensors))
	for _, t := range tensors {
		if t.Shape()[0] > 0 {
			nonEmptyTensors = append(nonEmptyTensors, t)
		}
	}

	if len(nonEmptyTensors) == 0 {
		return tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 1)), nil
	}
	if len(nonEmptyTensors) == 1 {
		return nonEmptyTensors[0].Clone().(*tensor.Dense), nil
	}

	result, err := nonEmptyTensors[0].Concat(1, nonEmptyTensors[1:]...)
	if err != nil {
		return nil, fmt.Errorf("error concatenating tensors: %v", err)
	}

	return result, nil
}

// ArgSortDescending returns the indices that would sort a 1D tensor from the
// largest value to the smallest. The sort is not stable for ties.
func ArgSortDescending(t *tensor.Dense) ([]int, error) {
	shape := t.Shape()
	if len(shape) != 1 {
		return nil, fmt.Errorf("expected a 1D tensor, got shape %v", shape)
	}

	data := t.Data().([]float32)

	indices := make([]int, len(data))
	for i := range indices {
		indices[i] = i
	}

	sort.Slice(indices, func(i, j int) bool {
		return data[indices[i]] > data[indices[j]]
	})

	return indices, nil
}

// SelectRows2D gathers the given rows of a 2D tensor into a new tensor, in
// the order the indices appear. Indices may repeat.
func SelectRows2D(t *tensor.Dense, indices []int) (*tensor.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("expected a 2D tensor, got shape %v", shape)
	}
	numRows, numCols := shape[0], shape[1]

	selectedData := make([]float32, 0, len(indices)*numCols)
	for _, idx := range indices {
		if idx < 0 || idx >= numRows {
			return nil, fmt.Errorf("row index %d is out of bounds for %d rows", idx, numRows)
		}
		row, err := t.Slice(tensor.S(idx), nil)
		if err != nil {
			return nil, err
		}

		switch rowData := row.Data().(type) {
		case []float32:
			selectedData = append(selectedData, rowData...)
		case float32:
			selectedData = append(selectedData, rowData)
		default:
			return nil, fmt.Errorf("expected float32 rows, got %T", rowData)
		}
	}

	return tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(len(indices), numCols),
		tensor.WithBacking(selectedData),
	), nil
}
