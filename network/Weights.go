package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Weights returns a deep copy of the network's parameters as nested
// numeric arrays: one matrix per learnable in layer order, weights
// before biases, each matrix as rows of columns. Biases are 1×n
// matrices. This is the shape consumed by the model export collaborator.
func (q *QNet) Weights() [][][]float64 {
	learnables := q.Learnables()
	out := make([][][]float64, len(learnables))

	for i, node := range learnables {
		shape := node.Shape()
		rows, cols := shape[0], shape[1]
		data := node.Value().Data().([]float64)

		matrix := make([][]float64, rows)
		for r := 0; r < rows; r++ {
			row := make([]float64, cols)
			copy(row, data[r*cols:(r+1)*cols])
			matrix[r] = row
		}
		out[i] = matrix
	}

	return out
}

// SetWeights restores the network's parameters from the nested-array
// shape produced by Weights. The input is validated in full before any
// parameter is touched: on error the network is unchanged.
func (q *QNet) SetWeights(weights [][][]float64) error {
	learnables := q.Learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("setweights: invalid number of weight matrices"+
			"\n\twant(%v)\n\thave(%v)", len(learnables), len(weights))
	}

	// Build every replacement tensor first so that a malformed matrix
	// is rejected before any live parameter changes
	replacements := make([]*tensor.Dense, len(learnables))
	for i, node := range learnables {
		shape := node.Shape()
		rows, cols := shape[0], shape[1]

		matrix := weights[i]
		if len(matrix) != rows {
			return fmt.Errorf("setweights: matrix %v (%v) has %v rows, "+
				"want %v", i, node.Name(), len(matrix), rows)
		}

		data := make([]float64, 0, rows*cols)
		for r, row := range matrix {
			if len(row) != cols {
				return fmt.Errorf("setweights: matrix %v (%v) row %v has "+
					"%v columns, want %v", i, node.Name(), r, len(row), cols)
			}
			data = append(data, row...)
		}

		replacements[i] = tensor.New(
			tensor.WithBacking(data),
			tensor.WithShape(rows, cols),
		)
	}

	for i, node := range learnables {
		if err := G.Let(node, replacements[i]); err != nil {
			return fmt.Errorf("setweights: could not set learnable %v: %v",
				node.Name(), err)
		}
	}

	return nil
}
