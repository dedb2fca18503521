// Package network implements the neural value networks used by the
// agent, built on Gorgonia
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     func(*G.Node) (*G.Node, error)
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.weights))

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))

	if f.act == nil {
		return x, nil
	}
	return f.act(x)
}

// QNet is a multi-layered perceptron mapping a state feature vector to
// one predicted value per action: a single hidden ReLU layer followed
// by a linear output layer. Each QNet owns its computational graph; an
// external VM runs the graph after SetInput.
type QNet struct {
	g      *G.ExprGraph
	input  *G.Node
	layers []*fcLayer

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	model      []G.ValueGrad

	batchSize int
	features  int
	hidden    int
	outputs   int
}

// NewQNet creates a new QNet with the given input feature count, hidden
// layer width, number of action outputs, and input batch size. The init
// parameter determines the weight initialization scheme; biases start
// at zero.
func NewQNet(features, hidden, outputs, batchSize int,
	init G.InitWFn) (*QNet, error) {
	if features < 1 || hidden < 1 || outputs < 1 || batchSize < 1 {
		return nil, fmt.Errorf("newqnet: dimensions must be positive, have "+
			"features=%v hidden=%v outputs=%v batch=%v", features, hidden,
			outputs, batchSize)
	}

	g := G.NewGraph()

	input := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batchSize, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	hiddenLayer := &fcLayer{
		weights: G.NewMatrix(g, tensor.Float64,
			G.WithShape(features, hidden),
			G.WithName("L0.W"),
			G.WithInit(init),
		),
		bias: G.NewMatrix(g, tensor.Float64,
			G.WithShape(1, hidden),
			G.WithName("L0.B"),
			G.WithInit(G.Zeroes()),
		),
		act: G.Rectify,
	}

	outLayer := &fcLayer{
		weights: G.NewMatrix(g, tensor.Float64,
			G.WithShape(hidden, outputs),
			G.WithName("L1.W"),
			G.WithInit(init),
		),
		bias: G.NewMatrix(g, tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName("L1.B"),
			G.WithInit(G.Zeroes()),
		),
		act: nil,
	}

	net := &QNet{
		g:         g,
		input:     input,
		layers:    []*fcLayer{hiddenLayer, outLayer},
		batchSize: batchSize,
		features:  features,
		hidden:    hidden,
		outputs:   outputs,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newqnet: could not compute forward pass: %v",
			err)
	}

	return net, nil
}

// fwd performs the forward pass of the QNet on the input node and
// captures the prediction value
func (q *QNet) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return nil
}

// Graph returns the computational graph of the QNet
func (q *QNet) Graph() *G.ExprGraph {
	return q.g
}

// BatchSize returns the batch size of inputs to the network
func (q *QNet) BatchSize() int {
	return q.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input
func (q *QNet) Features() int {
	return q.features
}

// Hidden returns the width of the hidden layer
func (q *QNet) Hidden() int {
	return q.hidden
}

// Outputs returns the number of action values the network predicts
func (q *QNet) Outputs() int {
	return q.outputs
}

// SetInput sets the value of the input node before running the forward
// pass
func (q *QNet) SetInput(input []float64) error {
	if len(input) != q.features*q.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", q.features*q.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.batchSize, q.features),
	)
	return G.Let(q.input, inputTensor)
}

// Set sets the weights of the QNet to a deep copy of the weights of
// source. The copy is structurally independent: later updates to source
// do not affect the receiver.
func (q *QNet) Set(source *QNet) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: mismatched learnables\n\twant(%v)"+
			"\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, node := range nodes {
		value, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: learnable %v holds no dense value",
				sourceNodes[i].Name())
		}

		if err := G.Let(node, value.Clone().(*tensor.Dense)); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v",
				node.Name(), err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes in the QNet
func (q *QNet) Learnables() G.Nodes {
	// Lazy instantiation
	if q.learnables == nil {
		q.learnables = make(G.Nodes, 0, 2*len(q.layers))
		for _, l := range q.layers {
			q.learnables = append(q.learnables, l.weights, l.bias)
		}
	}
	return q.learnables
}

// Model returns the learnable nodes with their gradients
func (q *QNet) Model() []G.ValueGrad {
	// Lazy instantiation
	if q.model == nil {
		q.model = make([]G.ValueGrad, 0, 2*len(q.layers))
		for _, node := range q.Learnables() {
			q.model = append(q.model, node)
		}
	}
	return q.model
}

// Output returns the value of the prediction node from the last run of
// the network's graph, as a flat row-major slice of batchSize×outputs
// action values
func (q *QNet) Output() []float64 {
	if q.predVal == nil {
		return nil
	}
	return q.predVal.Data().([]float64)
}

// Prediction returns the node of the computational graph that stores
// the output of the QNet
func (q *QNet) Prediction() *G.Node {
	return q.prediction
}
