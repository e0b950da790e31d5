// Package tensorflow runs the classifier through the TensorFlow C API. A
// directory is loaded as a SavedModel, a file as a frozen GraphDef.
package tensorflow

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	log "github.com/sirupsen/logrus"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	DefaultInputNode  = "input"
	DefaultOutputNode = "output"
	SavedModelTag     = "serve"
)

type Model struct {
	graph      *tf.Graph
	session    *tf.Session
	input      tf.Output
	output     tf.Output
	inputShape []int64
}

// Open satisfies predict.Opener.
func Open(modelPath string, modelInfo datastructures.ModelInfo) (predict.Model, error) {
	fi, err := os.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't stat model: %w", err)
	}

	m := &Model{inputShape: predict.InputShape(&modelInfo)}
	opts := &tf.SessionOptions{Config: sessionConfig()}

	if fi.IsDir() {
		saved, err := tf.LoadSavedModel(modelPath, []string{SavedModelTag}, opts)
		if err != nil {
			return nil, fmt.Errorf("couldn't load saved model: %w", err)
		}
		m.graph = saved.Graph
		m.session = saved.Session
	} else {
		// Load the serialized GraphDef from a file.
		model, err := os.ReadFile(modelPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read model: %w", err)
		}

		// Construct an in-memory graph from the serialized form.
		m.graph = tf.NewGraph()
		if err := m.graph.Import(model, ""); err != nil {
			return nil, fmt.Errorf("couldn't construct graph: %w", err)
		}

		// Create a session for inference over graph.
		m.session, err = tf.NewSession(m.graph, opts)
		if err != nil {
			return nil, fmt.Errorf("couldn't start session: %w", err)
		}
	}

	inputNode := modelInfo.InputNode
	if inputNode == "" {
		inputNode = DefaultInputNode
	}
	outputNode := modelInfo.OutputNode
	if outputNode == "" {
		outputNode = DefaultOutputNode
	}

	if m.input, err = lookup(m.graph, inputNode); err != nil {
		m.Close()
		return nil, err
	}
	if m.output, err = lookup(m.graph, outputNode); err != nil {
		m.Close()
		return nil, err
	}

	log.Debug("[Tensorflow] Graph loaded, input ", inputNode, ", output ", outputNode)
	return m, nil
}

// sessionConfig returns a serialized ConfigProto that pins both
// intra_op_parallelism_threads (2) and inter_op_parallelism_threads (5) to 1.
func sessionConfig() []byte {
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	return b
}

// lookup resolves "name" or "name:index" to a graph output.
func lookup(graph *tf.Graph, node string) (tf.Output, error) {
	name, index := node, 0
	if i := strings.LastIndex(node, ":"); i > 0 {
		n, err := strconv.Atoi(node[i+1:])
		if err == nil {
			name, index = node[:i], n
		}
	}

	op := graph.Operation(name)
	if op == nil {
		return tf.Output{}, fmt.Errorf("operation %q not found in graph", name)
	}
	if index >= op.NumOutputs() {
		return tf.Output{}, fmt.Errorf("operation %q has no output %d", name, index)
	}
	return op.Output(index), nil
}

func (m *Model) Run(input []float32) (float32, error) {
	tensor, err := m.makeTensor(input)
	if err != nil {
		return 0, err
	}

	output, err := m.session.Run(
		map[tf.Output]*tf.Tensor{
			m.input: tensor,
		},
		[]tf.Output{
			m.output,
		},
		nil)
	if err != nil {
		return 0, fmt.Errorf("couldn't run image prediction: %w", err)
	}
	if len(output) == 0 {
		return 0, fmt.Errorf("model returned no output")
	}

	// output[0].Value() holds one probability per image in the batch. The
	// batch size is 1.
	switch v := output[0].Value().(type) {
	case [][]float32:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], nil
		}
	case []float32:
		if len(v) > 0 {
			return v[0], nil
		}
	case float32:
		return v, nil
	}
	return 0, fmt.Errorf("unexpected model output %T", output[0].Value())
}

// makeTensor builds the 4-dimensional input:
// - 1st dimension: batch size, always 1
// - 2nd dimension: rows of the image
// - 3rd dimension: columns of the row
// - 4th dimension: the single gray channel
func (m *Model) makeTensor(input []float32) (*tf.Tensor, error) {
	h, w := int(m.inputShape[1]), int(m.inputShape[2])
	if len(input) != h*w {
		return nil, fmt.Errorf("expected %d input values, got %d", h*w, len(input))
	}

	ret := make([][][][]float32, 1)
	ret[0] = make([][][]float32, h)
	for y := 0; y < h; y++ {
		ret[0][y] = make([][]float32, w)
		for x := 0; x < w; x++ {
			ret[0][y][x] = []float32{input[y*w+x]}
		}
	}
	return tf.NewTensor(ret)
}

func (m *Model) InputShape() []int64 {
	return m.inputShape
}

func (m *Model) OutputShape() []int64 {
	shape, err := m.output.Shape().ToSlice()
	if err != nil {
		return nil
	}
	return shape
}

func (m *Model) Close() {
	if m.session != nil {
		m.session.Close()
	}
}
