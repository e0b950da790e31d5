// Package onnx runs the classifier with ONNX Runtime.
package onnx

import (
	"fmt"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	DefaultInputNode  = "input"
	DefaultOutputNode = "output"
)

type Model struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputShape   []int64
	outputShape  []int64
}

// Opener returns a predict.Opener. libraryPath points at the onnxruntime
// shared library; empty means the platform default.
func Opener(libraryPath string) predict.Opener {
	return func(modelPath string, modelInfo datastructures.ModelInfo) (predict.Model, error) {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		return Open(modelPath, modelInfo)
	}
}

func Open(modelPath string, modelInfo datastructures.ModelInfo) (predict.Model, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	m := &Model{
		inputShape:  predict.InputShape(&modelInfo),
		outputShape: []int64{1, 1},
	}

	inputNode := modelInfo.InputNode
	if inputNode == "" {
		inputNode = DefaultInputNode
	}
	outputNode := modelInfo.OutputNode
	if outputNode == "" {
		outputNode = DefaultOutputNode
	}

	var err error
	m.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(m.inputShape...))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	m.outputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(m.outputShape...))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(1); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	m.session, err = ort.NewAdvancedSession(modelPath,
		[]string{inputNode}, []string{outputNode},
		[]ort.ArbitraryTensor{m.inputTensor}, []ort.ArbitraryTensor{m.outputTensor},
		options)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return m, nil
}

func (m *Model) Run(input []float32) (float32, error) {
	data := m.inputTensor.GetData()
	if len(input) != len(data) {
		return 0, fmt.Errorf("expected %d input values, got %d", len(data), len(input))
	}
	copy(data, input)

	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	out := m.outputTensor.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("model returned no output")
	}
	return out[0], nil
}

func (m *Model) InputShape() []int64 {
	return m.inputShape
}

func (m *Model) OutputShape() []int64 {
	return m.outputShape
}

func (m *Model) Close() {
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
}
