package predict

import (
	"fmt"
	"os"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	log "github.com/sirupsen/logrus"
)

// Model is a loaded binary classifier. Run takes a flattened
// (1, height, width, 1) tensor and returns P(pneumonia).
type Model interface {
	Run(input []float32) (float32, error)
	InputShape() []int64
	OutputShape() []int64
	Close()
}

// Opener opens the artifact at modelPath. Backends live in the
// predict/tensorflow and predict/onnx packages.
type Opener func(modelPath string, modelInfo datastructures.ModelInfo) (Model, error)

// Store holds the classifier and its metadata for the lifetime of the
// process. It is loaded once and never mutated afterwards.
type Store struct {
	model     Model
	modelInfo *datastructures.ModelInfo
}

// NewStore wraps an already opened model. A nil model or nil info yields a
// store that reports itself as not loaded.
func NewStore(model Model, modelInfo *datastructures.ModelInfo) *Store {
	if model == nil || modelInfo == nil {
		return &Store{}
	}
	return &Store{model: model, modelInfo: modelInfo}
}

// LoadStore reads the metadata file and opens the model. It never fails:
// any problem is logged and an unloaded store is returned.
func LoadStore(open Opener, modelPath string, modelInfoPath string) *Store {
	log.Info("[Model Store] Loading AI model...")

	if _, err := os.Stat(modelPath); err != nil {
		log.Error("[Model Store] Model file '", modelPath, "' not found!")
		return &Store{}
	}
	if _, err := os.Stat(modelInfoPath); err != nil {
		log.Error("[Model Store] Model info file '", modelInfoPath, "' not found!")
		return &Store{}
	}

	modelInfo, err := LoadModelInfo(modelInfoPath)
	if err != nil {
		log.Error("[Model Store] Couldn't load model info: ", err.Error())
		return &Store{}
	}

	model, err := openModel(open, modelPath, modelInfo)
	if err != nil {
		log.Error("[Model Store] Couldn't load model: ", err.Error())
		return &Store{}
	}

	log.Info("[Model Store] AI Model loaded successfully")
	log.Info("[Model Store] Model input shape: ", model.InputShape())
	log.Info("[Model Store] Model output shape: ", model.OutputShape())
	return &Store{model: model, modelInfo: &modelInfo}
}

func openModel(open Opener, modelPath string, modelInfo datastructures.ModelInfo) (model Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model = nil
			err = fmt.Errorf("opening model panicked: %v", r)
		}
	}()
	return open(modelPath, modelInfo)
}

func (s *Store) Loaded() bool {
	return s != nil && s.model != nil && s.modelInfo != nil
}

func (s *Store) Model() Model {
	if s == nil {
		return nil
	}
	return s.model
}

// Info returns the model metadata, or nil when nothing was loaded.
func (s *Store) Info() *datastructures.ModelInfo {
	if s == nil {
		return nil
	}
	return s.modelInfo
}

func (s *Store) Close() {
	if s != nil && s.model != nil {
		s.model.Close()
	}
}
