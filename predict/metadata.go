package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"gopkg.in/yaml.v3"
)

// LoadModelInfo reads the metadata record that accompanies the model.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadModelInfo(path string) (datastructures.ModelInfo, error) {
	var modelInfo datastructures.ModelInfo

	data, err := os.ReadFile(path)
	if err != nil {
		return modelInfo, fmt.Errorf("couldn't read model info: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &modelInfo)
	default:
		err = json.Unmarshal(data, &modelInfo)
	}
	if err != nil {
		return modelInfo, fmt.Errorf("couldn't parse model info: %w", err)
	}

	if len(modelInfo.ClassNames) != 2 {
		return modelInfo, fmt.Errorf("expected 2 class names, got %d", len(modelInfo.ClassNames))
	}
	return modelInfo, nil
}

// TargetSize returns the width and height the model expects, taken from an
// input shape of the form (batch, height, width, channels). It falls back to
// DefaultTargetSize when the shape doesn't say.
func TargetSize(modelInfo *datastructures.ModelInfo) (int, int) {
	if modelInfo == nil || len(modelInfo.InputShape) != 4 {
		return DefaultTargetSize, DefaultTargetSize
	}
	h, w := modelInfo.InputShape[1], modelInfo.InputShape[2]
	if h == nil || w == nil || *h <= 0 || *w <= 0 {
		return DefaultTargetSize, DefaultTargetSize
	}
	return int(*w), int(*h)
}

// InputShape returns the concrete (1, height, width, 1) shape of a single
// preprocessed image.
func InputShape(modelInfo *datastructures.ModelInfo) []int64 {
	w, h := TargetSize(modelInfo)
	return []int64{1, int64(h), int64(w), 1}
}
