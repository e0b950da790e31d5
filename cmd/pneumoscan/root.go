package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Pragyan2004/pneumoscan/config"
	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/Pragyan2004/pneumoscan/predict/onnx"
	"github.com/Pragyan2004/pneumoscan/predict/tensorflow"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:           "pneumoscan",
	Short:         "Pneumonia detection on chest X-ray images",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(cfg.Level())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("[Main] ", err.Error())
		os.Exit(1)
	}
}

func init() {
	cfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
}

// openModel picks the runtime by file type: .onnx goes to ONNX Runtime,
// everything else (frozen graph or SavedModel directory) to TensorFlow.
func openModel(modelPath string, modelInfo datastructures.ModelInfo) (predict.Model, error) {
	if strings.EqualFold(filepath.Ext(modelPath), ".onnx") {
		return onnx.Opener(cfg.OnnxRuntimeLib)(modelPath, modelInfo)
	}
	return tensorflow.Open(modelPath, modelInfo)
}
