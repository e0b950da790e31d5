package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/Pragyan2004/pneumoscan/chart"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/spf13/cobra"
)

var chartOut string

var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Classify a single chest X-ray image and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := predict.LoadStore(openModel, cfg.ModelPath, cfg.ModelInfoPath)
		defer store.Close()

		outcome := predict.NewPredictor(store).Predict(args[0])
		if !outcome.Success() {
			return errors.New(outcome.Status)
		}

		if chartOut != "" {
			encoded, err := chart.Render(outcome.Confidence)
			if err != nil {
				return err
			}
			png, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return err
			}
			if err := os.WriteFile(chartOut, png, 0644); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"class_name": outcome.Label,
			"confidence": predict.Percent(outcome.Confidence),
			"timestamp":  outcome.Timestamp.Format(time.RFC3339),
		})
	},
}

func init() {
	predictCmd.Flags().StringVar(&chartOut, "chart", "", "Write the confidence chart PNG to this file")
}
