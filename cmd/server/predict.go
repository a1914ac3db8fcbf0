package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Classify a local leaf image and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		classifier, err := model.Load(loadOptions(cfg, nil))
		if err != nil {
			return err
		}
		defer classifier.Close()

		result, err := classifier.Classify(cmd.Context(), data)
		if err != nil {
			return err
		}

		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
