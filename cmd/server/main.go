package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/config"
	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "plantdoc",
	Short:         "Plant disease prediction API",
	Long:          "Serves a leaf image classifier that reports the plant species and disease over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default $CONFIG_FILE or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, classesCmd, predictCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("plantdoc failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	cfg.ConfigureLogging()
	return cfg, nil
}

func loadOptions(cfg *config.Config, m *metrics.Metrics) model.LoadOptions {
	return model.LoadOptions{
		ModelPath:   cfg.ModelPath,
		ClassesPath: cfg.ClassesPath,
		Session: model.SessionOptions{
			LibraryPath:    cfg.OnnxLibPath,
			IntraOpThreads: cfg.IntraOpThreads,
		},
		CacheSize: cfg.CacheSize,
		Metrics:   m,
	}
}
