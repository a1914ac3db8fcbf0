package model

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
)

type LoadOptions struct {
	ModelPath   string
	ClassesPath string
	Session     SessionOptions
	CacheSize   int
	Metrics     *metrics.Metrics
}

// Load reads the class list and the ONNX model once and returns the
// classifier built on them.
func Load(opts LoadOptions) (*Classifier, error) {
	classes, err := LoadClassNames(opts.ClassesPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model file unavailable: %w", err)
	}

	logrus.WithField("path", opts.ModelPath).Info("Loading model")

	session, err := NewSession(opts.ModelPath, len(classes), opts.Session)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(session, classes, ClassifierOptions{
		CacheSize: opts.CacheSize,
		Metrics:   opts.Metrics,
	})
	if err != nil {
		session.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"classes":      len(classes),
		"input":        session.Metadata.InputName,
		"input_shape":  session.Metadata.InputShape,
		"output":       session.Metadata.OutputName,
		"output_shape": session.Metadata.OutputShape,
	}).Infof("Model loaded successfully with %d classes", len(classes))
	opts.Metrics.SetModelLoaded(true)

	return classifier, nil
}
