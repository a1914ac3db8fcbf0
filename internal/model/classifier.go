package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
	"github.com/Brownie44l1/plant-disease-api/internal/preprocess"
)

// Predictor maps a normalized 1x256x256x3 tensor to class probabilities.
type Predictor interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

type ClassifierOptions struct {
	// CacheSize bounds the number of cached results; 0 disables the cache.
	CacheSize int
	Metrics   *metrics.Metrics
}

// Classifier is the immutable service context shared by all requests: the
// loaded network, its class list and a cache of finished results.
type Classifier struct {
	predictor Predictor
	classes   []string
	cache     *lru.Cache[string, *Result]
	metrics   *metrics.Metrics
}

func NewClassifier(predictor Predictor, classes []string, opts ClassifierOptions) (*Classifier, error) {
	if predictor == nil {
		return nil, errors.New("predictor must not be nil")
	}
	if len(classes) == 0 {
		return nil, errors.New("class list must not be empty")
	}

	c := &Classifier{
		predictor: predictor,
		classes:   append([]string(nil), classes...),
		metrics:   opts.Metrics,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create prediction cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Classes returns a copy of the class list in output index order.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

func (c *Classifier) NumClasses() int {
	return len(c.classes)
}

// Classify decodes an uploaded image and predicts its class. Identical
// uploads are answered from the cache since inference is deterministic.
func (c *Classifier) Classify(ctx context.Context, data []byte) (*Result, error) {
	var key string
	if c.cache != nil {
		sum := sha256.Sum256(data)
		key = hex.EncodeToString(sum[:])
		if res, ok := c.cache.Get(key); ok {
			c.metrics.CacheHit()
			c.metrics.ObservePrediction(res.Prediction.Class)
			return res, nil
		}
	}

	tensor, err := preprocess.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	res, err := c.ClassifyTensor(ctx, tensor)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(key, res)
	}
	return res, nil
}

func (c *Classifier) ClassifyTensor(ctx context.Context, tensor *preprocess.Tensor) (*Result, error) {
	start := time.Now()
	probs, err := c.predictor.Predict(ctx, tensor.Data)
	c.metrics.ObserveInference(time.Since(start))
	if err != nil {
		return nil, err
	}

	res, err := NewResult(probs, c.classes)
	if err != nil {
		return nil, err
	}
	c.metrics.ObservePrediction(res.Prediction.Class)
	return res, nil
}

// Close releases the predictor if it holds native resources.
func (c *Classifier) Close() error {
	if closer, ok := c.predictor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
