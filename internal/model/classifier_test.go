package model

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/plant-disease-api/internal/metrics"
	"github.com/Brownie44l1/plant-disease-api/internal/preprocess"
)

// meanPredictor puts all mass on the class picked by the mean red value, so
// different images map to different classes deterministically.
type meanPredictor struct {
	calls   atomic.Int32
	classes int
	err     error
}

func (p *meanPredictor) Predict(ctx context.Context, input []float32) ([]float32, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	if len(input) != 256*256*3 {
		return nil, errors.New("bad input length")
	}
	var sum float64
	for i := 0; i < len(input); i += 3 {
		sum += float64(input[i])
	}
	mean := sum / float64(len(input)/3)
	idx := int(math.Round(mean * float64(p.classes-1)))

	out := make([]float32, p.classes)
	for i := range out {
		out[i] = 0.1 / float32(p.classes-1)
	}
	out[idx] = 0.9
	return out, nil
}

func solidPNG(t *testing.T, r uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: r, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestClassify(t *testing.T) {
	p := &meanPredictor{classes: len(DefaultClasses)}
	c, err := NewClassifier(p, DefaultClasses, ClassifierOptions{})
	require.NoError(t, err)

	res, err := c.Classify(context.Background(), solidPNG(t, 255))
	require.NoError(t, err)
	assert.Equal(t, "Tomato_healthy", res.Prediction.Class)
	assert.True(t, res.Prediction.IsHealthy)
	assert.True(t, res.Reliable)
	assert.Len(t, res.TopPredictions, TopK)

	res, err = c.Classify(context.Background(), solidPNG(t, 0))
	require.NoError(t, err)
	assert.Equal(t, "Pepper__bell___Bacterial_spot", res.Prediction.Class)
	assert.Equal(t, "Pepper", res.Prediction.Plant)
}

func TestClassifyCache(t *testing.T) {
	m := metrics.New()
	p := &meanPredictor{classes: len(DefaultClasses)}
	c, err := NewClassifier(p, DefaultClasses, ClassifierOptions{CacheSize: 4, Metrics: m})
	require.NoError(t, err)

	img := solidPNG(t, 128)
	first, err := c.Classify(context.Background(), img)
	require.NoError(t, err)
	second, err := c.Classify(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), p.calls.Load())

	expected := `
# HELP plantdoc_prediction_cache_hits_total Predictions served from the in-memory cache
# TYPE plantdoc_prediction_cache_hits_total counter
plantdoc_prediction_cache_hits_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "plantdoc_prediction_cache_hits_total"))
}

func TestClassifyDeterministic(t *testing.T) {
	p := &meanPredictor{classes: len(DefaultClasses)}
	c, err := NewClassifier(p, DefaultClasses, ClassifierOptions{})
	require.NoError(t, err)

	img := solidPNG(t, 77)
	want, err := c.Classify(context.Background(), img)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Classify(context.Background(), img)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(9), p.calls.Load())
}

func TestClassifyErrors(t *testing.T) {
	p := &meanPredictor{classes: len(DefaultClasses)}
	c, err := NewClassifier(p, DefaultClasses, ClassifierOptions{CacheSize: 2})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), []byte("not an image"))
	var perr *preprocess.Error
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, int32(0), p.calls.Load())

	boom := errors.New("inference failed: boom")
	c, err = NewClassifier(&meanPredictor{classes: len(DefaultClasses), err: boom}, DefaultClasses, ClassifierOptions{})
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), solidPNG(t, 1))
	assert.ErrorIs(t, err, boom)

	c, err = NewClassifier(&meanPredictor{classes: 3}, DefaultClasses, ClassifierOptions{})
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), solidPNG(t, 1))
	assert.Error(t, err)
}

func TestNewClassifierValidation(t *testing.T) {
	_, err := NewClassifier(nil, DefaultClasses, ClassifierOptions{})
	assert.Error(t, err)

	_, err = NewClassifier(&meanPredictor{classes: 1}, nil, ClassifierOptions{})
	assert.Error(t, err)

	c, err := NewClassifier(&meanPredictor{classes: 15}, DefaultClasses, ClassifierOptions{})
	require.NoError(t, err)
	assert.Equal(t, 15, c.NumClasses())
	assert.NoError(t, c.Close())
}

func TestLoadMissingModel(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(LoadOptions{
		ModelPath:   filepath.Join(dir, "missing.onnx"),
		ClassesPath: filepath.Join(dir, "class_names.json"),
	})
	assert.Error(t, err)
}
