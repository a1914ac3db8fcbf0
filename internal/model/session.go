package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/plant-disease-api/internal/preprocess"
)

type SessionOptions struct {
	// LibraryPath points at the onnxruntime shared library; empty uses the
	// platform default lookup.
	LibraryPath    string
	IntraOpThreads int
}

// Session runs the exported network through ONNX Runtime. Tensors are
// allocated per call, so one Session serves concurrent requests.
type Session struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
	classes  int
}

func initEnvironment(opts SessionOptions) error {
	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if ort.IsInitialized() {
		return nil
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func inspect(modelPath string) (Metadata, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read model inputs and outputs: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return Metadata{}, fmt.Errorf("expected a model with one input and one output, got %d and %d", len(inputs), len(outputs))
	}
	return Metadata{
		InputName:   inputs[0].Name,
		OutputName:  outputs[0].Name,
		InputShape:  []int64(inputs[0].Dimensions),
		OutputShape: []int64(outputs[0].Dimensions),
	}, nil
}

// ReadMetadata reports the declared input and output of a model file without
// keeping a session open.
func ReadMetadata(modelPath string, opts SessionOptions) (Metadata, error) {
	if err := initEnvironment(opts); err != nil {
		return Metadata{}, err
	}
	defer ort.DestroyEnvironment()
	return inspect(modelPath)
}

func NewSession(modelPath string, numClasses int, opts SessionOptions) (*Session, error) {
	if err := initEnvironment(opts); err != nil {
		return nil, err
	}

	metadata, err := inspect(modelPath)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}
	if err := metadata.Validate(numClasses); err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOptions.Destroy()
	if opts.IntraOpThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			ort.DestroyEnvironment()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		sessionOptions)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		session:  session,
		Metadata: metadata,
		classes:  numClasses,
	}, nil
}

// Predict runs one forward pass over a 1x256x256x3 input and returns the
// class probabilities.
func (s *Session) Predict(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if want := preprocess.Height * preprocess.Width * preprocess.Channels; len(input) != want {
		return nil, fmt.Errorf("expected %d input values, got %d", want, len(input))
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(preprocess.Shape...), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(s.classes)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return append([]float32(nil), outputTensor.GetData()...), nil
}

func (s *Session) Close() error {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return ort.DestroyEnvironment()
}

// Validate checks the declared shapes against the NHWC preprocessing output
// and the class list. Dynamic dimensions (-1 or 0) match anything.
func (m Metadata) Validate(numClasses int) error {
	if len(m.InputShape) != 4 {
		return fmt.Errorf("model input %q has rank %d, want 4 (NHWC)", m.InputName, len(m.InputShape))
	}
	want := preprocess.Shape
	for i := 1; i < 4; i++ {
		if !dimMatches(m.InputShape[i], want[i]) {
			return fmt.Errorf("model input %q has shape %v, want %v", m.InputName, m.InputShape, want)
		}
	}
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("model output %q has no dimensions", m.OutputName)
	}
	if width := m.OutputShape[len(m.OutputShape)-1]; !dimMatches(width, int64(numClasses)) {
		return fmt.Errorf("model outputs %d classes but %d class names are configured", width, numClasses)
	}
	return nil
}

func dimMatches(got, want int64) bool {
	return got <= 0 || got == want
}
