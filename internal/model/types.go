package model

// ConfidenceThreshold is the minimum top-1 confidence for a reliable result.
const ConfidenceThreshold = 0.7

// TopK is the number of ranked classes reported with every result.
const TopK = 5

type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
}

type Prediction struct {
	Class      string  `json:"class"`
	Plant      string  `json:"plant"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
	Percentage string  `json:"percentage"`
	IsHealthy  bool    `json:"is_healthy"`
}

type TopPrediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Percentage string  `json:"percentage"`
}

type Result struct {
	Index               int             `json:"-"`
	Prediction          Prediction      `json:"prediction"`
	TopPredictions      []TopPrediction `json:"top_predictions"`
	ConfidenceThreshold float64         `json:"confidence_threshold"`
	Reliable            bool            `json:"reliable"`
}
