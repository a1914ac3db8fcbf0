package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultClasses lists the network outputs in index order.
var DefaultClasses = []string{
	"Pepper__bell___Bacterial_spot",
	"Pepper__bell___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Tomato_Bacterial_spot",
	"Tomato_Early_blight",
	"Tomato_Late_blight",
	"Tomato_Leaf_Mold",
	"Tomato_Septoria_leaf_spot",
	"Tomato_Spider_mites_Two_spotted_spider_mite",
	"Tomato__Target_Spot",
	"Tomato__Tomato_YellowLeaf__Curl_Virus",
	"Tomato__Tomato_mosaic_virus",
	"Tomato_healthy",
}

const UnknownDisease = "Unknown"

// Longest first: a name split at "__" must not be mistaken for "_".
var separators = []string{"___", "__", "_"}

// ParseClassName splits a class label into plant and disease at its first
// underscore, consuming the longest separator that starts there.
func ParseClassName(name string) (plant, disease string) {
	i := strings.Index(name, "_")
	if i < 0 {
		return name, UnknownDisease
	}
	for _, sep := range separators {
		if strings.HasPrefix(name[i:], sep) {
			plant = strings.ReplaceAll(name[:i], "_", " ")
			disease = strings.ReplaceAll(name[i+len(sep):], "_", " ")
			return plant, disease
		}
	}
	return name, UnknownDisease
}

func IsHealthy(disease string) bool {
	return strings.Contains(strings.ToLower(disease), "healthy")
}

// LoadClassNames reads a JSON array of class names. A missing file yields
// DefaultClasses.
func LoadClassNames(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultClasses...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return append([]string(nil), DefaultClasses...), nil
		}
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}

	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("failed to parse class names: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	for i, c := range classes {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("class name %d in %s is blank", i, path)
		}
	}
	return classes, nil
}

// WriteClassNames stores classes as an indented JSON array.
func WriteClassNames(path string, classes []string) error {
	data, err := json.MarshalIndent(classes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode class names: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write class names: %w", err)
	}
	return nil
}
