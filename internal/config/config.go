package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfigFile  = "config.yaml"
	DefaultModelPath   = "models/plant_disease_model.onnx"
	DefaultClassesPath = "models/class_names.json"
)

type Config struct {
	Port           string   `json:"port"`
	ModelPath      string   `json:"modelPath"`
	ClassesPath    string   `json:"classesPath"`
	OnnxLibPath    string   `json:"onnxLibPath"`
	IntraOpThreads int      `json:"intraOpThreads"`
	CacheSize      int      `json:"cacheSize"`
	MaxUploadMB    int      `json:"maxUploadMB"`
	LogLevel       string   `json:"logLevel"`
	LogFormat      string   `json:"logFormat"`
	CORSOrigins    []string `json:"corsOrigins"`
}

func Default() *Config {
	return &Config{
		Port:        "5000",
		ModelPath:   DefaultModelPath,
		ClassesPath: DefaultClassesPath,
		CacheSize:   128,
		MaxUploadMB: 10,
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. An empty path falls back to CONFIG_FILE and then
// to config.yaml in the working directory; only an explicitly named file is
// required to exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	required := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
		required = path != ""
	}
	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.readFile(path, required); err != nil {
		return nil, err
	}
	if err := cfg.readEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) readEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.ModelPath = getEnv("MODEL_PATH", c.ModelPath)
	c.ClassesPath = getEnv("CLASSES_PATH", c.ClassesPath)
	c.OnnxLibPath = getEnv("ONNXRUNTIME_LIB", c.OnnxLibPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	var err error
	if c.IntraOpThreads, err = getEnvInt("INTRA_OP_THREADS", c.IntraOpThreads); err != nil {
		return err
	}
	if c.CacheSize, err = getEnvInt("CACHE_SIZE", c.CacheSize); err != nil {
		return err
	}
	if c.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must not be empty")
	}
	if c.ModelPath == "" {
		return errors.New("model path must not be empty")
	}
	if c.IntraOpThreads < 0 {
		return fmt.Errorf("intra-op threads must not be negative, got %d", c.IntraOpThreads)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
