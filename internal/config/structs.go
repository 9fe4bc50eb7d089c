//nolint:lll
package config

// Config represents the complete configuration for the signscan application.
// It includes settings for all commands (detect, batch, evaluate, serve) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// PipelineConfig contains detection pipeline settings.
type PipelineConfig struct {
	// Model and inference settings
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Prediction decoding settings
	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`

	// Parallel processing
	Parallel ParallelConfig `mapstructure:"parallel" yaml:"parallel" json:"parallel"`

	// Warmup iterations
	WarmupIterations int `mapstructure:"warmup_iterations" yaml:"warmup_iterations" json:"warmup_iterations"`
}

// DetectorConfig contains ONNX inference settings.
type DetectorConfig struct {
	ModelPath    string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	CompactModel bool   `mapstructure:"compact_model" yaml:"compact_model" json:"compact_model"`
	InputSize    int    `mapstructure:"input_size" yaml:"input_size" json:"input_size"`
	NumThreads   int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// DecodeConfig contains prediction decoding settings.
type DecodeConfig struct {
	ClassNamesPath string  `mapstructure:"class_names_path" yaml:"class_names_path" json:"class_names_path"`
	TaxonomyPath   string  `mapstructure:"taxonomy_path" yaml:"taxonomy_path" json:"taxonomy_path"`
	AnchorsPath    string  `mapstructure:"anchors_path" yaml:"anchors_path" json:"anchors_path"`
	ScoreMode      string  `mapstructure:"score_mode" yaml:"score_mode" json:"score_mode"`
	ScoreThreshold float64 `mapstructure:"score_threshold" yaml:"score_threshold" json:"score_threshold"`
	IoUThreshold   float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	MaxDetections  int     `mapstructure:"max_detections" yaml:"max_detections" json:"max_detections"`
	PerClassNMS    bool    `mapstructure:"per_class_nms" yaml:"per_class_nms" json:"per_class_nms"`
}

// ParallelConfig contains parallel processing settings.
type ParallelConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool   `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}
