package cmd

import (
	"errors"
	"fmt"

	"github.com/roadwatch-ai/signscan/internal/batch"
	"github.com/roadwatch-ai/signscan/internal/config"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Detect traffic signs in many images at once",
	Long: `Process multiple image files or whole directories and report detected
traffic signs for each image.

Directories are scanned for supported image files (JPEG, PNG, BMP).
A .csv argument is treated as an image-path list, one path per row.
Use --recursive to descend into subdirectories and --include/--exclude
to filter file names with glob patterns.

Examples:
  signscan batch ./frames
  signscan batch ./frames --recursive --include "*.jpg"
  signscan batch test_images.csv --format csv --output results.csv
  signscan batch ./frames --workers 8 --stats`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		batchConfig, err := buildBatchConfig(GetConfig(), cmd)
		if err != nil {
			return err
		}

		result, err := batch.ProcessBatch(args, batchConfig)
		if err != nil {
			return fmt.Errorf("batch processing failed: %w", err)
		}

		if err := result.SaveResults(batchConfig.Format, batchConfig.OutputFile, batchConfig.Quiet); err != nil {
			return err
		}

		if batchConfig.ShowStats {
			result.PrintStats(batchConfig.Quiet)
		}
		return nil
	},
}

// buildBatchConfig maps the resolved configuration to a batch.Config,
// letting command line flags override config file values.
func buildBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	flags := cmd.Flags()
	bc := &batch.Config{ModelsDir: cfg.ModelsDir}

	bc.Format = cfg.Output.Format
	if flags.Changed("format") {
		bc.Format, _ = flags.GetString("format")
	}
	switch bc.Format {
	case outputFormatText, outputFormatJSON, outputFormatCSV:
	default:
		return nil, errors.New("invalid output format: " + bc.Format)
	}

	bc.OutputFile = cfg.Output.File
	if flags.Changed("output") {
		bc.OutputFile, _ = flags.GetString("output")
	}

	bc.OverlayDir = cfg.Output.OverlayDir
	if flags.Changed("overlay-dir") {
		bc.OverlayDir, _ = flags.GetString("overlay-dir")
	}

	bc.ModelPath = cfg.Pipeline.Detector.ModelPath
	if flags.Changed("model") {
		bc.ModelPath, _ = flags.GetString("model")
	}

	bc.CompactModel = cfg.Pipeline.Detector.CompactModel
	if flags.Changed("compact") {
		bc.CompactModel, _ = flags.GetBool("compact")
	}

	bc.InputSize = cfg.Pipeline.Detector.InputSize
	if flags.Changed("input-size") {
		bc.InputSize, _ = flags.GetInt("input-size")
	}

	bc.ClassNamesPath = cfg.Pipeline.Decode.ClassNamesPath
	if flags.Changed("classes") {
		bc.ClassNamesPath, _ = flags.GetString("classes")
	}

	bc.TaxonomyPath = cfg.Pipeline.Decode.TaxonomyPath
	if flags.Changed("taxonomy") {
		bc.TaxonomyPath, _ = flags.GetString("taxonomy")
	}

	bc.AnchorsPath = cfg.Pipeline.Decode.AnchorsPath
	if flags.Changed("anchors") {
		bc.AnchorsPath, _ = flags.GetString("anchors")
	}

	bc.ScoreMode = cfg.Pipeline.Decode.ScoreMode
	if flags.Changed("score-mode") {
		bc.ScoreMode, _ = flags.GetString("score-mode")
	}

	bc.Confidence = cfg.Pipeline.Decode.ScoreThreshold
	if flags.Changed("confidence") {
		bc.Confidence, _ = flags.GetFloat64("confidence")
	}

	bc.IoUThreshold = cfg.Pipeline.Decode.IoUThreshold
	if flags.Changed("iou-threshold") {
		bc.IoUThreshold, _ = flags.GetFloat64("iou-threshold")
	}

	bc.MaxDetections = cfg.Pipeline.Decode.MaxDetections
	if flags.Changed("max-detections") {
		bc.MaxDetections, _ = flags.GetInt("max-detections")
	}

	bc.PerClassNMS = cfg.Pipeline.Decode.PerClassNMS
	if flags.Changed("per-class-nms") {
		bc.PerClassNMS, _ = flags.GetBool("per-class-nms")
	}

	bc.Workers = cfg.Batch.Workers
	if flags.Changed("workers") {
		bc.Workers, _ = flags.GetInt("workers")
	}

	bc.Threads = cfg.Pipeline.Detector.NumThreads
	if flags.Changed("threads") {
		bc.Threads, _ = flags.GetInt("threads")
	}

	bc.Recursive = cfg.Batch.Recursive
	if flags.Changed("recursive") {
		bc.Recursive, _ = flags.GetBool("recursive")
	}

	bc.ContinueOnFail = cfg.Batch.ContinueOnError
	if flags.Changed("continue-on-error") {
		bc.ContinueOnFail, _ = flags.GetBool("continue-on-error")
	}

	bc.GPU = cfg.GPU.Enabled
	if flags.Changed("gpu") {
		bc.GPU, _ = flags.GetBool("gpu")
	}

	bc.GPUDevice = cfg.GPU.Device
	if flags.Changed("gpu-device") {
		bc.GPUDevice, _ = flags.GetInt("gpu-device")
	}

	bc.GPUMemoryStr = cfg.GPU.MemoryLimit
	if flags.Changed("gpu-mem-limit") {
		bc.GPUMemoryStr, _ = flags.GetString("gpu-mem-limit")
	}

	// Flags not backed by config file keys.
	bc.IncludePatterns, _ = flags.GetStringSlice("include")
	bc.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	bc.Quiet, _ = flags.GetBool("quiet")
	bc.ShowStats, _ = flags.GetBool("stats")
	bc.ShowProgress, _ = flags.GetBool("progress")
	bc.WarmupOnStart, _ = flags.GetBool("warmup")

	if bc.Quiet {
		bc.ShowProgress = false
	}
	return bc, nil
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64("confidence", 0.5, "minimum detection score threshold (0..1)")
	cmd.Flags().Float64("iou-threshold", 0.5, "NMS overlap threshold (0..1)")
	cmd.Flags().Int("max-detections", 10, "maximum detections kept per image")
	cmd.Flags().Bool("per-class-nms", false, "suppress overlaps per class instead of globally")
	cmd.Flags().String("score-mode", "flat", "class scoring mode (flat, hier1, hier2)")
	cmd.Flags().String("model", "", "override detection model path")
	cmd.Flags().Bool("compact", false, "use the compact (tiny) model variant")
	cmd.Flags().Int("input-size", 608, "square network input size in pixels")
	cmd.Flags().String("classes", "", "override class names file path")
	cmd.Flags().String("taxonomy", "", "override taxonomy file path (hierarchical modes)")
	cmd.Flags().String("anchors", "", "override anchor priors file path")
	cmd.Flags().String("overlay-dir", "", "directory to write overlay images (drawn boxes)")
	cmd.Flags().Int("threads", 0, "CPU threads for inference (0=auto)")

	cmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	cmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	cmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	cmd.Flags().Bool("continue-on-error", false, "keep processing after a failed image")
	cmd.Flags().Bool("warmup", false, "run a warmup inference before processing")
	cmd.Flags().BoolP("quiet", "q", false, "suppress progress and status output")
	cmd.Flags().Bool("stats", false, "print processing statistics")
	cmd.Flags().Bool("progress", true, "show progress while processing")

	// GPU acceleration flags
	cmd.Flags().Bool("gpu", false, "enable GPU acceleration using CUDA")
	cmd.Flags().Int("gpu-device", 0, "CUDA device ID to use (default: 0)")
	cmd.Flags().String("gpu-mem-limit", "auto", "GPU memory limit (e.g., '2GB', '512MB', 'auto')")
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addBatchFlags(batchCmd)
}
