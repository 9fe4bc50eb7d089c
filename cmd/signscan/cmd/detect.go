package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/pipeline"
	"github.com/roadwatch-ai/signscan/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect traffic signs in images",
	Long: `Process one or more image files and report detected traffic signs.

Supported formats: JPEG, PNG, BMP

Examples:
  signscan detect road.jpg
  signscan detect *.png --format json
  signscan detect frame.jpg --score-mode hier2 --output results.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		outputFile := cfg.Output.File
		overlayDir := cfg.Output.OverlayDir

		validFormats := []string{outputFormatText, outputFormatJSON, outputFormatCSV}
		isValidFormat := false
		for _, f := range validFormats {
			if format == f {
				isValidFormat = true
				break
			}
		}
		if !isValidFormat {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
		}

		pl, err := cfg.NewPipelineBuilder().Build()
		if err != nil {
			return fmt.Errorf("failed to build detection pipeline: %w", err)
		}
		defer func() {
			if err := pl.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
			}
		}()

		var outputs []string
		for _, pth := range args {
			if !utils.IsSupportedImage(pth) {
				return fmt.Errorf("unsupported image format: %s", pth)
			}
			img, meta, err := utils.LoadImage(pth)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", pth, err)
			}
			res, err := pl.ProcessImage(img)
			if err != nil {
				return fmt.Errorf("detection failed for %s: %w", pth, err)
			}

			if overlayDir != "" {
				if err := saveOverlay(cmd, img, res, meta.Path, overlayDir); err != nil {
					return err
				}
			}

			out, err := formatImageResult(res, meta.Path, format, len(args) > 1)
			if err != nil {
				return err
			}
			outputs = append(outputs, out)
		}

		final := strings.Join(outputs, "\n")
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), final)
		return err
	},
}

// formatImageResult renders one image's detections in the requested format.
func formatImageResult(res *pipeline.ImageResult, path, format string, multi bool) (string, error) {
	switch format {
	case outputFormatJSON:
		obj := struct {
			File       string                `json:"file"`
			Detections *pipeline.ImageResult `json:"detections"`
		}{File: path, Detections: res}
		bts, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(bts), nil
	case outputFormatCSV:
		s, err := pipeline.ToCSVImage(res)
		if err != nil {
			return "", fmt.Errorf("format csv failed: %w", err)
		}
		if multi {
			s = "# " + path + "\n" + s
		}
		return s, nil
	default:
		pipeline.SortDetectionsTopLeft(res)
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %d detection(s)\n", path, len(res.Detections))
		for _, d := range res.Detections {
			fmt.Fprintf(&b, "  %s %.4f (%d,%d)-(%d,%d)\n",
				d.Label, d.Score, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
		}
		return b.String(), nil
	}
}

// saveOverlay renders detection boxes onto the source image and writes a PNG
// into overlayDir named after the source file.
func saveOverlay(cmd *cobra.Command, img image.Image, res *pipeline.ImageResult, srcPath, overlayDir string) error {
	overlay := pipeline.RenderOverlay(img, res)
	if overlay == nil {
		return nil
	}
	if err := os.MkdirAll(overlayDir, 0o750); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	outPath := filepath.Join(overlayDir, base+"_overlay.png")
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error closing overlay file: %v\n", cerr)
		}
	}()
	if err := png.Encode(f, overlay); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

func addDetectFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64("confidence", 0.5, "minimum detection score threshold (0..1)")
	cmd.Flags().Float64("iou-threshold", 0.5, "NMS overlap threshold (0..1)")
	cmd.Flags().Int("max-detections", 10, "maximum detections kept per image")
	cmd.Flags().Bool("per-class-nms", false, "suppress overlaps per class instead of globally")
	cmd.Flags().String("score-mode", "flat", "class scoring mode (flat, hier1, hier2)")
	cmd.Flags().String("model", "", "override detection model path (defaults to organized models path)")
	cmd.Flags().Bool("compact", false, "use the compact (tiny) model variant")
	cmd.Flags().Int("input-size", 608, "square network input size in pixels")
	cmd.Flags().String("classes", "", "override class names file path")
	cmd.Flags().String("taxonomy", "", "override taxonomy file path (hierarchical modes)")
	cmd.Flags().String("anchors", "", "override anchor priors file path")
	cmd.Flags().String("overlay-dir", "", "directory to write overlay images (drawn boxes)")
	cmd.Flags().Int("threads", 0, "CPU threads for inference (0=auto)")

	// GPU acceleration flags
	cmd.Flags().Bool("gpu", false, "enable GPU acceleration using CUDA")
	cmd.Flags().Int("gpu-device", 0, "CUDA device ID to use (default: 0)")
	cmd.Flags().String("gpu-mem-limit", "auto", "GPU memory limit (e.g., '2GB', '512MB', 'auto')")
}

// bindDetectFlags binds detect flags to viper configuration keys.
func bindDetectFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"output.overlay_dir", "overlay-dir"},
		{"pipeline.decode.score_threshold", "confidence"},
		{"pipeline.decode.iou_threshold", "iou-threshold"},
		{"pipeline.decode.max_detections", "max-detections"},
		{"pipeline.decode.per_class_nms", "per-class-nms"},
		{"pipeline.decode.score_mode", "score-mode"},
		{"pipeline.decode.class_names_path", "classes"},
		{"pipeline.decode.taxonomy_path", "taxonomy"},
		{"pipeline.decode.anchors_path", "anchors"},
		{"pipeline.detector.model_path", "model"},
		{"pipeline.detector.compact_model", "compact"},
		{"pipeline.detector.input_size", "input-size"},
		{"pipeline.detector.num_threads", "threads"},
		{"gpu.enabled", "gpu"},
		{"gpu.device", "gpu-device"},
		{"gpu.memory_limit", "gpu-mem-limit"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)

	addDetectFlags(detectCmd)
	bindDetectFlags(detectCmd)
}
