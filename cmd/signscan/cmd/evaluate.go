package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/dataset"
	"github.com/roadwatch-ai/signscan/internal/evaluate"
	"github.com/roadwatch-ai/signscan/internal/utils"
	"github.com/spf13/cobra"
)

// evaluateCmd represents the evaluate command.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score detections against ground-truth annotations",
	Long: `Run detection over an annotated dataset and report precision, recall
and F1 per class and overall.

Annotations are read from a CSV with columns
Filename;Annotation tag;Upper left corner X;Upper left corner Y;
Lower right corner X;Lower right corner Y. Predicted boxes match a
ground-truth box of the same label when their IoU reaches the matching
threshold.

Examples:
  signscan evaluate --annotations lisa/allAnnotations.csv --images-dir lisa
  signscan evaluate --annotations gt.csv --match-iou 0.6 --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		annotationsPath, _ := cmd.Flags().GetString("annotations")
		imagesDir, _ := cmd.Flags().GetString("images-dir")
		matchIoU, _ := cmd.Flags().GetFloat64("match-iou")
		format, _ := cmd.Flags().GetString("format")
		outputFile, _ := cmd.Flags().GetString("output")
		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")

		if annotationsPath == "" {
			return fmt.Errorf("--annotations is required")
		}
		if matchIoU <= 0 || matchIoU > 1 {
			return fmt.Errorf("match IoU must be in (0, 1], got %v", matchIoU)
		}
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be text or json)", format)
		}

		annotations, err := dataset.LoadAnnotations(annotationsPath)
		if err != nil {
			return err
		}
		byFile := dataset.GroupByFile(annotations)
		if imagesDir == "" {
			imagesDir = filepath.Dir(annotationsPath)
		}

		pl, err := GetConfig().NewPipelineBuilder().Build()
		if err != nil {
			return fmt.Errorf("failed to build detection pipeline: %w", err)
		}
		defer func() {
			if err := pl.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
			}
		}()

		files := make([]string, 0, len(byFile))
		for file := range byFile {
			files = append(files, file)
		}
		sort.Strings(files)

		report := evaluate.NewReport(matchIoU)
		skipped := 0
		for _, file := range files {
			img, _, err := utils.LoadImage(filepath.Join(imagesDir, file))
			if err != nil {
				if continueOnError {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", file, err)
					skipped++
					continue
				}
				return fmt.Errorf("failed to load %s: %w", file, err)
			}
			res, err := pl.ProcessImage(img)
			if err != nil {
				if continueOnError {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", file, err)
					skipped++
					continue
				}
				return fmt.Errorf("detection failed for %s: %w", file, err)
			}

			truths := make([]evaluate.GroundTruth, 0, len(byFile[file]))
			for _, a := range byFile[file] {
				truths = append(truths, evaluate.GroundTruth{Label: a.Label, Box: a.Box})
			}
			preds := make([]evaluate.Predicted, 0, len(res.Detections))
			for _, d := range res.Detections {
				preds = append(preds, evaluate.Predicted{
					Label: d.Label,
					Score: d.Score,
					Box: utils.NewBox(
						float64(d.Box.X1), float64(d.Box.Y1),
						float64(d.Box.X2), float64(d.Box.Y2)),
				})
			}
			report.AddImage(truths, preds)
		}

		output, err := formatReport(report, format, len(files), skipped)
		if err != nil {
			return err
		}
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputFile)
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), output)
		return err
	},
}

// formatReport renders an evaluation report as text or JSON.
func formatReport(report *evaluate.Report, format string, imageCount, skipped int) (string, error) {
	if format == outputFormatJSON {
		bts, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(bts) + "\n", nil
	}

	labels := make([]string, 0, len(report.PerClass))
	for label := range report.PerClass {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	fmt.Fprintf(&b, "Evaluation (IoU >= %.2f, %d images", report.IoUThreshold, imageCount)
	if skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", skipped)
	}
	b.WriteString(")\n\n")
	fmt.Fprintf(&b, "%-24s %6s %6s %6s %9s %9s\n", "class", "TP", "FP", "FN", "precision", "recall")
	for _, label := range labels {
		c := report.PerClass[label]
		fmt.Fprintf(&b, "%-24s %6d %6d %6d %9.4f %9.4f\n",
			label, c.TruePositives, c.FalsePositives, c.FalseNegatives, c.Precision(), c.Recall())
	}
	fmt.Fprintf(&b, "\nTotal: TP=%d FP=%d FN=%d\n",
		report.Total.TruePositives, report.Total.FalsePositives, report.Total.FalseNegatives)
	fmt.Fprintf(&b, "Precision: %.4f  Recall: %.4f  F1: %.4f\n",
		report.Precision(), report.Recall(), report.F1())
	return b.String(), nil
}

func addEvaluateFlags(cmd *cobra.Command) {
	cmd.Flags().String("annotations", "", "annotation CSV file (required)")
	cmd.Flags().String("images-dir", "", "directory containing the annotated images (default: annotation file's directory)")
	cmd.Flags().Float64("match-iou", 0.5, "IoU threshold for matching predictions to ground truth")
	cmd.Flags().StringP("format", "f", "text", "report format (text, json)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Bool("continue-on-error", false, "skip images that fail to load or process")
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	addEvaluateFlags(evaluateCmd)
}
