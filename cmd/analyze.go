package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	cfgpkg "github.com/KaramelBytes/edaloom/internal/config"
	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/pipeline"
	"github.com/KaramelBytes/edaloom/internal/utils"
)

var (
	anaOutputPath  string
	anaSheetName   string
	anaKind        string
	anaTypes       []string
	anaJSON        bool
	anaNoAI        bool
	anaNoProfile   bool
	anaPreviewRows int
	anaTopValues   int
	anaOutliers    bool
	anaOutlierThr  float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize a CSV, JSON or XLSX file and request analysis recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readUpload(args[0], anaKind, cfg.MaxUploadBytes())
		if err != nil {
			return err
		}
		types, err := columnTypes(anaTypes)
		if err != nil {
			return err
		}

		opt := pipeline.Options{
			Sheet:       anaSheetName,
			ColumnTypes: types,
			MaxBytes:    cfg.MaxUploadBytes(),
			PreviewRows: cfg.PreviewRows,
			SkipAI:      anaNoAI,
			Profile:     analysis.DefaultOptions(),
		}
		if cmd.Flags().Changed("preview-rows") {
			opt.PreviewRows = anaPreviewRows
		}
		if anaTopValues > 0 {
			opt.Profile.TopValues = anaTopValues
		}
		opt.Profile.Outliers = anaOutliers
		if anaOutlierThr > 0 {
			opt.Profile.OutlierThreshold = anaOutlierThr
		}

		rec := buildRecommender()
		out, err := pipeline.Run(cmd.Context(), f, opt, rec)
		if err != nil {
			return err
		}
		if anaNoProfile {
			out.Profile = nil
		}

		var body []byte
		if anaJSON {
			if body, err = utils.PrettyJSON(out); err != nil {
				return err
			}
		} else {
			body = []byte(out.Report().Markdown())
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
		}
		if out.Recommendation.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", out.Recommendation.Text)
		}
		return nil
	},
}

// readUpload reads path into an upload, refusing oversized files before reading them.
func readUpload(path, kind string, maxBytes int64) (dataset.UploadedFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return dataset.UploadedFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	f := dataset.UploadedFile{Name: filepath.Base(path), Size: st.Size()}
	if err := dataset.CheckSize(f, maxBytes); err != nil {
		return f, err
	}
	if f.Content, err = os.ReadFile(path); err != nil {
		return f, fmt.Errorf("read %s: %w", path, err)
	}
	if f.Kind, err = dataset.ResolveKind(kind, f.Name, f.Content); err != nil {
		return f, err
	}
	return f, nil
}

// columnTypes merges the configured column_types with --type flags; flags win.
func columnTypes(flags []string) (map[string]dataset.ColumnType, error) {
	merged := cfgpkg.Global{ColumnTypes: map[string]string{}}
	for k, v := range cfg.ColumnTypes {
		merged.ColumnTypes[k] = v
	}
	for _, pair := range flags {
		m, err := cfgpkg.ParseColumnTypes(pair)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			merged.ColumnTypes[k] = v
		}
	}
	return merged.ColumnTypeMap()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name to analyze (default first sheet)")
	analyzeCmd.Flags().StringVar(&anaKind, "kind", "", "file kind: csv|json|xlsx (default from extension)")
	analyzeCmd.Flags().StringArrayVar(&anaTypes, "type", nil, "force a column type as name=type (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit the full outcome as JSON instead of Markdown")
	analyzeCmd.Flags().BoolVar(&anaNoAI, "no-ai", false, "skip the recommendation request")
	analyzeCmd.Flags().BoolVar(&anaNoProfile, "no-profile", false, "omit the per-column profile from the output")
	analyzeCmd.Flags().IntVar(&anaPreviewRows, "preview-rows", 5, "number of preview rows")
	analyzeCmd.Flags().IntVar(&anaTopValues, "top-values", 0, "most frequent values listed per text column (default 8)")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
