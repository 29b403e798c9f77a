package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/pipeline"
	"github.com/KaramelBytes/edaloom/internal/utils"
)

var (
	abOutDir    string
	abSheetName string
	abTypes     []string
	abJSON      bool
	abNoAI      bool
	abKeepGoing bool
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze several files (globs allowed) and write one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		types, err := columnTypes(abTypes)
		if err != nil {
			return err
		}
		opt := pipeline.Options{
			Sheet:       abSheetName,
			ColumnTypes: types,
			MaxBytes:    cfg.MaxUploadBytes(),
			PreviewRows: cfg.PreviewRows,
			SkipAI:      abNoAI,
			Profile:     analysis.DefaultOptions(),
		}
		rec := buildRecommender()
		w := cmd.OutOrStdout()

		total, failed := len(files), 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			f, err := readUpload(path, "", cfg.MaxUploadBytes())
			if err == nil {
				var out *pipeline.Outcome
				if out, err = pipeline.Run(cmd.Context(), f, opt, rec); err == nil {
					err = writeBatchReport(w, path, out)
				}
			}
			if err != nil {
				if !abKeepGoing {
					return fmt.Errorf("%s: %w", path, err)
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipped %s: %v\n", filepath.Base(path), err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func writeBatchReport(w io.Writer, path string, out *pipeline.Outcome) error {
	var body []byte
	ext := ".md"
	if abJSON {
		b, err := utils.PrettyJSON(out)
		if err != nil {
			return err
		}
		body, ext = b, ".json"
	} else {
		body = []byte(out.Report().Markdown())
	}
	if abOutDir == "" {
		if !abQuiet {
			fmt.Fprintln(w, string(body))
		}
		return nil
	}
	outFile := reportPath(abOutDir, path, out.Sheet, ext)
	if err := utils.SafeWriteFile(outFile, body); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if !abQuiet {
		fmt.Fprintf(w, "✓ Wrote %s\n", outFile)
	}
	return nil
}

// reportPath names a report after its input (plus sheet when present) and adds a
// numeric suffix instead of overwriting an existing report.
func reportPath(dir, input, sheet, ext string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if ss := slug(sheet); ss != "" {
		name += "__sheet-" + ss
	}
	out := filepath.Join(dir, name+ext)
	if _, err := os.Stat(out); err != nil {
		return out
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", name, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutDir, "out-dir", "o", "", "directory for per-file reports (default prints to stdout)")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet", "", "XLSX: sheet name to analyze (default first sheet)")
	analyzeBatchCmd.Flags().StringArrayVar(&abTypes, "type", nil, "force a column type as name=type (repeatable)")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "write JSON outcomes instead of Markdown")
	analyzeBatchCmd.Flags().BoolVar(&abNoAI, "no-ai", false, "skip recommendation requests")
	analyzeBatchCmd.Flags().BoolVar(&abKeepGoing, "keep-going", false, "continue past files that fail to load")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
