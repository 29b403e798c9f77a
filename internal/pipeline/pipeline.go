// Package pipeline runs one upload through loading, summarizing and the
// recommendation request.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/edaloom/internal/ai"
	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// DefaultPreviewRows is used when Options.PreviewRows is zero.
const DefaultPreviewRows = 5

// Options controls a run.
type Options struct {
	// Sheet selects a workbook sheet by name; empty selects the first.
	Sheet       string
	ColumnTypes map[string]dataset.ColumnType
	MaxBytes    int64
	PreviewRows int
	// SkipAI leaves Outcome.Recommendation empty.
	SkipAI  bool
	Profile analysis.Options
}

// Preview is the JSON form of the leading rows.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Outcome is everything shown for one upload.
type Outcome struct {
	RunID          uuid.UUID                `json:"run_id"`
	FileName       string                   `json:"file_name"`
	Kind           dataset.Kind             `json:"kind"`
	Sheets         []string                 `json:"sheets,omitempty"`
	Sheet          string                   `json:"sheet,omitempty"`
	Preview        Preview                  `json:"preview"`
	Summary        analysis.Summary         `json:"summary"`
	Metrics        []analysis.Metric        `json:"metrics"`
	Profile        []analysis.ColumnProfile `json:"profile"`
	Recommendation ai.Result                `json:"recommendation"`

	previewTable *dataset.Table
}

// Run loads f, derives its summary and asks rec for recommendations. Load failures
// are returned as errors; recommendation failures are carried in the Outcome.
func Run(ctx context.Context, f dataset.UploadedFile, opt Options, rec ai.Recommender) (*Outcome, error) {
	out := &Outcome{RunID: uuid.New(), FileName: f.Name, Kind: f.Kind}
	log := slog.With("run_id", out.RunID.String(), "file", f.Name, "kind", string(f.Kind))
	start := time.Now()

	selector := dataset.SelectSheet(opt.Sheet)
	tbl, err := dataset.Load(f, dataset.Options{
		SheetSelector: func(names []string) (string, error) {
			out.Sheets = append([]string(nil), names...)
			return selector(names)
		},
		ColumnTypes: opt.ColumnTypes,
		MaxBytes:    opt.MaxBytes,
	})
	if err != nil {
		log.WarnContext(ctx, "load failed", "error", err)
		return nil, err
	}
	out.Sheet = tbl.Sheet
	if out.Sheets == nil && tbl.Sheet != "" {
		out.Sheets = []string{tbl.Sheet}
	}

	n := opt.PreviewRows
	if n <= 0 {
		n = DefaultPreviewRows
	}
	out.previewTable = tbl.Head(n)
	out.Preview = Preview{Columns: tbl.ColumnNames(), Rows: make([][]string, 0, out.previewTable.Rows())}
	for i := 0; i < out.previewTable.Rows(); i++ {
		out.Preview.Rows = append(out.Preview.Rows, out.previewTable.Row(i))
	}

	out.Summary = analysis.Summarize(tbl)
	out.Metrics = out.Summary.Metrics()
	popt := opt.Profile
	if popt == (analysis.Options{}) {
		popt = analysis.DefaultOptions()
	}
	out.Profile = analysis.Profile(tbl, popt)
	log.InfoContext(ctx, "dataset loaded", "rows", out.Summary.RowCount, "columns", out.Summary.ColumnCount, "sheet", out.Sheet)

	if !opt.SkipAI && rec != nil {
		out.Recommendation = rec.Recommend(ctx, out.Summary.Text())
		if out.Recommendation.Failed {
			log.WarnContext(ctx, "recommendation unavailable", "error", out.Recommendation.Err)
		}
	}
	log.InfoContext(ctx, "run complete", "elapsed", time.Since(start))
	return out, nil
}

// Report converts the outcome into a markdown report.
func (o *Outcome) Report() *analysis.Report {
	return &analysis.Report{
		Name:           o.FileName,
		Sheet:          o.Sheet,
		Preview:        o.previewTable,
		Summary:        o.Summary,
		Profile:        o.Profile,
		Recommendation: o.Recommendation.Text,
	}
}
