package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/edaloom/internal/ai"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

type recorder struct {
	summary string
	result  ai.Result
	calls   int
}

func (r *recorder) Recommend(_ context.Context, summary string) ai.Result {
	r.calls++
	r.summary = summary
	return r.result
}

func csvUpload(body string) dataset.UploadedFile {
	return dataset.UploadedFile{Name: "d.csv", Kind: dataset.KindCSV, Content: []byte(body)}
}

func TestRunCSV(t *testing.T) {
	rec := &recorder{result: ai.Result{Text: "Plot a vs b."}}
	out, err := Run(context.Background(), csvUpload("a,b\n1,x\n2,y\n"), Options{}, rec)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, out.RunID)
	assert.Equal(t, 2, out.Summary.RowCount)
	assert.Equal(t, 2, out.Summary.ColumnCount)
	assert.Equal(t, "a, b", out.Summary.ColumnNames())
	assert.Equal(t, []string{"a", "b"}, out.Preview.Columns)
	assert.Equal(t, [][]string{{"1", "x"}, {"2", "y"}}, out.Preview.Rows)
	assert.Empty(t, out.Sheets)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, out.Summary.Text(), rec.summary)
	assert.Equal(t, "Plot a vs b.", out.Recommendation.Text)
	assert.Len(t, out.Metrics, 5)

	md := out.Report().Markdown()
	assert.Contains(t, md, "[RECOMMENDATIONS]")
	assert.Contains(t, md, "| 1 | x |")
}

func TestRunPreviewLimitAndSkipAI(t *testing.T) {
	body := "n\n" + strings.Repeat("1\n", 20)
	rec := &recorder{}
	out, err := Run(context.Background(), csvUpload(body), Options{PreviewRows: 3, SkipAI: true}, rec)
	require.NoError(t, err)
	assert.Len(t, out.Preview.Rows, 3)
	assert.Equal(t, 20, out.Summary.RowCount)
	assert.Zero(t, rec.calls)
	assert.Empty(t, out.Recommendation.Text)
}

func TestRunLoadErrorsSkipRecommendation(t *testing.T) {
	rec := &recorder{}
	f := csvUpload("a\n1\n")
	f.Size = dataset.DefaultMaxBytes + 1
	_, err := Run(context.Background(), f, Options{}, rec)
	assert.True(t, errors.Is(err, dataset.ErrFileTooLarge))
	assert.Zero(t, rec.calls)
}

func TestRunRecommendationFailureKeepsSummary(t *testing.T) {
	rec := ai.Unavailable(errors.New("no API key configured"))
	out, err := Run(context.Background(), csvUpload("a\n1\n"), Options{}, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.RowCount)
	assert.True(t, out.Recommendation.Failed)
	assert.True(t, strings.HasPrefix(out.Recommendation.Text, ai.ErrorPrefix))
}

func TestRunWorkbookSheets(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	_, err := wb.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"x"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{1}))
	require.NoError(t, wb.SetSheetRow("Second", "A1", &[]any{"y", "z"}))
	require.NoError(t, wb.SetSheetRow("Second", "A2", &[]any{"p", "q"}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	f := dataset.UploadedFile{Name: "b.xlsx", Kind: dataset.KindXLSX, Content: buf.Bytes()}

	out, err := Run(context.Background(), f, Options{SkipAI: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Second"}, out.Sheets)
	assert.Equal(t, "Sheet1", out.Sheet)

	out, err = Run(context.Background(), f, Options{Sheet: "Second", SkipAI: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Second", out.Sheet)
	assert.Equal(t, []string{"y", "z"}, out.Preview.Columns)
}
