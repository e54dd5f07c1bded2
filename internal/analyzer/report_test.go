package analyzer

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phpmetrics/internal/config"
	"phpmetrics/internal/lexer"
	"phpmetrics/internal/models"
)

func sampleResult() *models.AnalysisResult {
	result := models.NewAnalysisResult()
	for _, f := range []struct{ path, src string }{
		{"src/a.php", "<?php\nclass A { public function f() { if ($x) {} } }\n"},
		{"src/b.php", "<?php\nfunction g() { return 1; }\n"},
	} {
		agg := NewAggregator(models.NewCounterSet(), result.Total)
		extractor := NewMetricsExtractor(nil, config.DefaultSuperglobals)
		tokens := lexer.NewNative().Tokenize([]byte(f.src))
		extractor.Extract(f.path, []byte(f.src), tokens, agg)
		result.Files = append(result.Files, f.path)
		result.PerFile[f.path] = agg.FinalizePerFile()
	}
	return result
}

func reportConfig(format string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.Format = format
	cfg.Output.Colors = false
	return cfg
}

func TestShapeIsSameForEveryLevel(t *testing.T) {
	result := sampleResult()
	total := Shape(result.Total)
	file := Shape(result.PerFile["src/a.php"])

	require.Equal(t, len(total), len(file))
	for i := range total {
		assert.Equal(t, total[i].Key, file[i].Key)
	}
}

func TestShapeValues(t *testing.T) {
	values := make(map[string]int)
	for _, m := range Shape(sampleResult().Total) {
		values[m.Key] = m.Value
	}

	assert.Equal(t, 2, values["files"])
	assert.Equal(t, 1, values["directories"])
	assert.Equal(t, 1, values["classes"])
	assert.Equal(t, 1, values["methods"])
	assert.Equal(t, 1, values["functions"])
	assert.Equal(t, 2, values["complexity"])
	assert.Equal(t, 1, values["methods_measured"])
}

func TestGenerateJSON(t *testing.T) {
	out, err := NewReportGeneratorWithConfig(reportConfig("json")).Generate(sampleResult())
	require.NoError(t, err)

	var report map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report, 3)
	require.Contains(t, report, "total")
	require.Contains(t, report, "src/a.php")
	require.Contains(t, report, "src/b.php")
	assert.EqualValues(t, 2, report["total"]["files"])
	assert.EqualValues(t, 1, report["src/b.php"]["named_functions"])
}

func TestGenerateCSV(t *testing.T) {
	out, err := NewReportGenerator("csv").Generate(sampleResult())
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"file", "files", "directories", "lines"}, rows[0][:4])
	assert.Equal(t, "src/a.php", rows[1][0])
	assert.Equal(t, "total", rows[3][0])
	assert.Equal(t, "2", rows[3][1])
	for _, row := range rows {
		assert.Len(t, row, len(rows[0]))
	}
}

func TestGenerateConsole(t *testing.T) {
	cfg := reportConfig("console")
	cfg.Output.PerFile = true
	result := sampleResult()
	result.AddError("src/broken.php", assert.AnError)

	out, err := NewReportGeneratorWithConfig(cfg).Generate(result)
	require.NoError(t, err)

	assert.Contains(t, out, "PHP Metrics Report")
	assert.Contains(t, out, "Cyclomatic Complexity")
	assert.Contains(t, out, "src/a.php")
	assert.Contains(t, out, "Unreadable files (1)")
	assert.NotContains(t, out, "Test Methods")

	cfg.Analysis.CountTests = true
	out, err = NewReportGeneratorWithConfig(cfg).Generate(result)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Methods")
}

func TestFillMetricsTablePropagatesRenderError(t *testing.T) {
	r := NewReportGeneratorWithConfig(reportConfig("console"))

	var out strings.Builder
	table := tablewriter.NewTable(&out, tablewriter.WithStreaming(tw.StreamConfig{Enable: true}))
	err := r.fillMetricsTable(table, sampleResult().Total)
	assert.Error(t, err)

	table = tablewriter.NewTable(&out)
	require.NoError(t, r.fillMetricsTable(table, sampleResult().Total))
	assert.Contains(t, out.String(), "Cyclomatic Complexity")
}
