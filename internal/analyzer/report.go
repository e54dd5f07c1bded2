package analyzer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"phpmetrics/internal/config"
	"phpmetrics/internal/models"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ReportGenerator handles formatting and displaying analysis results
type ReportGenerator struct {
	format string
	config *config.Config
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(format string) *ReportGenerator {
	cfg := config.DefaultConfig()
	cfg.Output.Format = format
	return NewReportGeneratorWithConfig(cfg)
}

func NewReportGeneratorWithConfig(cfg *config.Config) *ReportGenerator {
	return &ReportGenerator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from analysis results
func (r *ReportGenerator) Generate(result *models.AnalysisResult) (string, error) {
	switch r.format {
	case "json":
		return r.generateJSON(result)
	case "csv":
		return r.generateCSV(result)
	default:
		return r.generateConsole(result)
	}
}

// Metric is one reported value. Every counter set, total or per file,
// shapes into the same list.
type Metric struct {
	Section string
	Key     string
	Label   string
	Value   int
}

// Shape flattens a counter set into report rows. Name sets report their
// number of distinct names; samples are left to consumers.
func Shape(c *models.CounterSet) []Metric {
	return []Metric{
		{"Size", "files", "Files", c.Files},
		{"Size", "directories", "Directories", len(c.Directories)},
		{"Size", "lines", "Lines of Code (LOC)", c.Lines},
		{"Size", "comment_lines", "Comment Lines of Code (CLOC)", c.CommentLines},
		{"Size", "logical_lines", "Logical Lines of Code (LLOC)", c.LogicalLines},
		{"Size", "function_lines", "Function Lines", c.FunctionLines},

		{"Complexity", "complexity", "Cyclomatic Complexity", c.Complexity},
		{"Complexity", "classes_measured", "Classes Measured", len(c.ClassComplexity)},
		{"Complexity", "methods_measured", "Methods Measured", len(c.MethodComplexity)},

		{"Structure", "namespaces", "Namespaces", len(c.Namespaces)},
		{"Structure", "interfaces", "Interfaces", c.Interfaces},
		{"Structure", "traits", "Traits", c.Traits},
		{"Structure", "classes", "Classes", c.Classes()},
		{"Structure", "abstract_classes", "  Abstract Classes", c.AbstractClasses},
		{"Structure", "final_classes", "  Final Classes", c.FinalClasses},
		{"Structure", "non_final_classes", "  Non-Final Classes", c.NonFinalClasses},
		{"Structure", "methods", "Methods", c.Methods()},
		{"Structure", "static_methods", "  Static Methods", c.StaticMethods},
		{"Structure", "non_static_methods", "  Non-Static Methods", c.NonStaticMethods},
		{"Structure", "public_methods", "  Public Methods", c.PublicMethods},
		{"Structure", "protected_methods", "  Protected Methods", c.ProtectedMethods},
		{"Structure", "private_methods", "  Private Methods", c.PrivateMethods},
		{"Structure", "functions", "Functions", c.Functions()},
		{"Structure", "named_functions", "  Named Functions", c.NamedFunctions},
		{"Structure", "anonymous_functions", "  Anonymous Functions", c.AnonymousFunctions},
		{"Structure", "global_constants", "Global Constants", c.GlobalConstants},
		{"Structure", "public_class_constants", "Public Class Constants", c.PublicClassConstants},
		{"Structure", "non_public_class_constants", "Non-Public Class Constants", c.NonPublicClassConstants},

		{"Dependencies", "global_variable_accesses", "Global Variable Accesses", c.GlobalVariableAccesses},
		{"Dependencies", "super_global_variable_accesses", "Super-Global Variable Accesses", c.SuperGlobalVariableAccesses},
		{"Dependencies", "static_attribute_accesses", "Static Attribute Accesses", c.StaticAttributeAccesses},
		{"Dependencies", "non_static_attribute_accesses", "Non-Static Attribute Accesses", c.NonStaticAttributeAccesses},
		{"Dependencies", "static_method_calls", "Static Method Calls", c.StaticMethodCalls},
		{"Dependencies", "non_static_method_calls", "Non-Static Method Calls", c.NonStaticMethodCalls},
		{"Dependencies", "possible_constant_accesses", "Possible Constant Names", len(c.PossibleConstantAccesses)},

		{"Tests", "test_classes", "Test Classes", c.TestClasses},
		{"Tests", "test_methods", "Test Methods", c.TestMethods},
	}
}

// generateJSON creates the detailed JSON report: the total under "total"
// and one entry per file keyed by its path relative to the working directory.
func (r *ReportGenerator) generateJSON(result *models.AnalysisResult) (string, error) {
	report := make(map[string]*models.CounterSet, len(result.Files)+1)
	report["total"] = result.Total
	for _, path := range result.Files {
		report[displayPath(path)] = result.PerFile[path]
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON report: %w", err)
	}
	return string(data) + "\n", nil
}

// generateCSV writes one row per file followed by a total row.
func (r *ReportGenerator) generateCSV(result *models.AnalysisResult) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"file"}
	for _, m := range Shape(result.Total) {
		header = append(header, m.Key)
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := func(name string, set *models.CounterSet) error {
		record := []string{name}
		for _, m := range Shape(set) {
			record = append(record, strconv.Itoa(m.Value))
		}
		return w.Write(record)
	}
	for _, path := range result.Files {
		if err := row(displayPath(path), result.PerFile[path]); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	if err := row("total", result.Total); err != nil {
		return "", fmt.Errorf("failed to write CSV row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to generate CSV report: %w", err)
	}
	return buf.String(), nil
}

// generateConsole creates a colorized console report
func (r *ReportGenerator) generateConsole(result *models.AnalysisResult) (string, error) {
	var report strings.Builder

	useColors := r.config.Output.Colors
	verbose := r.config.Output.Verbose

	// Header
	if useColors {
		report.WriteString(color.CyanString("PHP Metrics Report\n"))
		report.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		report.WriteString("PHP Metrics Report\n")
		report.WriteString("=======================================\n\n")
	}

	if verbose {
		r.writeConfigInfo(&report, useColors)
	}

	if err := r.writeMetricsTable(&report, "Total", result.Total, useColors); err != nil {
		return "", err
	}

	if r.config.Output.PerFile {
		for _, path := range result.Files {
			if err := r.writeMetricsTable(&report, displayPath(path), result.PerFile[path], useColors); err != nil {
				return "", err
			}
		}
	}

	if len(result.Errors) > 0 {
		r.writeErrors(&report, result.Errors, useColors)
	}

	// Footer
	if useColors {
		report.WriteString(color.WhiteString("Analysis of %d files completed in %s\n", len(result.Files), result.AnalysisDuration))
	} else {
		report.WriteString(fmt.Sprintf("Analysis of %d files completed in %s\n", len(result.Files), result.AnalysisDuration))
	}

	return report.String(), nil
}

func (r *ReportGenerator) writeConfigInfo(report *strings.Builder, useColors bool) {
	tests := "off"
	if r.config.Analysis.CountTests {
		tests = "on"
	}
	if useColors {
		report.WriteString(color.WhiteString("Configuration:\n"))
		report.WriteString(fmt.Sprintf("   Tokenizer: %s\n", color.CyanString(r.config.Analysis.Tokenizer)))
		report.WriteString(fmt.Sprintf("   Test detection: %s\n", color.CyanString(tests)))
	} else {
		report.WriteString("Configuration:\n")
		report.WriteString(fmt.Sprintf("   Tokenizer: %s\n", r.config.Analysis.Tokenizer))
		report.WriteString(fmt.Sprintf("   Test detection: %s\n", tests))
	}
	report.WriteString("\n")
}

func (r *ReportGenerator) writeMetricsTable(report *strings.Builder, title string, set *models.CounterSet, useColors bool) error {
	if useColors {
		report.WriteString(color.New(color.Bold).Sprintln(title))
	} else {
		report.WriteString(title + "\n")
	}
	report.WriteString(strings.Repeat("─", 50) + "\n")

	table := tablewriter.NewTable(report,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight}},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)

	if err := r.fillMetricsTable(table, set); err != nil {
		return fmt.Errorf("failed to render %s table: %w", title, err)
	}
	report.WriteString("\n")
	return nil
}

// fillMetricsTable writes one row per metric, naming each section once,
// and renders the table.
func (r *ReportGenerator) fillMetricsTable(table *tablewriter.Table, set *models.CounterSet) error {
	table.Header([]string{"Section", "Metric", "Value"})
	section := ""
	for _, m := range Shape(set) {
		if m.Section == "Tests" && !r.config.Analysis.CountTests {
			continue
		}
		name := ""
		if m.Section != section {
			section = m.Section
			name = section
		}
		if err := table.Append([]string{name, m.Label, strconv.Itoa(m.Value)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func (r *ReportGenerator) writeErrors(report *strings.Builder, errs []models.FileError, useColors bool) {
	if useColors {
		report.WriteString(color.RedString("Unreadable files (%d):\n", len(errs)))
	} else {
		report.WriteString(fmt.Sprintf("Unreadable files (%d):\n", len(errs)))
	}
	for _, e := range errs {
		report.WriteString(fmt.Sprintf("   %s: %s\n", displayPath(e.Path), e.Err))
	}
	report.WriteString("\n")
}

// displayPath returns path relative to the working directory when possible.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
