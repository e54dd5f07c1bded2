package models

import "time"

// FileError records a file that could not be read. The run continues
// without it.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

type AnalysisResult struct {
	Files            []string               `json:"files_analyzed"`
	Total            *CounterSet            `json:"total"`
	PerFile          map[string]*CounterSet `json:"per_file,omitempty"`
	Errors           []FileError            `json:"errors,omitempty"`
	AnalysisDuration time.Duration          `json:"analysis_duration"`
}

func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Files:   make([]string, 0),
		Total:   NewCounterSet(),
		PerFile: make(map[string]*CounterSet),
	}
}

func (ar *AnalysisResult) AddError(path string, err error) {
	ar.Errors = append(ar.Errors, FileError{Path: path, Err: err.Error()})
}

// Sum adds every per-file counter set together. For a complete run it
// equals Total.
func (ar *AnalysisResult) Sum() *CounterSet {
	sum := NewCounterSet()
	for _, path := range ar.Files {
		if set, ok := ar.PerFile[path]; ok {
			sum.Add(set)
		}
	}
	return sum
}
