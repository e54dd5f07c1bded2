package analyzer

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sourcegraph/conc/pool"

	"phpmetrics/internal/config"
	"phpmetrics/internal/lexer"
	"phpmetrics/internal/models"
	"phpmetrics/internal/progress"
	"phpmetrics/internal/token"
)

// Analyzer runs the metrics pipeline over a set of files. Reading,
// tokenizing and class indexing run in parallel; counting runs in input
// order once indexing has finished for every file.
type Analyzer struct {
	config *config.Config
	source lexer.Source
	cache  *lexer.Cache
}

func New(cfg *config.Config) (*Analyzer, error) {
	source, err := lexer.New(cfg.Analysis.Tokenizer)
	if err != nil {
		return nil, err
	}
	a := &Analyzer{config: cfg, source: source}
	if cfg.Analysis.CacheSize > 0 {
		cache, err := lexer.NewCache(source, cfg.Analysis.CacheSize)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

// TokenizerName returns the name of the active token source.
func (a *Analyzer) TokenizerName() string {
	return a.source.Name()
}

// Close releases the token cache.
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

type sourceFile struct {
	path   string
	src    []byte
	tokens []token.Token
	err    error
}

// AnalyzeFiles counts every file. Unreadable files are recorded in the
// result and contribute no counters.
func (a *Analyzer) AnalyzeFiles(files []string) (*models.AnalysisResult, error) {
	startTime := time.Now()
	result := models.NewAnalysisResult()

	loaded := a.load(files)

	var hierarchy *ClassHierarchy
	if a.config.Analysis.CountTests {
		hierarchy = NewClassHierarchy(a.config.Analysis.TestBaseClasses)
		a.index(hierarchy, loaded)
		slog.Debug("indexed class hierarchy", "classes", hierarchy.Len())
	}

	extractor := NewMetricsExtractor(hierarchy, a.config.Analysis.Superglobals)
	for _, file := range loaded {
		if file.err != nil {
			slog.Warn("skipping unreadable file", "path", file.path, "error", file.err)
			result.AddError(file.path, file.err)
			continue
		}
		agg := NewAggregator(models.NewCounterSet(), result.Total)
		extractor.Extract(file.path, file.src, file.tokens, agg)
		result.Files = append(result.Files, file.path)
		result.PerFile[file.path] = agg.FinalizePerFile()
	}

	result.AnalysisDuration = time.Since(startTime)
	return result, nil
}

// load reads and tokenizes files in parallel, keeping input order.
func (a *Analyzer) load(files []string) []sourceFile {
	loaded := make([]sourceFile, len(files))

	var tracker *progress.Tracker
	if a.config.Output.Progress && len(files) > 0 {
		tracker = progress.NewTracker("Reading", len(files))
		defer tracker.Finish()
	}

	p := pool.New().WithMaxGoroutines(a.config.Analysis.MaxWorkers)
	for i, path := range files {
		p.Go(func() {
			defer tracker.Tick()
			src, err := os.ReadFile(path)
			if err != nil {
				loaded[i] = sourceFile{path: path, err: fmt.Errorf("failed to read %s: %w", path, err)}
				return
			}
			loaded[i] = sourceFile{path: path, src: src, tokens: a.tokenize(path, src)}
		})
	}
	p.Wait()
	return loaded
}

func (a *Analyzer) tokenize(path string, src []byte) []token.Token {
	if a.cache != nil {
		return a.cache.TokenizeFile(path, src)
	}
	return a.source.Tokenize(src)
}

// index fills the hierarchy from every readable file. It returns only
// after all files are committed.
func (a *Analyzer) index(hierarchy *ClassHierarchy, loaded []sourceFile) {
	p := pool.New().WithMaxGoroutines(a.config.Analysis.MaxWorkers)
	for _, file := range loaded {
		if file.err != nil {
			continue
		}
		p.Go(func() {
			hierarchy.Index(file.tokens)
		})
	}
	p.Wait()
}
