package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"phpmetrics/internal/analyzer"
	"phpmetrics/internal/config"
	"phpmetrics/internal/finder"
	"phpmetrics/internal/watcher"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	formatFlag         string
	watchFlag          bool
	configFlag         string
	generateConfigFlag bool
	countTestsFlag     bool
	logLevelFlag       string
	outputFlag         string
	workersFlag        int
	tokenizerFlag      string
	progressFlag       bool
	perFileFlag        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phpmetrics [files or directories]",
	Short: "Measure the size, complexity and structure of PHP code",
	Long: `phpmetrics walks the token stream of PHP source files and reports
lines of code, cyclomatic complexity and object-model statistics.

Examples:
  phpmetrics .                             # Analyze current directory
  phpmetrics src/ lib/Legacy.php           # Analyze specific paths
  phpmetrics --format=json --output=m.json # Detailed JSON report
  phpmetrics --count-tests .               # Separate PHPUnit test code
  phpmetrics --watch src/                  # Re-run on every change
  phpmetrics --generate-config             # Generate sample config file`,
	RunE: runAnalysis,
	// errors are printed by Execute
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (console, json, csv)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-run the analysis when files change")
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().BoolVar(&generateConfigFlag, "generate-config", false, "Generate sample configuration file")
	rootCmd.Flags().BoolVar(&countTestsFlag, "count-tests", false, "Detect test classes and test methods")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the report to a file")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel readers (default from config)")
	rootCmd.Flags().StringVar(&tokenizerFlag, "tokenizer", "", "Token source (native, treesitter)")
	rootCmd.Flags().BoolVar(&progressFlag, "progress", false, "Show a progress bar on stderr")
	rootCmd.Flags().BoolVar(&perFileFlag, "per-file", false, "Show metrics for every file")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	if generateConfigFlag {
		return generateConfig()
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Output.Colors {
		color.NoColor = true
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	if len(args) == 0 {
		args = []string{"."}
	}

	engine, err := analyzer.New(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := analyzePaths(engine, cfg, args); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}
	return watch(engine, cfg, args)
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if flags.Changed("count-tests") {
		cfg.Analysis.CountTests = countTestsFlag
	}
	if flags.Changed("log-level") {
		cfg.Output.LogLevel = logLevelFlag
	}
	if flags.Changed("output") {
		cfg.Output.OutputFile = outputFlag
	}
	if flags.Changed("workers") {
		cfg.Analysis.MaxWorkers = workersFlag
	}
	if flags.Changed("tokenizer") {
		cfg.Analysis.Tokenizer = tokenizerFlag
	}
	if flags.Changed("progress") {
		cfg.Output.Progress = progressFlag
	}
	if flags.Changed("per-file") {
		cfg.Output.PerFile = perFileFlag
	}
}

func analyzePaths(engine *analyzer.Analyzer, cfg *config.Config, paths []string) error {
	files, err := finder.Find(paths, cfg.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No PHP files found to analyze\n")
		return nil
	}

	// status lines go to stderr so reports can be piped
	if cfg.Output.Verbose {
		fmt.Fprint(os.Stderr, color.CyanString("Analyzing %d PHP files with the %s tokenizer...\n\n", len(files), engine.TokenizerName()))
	}

	result, err := engine.AnalyzeFiles(files)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report, err := analyzer.NewReportGeneratorWithConfig(cfg).Generate(result)
	if err != nil {
		return err
	}

	if cfg.Output.OutputFile != "" {
		if err := writeReportToFile(report, cfg.Output.OutputFile); err != nil {
			return fmt.Errorf("failed to write report to file: %w", err)
		}
		fmt.Fprint(os.Stderr, color.GreenString("Report saved to: %s\n", cfg.Output.OutputFile))
	} else {
		fmt.Print(report)
	}
	return nil
}

// watch re-runs the full analysis after each debounced batch of changes.
// Class indexing needs every file, so partial runs are not possible.
func watch(engine *analyzer.Analyzer, cfg *config.Config, paths []string) error {
	fw, err := watcher.NewFileWatcher(cfg)
	if err != nil {
		return err
	}
	defer fw.Close()

	// batches can overlap when a run outlasts the debounce delay
	var running sync.Mutex
	err = fw.Watch(paths, func(changed []string) error {
		running.Lock()
		defer running.Unlock()
		fmt.Fprint(os.Stderr, color.CyanString("\n%d file(s) changed, re-running analysis...\n\n", len(changed)))
		return analyzePaths(engine, cfg, paths)
	})
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stderr, color.CyanString("Watching for changes. Press Ctrl+C to stop.\n"))
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig() error {
	configPath := ".phpmetrics.yml"
	if err := config.GenerateConfig(configPath); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}
	color.Green("Generated sample configuration file: %s\n", configPath)
	color.Cyan("Edit this file to customize phpmetrics behavior\n")
	color.Cyan("Run 'phpmetrics --config=%s .' to use it\n", configPath)
	return nil
}
