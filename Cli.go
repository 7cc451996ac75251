package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/reaandrew/fxcopbridge/config"
	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/reporters"
	"github.com/reaandrew/fxcopbridge/reportstorage"
	"github.com/reaandrew/fxcopbridge/repositories"
	"github.com/reaandrew/fxcopbridge/scanners"
	"github.com/reaandrew/fxcopbridge/tools"
	"github.com/reaandrew/fxcopbridge/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli represents the command-line interface
type Cli struct {
	configFile  string
	logLevel    string
	project     string
	root        string
	ruleFiles   []string
	sources     []string
	reportFmt   string
	outputDir   string
	baseUrl     string
	storage     string
	encoding    string
	strictLines bool
	noProgress  bool

	assemblies []string
	ruleSets   []string
	executable string
	output     string

	repository string
}

// Execute sets up and runs the root command
func (cli *Cli) Execute() error {
	return cli.newRootCommand().Execute()
}

func (cli *Cli) newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fxcopbridge",
		Short:         "fxcopbridge imports FxCop analysis reports as findings.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cli.configFile, "config", "", "Configuration file (default: .fxcopbridge.yaml in the current or home directory)")
	rootCmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(cli.createImportCommand())
	rootCmd.AddCommand(cli.createAnalyzeCommand())
	rootCmd.AddCommand(cli.createRulesCommand())
	return rootCmd
}

func (cli *Cli) addImportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&cli.project, "project", "", "Name of the project the reports belong to")
	flags.StringVar(&cli.root, "root", "", "Directory searched for *.csproj projects")
	flags.StringSliceVar(&cli.ruleFiles, "rules", nil, "Additional rule set files (YAML or TOML)")
	flags.StringSliceVar(&cli.sources, "sources", nil, "Directories indexed for C# type declarations")
	flags.StringVar(&cli.reportFmt, "report", "", "Report format (supported: json, xlsx, sarif, http)")
	flags.StringVar(&cli.outputDir, "output-dir", "", "Directory the report artifacts are written to")
	flags.StringVar(&cli.baseUrl, "baseurl", "", "Http report base url")
	flags.StringVar(&cli.storage, "storage", "", "Finding storage (supported: file, sqlite, bolt)")
	flags.StringVar(&cli.encoding, "encoding", "", "Character set used to read reports, overriding the XML declaration")
	flags.BoolVar(&cli.strictLines, "strict-lines", false, "Fail a report with an invalid line number instead of dropping the line")
	flags.BoolVar(&cli.noProgress, "no-progress", false, "Do not show a progress bar")
}

func (cli *Cli) createImportCommand() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import [REPORT|DIRECTORY]...",
		Short: "Import FxCop XML reports (directories are searched for *fxcop*.xml, defaults to CWD).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current working directory: %w", err)
				}
				args = []string{cwd}
			}
			return cli.importReports(cmd.Context(), cmd.OutOrStdout(), cfg, args)
		},
	}
	cli.addImportFlags(importCmd)
	return importCmd
}

func (cli *Cli) createAnalyzeCommand() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run FxCopCmd over assemblies and import the report it produces.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig(cmd)
			if err != nil {
				return err
			}
			timeout, err := cfg.FxCopTimeout()
			if err != nil {
				return err
			}
			runner := tools.FxCopRunner{
				Executable:          cfg.FxCop.Executable,
				Assemblies:          cfg.FxCop.Assemblies,
				RuleSets:            cfg.FxCop.RuleSets,
				Dictionary:          cfg.FxCop.Dictionary,
				IgnoreGeneratedCode: cfg.FxCop.IgnoreGeneratedCode,
				Timeout:             timeout,
			}
			output := cfg.FxCop.Output
			if !filepath.IsAbs(output) {
				output = filepath.Join(cfg.Report.OutputDir, output)
			}
			if err := runner.Run(cmd.Context(), output); err != nil {
				return err
			}
			return cli.importReports(cmd.Context(), cmd.OutOrStdout(), cfg, []string{output})
		},
	}
	cli.addImportFlags(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&cli.assemblies, "assembly", nil, "Assembly to analyse (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&cli.ruleSets, "ruleset", nil, "FxCop rule set file (repeatable)")
	analyzeCmd.Flags().StringVar(&cli.executable, "fxcop", "", "Path to FxCopCmd.exe")
	analyzeCmd.Flags().StringVar(&cli.output, "output", "", "Report file written by FxCop")
	return analyzeCmd
}

func (cli *Cli) createRulesCommand() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the FxCop rule repositories.",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules of every repository.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.loadConfig(cmd)
			if err != nil {
				return err
			}
			repository, err := loadRules(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RULE\tSEVERITY\tCATEGORY\tNAME")
			for _, rule := range repository.All() {
				if cli.repository != "" && rule.Repository != cli.repository {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rule.RuleKey(), rule.Severity, rule.Category, rule.Name)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&cli.repository, "repository", "", "Only list this repository (fxcop or fxcop-test)")
	listCmd.Flags().StringSliceVar(&cli.ruleFiles, "rules", nil, "Additional rule set files (YAML or TOML)")
	rulesCmd.AddCommand(listCmd)
	return rulesCmd
}

// loadConfig reads the config file and applies the flags that were set.
func (cli *Cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if cli.configFile != "" {
		loaded, err := config.Load(cli.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	flags := cmd.Flags()
	if cli.logLevel != "" {
		cfg.Log.Level = cli.logLevel
	}
	if flags.Changed("project") {
		cfg.Solution.Project = cli.project
	}
	if flags.Changed("root") {
		cfg.Solution.Root = cli.root
		cfg.Solution.Projects = nil
	}
	if flags.Changed("rules") {
		cfg.Rules.Files = append(cfg.Rules.Files, cli.ruleFiles...)
	}
	if flags.Changed("sources") {
		cfg.Solution.Sources = cli.sources
	}
	if flags.Changed("report") {
		cfg.Report.Format = cli.reportFmt
	}
	if flags.Changed("output-dir") {
		cfg.Report.OutputDir = cli.outputDir
	}
	if flags.Changed("baseurl") {
		cfg.Report.BaseURL = cli.baseUrl
	}
	if flags.Changed("storage") {
		cfg.Storage.Kind = cli.storage
	}
	if flags.Changed("encoding") {
		cfg.Parser.Encoding = cli.encoding
	}
	if flags.Changed("strict-lines") {
		cfg.Parser.StrictLineNumbers = cli.strictLines
	}
	if flags.Changed("assembly") {
		cfg.FxCop.Assemblies = cli.assemblies
	}
	if flags.Changed("ruleset") {
		cfg.FxCop.RuleSets = cli.ruleSets
	}
	if flags.Changed("fxcop") {
		cfg.FxCop.Executable = cli.executable
	}
	if flags.Changed("output") {
		cfg.FxCop.Output = cli.output
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.SetLevel(cfg.LogLevel())
	return cfg, nil
}

func (cli *Cli) importReports(ctx context.Context, out io.Writer, cfg *config.Config, inputs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ruleRepository, err := loadRules(cfg)
	if err != nil {
		return err
	}
	parser, err := buildParser(ctx, cfg, ruleRepository)
	if err != nil {
		return err
	}

	reporter, err := cli.createReporter(cfg)
	if err != nil {
		return err
	}

	repository, err := repositories.NewFindingRepository(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cfg.Storage.Kind == repositories.FileStorage {
			if err := repository.Clear(); err != nil {
				log.Errorf("Error clearing repository: %v", err)
			}
		}
		if err := repository.Close(); err != nil {
			log.Errorf("Error closing repository: %v", err)
		}
	}()

	var progress utils.ProgressReporter = utils.NoopProgressReporter{}
	if !cli.noProgress {
		progress = utils.NewBarProgressReporter(len(inputs), "Importing FxCop reports")
	}

	scanner, err := scanners.NewReportScanner(parser, repository, reporter, progress, cfg.Report.Patterns)
	if err != nil {
		return err
	}
	scanErr := scanner.Scan(inputs...)

	findings, skipped := 0, 0
	for _, summary := range scanner.Summaries {
		findings += summary.Findings
		skipped += len(summary.Diagnostics)
	}
	fmt.Fprintf(out, "Imported %d violations from %d reports (%d issues skipped).\n", findings, len(scanner.Summaries), skipped)
	return scanErr
}

func (cli *Cli) createReporter(cfg *config.Config) (core.Reporter, error) {
	storage, err := reportstorage.CreateFileReportStorage(utils.Sanitize(cfg.Report.Prefix), cfg.Report.OutputDir)
	if err != nil {
		return nil, err
	}

	queries, err := reporters.DefaultQueries()
	if err != nil {
		return nil, err
	}
	if cfg.Report.Queries != "" {
		queries, err = reporters.LoadQueries(cfg.Report.Queries)
		if err != nil {
			return nil, err
		}
	}

	return reporters.CreateReporter(cfg.Report.Format, reporters.ReporterSettings{
		Storage:     storage,
		Queries:     queries,
		BaseURL:     cfg.Report.BaseURL,
		ToolVersion: Version,
	})
}
