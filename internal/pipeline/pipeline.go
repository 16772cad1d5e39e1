// =============================================================================
// Cost Profiler - Pipeline
// =============================================================================
//
// The pipeline orchestrates one run, from billing exports to the profile
// workbook.
//
// PIPELINE:
//   1. Discover input files (or take the ones given)
//   2. Read them concurrently (workbooks and CSV files)
//   3. Clean rows into transaction records
//   4. Filter companies: name prefix, exclusions, ended customers
//   5. Aggregate monthly sums and summarize profiles
//   6. Drop credit-note customers (any profile with a negative average)
//   7. Price the profiles (price command only)
//   8. Write the workbook, the error log and the run summary
//   9. Archive the inputs when configured
//
// Steps 1-6 are shared with the breakdown command through Prepare.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/taopa/costprofiler/internal/analytics"
	"github.com/taopa/costprofiler/internal/cleaning"
	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/logging"
	"github.com/taopa/costprofiler/internal/pricing"
	"github.com/taopa/costprofiler/internal/types"
	"github.com/taopa/costprofiler/internal/xlsxwriter"
	"github.com/taopa/costprofiler/pkg/utils"
)

// =============================================================================
// OPTIONS AND RESULTS
// =============================================================================

// Options controls a single run.
type Options struct {
	// Command names the run in logs and the summary ("summarize", "price").
	Command string

	// Files overrides input discovery when non-empty.
	Files []string

	// Price adds the fixed price sheet.
	Price bool

	// DryRun computes everything but writes nothing and archives nothing.
	DryRun bool
}

// Dataset is the cleaned and filtered input of a run.
type Dataset struct {
	Records  []types.TransactionRecord
	Monthly  []types.MonthlyAggregate
	Profiles []types.CompanyProgramProfile

	Load     *LoadResult
	Cleaning *cleaning.Result

	PrefixDroppedRows int
	ExcludedRows      int
	EndedCompanies    int
	CreditCompanies   int
}

// Result is the outcome of a run.
type Result struct {
	RunID string

	Dataset     *Dataset
	Suggestions []pricing.Suggestion

	// OutputFile, ErrorLog and SummaryLog are empty when nothing was written.
	OutputFile string
	ErrorLog   string
	SummaryLog string

	Summary utils.RunSummary
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline runs the profiler against one configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	files  *utils.FileManager
}

// New creates a pipeline. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "pipeline")),
		files:  utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ArchiveInputs, cfg.ArchiveTimestampSubdirs),
	}
}

// Run executes a full run.
//
// PARAMETERS:
//   - ctx: Cancels input loading. A run id is attached for logging.
//   - opts: The run options.
//
// RETURNS:
//   - The run result, including the summary.
//   - An error if no input could be read or an output could not be written.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	if opts.Command == "" {
		opts.Command = "summarize"
	}

	result := &Result{
		RunID: runID,
		Summary: utils.RunSummary{
			RunID:     runID,
			Command:   opts.Command,
			StartTime: start,
		},
	}

	p.logger.InfoContext(ctx, "run started", slog.String("command", opts.Command), slog.Bool("dry_run", opts.DryRun))

	// =========================================================================
	// STEP 1: DIRECTORIES AND INPUTS
	// =========================================================================

	if !opts.DryRun {
		if err := p.files.EnsureDirectories(); err != nil {
			return nil, err
		}
	}

	files, err := p.inputFiles(opts.Files)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEPS 2-6: LOAD, CLEAN, FILTER, PROFILE
	// =========================================================================

	dataset, err := p.Prepare(ctx, files)
	if err != nil {
		if dataset != nil && !opts.DryRun {
			p.writeFailureLog(ctx, dataset, runID)
		}
		return nil, err
	}
	result.Dataset = dataset
	p.fillSummary(&result.Summary, dataset)

	// =========================================================================
	// STEP 7: PRICING
	// =========================================================================

	report := xlsxwriter.Report{
		Profiles: dataset.Profiles,
		Monthly:  dataset.Monthly,
	}

	if opts.Price {
		engine, err := pricing.NewEngine(p.cfg.Pricing)
		if err != nil {
			return nil, fmt.Errorf("failed to configure pricing: %w", err)
		}

		result.Suggestions = engine.Suggest(dataset.Profiles)
		result.Summary.Suggestions = len(result.Suggestions)
		report.Pricing = &xlsxwriter.PricingSheet{
			Columns:     engine.Columns(),
			Flags:       engine.VisibleFlags(),
			Suggestions: result.Suggestions,
		}

		p.logger.InfoContext(ctx, "prices suggested", slog.Int("suggestions", len(result.Suggestions)))
	}

	if opts.DryRun {
		result.Summary.EndTime = time.Now()
		p.logger.InfoContext(ctx, "dry run finished, nothing written", slog.Int("profiles", len(dataset.Profiles)))
		return result, nil
	}

	// =========================================================================
	// STEP 8: OUTPUTS
	// =========================================================================

	name := utils.GenerateOutputFileName(p.cfg.OutputNameFormat, map[string]string{"kind": outputKind(opts)})
	outputPath := filepath.Join(p.cfg.OutputDir, name)

	if err := xlsxwriter.New(p.cfg.Export.Language).WriteFile(outputPath, report); err != nil {
		return nil, err
	}
	result.OutputFile = outputPath
	result.Summary.OutputFile = outputPath
	p.logger.InfoContext(ctx, "workbook written", slog.String("path", outputPath))

	errorLog, err := utils.WriteErrorLog(ErrorLogEntries(dataset), p.cfg.OutputDir, runID)
	if err != nil {
		return nil, err
	}
	result.ErrorLog = errorLog
	result.Summary.ErrorLog = errorLog

	// =========================================================================
	// STEP 9: ARCHIVE
	// =========================================================================

	for _, file := range dataset.Load.Loaded {
		archived, err := p.files.ArchiveInputFile(file)
		if err != nil {
			p.logger.WarnContext(ctx, "input not archived", slog.String("file", file), slog.Any("error", err))
			continue
		}
		if archived != file {
			p.logger.DebugContext(ctx, "input archived", slog.String("file", file), slog.String("archive", archived))
		}
	}

	result.Summary.EndTime = time.Now()
	summaryLog, err := utils.WriteSummaryLog(result.Summary, p.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	result.SummaryLog = summaryLog

	p.logger.InfoContext(ctx, "run finished",
		slog.Int("profiles", len(dataset.Profiles)),
		slog.Duration("elapsed", result.Summary.EndTime.Sub(start)))

	return result, nil
}

// Prepare loads, cleans and filters the inputs and computes the profiles.
// When no file can be read the returned dataset carries only the load
// result, alongside the error.
func (p *Pipeline) Prepare(ctx context.Context, files []string) (*Dataset, error) {
	load, err := LoadFiles(ctx, files, p.cfg.Input, p.logger.With(slog.String("component", "loader")))
	if err != nil {
		if load == nil {
			return nil, err
		}
		return &Dataset{Load: load}, err
	}

	cleaner := cleaning.NewCleaner(p.cfg.Columns, p.cfg.Amounts.UseVAT, p.logger.With(slog.String("component", "cleaning")))
	cleaned, err := cleaner.Clean(load.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to clean input: %w", err)
	}

	p.logger.InfoContext(ctx, "input cleaned",
		slog.Int("rows", cleaned.RowsRead),
		slog.Int("records", len(cleaned.Records)),
		slog.Int("errors", cleaned.ErrorCount),
		slog.Int("warnings", cleaned.WarningCount))

	ds := &Dataset{Load: load, Cleaning: cleaned}
	records := cleaned.Records

	records, ds.PrefixDroppedRows = DropNamePrefix(records, p.cfg.Filters.DropNamePrefix)

	exclusions, err := p.exclusions()
	if err != nil {
		return nil, err
	}
	records, ds.ExcludedRows = exclusions.Apply(records)

	if !p.cfg.Filters.ShowEnded {
		records, ds.EndedCompanies = ActiveOnly(records)
	}

	monthly := analytics.Aggregate(records)
	profiles := analytics.Summarize(monthly)

	if !p.cfg.Filters.KeepCreditCustomers {
		credit := CreditCompanies(profiles)
		ds.CreditCompanies = len(credit)
		profiles, monthly, records = WithoutCompanies(credit, profiles, monthly, records)
	}

	ds.Records = records
	ds.Monthly = monthly
	ds.Profiles = profiles

	p.logger.InfoContext(ctx, "profiles computed",
		slog.Int("profiles", len(profiles)),
		slog.Int("prefix_dropped_rows", ds.PrefixDroppedRows),
		slog.Int("excluded_rows", ds.ExcludedRows),
		slog.Int("ended_companies", ds.EndedCompanies),
		slog.Int("credit_companies", ds.CreditCompanies))

	return ds, nil
}

// InputFiles returns the files a run reads: explicit ones when given,
// otherwise the matches in the input directory.
func (p *Pipeline) InputFiles(explicit []string) ([]string, error) {
	return p.inputFiles(explicit)
}

func (p *Pipeline) inputFiles(explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	files, err := p.files.DiscoverInputFiles(p.cfg.Input.Patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %v in %s", ErrNoInput, p.cfg.Input.Patterns, p.cfg.InputDir)
	}
	return files, nil
}

func (p *Pipeline) exclusions() (*Exclusions, error) {
	f := p.cfg.Filters
	exclusions := NewExclusions(f.ExcludeBusinessIDs, f.ExcludeNames)
	if f.ExclusionFile != "" {
		if err := exclusions.LoadFile(f.ExclusionFile, p.cfg.Input, p.cfg.Columns); err != nil {
			return nil, err
		}
	}
	return exclusions, nil
}

func (p *Pipeline) fillSummary(s *utils.RunSummary, ds *Dataset) {
	s.InputFiles = ds.Load.Loaded
	s.FailedFiles = ds.Load.Failed
	s.RowsRead = ds.Cleaning.RowsRead
	s.Records = len(ds.Records)
	s.RowErrors = ds.Cleaning.ErrorCount
	s.RowWarnings = ds.Cleaning.WarningCount
	s.PrefixDroppedRows = ds.PrefixDroppedRows
	s.ExcludedRows = ds.ExcludedRows
	s.EndedCompanies = ds.EndedCompanies
	s.CreditCompanies = ds.CreditCompanies
	s.Profiles = len(ds.Profiles)
}

// ErrorLogEntries converts the failed files and row problems of a dataset
// into error log entries.
func ErrorLogEntries(ds *Dataset) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry

	for _, failed := range ds.Load.Failed {
		entries = append(entries, utils.ErrorLogEntry{
			Severity:     cleaning.SeverityError,
			Source:       failed.InputFile,
			ErrorMessage: failed.ErrorMessage,
		})
	}

	if ds.Cleaning == nil {
		return entries
	}

	for _, e := range ds.Cleaning.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			Severity:     e.Severity,
			Source:       e.Source,
			RowNumber:    e.Row,
			FieldName:    e.Field,
			FieldValue:   e.Value,
			ErrorMessage: e.Message,
		})
	}

	return entries
}

// writeFailureLog records the unreadable files of a run that produced no
// data. The run already fails, so a log that cannot be written is only
// logged.
func (p *Pipeline) writeFailureLog(ctx context.Context, ds *Dataset, runID string) {
	path, err := utils.WriteErrorLog(ErrorLogEntries(ds), p.cfg.OutputDir, runID)
	if err != nil {
		p.logger.WarnContext(ctx, "error log not written", slog.Any("error", err))
		return
	}
	if path != "" {
		p.logger.ErrorContext(ctx, "no input could be read", slog.Int("failed_files", len(ds.Load.Failed)), slog.String("error_log", path))
	}
}

func outputKind(opts Options) string {
	if opts.Price {
		return "pricing"
	}
	return "profiles"
}
