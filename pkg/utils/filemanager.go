// =============================================================================
// Cost Profiler - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for a run, including:
//   - Input discovery (.xlsx and .csv billing exports)
//   - Input archival (moving processed files)
//   - Output file naming
//   - Error log and run summary generation
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful run, when
//     archiving is enabled
//   - Failed runs leave their inputs in place
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	fileTimestampLayout = "20060102_150405"
	logTimeLayout       = "2006-01-02 15:04:05"
	rule                = "================================================================================"
	thinRule            = "--------------------------------------------------------------------------------"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// InputDir is the directory where billing exports are placed.
	InputDir string

	// OutputDir receives workbooks, error logs and summaries.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2025/05/31/billing.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether inputs are moved after a run.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
// timestampSubdirs sets UseTimestampSubdirs.
func NewFileManager(inputDir, outputDir, inputArchiveDir string, archive, timestampSubdirs bool) *FileManager {
	return &FileManager{
		InputDir:            inputDir,
		OutputDir:           outputDir,
		InputArchiveDir:     inputArchiveDir,
		UseTimestampSubdirs: timestampSubdirs,
		ArchiveOnSuccess:    archive,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the input and output directories, and the
// archive directory when archiving is on.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.InputDir, fm.OutputDir}
	if fm.ArchiveOnSuccess && fm.InputArchiveDir != "" {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching any of
// the glob patterns.
//
// PARAMETERS:
//   - patterns: Glob patterns such as "*.xlsx". Empty means "*.xlsx", "*.csv".
//
// RETURNS:
//   - Sorted, de-duplicated file paths. Excel lock files ("~$...") are skipped.
//   - An error if a pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.xlsx", "*.csv"}
	}

	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan input directory: %w", err)
		}

		for _, file := range files {
			if seen[file] || strings.HasPrefix(filepath.Base(file), "~$") {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory and returns
// its new path. With archiving off it returns filePath unchanged.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.InputArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//     plus any key of params, e.g. {kind}.
//   - params: Extra placeholder values.
//
// RETURNS:
//   - The file name, always ending in ".xlsx".
//
// EXAMPLE:
//   format: "{kind}_{timestamp}.xlsx"
//   params: {"kind": "pricing"}
//   output: "pricing_20250531_143022.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format(fileTimestampLayout),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Severity     string
	Source       string
	RowNumber    int
	FieldName    string
	FieldValue   string
	ErrorMessage string
}

// WriteErrorLog writes error entries to a text file in outputDir and
// returns its path. Nothing is written for no entries.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, runID string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s_%s.txt", time.Now().Format(fileTimestampLayout), shortID(runID)))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "Cost Profiler - Error Log\nRun: %s\nGenerated: %s\nTotal Entries: %d\n%s\n\n",
		runID, time.Now().Format(logTimeLayout), len(entries), rule)

	for i, entry := range entries {
		fmt.Fprintf(w, "Entry #%d\n", i+1)
		fmt.Fprintf(w, "  Severity:  %s\n", strings.ToUpper(entry.Severity))
		fmt.Fprintf(w, "  Source:    %s\n", entry.Source)
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row:       %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(w, "  Field:     %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(w, "  Value:     %s\n", entry.FieldValue)
		}
		fmt.Fprintf(w, "  Message:   %s\n\n", entry.ErrorMessage)
	}

	fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a run.
type RunSummary struct {
	RunID     string
	Command   string
	StartTime time.Time
	EndTime   time.Time

	InputFiles  []string
	FailedFiles []FailedFileInfo

	RowsRead    int
	Records     int
	RowErrors   int
	RowWarnings int

	// Company filters, counted in rows or companies as named.
	PrefixDroppedRows int
	ExcludedRows      int
	EndedCompanies    int
	CreditCompanies   int

	Profiles    int
	Suggestions int

	OutputFile string
	ErrorLog   string
}

// FailedFileInfo contains information about an input that could not be read.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a text file in outputDir and
// returns its path.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("run_summary_%s_%s.txt", summary.StartTime.Format(fileTimestampLayout), shortID(summary.RunID)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	FormatSummary(w, summary)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// FormatSummary renders a run summary as text.
func FormatSummary(w io.Writer, summary RunSummary) {
	fmt.Fprintf(w, "Cost Profiler - Run Summary\n%s\n\n", rule)

	fmt.Fprintf(w, "Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Command:        %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n",
		summary.RunID,
		summary.Command,
		summary.StartTime.Format(logTimeLayout),
		summary.EndTime.Format(logTimeLayout),
		summary.EndTime.Sub(summary.StartTime).String())

	fmt.Fprintf(w, "Statistics:\n"+
		"  Input Files:          %d\n"+
		"  Failed Files:         %d\n"+
		"  Rows Read:            %d\n"+
		"  Records Kept:         %d\n"+
		"  Row Errors:           %d\n"+
		"  Row Warnings:         %d\n"+
		"  Prefix-dropped Rows:  %d\n"+
		"  Excluded Rows:        %d\n"+
		"  Ended Companies:      %d\n"+
		"  Credit Companies:     %d\n"+
		"  Profiles:             %d\n"+
		"  Price Suggestions:    %d\n\n",
		len(summary.InputFiles),
		len(summary.FailedFiles),
		summary.RowsRead,
		summary.Records,
		summary.RowErrors,
		summary.RowWarnings,
		summary.PrefixDroppedRows,
		summary.ExcludedRows,
		summary.EndedCompanies,
		summary.CreditCompanies,
		summary.Profiles,
		summary.Suggestions)

	if len(summary.InputFiles) > 0 {
		fmt.Fprintf(w, "Input Files:\n%s\n", thinRule)
		for _, f := range summary.InputFiles {
			fmt.Fprintf(w, "  %s\n", f)
		}
		fmt.Fprintln(w)
	}

	if len(summary.FailedFiles) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", thinRule)
		for _, ff := range summary.FailedFiles {
			fmt.Fprintf(w, "  File:  %s\n  Error: %s\n\n", ff.InputFile, ff.ErrorMessage)
		}
	}

	if summary.OutputFile != "" {
		fmt.Fprintf(w, "Output:    %s\n", summary.OutputFile)
	}
	if summary.ErrorLog != "" {
		fmt.Fprintf(w, "Error Log: %s\n", summary.ErrorLog)
	}

	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// shortID returns the first block of a UUID-style id.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if id == "" {
		return "run"
	}
	return id
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
