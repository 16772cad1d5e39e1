package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taopa/costprofiler/internal/config"
	"github.com/taopa/costprofiler/internal/csvparser"
	"github.com/taopa/costprofiler/internal/types"
	"github.com/taopa/costprofiler/internal/xlsxparser"
	"github.com/taopa/costprofiler/pkg/utils"
)

// ErrNoInput is returned when no input file could be read.
var ErrNoInput = errors.New("no readable input files")

// ErrUnsupportedFile is returned for inputs that are neither .xlsx nor .csv.
var ErrUnsupportedFile = errors.New("unsupported input file type")

// LoadResult holds the tables read from a set of input files.
type LoadResult struct {
	// Tables are in input file order, then sheet order.
	Tables []types.RawTable

	// Loaded lists the files that were read.
	Loaded []string

	// Failed lists the files that could not be read.
	Failed []utils.FailedFileInfo
}

// LoadFiles reads every file concurrently. A file that fails is reported in
// Failed and does not stop the others. ErrNoInput is returned when nothing
// could be read, naming each failed file and its reason.
func LoadFiles(ctx context.Context, files []string, settings config.InputConfig, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	perFile := make([][]types.RawTable, len(files))
	failures := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			tables, err := loadFile(file, settings)
			if err != nil {
				logger.WarnContext(ctx, "input file skipped", slog.String("file", file), slog.Any("error", err))
				failures[i] = err
				return nil
			}

			logger.DebugContext(ctx, "input file read", slog.String("file", file), slog.Int("tables", len(tables)))
			perFile[i] = tables
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &LoadResult{}
	for i, file := range files {
		if failures[i] != nil {
			result.Failed = append(result.Failed, utils.FailedFileInfo{InputFile: file, ErrorMessage: failures[i].Error()})
			continue
		}
		result.Loaded = append(result.Loaded, file)
		result.Tables = append(result.Tables, perFile[i]...)
	}

	if len(result.Tables) == 0 {
		if len(result.Failed) == 0 {
			return result, ErrNoInput
		}
		reasons := make([]string, 0, len(result.Failed))
		for _, failed := range result.Failed {
			reasons = append(reasons, filepath.Base(failed.InputFile)+": "+failed.ErrorMessage)
		}
		return result, fmt.Errorf("%w: %s", ErrNoInput, strings.Join(reasons, "; "))
	}
	return result, nil
}

func loadFile(path string, settings config.InputConfig) ([]types.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, settings)
	case ".csv", ".txt":
		table, err := csvparser.Parse(path, settings)
		if err != nil {
			return nil, err
		}
		return []types.RawTable{*table}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}
}
