package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Runner verifies one claims file and produces a report
type Runner interface {
	VerifyFile(ctx context.Context, path string) (*model.Report, error)
}

// VerifyJob verifies a single claims file
type VerifyJob struct {
	Path   string
	Runner Runner
}

// Execute runs the verification for the job's file
func (j *VerifyJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.VerifyFile(ctx, j.Path)
	return &VerifyResult{
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// VerifyResult is the outcome of one file verification
type VerifyResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the verification error, if any
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple claims files concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessFiles verifies each claims file concurrently
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*VerifyResult {
	if len(paths) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&VerifyJob{Path: path, Runner: b.runner})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, len(results))
	for i, result := range results {
		verifyResults[i] = result.(*VerifyResult)
	}

	return verifyResults
}

// ProcessList reads claims-file paths from a list file and verifies them
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath string) ([]*VerifyResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a list file, one per line.
// Empty lines and # comments are skipped; duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
