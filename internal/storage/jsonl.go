package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ammScope/internal/model"
)

// JsonlStorage appends replay output to JSONL files. An empty path disables
// that stream.
type JsonlStorage struct {
	resultsPath   string
	snapshotsPath string
	windowsPath   string
	mu            sync.Mutex
}

func NewJsonlStorage(resultsPath, snapshotsPath, windowsPath string) *JsonlStorage {
	return &JsonlStorage{resultsPath: resultsPath, snapshotsPath: snapshotsPath, windowsPath: windowsPath}
}

// PutResults appends operation results as JSON lines.
func (s *JsonlStorage) PutResults(results []model.OperationResult) error {
	return appendLines(&s.mu, s.resultsPath, results)
}

// PutSnapshots appends pool snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshots(snapshots []model.PoolSnapshot) error {
	return appendLines(&s.mu, s.snapshotsPath, snapshots)
}

// PutWindows appends batch window metrics as JSON lines.
func (s *JsonlStorage) PutWindows(windows []model.PoolWindowMetrics) error {
	return appendLines(&s.mu, s.windowsPath, windows)
}

func appendLines[T any](mu *sync.Mutex, path string, records []T) error {
	if path == "" || len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
