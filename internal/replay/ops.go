package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"ammScope/internal/model"
)

const maxLineSize = 1024 * 1024

// ReadOperationsFile loads an operations JSONL file.
func ReadOperationsFile(path string) ([]model.OperationRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open operations: %w", err)
	}
	defer file.Close()
	return ReadOperations(file)
}

// ReadOperations decodes one operation per line. Blank lines and lines
// starting with # are skipped.
func ReadOperations(r io.Reader) ([]model.OperationRequest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var ops []model.OperationRequest
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var op model.OperationRequest
		if err := json.Unmarshal([]byte(line), &op); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if op.Op == "" {
			return nil, fmt.Errorf("line %d: missing op", lineNum)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan operations: %w", err)
	}
	return ops, nil
}
