package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	out, err := execute(t, "quote",
		"--reserves-x", "1000000,2000000",
		"--reserves-y", "1000000,1800000",
		"--balance-a", "10000",
	)
	require.NoError(t, err)

	var report planReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Opportunity)
	assert.Equal(t, "10000", report.AmountIn)
	assert.Equal(t, "816", report.Profit)
	assert.Equal(t, "x", report.FirstPool)
}

func TestQuoteCommandUnboundedFunds(t *testing.T) {
	out, err := execute(t, "quote", "--reserves-x", "1000000,2000000", "--reserves-y", "1000000,1800000")
	require.NoError(t, err)

	var report planReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "24235", report.AmountIn)
	assert.Equal(t, "47183", report.IntermediateOut)
	assert.Equal(t, "1233", report.Profit)
}

func TestQuoteCommandNoOpportunity(t *testing.T) {
	out, err := execute(t, "quote", "--reserves-x", "1000000,2000000", "--reserves-y", "1000000,1990000")
	require.NoError(t, err)

	var report planReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Opportunity)
	assert.NotEmpty(t, report.Reason)

	_, err = execute(t, "quote", "--reserves-x", "1000000", "--reserves-y", "1000000,1990000")
	require.Error(t, err)
	_, err = execute(t, "quote", "--reserves-x", "0,1", "--reserves-y", "1000000,1990000")
	require.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ops.jsonl")
	const provider = "0x00000000000000000000000000000000000000a1"
	const arber = "0x00000000000000000000000000000000000000a2"
	lines := []string{
		`{"op":"mint","account":"` + provider + `","token":"a","amount":"2000000"}`,
		`{"op":"mint","account":"` + provider + `","token":"b","amount":"3800000"}`,
		`{"op":"add_liquidity","pool":"x","account":"` + provider + `","amount_a":"1000000","amount_b":"2000000"}`,
		`{"op":"add_liquidity","pool":"y","account":"` + provider + `","amount_a":"1000000","amount_b":"1800000"}`,
		`{"op":"mint","account":"` + arber + `","token":"a","amount":"10000"}`,
		`{"op":"arbitrage","account":"` + arber + `"}`,
	}
	require.NoError(t, os.WriteFile(in, []byte(strings.Join(lines, "\n")), 0o644))

	out := filepath.Join(dir, "out", "results.jsonl")
	checkpoint := filepath.Join(dir, "checkpoint.json")
	_, err := execute(t, "replay",
		"--in", in,
		"--out", out,
		"--snapshots", "",
		"--windows", filepath.Join(dir, "windows.jsonl"),
		"--checkpoint", checkpoint,
		"--batch-size", "4",
		"--log-level", "error",
	)
	require.NoError(t, err)

	results := readResults(t, out)
	require.Len(t, results, len(lines))
	assert.Equal(t, "816", results[5].Profit)
	_, err = os.Stat(checkpoint)
	require.NoError(t, err)

	// a second run resumes past every operation
	_, err = execute(t, "replay", "--in", in, "--out", out, "--snapshots", "", "--windows", "",
		"--checkpoint", checkpoint, "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, readResults(t, out), len(lines))
}

func TestReplayCommandRequiresInput(t *testing.T) {
	_, err := execute(t, "replay", "--log-level", "error")
	require.ErrorContains(t, err, "input path is required")
}

func readResults(t *testing.T, path string) []model.OperationResult {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var results []model.OperationResult
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var res model.OperationResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &res))
		results = append(results, res)
	}
	require.NoError(t, scanner.Err())
	return results
}
