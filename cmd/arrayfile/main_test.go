package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/arrayfile/storage"
)

func run(t *testing.T, fn func(ctx context.Context, args []string, out io.Writer) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, fn(context.Background(), args, &out))
	return out.String()
}

func TestCLIFlow(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "flow.h5")

	output := run(t, initCmd, "--file", file, "--gid", "g-1")
	assert.Contains(t, output, "gid=g-1")
	var out bytes.Buffer
	assert.Error(t, initCmd(ctx, []string{"--file", file}, &out))

	m, err := storage.New(dir, "flow.h5")
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, "data", [][]float64{{1, 2}, {3, 4}, {5, 6}}, storage.At("/g/")))

	output = run(t, infoCmd, "--file", file)
	assert.Contains(t, output, "valid:   true")
	assert.Contains(t, output, "gid:     g-1")
	assert.Contains(t, output, "nodes:   3 (1 datasets)")

	output = run(t, lsCmd, "--file", file)
	assert.Contains(t, output, "/g/\n")
	assert.Contains(t, output, "/g/data float64 shape=[3 2] max=[3 2]")

	run(t, setMetaCmd, "--file", file, "--node", "/g/data", "unit=ms", "count=3", "ok=true", "none=null")
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, metaCmd, "--file", file, "--node", "/g/data")), &doc))
	assert.Equal(t, "ms", doc["unit"])
	assert.Equal(t, float64(3), doc["count"])
	assert.Equal(t, true, doc["ok"])
	assert.Contains(t, doc, "none")
	assert.Nil(t, doc["none"])

	var array arrayDoc
	require.NoError(t, json.Unmarshal([]byte(run(t, readCmd, "--file", file, "--dataset", "/g/data", "--rows", "1:")), &array))
	assert.Equal(t, []int{2, 2}, array.Shape)
	assert.Equal(t, []float64{3, 4, 5, 6}, array.Values)

	dest := filepath.Join(t.TempDir(), "copy.h5")
	run(t, backupCmd, "--file", file, "--dest", dest)
	_, err = os.Stat(dest)
	require.NoError(t, err)

	run(t, rmCmd, "--file", file, "--dataset", "/g/data")
	assert.Error(t, readCmd(ctx, []string{"--file", file, "--dataset", "/g/data"}, &out))
	assert.Error(t, lsCmd(ctx, []string{}, &out))
}

func TestParseValue(t *testing.T) {
	var testCases = []struct {
		input  string
		expect any
	}{
		{input: "null", expect: nil},
		{input: "True", expect: true},
		{input: "false", expect: false},
		{input: "42", expect: int64(42)},
		{input: "0.5", expect: 0.5},
		{input: "text", expect: "text"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, parseValue(testCase.input), testCase.input)
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2:5")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Start)
	assert.Equal(t, 5, r.Stop)
	r, err = parseRange(":-1")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Start)
	assert.Equal(t, -1, r.Stop)
	_, err = parseRange("3")
	assert.Error(t, err)
}
