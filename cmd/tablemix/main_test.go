package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tablemix"
)

func TestParseCLIConfig(t *testing.T) {
	t.Run("inline optimizer settings and blocks", func(t *testing.T) {
		cfg, err := parseCLIConfig([]byte(`
maxContainerSize: 4
attributes: [Role, Office]
maxRunTime: 10s
input: people.csv
output:
  dir: out
  summaryFile: tables.csv
logFile: run.log
statusFile: status.txt
metrics:
  listen: ":9090"
nats:
  url: nats://127.0.0.1:4222
`))
		require.NoError(t, err)

		require.Equal(t, 4, cfg.MaxContainerSize)
		require.Equal(t, []string{"Role", "Office"}, cfg.Attributes)
		require.Equal(t, 10*time.Second, cfg.MaxRunTime)
		require.Equal(t, "people.csv", cfg.Input)
		require.Equal(t, "out", cfg.Output.Dir)
		require.Equal(t, "tables.csv", cfg.Output.SummaryFile)
		require.Equal(t, "assignments.csv", cfg.Output.AssignmentsFile)
		require.Equal(t, "run.log", cfg.LogFile)
		require.Equal(t, "status.txt", cfg.StatusFile)
		require.Equal(t, ":9090", cfg.Metrics.Listen)
		require.Equal(t, "tablemix", cfg.Metrics.Namespace)
		require.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
		require.Equal(t, "tablemix", cfg.NATS.Bucket)

		// Optimizer defaults survive
		require.Equal(t, 500, cfg.MaxIterations)
		require.Equal(t, "ID", cfg.IDField)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := parseCLIConfig([]byte("input: \"\"\nattributes: [Role]\n"))
		require.ErrorIs(t, err, tablemix.ErrInvalidConfig)
	})

	t.Run("nats without bucket", func(t *testing.T) {
		_, err := parseCLIConfig([]byte("nats:\n  url: nats://localhost:4222\n  bucket: \"\"\n"))
		require.ErrorIs(t, err, tablemix.ErrInvalidConfig)
	})
}

func TestRunOptimize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "attendees.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"ID,Name,Gender,Office\n"+
			"1,Ada,F,NY\n"+
			"2,Bob,M,NY\n"+
			"3,Cy,F,LA\n"+
			"4,Di,M,LA\n"+
			"5,Ed,M,NY\n"+
			"6,Flo,F,LA\n",
	), 0o600))

	config := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(config, []byte(
		"maxContainerSize: 3\n"+
			"attributes: [Gender, Office]\n"+
			"maxIterations: 20\n"+
			"maxRunTime: 1ms\n"+
			"stagnationThreshold: 5\n"+
			"seed: cli\n"+
			"input: "+input+"\n"+
			"output:\n  dir: "+filepath.Join(dir, "out")+"\n"+
			"logFile: "+filepath.Join(dir, "run.log")+"\n"+
			"statusFile: "+filepath.Join(dir, "status.txt")+"\n",
	), 0o600))

	configPath, logLevel = config, "info"
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"--config", config})
	require.NoError(t, rootCmd.Execute())

	f, err := os.Open(filepath.Join(dir, "out", "assignments.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	require.Equal(t, []string{"Table", "ID", "NAME", "Gender", "Office"}, rows[0])

	_, err = os.Stat(filepath.Join(dir, "out", "summary.csv"))
	require.NoError(t, err)

	status, err := os.ReadFile(filepath.Join(dir, "status.txt"))
	require.NoError(t, err)
	require.Equal(t, "RUNNING\nFINISHED\n", string(status))

	logged, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	require.Contains(t, string(logged), "After initial solution")
	require.Contains(t, stdout.String(), "final arrangement")
}
