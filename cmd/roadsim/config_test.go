package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet-sim/pkg/roadgen"
	"roadnet-sim/pkg/simulation"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.False(t, cfg.Headless)
	assert.Equal(t, roadgen.DefaultConfig(), cfg.Generator)
	assert.Equal(t, simulation.DefaultConfig(), cfg.Simulation)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ROADSIM_SEED", "5")
	t.Setenv("ROADSIM_AGENTS", "7")
	t.Setenv("ROADSIM_TICK", "50ms")

	cfg, err := LoadConfig([]string{"-seed", "9", "-workers", "3", "-expansions", "40"})
	require.NoError(t, err)

	assert.Equal(t, int64(9), cfg.Generator.Seed)
	assert.Equal(t, int64(9), cfg.Simulation.Seed)
	assert.Equal(t, 7, cfg.Simulation.AgentCount, "env applies when no flag is given")
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, 3, cfg.Simulation.Workers)
	assert.Equal(t, 40, cfg.Generator.ExpansionIterations)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		envVars     map[string]string
		errorSubstr string
	}{
		{"zero tick from flag", []string{"-tick", "0s"}, nil, "tick interval must be positive"},
		{"bad tick from flag", []string{"-tick", "soon"}, nil, "invalid tick interval"},
		{"zero tick from env", nil, map[string]string{"ROADSIM_TICK": "0s"}, "ROADSIM_TICK must be positive"},
		{"bad tick from env", nil, map[string]string{"ROADSIM_TICK": "soon"}, "invalid ROADSIM_TICK"},
		{"bad seed from env", nil, map[string]string{"ROADSIM_SEED": "abc"}, "invalid ROADSIM_SEED"},
		{"bad agents from env", nil, map[string]string{"ROADSIM_AGENTS": "x"}, "invalid ROADSIM_AGENTS"},
		{"negative agents", []string{"-agents", "-1"}, nil, "agentCount"},
		{"negative expansions", []string{"-expansions", "-2"}, nil, "expansionIterations"},
		{"empty addr", []string{"-addr", " "}, nil, "addr cannot be empty"},
		{"negative headless ticks", []string{"-headless", "-ticks", "-1"}, nil, "ticks must be >= 0"},
		{"unknown flag", []string{"-bogus"}, nil, "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorSubstr)
		})
	}
}

func TestLoadConfig_HeadlessAllowsEmptyAddr(t *testing.T) {
	cfg, err := LoadConfig([]string{"-headless", "-addr", "", "-ticks", "10", "-json", "-out", "report.json"})
	require.NoError(t, err)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 10, cfg.Ticks)
	assert.True(t, cfg.JSON)
	assert.Equal(t, "report.json", cfg.Out)
}

func TestRunHeadless_WritesReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	cfg, err := LoadConfig([]string{"-headless", "-seed", "21", "-agents", "4", "-expansions", "50", "-ticks", "25", "-workers", "2", "-json", "-out", out})
	require.NoError(t, err)

	require.NoError(t, runHeadless(cfg))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var report simulation.Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, int64(21), report.Seed)
	assert.Equal(t, int64(25), report.Ticks)
	assert.Equal(t, 4, report.Agents)
	assert.Positive(t, report.Nodes)
}
