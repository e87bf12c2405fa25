package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"roadnet-sim/pkg/roadgen"
	"roadnet-sim/pkg/simulation"
)

const defaultAddr = ":8080"

type Config struct {
	Addr     string
	Headless bool
	Ticks    int
	JSON     bool
	Out      string

	Generator  roadgen.Config
	Simulation simulation.Config
}

func LoadConfig(args []string) (Config, error) {
	gen := roadgen.DefaultConfig()
	sim := simulation.DefaultConfig()

	addr := envOrDefault("ROADSIM_ADDR", defaultAddr)
	seed, err := int64FromEnv("ROADSIM_SEED", 0)
	if err != nil {
		return Config{}, err
	}
	agents, err := intFromEnv("ROADSIM_AGENTS", sim.AgentCount)
	if err != nil {
		return Config{}, err
	}
	workers, err := intFromEnv("ROADSIM_WORKERS", sim.Workers)
	if err != nil {
		return Config{}, err
	}
	expansions, err := intFromEnv("ROADSIM_EXPANSIONS", gen.ExpansionIterations)
	if err != nil {
		return Config{}, err
	}
	tick := sim.TickInterval
	if tickEnv := os.Getenv("ROADSIM_TICK"); tickEnv != "" {
		parsed, err := time.ParseDuration(tickEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ROADSIM_TICK: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("ROADSIM_TICK must be positive")
		}
		tick = parsed
	}

	flagSet := flag.NewFlagSet("roadsim", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagSeed := flagSet.Int64("seed", seed, "random seed for generation and spawning (0 = time based)")
	flagAgents := flagSet.Int("agents", agents, "agents spawned at startup")
	flagTick := flagSet.String("tick", tick.String(), "simulation tick interval")
	flagWorkers := flagSet.Int("workers", workers, "agent update workers (0 = GOMAXPROCS)")
	flagExpansions := flagSet.Int("expansions", expansions, "road expansion iterations")
	flagHeadless := flagSet.Bool("headless", false, "run without the HTTP API and print a report")
	flagTicks := flagSet.Int("ticks", 500, "ticks to run in headless mode")
	flagJSON := flagSet.Bool("json", false, "write the headless report as JSON")
	flagOut := flagSet.String("out", "", "write the headless report to a file instead of stdout")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
		}
		return Config{}, err
	}

	tickParsed, err := time.ParseDuration(*flagTick)
	if err != nil {
		return Config{}, fmt.Errorf("invalid tick interval: %w", err)
	}
	if tickParsed <= 0 {
		return Config{}, errors.New("tick interval must be positive")
	}

	gen.Seed = *flagSeed
	gen.ExpansionIterations = *flagExpansions
	sim.Seed = *flagSeed
	sim.AgentCount = *flagAgents
	sim.Workers = *flagWorkers
	sim.TickInterval = tickParsed

	config := Config{
		Addr:       strings.TrimSpace(*flagAddr),
		Headless:   *flagHeadless,
		Ticks:      *flagTicks,
		JSON:       *flagJSON,
		Out:        strings.TrimSpace(*flagOut),
		Generator:  gen,
		Simulation: sim,
	}

	if !config.Headless && config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if config.Headless && config.Ticks < 0 {
		return Config{}, errors.New("ticks must be >= 0")
	}
	if err := config.Generator.Validate(); err != nil {
		return Config{}, err
	}
	if err := config.Simulation.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
