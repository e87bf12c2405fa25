package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roadnet-sim/pkg/api"
	"roadnet-sim/pkg/roadgen"
	"roadnet-sim/pkg/simulation"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if cfg.Headless {
		if err := runHeadless(cfg); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	log.Println("========================================")
	log.Println("🚦 Road network simulation server")
	log.Println("========================================")

	server := api.NewServer(cfg.Addr, cfg.Generator, cfg.Simulation)
	if _, err := server.Build(cfg.Generator, cfg.Simulation.AgentCount); err != nil {
		log.Fatalf("❌ Failed to build road network: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️  Simulation loop stopped: %v\n", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Println("\n📍 Available endpoints:")
	log.Println("   POST /buildNetwork  - Generate a new road network")
	log.Println("   GET  /networkLines  - Roads as GeoJSON")
	log.Println("   POST /route         - Shortest path between two points")
	log.Println("   POST /spawn         - Add agents")
	log.Println("   POST /step          - Advance the simulation manually")
	log.Println("   GET  /agents        - Agent states (JSON or GeoJSON)")
	log.Println("   GET  /health        - Health check")
	log.Println("   GET  /metrics       - Prometheus metrics")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("🛑 Received %s, shutting down\n", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️  Graceful shutdown failed: %v\n", err)
	}
	if w := server.World(); w != nil {
		log.Printf("✅ Stopped after %d ticks\n", w.Ticks())
	}
}

// runHeadless generates a network, runs a fixed number of ticks as fast as
// possible and writes the report
func runHeadless(cfg Config) error {
	network, err := roadgen.Generate(cfg.Generator)
	if err != nil {
		return fmt.Errorf("generate network: %w", err)
	}
	g, err := network.Graph()
	if err != nil {
		return fmt.Errorf("translate network: %w", err)
	}

	world, err := simulation.NewWorld(g, cfg.Simulation)
	if err != nil {
		return fmt.Errorf("create world: %w", err)
	}
	if _, err := world.Spawn(cfg.Simulation.AgentCount); err != nil && !errors.Is(err, simulation.ErrNoRoads) {
		return fmt.Errorf("spawn agents: %w", err)
	}

	start := time.Now()
	world.RunTicks(cfg.Ticks)
	log.Printf("⏱️  %d ticks in %.2f seconds\n", cfg.Ticks, time.Since(start).Seconds())

	return writeReport(world.Summary(), cfg.JSON, cfg.Out)
}

func writeReport(r simulation.Report, asJSON bool, filePath string) error {
	output, err := r.Render(asJSON)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if filePath != "" {
		if err := os.WriteFile(filePath, output, 0644); err != nil {
			return fmt.Errorf("write report to %s: %w", filePath, err)
		}
		fmt.Printf("Report written to %s\n", filePath)
		return nil
	}
	fmt.Println(string(output))
	return nil
}
