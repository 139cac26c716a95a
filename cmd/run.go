package cmd

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hamlet-sim/hamlet-sim/sim"
	"github.com/hamlet-sim/hamlet-sim/sim/live"
	"github.com/hamlet-sim/hamlet-sim/sim/memdb"
	"github.com/hamlet-sim/hamlet-sim/sim/replay"
	"github.com/hamlet-sim/hamlet-sim/sim/trace"
	"github.com/hamlet-sim/hamlet-sim/sim/worldfile"
)

var (
	seed                int64         // Master seed for all partitioned RNG subsystems
	ticks               int64         // Number of ticks to run
	logLevel            string        // Log verbosity level
	worldDir            string        // World directory (world.json, characters.json, world.map)
	configFile          string        // Optional YAML run config
	replayDir           string        // Base directory for replay logs; empty disables recording
	memoryDB            string        // SQLite memory log path; empty disables mirroring
	listenAddr          string        // WebSocket live-tail address; empty disables serving
	policyTimeout       time.Duration // Per-agent decide budget
	recencyDecay        float64       // Memory recency decay rate per tick
	retrievalK          int           // Top-k records per retrieval
	contextBudget       int           // Max summed description length per retrieval
	reflectionThreshold int           // Cumulative importance that triggers reflection
	weatherPeriod       int64         // Ticks between weather draws
)

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation",
}

// runMain is assigned to runCmd.Run in init to avoid an initialization
// cycle (runCmd -> runMain -> applyRunConfig -> runCmd).
func runMain(cmd *cobra.Command, args []string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)

	if configFile != "" {
		applyRunConfig(configFile)
	}

	def, err := worldfile.Load(worldDir)
	if err != nil {
		logrus.Fatalf("Load world %s: %v", worldDir, err)
	}

	collab := sim.DefaultCollaborators()
	if memoryDB != "" {
		store, err := memdb.Open(memoryDB)
		if err != nil {
			logrus.Fatalf("Open memory db: %v", err)
		}
		defer store.Close()
		collab.MemLog = store
	}

	scheduler, err := sim.NewScheduler(
		def.State, def.Graph, def.Catalog, collab,
		sim.SchedulerConfig{Seed: seed, PolicyTimeout: policyTimeout},
		sim.MemoryConfig{
			RecencyDecay:        recencyDecay,
			RetrievalK:          retrievalK,
			ContextBudget:       contextBudget,
			ReflectionThreshold: reflectionThreshold,
		},
		sim.DynamicsConfig{WeatherPeriod: weatherPeriod},
	)
	if err != nil {
		logrus.Fatalf("Initialize scheduler: %v", err)
	}

	runTrace := trace.New()
	scheduler.SetTrace(runTrace)

	if replayDir != "" {
		writer, runDir, err := replay.CreateRunDir(replayDir)
		if err != nil {
			logrus.Fatalf("Open replay log: %v", err)
		}
		if err := writer.WriteHeader(map[string]any{
			"seed":      seed,
			"ticks":     ticks,
			"world_dir": worldDir,
		}); err != nil {
			logrus.Fatalf("Write replay header: %v", err)
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logrus.Errorf("Close replay log: %v", err)
			}
		}()
		logrus.Infof("Recording replay to %s", runDir)
		scheduler.AddSink(writer)
	}

	if listenAddr != "" {
		hub := live.NewHub()
		scheduler.AddSink(hub)
		go func() {
			logrus.Infof("Live tail listening on ws://%s/live", listenAddr)
			mux := http.NewServeMux()
			mux.Handle("/live", hub)
			if err := http.ListenAndServe(listenAddr, mux); err != nil {
				logrus.Errorf("Live server: %v", err)
			}
		}()
	}

	logrus.Infof("Starting simulation: seed=%d, ticks=%d, %d agents",
		seed, ticks, len(def.State.Agents))
	start := time.Now()
	if err := scheduler.Run(ticks); err != nil {
		logrus.Fatalf("Simulation halted: %v", err)
	}
	logrus.Infof("Simulation complete: %d ticks in %s, %d rejected actions, %d policy failures",
		ticks, time.Since(start).Round(time.Millisecond), runTrace.RejectedCount(), len(runTrace.Failures))
}

// applyRunConfig overlays YAML values onto flag defaults. Flags win when set
// explicitly; the file fills the rest.
func applyRunConfig(path string) {
	cfg, err := sim.LoadRunConfig(path)
	if err != nil {
		logrus.Fatalf("Load run config: %v", err)
	}
	if !runCmd.Flags().Changed("seed") && cfg.Seed != 0 {
		seed = cfg.Seed
	}
	if !runCmd.Flags().Changed("ticks") && cfg.Ticks != 0 {
		ticks = cfg.Ticks
	}
	if !runCmd.Flags().Changed("world") && cfg.WorldDir != "" {
		worldDir = cfg.WorldDir
	}
	if !runCmd.Flags().Changed("replay-dir") && cfg.ReplayDir != "" {
		replayDir = cfg.ReplayDir
	}
	if !runCmd.Flags().Changed("memory-db") && cfg.MemoryDB != "" {
		memoryDB = cfg.MemoryDB
	}
	if !runCmd.Flags().Changed("listen") && cfg.Listen != "" {
		listenAddr = cfg.Listen
	}
	if !runCmd.Flags().Changed("recency-decay") && cfg.Memory.RecencyDecay != 0 {
		recencyDecay = cfg.Memory.RecencyDecay
	}
	if !runCmd.Flags().Changed("retrieval-k") && cfg.Memory.RetrievalK != 0 {
		retrievalK = cfg.Memory.RetrievalK
	}
	if !runCmd.Flags().Changed("context-budget") && cfg.Memory.ContextBudget != 0 {
		contextBudget = cfg.Memory.ContextBudget
	}
	if !runCmd.Flags().Changed("reflection-threshold") && cfg.Memory.ReflectionThreshold != 0 {
		reflectionThreshold = cfg.Memory.ReflectionThreshold
	}
	if !runCmd.Flags().Changed("weather-period") && cfg.Dynamics.WeatherPeriod != 0 {
		weatherPeriod = cfg.Dynamics.WeatherPeriod
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Run = runMain
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for deterministic runs")
	runCmd.Flags().Int64Var(&ticks, "ticks", 100, "Number of ticks to simulate")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&worldDir, "world", "worlds/hamlet", "World directory")
	runCmd.Flags().StringVar(&configFile, "config", "", "Optional YAML run config file")
	runCmd.Flags().StringVar(&replayDir, "replay-dir", "", "Base directory for replay logs (empty = no recording)")
	runCmd.Flags().StringVar(&memoryDB, "memory-db", "", "SQLite memory log path (empty = no mirroring)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "Live-tail WebSocket address, e.g. localhost:8080 (empty = off)")
	runCmd.Flags().DurationVar(&policyTimeout, "policy-timeout", 2*time.Second, "Per-agent decision budget (0 = unbounded)")

	runCmd.Flags().Float64Var(&recencyDecay, "recency-decay", 0.01, "Memory recency decay rate per tick")
	runCmd.Flags().IntVar(&retrievalK, "retrieval-k", 3, "Top-k memories per retrieval")
	runCmd.Flags().IntVar(&contextBudget, "context-budget", 0, "Max summed memory description length per retrieval (0 = unlimited)")
	runCmd.Flags().IntVar(&reflectionThreshold, "reflection-threshold", 10, "Cumulative importance that triggers reflection")
	runCmd.Flags().Int64Var(&weatherPeriod, "weather-period", 12, "Ticks between weather draws")

	rootCmd.AddCommand(runCmd)
}
