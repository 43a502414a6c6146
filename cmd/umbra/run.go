package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/umbralab/umbra/apps"
	"github.com/umbralab/umbra/sim"
	"github.com/umbralab/umbra/simulation"
)

var (
	scenarioPath string
	logLevel     string
	stopTime     time.Duration
	bootstrapEnd time.Duration
	parallelism  int
	pinThreads   bool
	monitorOn    bool
	monitorPort  int
	outputFile   string
)

// runCmd executes one scenario to completion.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Optional overrides, such as UMBRA_OPEN_MONITOR.
		_ = godotenv.Load()

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		scenario, err := simulation.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}

		s := buildSimulation()

		if err := scenario.Apply(s); err != nil {
			logrus.Fatalf("Unable to apply scenario: %v", err)
		}

		installed, err := apps.InstallFromScenario(s, scenario)
		if err != nil {
			logrus.Fatalf("Unable to install apps: %v", err)
		}

		startTime := time.Now()

		if err := s.Run(); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		logrus.WithFields(logrus.Fields{
			"simulated": s.Scheduler().CurrentTime().Duration(),
			"wallclock": time.Since(startTime),
			"rounds":    s.Scheduler().Round(),
		}).Info("Simulation complete")

		reportApps(installed)

		s.Terminate()
		atexit.Exit(0)
	},
}

func buildSimulation() *simulation.Simulation {
	builder := simulation.MakeBuilder().
		WithStopTime(sim.FromDuration(stopTime)).
		WithBootstrapEnd(sim.FromDuration(bootstrapEnd)).
		WithParallelism(parallelism)

	if pinThreads {
		builder = builder.WithPinnedThreads()
	}

	if !monitorOn {
		builder = builder.WithoutMonitoring()
	} else if monitorPort > 0 {
		builder = builder.WithMonitorPort(monitorPort)
	}

	if outputFile != "" {
		builder = builder.WithOutputFileName(outputFile)
	}

	return builder.Build()
}

func reportApps(installed map[string]any) {
	for host, app := range installed {
		ping, ok := app.(*apps.Ping)
		if !ok {
			continue
		}

		logrus.WithFields(logrus.Fields{
			"host":     host,
			"sent":     ping.Sent(),
			"received": ping.Received(),
			"mean_rtt": ping.MeanRTT().Duration(),
		}).Info("Ping statistics")
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "",
		"Path to the scenario YAML file")
	runCmd.Flags().StringVar(&logLevel, "log", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().DurationVar(&stopTime, "stop-time", 60*time.Second,
		"Simulated time at which the run ends")
	runCmd.Flags().DurationVar(&bootstrapEnd, "bootstrap-end", 0,
		"Simulated time at which the bootstrap phase ends")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0,
		"Number of worker threads (0 = one per CPU)")
	runCmd.Flags().BoolVar(&pinThreads, "pin-threads", false,
		"Lock each worker to an OS thread")
	runCmd.Flags().BoolVar(&monitorOn, "monitor", false,
		"Start the monitoring web server")
	runCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"Port for the monitoring server (0 = random)")
	runCmd.Flags().StringVar(&outputFile, "output", "",
		"Output file name for recorded statistics")

	if err := runCmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
}
