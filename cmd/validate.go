package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatchsim/dispatchsim/sim"
	"github.com/dispatchsim/dispatchsim/sim/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a scenario without running it",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, cfgFile)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := validateScenario(cfg.Scenario, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Scenario %s is invalid: %v", cfg.Scenario, err)
		}
	},
}

// --- dispatchsim convert ---

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a scenario to the YAML layout",
	Long:  "Convert a scenario (either layout) to YAML. Output is written to stdout for piping unless --out is given.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, cfgFile)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := convertScenario(cfg.Scenario, cfg.Out, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}
	},
}

func init() {
	addScenarioFlag(validateCmd)
	addScenarioFlag(convertCmd)
	convertCmd.Flags().String("out", "", "Output YAML path (default: stdout)")
}

// validateScenario loads path and prints a one-line summary of what it contains.
func validateScenario(path string, out io.Writer) error {
	w, err := scenario.Load(path)
	if err != nil {
		return err
	}
	kinds := make(map[sim.EventKind]int)
	for _, ev := range w.Events {
		kinds[ev.Kind()]++
	}
	_, err = fmt.Fprintf(out, "%s: OK (%d nodes, %d vehicles, %d warehouses, %d events: %d arrivals, %d restocks, %d cancels, %d maintenance, %d reroutes)\n",
		path, len(w.Matrix), len(w.Vehicles), len(w.Warehouses), len(w.Events),
		kinds[sim.KindOrderArrival], kinds[sim.KindRestock], kinds[sim.KindCancel],
		kinds[sim.KindMaintenance], kinds[sim.KindReroute])
	return err
}

func convertScenario(path, dest string, stdout io.Writer) error {
	w, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if dest == "" {
		return scenario.WriteYAML(stdout, w)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := scenario.WriteYAML(f, w); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
