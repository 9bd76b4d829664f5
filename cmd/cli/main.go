// Command mecanum-engine runs the robot routine against a simulated robot.
//
//	mecanum-engine run [input.json]   reads a SimulationInput from the file (or
//	                                  stdin) and writes the SimulationLog to stdout
//	mecanum-engine defaults           writes the default SimulationInput
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/ttacon/chalk"
	"github.com/urfave/cli"

	"github.com/cxd309/mecanum-engine/internal/engine"
)

func main() {
	if err := makeapp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, chalk.Red, "error:", err, chalk.Reset)
		os.Exit(1)
	}
}

func makeapp() *cli.App {
	app := cli.NewApp()
	app.Name = "mecanum-engine"
	app.Usage = "Simulate the autonomous routine of a mecanum robot"

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "Run a simulation",
			ArgsUsage: "[input.json]",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "summary", Usage: "Print a run summary to stderr"},
				cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
				cli.BoolFlag{Name: "indent", Usage: "Indent the output JSON"},
			},
			Action: func(c *cli.Context) error {
				logger, err := engine.NewLogger("mecanum-engine", c.Bool("debug"))
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
				return runAction(c.Args().First(), c.Bool("summary"), c.Bool("indent"), logger)
			},
		},
		{
			Name:  "defaults",
			Usage: "Print the default simulation input",
			Action: func(c *cli.Context) error {
				return writeJSON(os.Stdout, engine.DefaultInput(), true)
			},
		},
	}

	return app
}

func runAction(path string, summary, indent bool, logger golog.Logger) error {
	data, err := readInput(path)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	input, err := engine.ParseInput(string(data))
	if err != nil {
		return err
	}
	robot, err := engine.NewRobot(input, logger)
	if err != nil {
		return errors.Wrap(err, "simulation")
	}
	log := robot.Run()
	if summary {
		printSummary(os.Stderr, log)
	}
	return writeJSON(os.Stdout, log, indent)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(v), "writing output")
}

func printSummary(w io.Writer, log engine.SimulationLog) {
	color := chalk.Green
	if log.FinalState != "Stop" && log.FinalState != "Manual" {
		color = chalk.Yellow
	}
	fmt.Fprint(w, color)
	fmt.Fprintf(w, "simulation %s\n", log.Meta.SimulationID)
	fmt.Fprintf(w, "  steps:       %d\n", len(log.Output))
	fmt.Fprintf(w, "  stone:       %d\n", log.Stone)
	fmt.Fprintf(w, "  final state: %s\n", log.FinalState)
	if n := len(log.Output); n > 0 {
		fmt.Fprintf(w, "  final pose:  %s\n", log.Output[n-1].Hardware.TruePose)
	}
	fmt.Fprint(w, chalk.Reset)
}
