package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/internal/config"
	"github.com/signalsfoundry/orrery/internal/logging"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by the subcommands once the root command has
// loaded configuration.
type app struct {
	cfgFile string
	cfg     config.Config
	log     logging.Logger
	logOut  io.Writer
	leap    astro.LeapSecondTable
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{logOut: stderr, leap: astro.DefaultLeapSeconds()}

	root := &cobra.Command{
		Use:          "orrery",
		Short:        "Simulate the solar system and an observer travelling through it",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.NewWithWriter(a.logOut, cfg.Log)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML configuration file")

	root.AddCommand(a.newRunCmd(), a.newPositionCmd(), a.newDateCmd())
	return root
}

// loadUniverse builds the universe from the configured scenario, or the
// built-in solar system when none is set.
func (a *app) loadUniverse(ctx context.Context) (*catalog.Universe, error) {
	u := catalog.NewUniverse(a.log)
	f := catalog.NewFactory(a.log)
	f.Leap = a.leap

	var (
		res *catalog.Scenario
		err error
	)
	if a.cfg.Scenario == "" {
		res, err = catalog.LoadDefault(u, f)
	} else {
		res, err = catalog.LoadScenarioFile(u, f, a.cfg.Scenario)
	}
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	if len(res.Skipped) > 0 {
		a.log.Warn(ctx, "scenario had invalid objects", logging.Int("skipped", len(res.Skipped)))
	}
	return u, nil
}

// parseJD accepts "now", a UTC calendar date, or a bare Julian date.
func (a *app) parseJD(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "now") {
		return a.leap.UTCtoTDB(astro.DateFromTime(time.Now())), nil
	}
	if d, err := astro.ParseDate(s); err == nil {
		return a.leap.UTCtoTDB(d), nil
	}
	if jd, err := strconv.ParseFloat(s, 64); err == nil {
		return jd, nil
	}
	return 0, fmt.Errorf("unrecognised date %q", s)
}
