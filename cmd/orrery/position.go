package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

func (a *app) newPositionCmd() *cobra.Command {
	var (
		date string
		from string
		axes string
	)
	cmd := &cobra.Command{
		Use:   "position PATH",
		Short: "Print the position of an object relative to another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if axes != "ecliptic" && axes != "equator" {
				return fmt.Errorf("unknown frame %q (want ecliptic or equator)", axes)
			}
			jd, err := a.parseJD(date)
			if err != nil {
				return err
			}
			u, err := a.loadUniverse(cmd.Context())
			if err != nil {
				return err
			}

			target, err := u.FindAt(args[0], jd)
			if err != nil {
				return err
			}
			if from == "" {
				from = strings.SplitN(args[0], "/", 2)[0]
			}
			origin, err := u.FindAt(from, jd)
			if err != nil {
				return err
			}

			v := target.Position(jd).DifferenceKm(origin.Position(jd))
			x, y, z := v.X, v.Y, v.Z
			if axes == "equator" {
				x, y, z = astro.EclipticToEquatorial(x, y, z)
			}
			dist := r3.Norm(v)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s relative to %s at %s UTC (%s axes)\n",
				target.Name(), origin.Name(), a.leap.TDBtoUTC(jd), axes)
			fmt.Fprintf(out, "  x = %.3f km\n  y = %.3f km\n  z = %.3f km\n", x, y, z)
			fmt.Fprintf(out, "  distance = %.3f km (%.9f AU)\n", dist, astro.KmToAU(dist))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "now", "date (UTC date, Julian date or \"now\")")
	cmd.Flags().StringVar(&from, "from", "", "origin object; defaults to the star of PATH")
	cmd.Flags().StringVar(&axes, "frame", "ecliptic", "output axes: ecliptic or equator")
	return cmd
}

func (a *app) newDateCmd() *cobra.Command {
	var fromJD bool
	cmd := &cobra.Command{
		Use:   "date [DATE]",
		Short: "Convert between UTC calendar dates and TDB Julian dates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := "now"
			if len(args) == 1 {
				in = args[0]
			}
			out := cmd.OutOrStdout()
			if fromJD {
				jd, err := strconv.ParseFloat(in, 64)
				if err != nil {
					return fmt.Errorf("bad julian date %q", in)
				}
				fmt.Fprintf(out, "%s UTC\n", a.leap.TDBtoUTC(jd))
				return nil
			}
			jd, err := a.parseJD(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "JD %.6f TDB\n", jd)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromJD, "jd", false, "treat DATE as a TDB Julian date and print UTC")
	return cmd
}
