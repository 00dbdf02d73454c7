package cmd

import (
	"fmt"
	"io"

	"attendance/config"
	"attendance/services"

	"github.com/spf13/cobra"
)

var (
	geofenceLat      float64
	geofenceLon      float64
	geofenceAccuracy float64
)

var geofenceCmd = &cobra.Command{
	Use:   "geofence",
	Short: "Check whether a position is inside the attendance area",
	Args:  cobra.NoArgs,
	RunE:  runGeofence,
}

func init() {
	geofenceCmd.Flags().Float64Var(&geofenceLat, "lat", 0, "Latitude of the position")
	geofenceCmd.Flags().Float64Var(&geofenceLon, "lon", 0, "Longitude of the position")
	geofenceCmd.Flags().Float64Var(&geofenceAccuracy, "accuracy", 0, "Reported accuracy in meters")
	_ = geofenceCmd.MarkFlagRequired("lat")
	_ = geofenceCmd.MarkFlagRequired("lon")
}

func runGeofence(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	policy := config.GeofenceFromEnv()
	obs := services.Observation{Latitude: geofenceLat, Longitude: geofenceLon, AccuracyMeters: geofenceAccuracy}
	printGeofence(cmd.OutOrStdout(), policy.Evaluate(obs))
	return nil
}

func printGeofence(w io.Writer, r services.GeofenceResult) {
	fmt.Fprintf(w, "distance:      %.1f m\n", r.DistanceMeters)
	if r.Degraded {
		fmt.Fprintf(w, "radius:        %.0f m (reduced, accuracy %.0f m)\n", r.EffectiveRadius, r.AccuracyMeters)
	} else {
		fmt.Fprintf(w, "radius:        %.0f m\n", r.EffectiveRadius)
	}
	if r.WithinBounds {
		fmt.Fprintln(w, "within bounds: yes")
	} else {
		fmt.Fprintln(w, "within bounds: no")
	}
}
