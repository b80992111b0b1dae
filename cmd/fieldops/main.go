// Command fieldops is the field operations maintenance CLI.
//
// Usage:
//
//	fieldops migrate
//	fieldops seed --csv jobs.csv [--dry-run]
//	fieldops scan [--dry-run]
//	fieldops candidates --lat 39.1653 --lng -86.5264
//	fieldops distance 39.1653 -86.5264 41.8781 -87.6298
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldline/ops-backend/internal/auth"
	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/config"
	"github.com/fieldline/ops-backend/internal/db"
	"github.com/fieldline/ops-backend/internal/fieldops"
	"github.com/fieldline/ops-backend/internal/geo"
)

func main() {
	_ = godotenv.Load(".env.local")

	root := &cobra.Command{
		Use:          "fieldops",
		Short:        "Field operations maintenance CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(candidatesCmd())
	root.AddCommand(distanceCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the auth and fieldops schemas and tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, store *fieldops.GormStore) error {
				auth.Init()
				return fieldops.Migrate(db.DB)
			})
		},
	}
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	var csvPath string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert jobs and permits from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := fieldops.ParseSeedCSV(f)
			if err != nil {
				return fmt.Errorf("CSV error: %w", err)
			}
			fmt.Printf("Loaded %d jobs and %d permits from %s\n", len(data.Jobs), len(data.Permits), csvPath)

			if dryRun {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSITE")
				for _, j := range data.Jobs {
					site := "-"
					if j.SiteLat != nil {
						site = fmt.Sprintf("%.5f,%.5f", *j.SiteLat, *j.SiteLng)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.ID, j.Name, j.Status, site)
				}
				_ = w.Flush()
				fmt.Println("Dry run complete. No changes made.")
				return nil
			}

			return withStore(func(ctx context.Context, cfg *config.Config, store *fieldops.GormStore) error {
				if err := store.Seed(ctx, data); err != nil {
					return err
				}
				log.Printf("[seed] upserted %d jobs, %d permits", len(data.Jobs), len(data.Permits))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the seed CSV (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate only; no DB writes")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

// --------------------------------------------------------------------------
// scan command
// --------------------------------------------------------------------------

func scanCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the compliance scan and record new alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, store *fieldops.GormStore) error {
				svc := fieldops.NewService(store, cfg.Policy, cfg.Timezone)

				var alerts, fresh []compliance.Alert
				var err error
				if dryRun {
					alerts, err = svc.Scan(ctx)
				} else {
					alerts, fresh, err = svc.ScanAndRecord(ctx)
				}
				if err != nil {
					return err
				}

				isNew := make(map[string]bool, len(fresh))
				for _, a := range fresh {
					isNew[a.ID] = true
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SEVERITY\tID\tNEW\tMESSAGE")
				for _, a := range alerts {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", a.Severity, a.ID, isNew[a.ID], a.Message)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print alerts without recording them")
	return cmd
}

// --------------------------------------------------------------------------
// candidates and distance commands
// --------------------------------------------------------------------------

func candidatesCmd() *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List every job whose geofence contains a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, store *fieldops.GormStore) error {
				svc := fieldops.NewService(store, cfg.Policy, cfg.Timezone)
				matches, err := svc.Candidates(ctx, geo.Point{Lat: lat, Lng: lng})
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "JOB\tDISTANCE_M\tRADIUS_M")
				for _, m := range matches {
					fmt.Fprintf(w, "%s\t%.1f\t%.0f\n", m.EntityID, m.DistanceMeters, m.RadiusMeters)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func distanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance LAT1 LNG1 LAT2 LNG2",
		Short: "Print the great-circle distance in meters between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				v[i] = f
			}
			d := geo.DistanceMeters(geo.Point{Lat: v[0], Lng: v[1]}, geo.Point{Lat: v[2], Lng: v[3]})
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", d)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withStore handles config loading, the DB connection and interrupt handling.
func withStore(fn func(ctx context.Context, cfg *config.Config, store *fieldops.GormStore) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	db.Connect(cfg.DatabaseURL, cfg.SlowQueryTime)
	return fn(ctx, cfg, fieldops.NewGormStore(db.DB))
}
