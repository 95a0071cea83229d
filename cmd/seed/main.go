package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/oggyb/fittrack/internal/config"
	"github.com/oggyb/fittrack/internal/db"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "seed populates the fittrack database",
	Long:  "seed creates the default workout catalog and optional demo data. It uses the same DB_* environment as the server.",
}

var workoutsCmd = &cobra.Command{
	Use:   "workouts",
	Short: "Create the default workout templates and exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := open()
		if err != nil {
			return err
		}
		n, err := db.SeedDefaultWorkouts(database)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Default workouts already present")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d default workouts\n", n)
		return nil
	},
}

var (
	demoPhone string
	demoDays  int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a demo user with a push/pull/legs history of sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if demoDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		database, err := open()
		if err != nil {
			return err
		}
		if _, err := db.SeedDefaultWorkouts(database); err != nil {
			return err
		}
		u, err := db.SeedDemoUser(database, demoPhone)
		if err != nil {
			return err
		}
		n, err := db.SeedDemoSets(database, u.ID, demoDays, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sets over %d days for user %d (%s)\n", n, demoDays, u.ID, u.PhoneNumber)
		return nil
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoPhone, "phone", "+15550000000", "Phone number of the demo user")
	demoCmd.Flags().IntVar(&demoDays, "days", 14, "Number of days of history ending today")
	rootCmd.AddCommand(workoutsCmd, demoCmd)
}

func open() (*gorm.DB, error) {
	return db.NewDB(config.New())
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
