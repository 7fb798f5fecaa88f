package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/seed"
)

var (
	seedProject string
	seedUser    string
	seedDays    int
	seedValue   int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo visibility checks",
	Long: `Generate days × keywords × engines demo checks. Without --project a new
"Acme Widgets" project is created for --user. The same --seed always produces
the same data.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedProject, "project", "p", "", "Existing project ID (owned by --user)")
	seedCmd.Flags().StringVarP(&seedUser, "user", "u", "", "Owner user ID")
	seedCmd.Flags().IntVar(&seedDays, "days", seed.DefaultDays, "Number of days to generate")
	seedCmd.Flags().Int64Var(&seedValue, "seed", seed.DefaultSeed, "Random seed")
	_ = seedCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	engines := make([]string, 0, len(e.cfg.Checks.Engines))
	for _, eng := range e.cfg.Checks.Engines {
		engines = append(engines, eng.Name)
	}

	s := &seed.Seeder{
		Projects: e.stores.Projects,
		Checks:   e.stores.Checks,
		Engines:  engines,
		Clock:    application.SystemClock{},
		Logger:   e.logger,
	}
	res, err := s.Run(ctx, seedUser, visibility.ProjectID(seedProject), seedDays, seedValue)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d visibility checks for project %q (%s)\n", res.Checks, res.Project.Name, res.Project.ID)
	return nil
}
