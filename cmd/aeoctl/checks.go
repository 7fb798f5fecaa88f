package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	appchecks "github.com/bryanwahyu/aeo-tracker/internal/application/checks"
	"github.com/bryanwahyu/aeo-tracker/internal/bootstrap"
	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

var (
	checksProject string
	checksAll     bool
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Visibility check commands",
}

var checksRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run visibility checks now",
	Long: `Ask every configured engine about every keyword of a project and
store the results. Failed items are logged and recorded, not retried.`,
	RunE: runChecks,
}

func init() {
	checksRunCmd.Flags().StringVarP(&checksProject, "project", "p", "", "Project ID")
	checksRunCmd.Flags().BoolVar(&checksAll, "all", false, "Run every project")
	checksRunCmd.MarkFlagsMutuallyExclusive("project", "all")
	checksRunCmd.MarkFlagsOneRequired("project", "all")
	checksCmd.AddCommand(checksRunCmd)
	rootCmd.AddCommand(checksCmd)
}

func runChecks(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	engines, err := bootstrap.Engines(ctx, e.cfg)
	if err != nil {
		return err
	}
	svc := &appchecks.Service{
		Projects:    e.stores.Projects,
		Checks:      e.stores.Checks,
		Failures:    e.stores.Failures,
		Engines:     engines,
		Clock:       application.SystemClock{},
		Logger:      e.logger,
		Concurrency: e.cfg.Checks.Concurrency,
	}

	if checksAll {
		total, err := svc.RunAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d checks created\n", total)
		return nil
	}

	// operator tool: no session, so find the project across all owners
	project, err := findProject(cmd, e, visibility.ProjectID(checksProject))
	if err != nil {
		return err
	}
	result := svc.RunProject(ctx, project)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func findProject(cmd *cobra.Command, e *env, id visibility.ProjectID) (*visibility.Project, error) {
	all, err := e.stores.Projects.ListAll(cmd.Context())
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.Join(domain.ErrNotFound, fmt.Errorf("project %s", id))
}
