package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ikusi/acta-ui/internal/acta"
)

var (
	projectsPM   string
	projectsJSON bool

	bulkPM          string
	bulkConcurrency int
	bulkRate        float64
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := application.Service.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", h.Status, h.Message)
		if !h.Healthy() {
			return fmt.Errorf("backend reported status %q", h.Status)
		}
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Long: `List the projects visible to the signed-in user. With --pm only the
projects of that project manager are listed; --pm admin-all-access lists
every project.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			projects []acta.Project
			err      error
		)
		if projectsPM != "" {
			projects, err = application.Service.ProjectsForManager(cmd.Context(), projectsPM)
		} else {
			projects, err = application.Service.ListProjects(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printProjects(cmd.OutOrStdout(), projects, projectsJSON)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <project-id>",
	Short: "Trigger acta generation for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := newController(cmd, args[0], nil)
		return reported(ctrl.Generate(cmd.Context()))
	},
}

var bulkGenerateCmd = &cobra.Command{
	Use:   "bulk-generate",
	Short: "Trigger acta generation for every project of a manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		projects, err := application.Service.ProjectsForManager(ctx, bulkPM)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}

		res := application.Service.BulkGenerate(ctx, ids, bulkConcurrency, bulkRate)
		out := cmd.OutOrStdout()
		for _, id := range res.Succeeded {
			fmt.Fprintf(out, "ok     %s\n", id)
		}
		for _, f := range res.Failed {
			fmt.Fprintf(out, "failed %s: %v\n", f.ProjectID, f.Err)
		}
		fmt.Fprintf(out, "%d of %d generated\n", len(res.Succeeded), res.Total())
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d of %d generations failed", len(res.Failed), res.Total())
		}
		return nil
	},
}

func init() {
	projectsCmd.Flags().StringVar(&projectsPM, "pm", "", "Project manager email")
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "Print JSON")

	bulkGenerateCmd.Flags().StringVar(&bulkPM, "pm", "", "Project manager email (required)")
	bulkGenerateCmd.Flags().IntVar(&bulkConcurrency, "concurrency", acta.DefaultBulkConcurrency, "Parallel requests")
	bulkGenerateCmd.Flags().Float64Var(&bulkRate, "rate", acta.DefaultBulkRate, "Requests per second")
	_ = bulkGenerateCmd.MarkFlagRequired("pm")
}
