package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ikusi/acta-ui/internal/acta"
)

var (
	awsPM     string
	awsFormat string
)

var awsCmd = &cobra.Command{
	Use:   "aws",
	Short: "Read the projects table and document bucket directly",
	Long: `Operator commands that bypass the API and use your own AWS credentials
(environment or --profile). Configure ACTA_DYNAMODB_TABLE, ACTA_S3_BUCKET
and ACTA_S3_REGION.`,
}

var awsProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Scan the projects table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		table, _, err := application.AWSData(ctx)
		if err != nil {
			return err
		}
		var projects []acta.Project
		if awsPM != "" {
			projects, err = table.ByManager(ctx, awsPM)
		} else {
			projects, err = table.All(ctx)
		}
		if err != nil {
			return err
		}
		return printProjects(cmd.OutOrStdout(), projects, projectsJSON)
	},
}

var awsExistsCmd = &cobra.Command{
	Use:   "exists <project-id>",
	Short: "Check the bucket for a generated acta",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := acta.ParseFormat(awsFormat)
		if err != nil {
			return err
		}
		_, docs, err := application.AWSData(ctx)
		if err != nil {
			return err
		}
		status, err := docs.Exists(ctx, args[0], format)
		if err != nil {
			return err
		}
		if !status.Available {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not found\n", status.Key)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, last modified %s\n", status.Key, status.Size, status.LastModified)
		return nil
	},
}

var awsPresignCmd = &cobra.Command{
	Use:   "presign <project-id>",
	Short: "Print a temporary download URL from the bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := acta.ParseFormat(awsFormat)
		if err != nil {
			return err
		}
		_, docs, err := application.AWSData(ctx)
		if err != nil {
			return err
		}
		url, err := docs.PresignURL(ctx, args[0], format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	awsProjectsCmd.Flags().StringVar(&awsPM, "pm", "", "Project manager email")
	awsProjectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "Print JSON")
	awsCmd.PersistentFlags().StringVar(&awsFormat, "format", "pdf", "Document format: pdf or docx")

	awsCmd.AddCommand(awsProjectsCmd, awsExistsCmd, awsPresignCmd)
}
