package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/dashboard"
)

var (
	docFormat    string
	downloadOpen bool
)

var checkCmd = &cobra.Command{
	Use:   "check <project-id>",
	Short: "Check whether the acta has been generated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := acta.ParseFormat(docFormat)
		if err != nil {
			return err
		}
		status, err := application.Service.CheckDocument(cmd.Context(), args[0], format)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !status.Available {
			fmt.Fprintf(out, "%s (%s): not generated\n", status.ProjectID, format)
			return nil
		}
		fmt.Fprintf(out, "%s (%s): available", status.ProjectID, format)
		if status.LastModified != "" {
			fmt.Fprintf(out, ", last modified %s", status.LastModified)
		}
		fmt.Fprintln(out)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <project-id>",
	Short: "Print (or open) the download link of a generated acta",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := acta.ParseFormat(docFormat)
		if err != nil {
			return err
		}
		var opener dashboard.Opener = dashboard.PrintOpener{W: cmd.OutOrStdout()}
		if downloadOpen {
			opener = browserOpener(cmd)
		}
		return reported(newController(cmd, args[0], opener).Download(cmd.Context(), format))
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <project-id>",
	Short: "Open the PDF of a generated acta",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reported(newController(cmd, args[0], browserOpener(cmd)).Preview(cmd.Context()))
	},
}

var sendApprovalCmd = &cobra.Command{
	Use:   "send-approval <project-id> <client-email>",
	Short: "Email the acta to the client for approval",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reported(newController(cmd, args[0], nil).SendApproval(cmd.Context(), args[1]))
	},
}

func init() {
	checkCmd.Flags().StringVar(&docFormat, "format", "pdf", "Document format: pdf or docx")
	downloadCmd.Flags().StringVar(&docFormat, "format", "pdf", "Document format: pdf or docx")
	downloadCmd.Flags().BoolVar(&downloadOpen, "open", false, "Open the link instead of printing it")
}

// newController runs single actions through the same controller as the
// dashboard, with notifications printed to stderr.
func newController(cmd *cobra.Command, projectID string, opener dashboard.Opener) *dashboard.Controller {
	ctrl := dashboard.NewController(application.Service, dashboard.NewTerminalNotifier(cmd.ErrOrStderr()), opener, "")
	ctrl.SetProjects([]acta.Project{{ID: projectID}})
	_ = ctrl.Select(projectID)
	return ctrl
}

func browserOpener(cmd *cobra.Command) dashboard.Opener {
	return dashboard.FallbackOpener{
		dashboard.BrowserOpener{},
		dashboard.PrintOpener{W: cmd.OutOrStdout()},
	}
}

// reported wraps controller errors, which were already shown as a
// notification.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}
