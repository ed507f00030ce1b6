package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ikusi/acta-ui/internal/dashboard"
	"github.com/ikusi/acta-ui/internal/dashboard/tui"
	"github.com/ikusi/acta-ui/internal/session"
)

var dashboardPM string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive project dashboard",
	Long: `Opens the terminal dashboard: browse projects, generate actas, preview
and download them, and send them for approval. The session ends after the
idle timeout or when the token expires.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardPM, "pm", "", "Only show this project manager's projects")
	dashboardCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username when a sign-in is needed")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if _, ok := session.IDToken(ctx, application.Store); !ok && !application.Config.Auth.SkipAuth {
		if err := runLogin(cmd, nil); err != nil {
			return err
		}
	}

	queue := &dashboard.Queue{}
	opener := dashboard.FallbackOpener{dashboard.BrowserOpener{}, dashboard.ClipboardOpener{}}
	ctrl := dashboard.NewController(application.Service, queue, opener, dashboardPM)

	title := "ACTA dashboard"
	if application.Mock {
		title += " (mock)"
	}
	watcher := application.Watcher
	p := tea.NewProgram(tui.New(ctx, ctrl, queue, title, watcher.Touch),
		tea.WithContext(ctx), tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))

	watcher.OnSignOut(func(reason string) {
		p.Send(tui.SignedOutMsg{Reason: reason})
	})
	if err := watcher.Start(""); err != nil {
		return err
	}
	defer watcher.Stop()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.Model); ok && m.SignedOut() != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Session ended (%s). Run `acta login` to sign in again.\n", m.SignedOut())
	}
	return nil
}
