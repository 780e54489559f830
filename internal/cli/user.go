package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
)

func newUserCmd(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage the user directory",
	}
	cmd.AddCommand(newUserAddCmd(opts))
	cmd.AddCommand(newUserShowCmd(opts))
	cmd.AddCommand(newUserSubordinatesCmd(opts))
	cmd.AddCommand(newUserSetLeaderCmd(opts))
	cmd.AddCommand(newUserImportCmd(opts))
	return cmd
}

func newUserAddCmd(opts *GlobalOptions) *cobra.Command {
	var in domain.NewUser
	var leader string

	cmd := &cobra.Command{
		Use:   "add <login>",
		Short: "Register a user",
		Long: `Register a user. The password is read from $DELEGATE_PASSWORD or
prompted for on the terminal.

Examples:
  delegate user add boss --name Dina --surname Director
  delegate user add alice --name Alice --surname Smith --leader boss`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			in.Login = args[0]
			if leader != "" {
				l, err := resolveUser(ctx, a.dir, leader)
				if err != nil {
					return fmt.Errorf("failed to find leader %s: %w", leader, err)
				}
				in.LeaderID = &l.ID
			}
			if in.Password, err = readPassword(fmt.Sprintf("Password for %s: ", in.Login)); err != nil {
				return err
			}

			user, err := a.dir.Register(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to register %s: %w", in.Login, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Registered %s as #%d\n", user.Login, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Given name (required)")
	cmd.Flags().StringVar(&in.Surname, "surname", "", "Surname (required)")
	cmd.Flags().StringVar(&in.Patronymic, "patronymic", "", "Patronymic")
	cmd.Flags().StringVar(&leader, "leader", "", "Leader login or id")
	return cmd
}

func newUserShowCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <login|id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := resolveUser(ctx, a.dir, args[0])
			if err != nil {
				return err
			}
			renderUserDetails(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func newUserSubordinatesCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "subordinates <login|id>",
		Aliases: []string{"subs"},
		Short:   "List a user's direct subordinates",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			leader, err := resolveUser(ctx, a.dir, args[0])
			if err != nil {
				return err
			}
			subs, err := a.dir.SubordinatesOf(ctx, leader.ID)
			if err != nil {
				return err
			}
			directory.SortForDisplay(subs)
			renderUserTable(cmd.OutOrStdout(), subs)
			return nil
		},
	}
}

func newUserSetLeaderCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-leader <login|id> <leader-login|id|none>",
		Short: "Move a user under a new leader",
		Long: `Move a user under a new leader, or make them a root manager with "none".
The change is refused if it would create a reporting cycle.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := resolveUser(ctx, a.dir, args[0])
			if err != nil {
				return err
			}

			var leaderID *int64
			if !strings.EqualFold(args[1], "none") {
				leader, err := resolveUser(ctx, a.dir, args[1])
				if err != nil {
					return fmt.Errorf("failed to find leader %s: %w", args[1], err)
				}
				leaderID = &leader.ID
			}

			if _, err := a.dir.SetLeader(ctx, user.ID, leaderID); err != nil {
				return fmt.Errorf("failed to set leader: %w", err)
			}
			if leaderID == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now reports to nobody\n", user.Login)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now reports to #%d\n", user.Login, *leaderID)
			}
			return nil
		},
	}
}
