package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
)

func newTaskCmd(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Create, inspect and update tasks",
		Long: `Task commands act as the user given with --as (or $DELEGATE_USER).
The password comes from $DELEGATE_PASSWORD or a terminal prompt.`,
	}
	cmd.AddCommand(newTaskCreateCmd(opts))
	cmd.AddCommand(newTaskShowCmd(opts))
	cmd.AddCommand(newTaskListCmd(opts))
	cmd.AddCommand(newTaskUpdateCmd(opts))
	return cmd
}

func newTaskCreateCmd(opts *GlobalOptions) *cobra.Command {
	var (
		title, description, due string
		priority, status        string
		responsible             string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Assign a task to a direct subordinate",
		Example: `  delegate task create --as boss --responsible alice \
      --title "Quarterly report" --due 2025-01-10 --priority high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := a.actor(ctx, opts)
			if err != nil {
				return err
			}

			in := domain.NewTask{
				Title:       title,
				Description: description,
				Priority:    domain.Priority(priority),
				Status:      domain.Status(status),
			}
			if due != "" {
				d, err := domain.ParseDate(due)
				if err != nil {
					return domain.Invalid(domain.FieldDueDate, "%v", err)
				}
				in.DueDate = &d
			}
			if responsible != "" {
				r, err := resolveUser(ctx, a.dir, responsible)
				if err != nil {
					return fmt.Errorf("failed to find responsible %s: %w", responsible, err)
				}
				in.ResponsibleID = r.ID
			}

			task, err := a.svc.CreateTask(ctx, actor.ID, in)
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created task #%d for %s\n", task.ID,
				domain.GroupKey(task.ResponsibleSurname, task.ResponsibleName))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD (required)")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(domain.PriorityMedium), "Priority: low|medium|high")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default to_do)")
	cmd.Flags().StringVarP(&responsible, "responsible", "r", "", "Responsible subordinate login or id (required)")
	return cmd
}

func newTaskShowCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task you may view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "id")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := a.actor(ctx, opts)
			if err != nil {
				return err
			}
			task, err := a.svc.GetTask(ctx, actor.ID, id)
			if err != nil {
				return err
			}
			renderTaskDetails(cmd.OutOrStdout(), task)
			return nil
		},
	}
}

func newTaskListCmd(opts *GlobalOptions) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		Long: `List tasks visible to you.

Groups:
  none         every task you created, are responsible for, or whose
               responsible party reports to you
  date         open tasks you are responsible for, by due date
               (today, the next 7 days, later)
  responsible  tasks of your direct subordinates, by subordinate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := views.ParseMode(group)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := a.actor(ctx, opts)
			if err != nil {
				return err
			}
			result, err := a.svc.ListTasks(ctx, actor.ID, mode)
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", string(views.ModeNone), "Grouping: none|date|responsible")
	return cmd
}

func renderResult(w io.Writer, result *views.Result) {
	switch result.Mode {
	case views.ModeDate:
		for _, bucket := range views.Buckets {
			tasks := result.ByDate.Get(bucket)
			fmt.Fprintln(w, StyleHeader.Render(fmt.Sprintf(" %s (%d) ", bucket, len(tasks))))
			renderTaskTable(w, tasks)
		}
	case views.ModeResponsible:
		for _, key := range views.GroupKeys(result.ByResponsible) {
			tasks := result.ByResponsible[key]
			fmt.Fprintln(w, StyleHeader.Render(fmt.Sprintf(" %s (%d) ", key, len(tasks))))
			renderTaskTable(w, tasks)
		}
	default:
		renderTaskTable(w, result.Tasks)
	}
}

func newTaskUpdateCmd(opts *GlobalOptions) *cobra.Command {
	var (
		title, description, due string
		priority, status        string
		responsible             string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags you pass are changed.

The creator may change any field. The responsible user and the creator's
leader may change only --status.`,
		Example: `  delegate task update 12 --as alice --status in_progress
  delegate task update 12 --as boss --due 2025-02-01 --priority low`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "id")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			actor, err := a.actor(ctx, opts)
			if err != nil {
				return err
			}

			var patch domain.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("due") {
				d, err := domain.ParseDate(due)
				if err != nil {
					return domain.Invalid(domain.FieldDueDate, "%v", err)
				}
				patch.DueDate = &d
			}
			if flags.Changed("priority") {
				p := domain.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s := domain.Status(status)
				patch.Status = &s
			}
			if flags.Changed("responsible") {
				r, err := resolveUser(ctx, a.dir, responsible)
				if err != nil {
					return fmt.Errorf("failed to find responsible %s: %w", responsible, err)
				}
				patch.ResponsibleID = &r.ID
			}

			task, err := a.svc.UpdateTask(ctx, actor.ID, id, patch)
			if err != nil {
				return fmt.Errorf("failed to update task #%d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated task #%d (%s)\n", task.ID, task.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears)")
	cmd.Flags().StringVar(&due, "due", "", "New due date YYYY-MM-DD")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: low|medium|high")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status: to_do|in_progress|done|cancelled")
	cmd.Flags().StringVarP(&responsible, "responsible", "r", "", "New responsible login or id")
	return cmd
}
