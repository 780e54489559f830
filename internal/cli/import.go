package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ohare93/delegate/internal/domain"
)

// SeedFile is the YAML layout accepted by "user import". Leaders and task
// parties are referenced by login; a leader may appear later in the file.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
	Tasks []SeedTask `yaml:"tasks,omitempty"`
}

type SeedUser struct {
	Login      string `yaml:"login"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Surname    string `yaml:"surname"`
	Patronymic string `yaml:"patronymic,omitempty"`
	Leader     string `yaml:"leader,omitempty"`
}

type SeedTask struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	DueDate     string `yaml:"due_date"`
	Priority    string `yaml:"priority"`
	Status      string `yaml:"status,omitempty"`
	Creator     string `yaml:"creator"`
	Responsible string `yaml:"responsible"`
}

// importSummary counts what an import did
type importSummary struct {
	Created, Existing, Leaders, Tasks int
}

func newUserImportCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Import users and tasks from a YAML seed file",
		Long: `Import users and, optionally, tasks from a YAML file:

  users:
    - {login: boss, password: pw, name: Dina, surname: Director}
    - {login: alice, password: pw, name: Alice, surname: Smith, leader: boss}
  tasks:
    - {title: Report, due_date: 2025-01-10, priority: high, creator: boss, responsible: alice}

Users whose login already exists are kept as they are. Tasks go through the
normal creation rules, so each creator must lead the task's responsible user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer f.Close()

			seed, err := parseSeed(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := importSeed(ctx, a, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d users (%d already present), %d leader links, %d tasks\n",
				sum.Created, sum.Existing, sum.Leaders, sum.Tasks)
			return nil
		},
	}
}

func parseSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// importSeed registers users first, links leaders second and creates tasks
// last, so forward references between users resolve.
func importSeed(ctx context.Context, a *app, seed *SeedFile) (importSummary, error) {
	var sum importSummary
	ids := make(map[string]int64, len(seed.Users))

	for _, su := range seed.Users {
		user, err := a.dir.Register(ctx, domain.NewUser{
			Login:      su.Login,
			Password:   su.Password,
			Name:       su.Name,
			Surname:    su.Surname,
			Patronymic: su.Patronymic,
		})
		switch {
		case errors.Is(err, domain.ErrConflict):
			user, err = a.dir.FindByLogin(ctx, su.Login)
			if err != nil {
				return sum, fmt.Errorf("failed to load existing user %s: %w", su.Login, err)
			}
			sum.Existing++
		case err != nil:
			return sum, fmt.Errorf("failed to register %s: %w", su.Login, err)
		default:
			sum.Created++
		}
		ids[user.Login] = user.ID
	}

	lookup := func(login string) (int64, error) {
		if id, ok := ids[login]; ok {
			return id, nil
		}
		u, err := a.dir.FindByLogin(ctx, login)
		if err != nil {
			return 0, err
		}
		ids[login] = u.ID
		return u.ID, nil
	}

	for _, su := range seed.Users {
		if su.Leader == "" {
			continue
		}
		leaderID, err := lookup(su.Leader)
		if err != nil {
			return sum, fmt.Errorf("failed to find leader %s of %s: %w", su.Leader, su.Login, err)
		}
		if _, err := a.dir.SetLeader(ctx, ids[su.Login], &leaderID); err != nil {
			return sum, fmt.Errorf("failed to set leader of %s: %w", su.Login, err)
		}
		sum.Leaders++
	}

	for i, st := range seed.Tasks {
		creatorID, err := lookup(st.Creator)
		if err != nil {
			return sum, fmt.Errorf("task %d: failed to find creator %s: %w", i+1, st.Creator, err)
		}
		responsibleID, err := lookup(st.Responsible)
		if err != nil {
			return sum, fmt.Errorf("task %d: failed to find responsible %s: %w", i+1, st.Responsible, err)
		}
		due, err := domain.ParseDate(st.DueDate)
		if err != nil {
			return sum, fmt.Errorf("task %d: %w", i+1, domain.Invalid(domain.FieldDueDate, "%v", err))
		}
		_, err = a.svc.CreateTask(ctx, creatorID, domain.NewTask{
			Title:         st.Title,
			Description:   st.Description,
			DueDate:       &due,
			Priority:      domain.Priority(st.Priority),
			Status:        domain.Status(st.Status),
			ResponsibleID: responsibleID,
		})
		if err != nil {
			return sum, fmt.Errorf("task %d (%s): %w", i+1, st.Title, err)
		}
		sum.Tasks++
	}

	return sum, nil
}
