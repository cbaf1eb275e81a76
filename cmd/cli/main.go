package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/projectflow/internal/api"
	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/infrastructure/logger"
	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/session"
	"github.com/yourorg/projectflow/pkg/config"
)

// app wires the client core for one CLI invocation. The session file
// carries identity between invocations; everything else is rebuilt.
type app struct {
	cfg      *config.Config
	sessions *session.Store
	client   *api.Client
	projects *repository.ProjectRepository
	users    *repository.UserDirectory
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger("warn")

	persist, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("prepare session file: %w", err)
	}
	sessions := session.NewStore(persist, log)
	// A corrupt session file just means logging in again.
	_ = sessions.Restore(ctx)

	client := api.NewClient(cfg.APIBaseURL, sessions, log)
	users := repository.NewUserDirectory(client, log)
	projects := repository.NewProjectRepository(client, users, nil, log)

	return &app{
		cfg:      cfg,
		sessions: sessions,
		client:   client,
		projects: projects,
		users:    users,
	}, nil
}

func (a *app) requireLogin() (*domain.User, error) {
	state := a.sessions.Snapshot()
	if !state.Authenticated || state.User == nil {
		return nil, fmt.Errorf("not logged in, run: projectflow login")
	}
	return state.User, nil
}

// loadProjects fills the cache; approval, reassignment, and removal all
// consult cached state before calling out.
func (a *app) loadProjects(ctx context.Context) error {
	if err := a.projects.FetchAll(ctx); err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func main() {
	root := &cobra.Command{
		Use:           "projectflow",
		Short:         "Staff client for the ProjectFlow tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		trackCmd(),
		projectCmd(),
		developerCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your staff credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.sessions.Login(cmd.Context(), a.client, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "staff email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			a.sessions.Logout(cmd.Context())
			fmt.Println("Logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.requireLogin()
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}

func trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <reference-id>",
		Short: "Public status lookup by reference id, no login needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.loadProjects(cmd.Context()); err != nil {
				return err
			}
			project, ok := a.projects.ByReferenceID(args[0])
			if !ok {
				return fmt.Errorf("no project found for reference id %q", args[0])
			}
			pub := lifecycle.PublicView(&project)
			fmt.Printf("Client:    %s\n", pub.ClientName)
			fmt.Printf("Reference: %s\n", pub.ReferenceID)
			fmt.Printf("Status:    %s\n", pub.StatusLabel)
			if pub.Deadline != nil {
				fmt.Printf("Deadline:  %s\n", pub.Deadline.Format("2006-01-02"))
			}
			for _, n := range pub.Notes {
				fmt.Printf("  [%s] %s\n", n.CreatedAt.Format("2006-01-02"), n.Content)
			}
			return nil
		},
	}
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Work with client projects",
	}
	cmd.AddCommand(
		projectListCmd(),
		projectShowCmd(),
		projectCreateCmd(),
		projectApproveCmd(),
		projectRejectCmd(),
		projectDeleteCmd(),
		projectStatusCmd(),
		projectNoteCmd(),
		projectCredentialCmd(),
		projectDateCmd("completion", "Set the completion date"),
		projectDateCmd("renewal", "Set the renewal date"),
		projectReassignCmd(),
	)
	return cmd
}

// authedProjects is the shared preamble for project subcommands.
func authedProjects(ctx context.Context) (*app, *domain.User, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	user, err := a.requireLogin()
	if err != nil {
		return nil, nil, err
	}
	if err := a.loadProjects(ctx); err != nil {
		return nil, nil, err
	}
	return a, user, nil
}

func projectListCmd() *cobra.Command {
	var pendingOnly, mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects visible to your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}

			projects := a.projects.Projects()
			switch {
			case pendingOnly:
				projects = lifecycle.Unapproved(projects)
			case mine && user.Role == domain.RoleDeveloper:
				projects = lifecycle.AssignedTo(projects, user.ID)
			case mine:
				projects = lifecycle.CreatedBy(projects, user.ID)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tCLIENT\tSTATUS\tAPPROVED\tDEADLINE")
			now := time.Now()
			for i := range projects {
				p := &projects[i]
				deadline := "-"
				if p.Deadline != nil {
					deadline = p.Deadline.Format("2006-01-02")
					if lifecycle.IsDeadlinePassed(p, now) {
						deadline += " (overdue)"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					p.ReferenceID, p.ClientName, lifecycle.Label(p.Status), p.Approved, deadline)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only projects awaiting approval")
	cmd.Flags().BoolVar(&mine, "mine", false, "only projects created by or assigned to you")
	return cmd
}

// resolveProject accepts either a backend id or a reference id.
func resolveProject(a *app, key string) (domain.Project, error) {
	if p, ok := a.projects.ByID(key); ok {
		return p, nil
	}
	if p, ok := a.projects.ByReferenceID(key); ok {
		return p, nil
	}
	return domain.Project{}, fmt.Errorf("no project matches %q", key)
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|reference-id>",
		Short: "Show one project in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Reference:   %s\n", p.ReferenceID)
			fmt.Printf("Client:      %s <%s> %s\n", p.ClientName, p.ClientEmail, p.ClientPhone)
			fmt.Printf("Status:      %s\n", lifecycle.Label(p.Status))
			fmt.Printf("Approved:    %t\n", p.Approved)
			if p.AssignedTo != nil {
				fmt.Printf("Assigned:    %s <%s>\n", p.AssignedTo.Name, p.AssignedTo.Email)
			}
			if p.Deadline != nil {
				fmt.Printf("Deadline:    %s\n", p.Deadline.Format("2006-01-02"))
			}
			if p.CompletionDate != nil {
				fmt.Printf("Completed:   %s\n", p.CompletionDate.Format("2006-01-02"))
			}
			if p.RenewalDate != nil {
				fmt.Printf("Renewal:     %s\n", p.RenewalDate.Format("2006-01-02"))
			}
			fmt.Printf("Description: %s\n", p.Description)
			if len(p.Notes) > 0 {
				fmt.Println("Notes:")
				for _, n := range p.Notes {
					visibility := "internal"
					if n.IsPublic {
						visibility = "public"
					}
					fmt.Printf("  [%s, %s] %s: %s\n",
						n.CreatedAt.Format("2006-01-02"), visibility, n.Author, n.Content)
				}
			}
			if len(p.Credentials) > 0 {
				fmt.Println("Credentials:")
				for _, c := range p.Credentials {
					fmt.Printf("  %s/%s = %s\n", c.Type, c.Name, c.Value)
				}
			}
			return nil
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var name, email, phone, description, requirements string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new client project (sales)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			project, err := a.projects.Create(cmd.Context(), domain.ProjectDraft{
				ClientName:   name,
				ClientEmail:  email,
				ClientPhone:  phone,
				Description:  description,
				Requirements: requirements,
				CreatedBy:    user.ID,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s for %s, awaiting approval\n", project.ReferenceID, project.ClientName)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "client", "", "client name")
	cmd.Flags().StringVar(&email, "email", "", "client email")
	cmd.Flags().StringVar(&phone, "phone", "", "client phone")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&requirements, "requirements", "", "client requirements")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("description")
	cmd.MarkFlagRequired("requirements")
	return cmd
}

func projectApproveCmd() *cobra.Command {
	var developerID, deadline string
	cmd := &cobra.Command{
		Use:   "approve <id|reference-id>",
		Short: "Approve a pending project and assign a developer (cto)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			due, err := parseDate(deadline)
			if err != nil {
				return err
			}
			approved, err := a.projects.Approve(cmd.Context(), p.ID, developerID, due)
			if err != nil {
				return err
			}
			fmt.Printf("Approved %s, assigned to %s, due %s\n",
				approved.ReferenceID, developerID, due.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&developerID, "developer", "", "developer user id")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.MarkFlagRequired("developer")
	cmd.MarkFlagRequired("deadline")
	return cmd
}

// removalCmd covers both reject and delete, which share the
// request-then-confirm flow.
func removalCmd(use, short string, reject bool) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}

			if reject {
				err = a.projects.RequestReject(p.ID)
			} else {
				err = a.projects.RequestDelete(p.ID)
			}
			if err != nil {
				return err
			}

			if !confirm {
				a.projects.CancelPending()
				return fmt.Errorf("this permanently removes %s (%s); re-run with --confirm",
					p.ReferenceID, p.ClientName)
			}
			if err := a.projects.ConfirmRemoval(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", p.ReferenceID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the removal")
	return cmd
}

func projectRejectCmd() *cobra.Command {
	return removalCmd("reject <id|reference-id>", "Reject an unapproved project (cto)", true)
}

func projectDeleteCmd() *cobra.Command {
	return removalCmd("delete <id|reference-id>", "Delete a project (cto)", false)
}

func projectStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id|reference-id> <status>",
		Short: "Move a project to a new lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			status := domain.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q, one of: %v", args[1], domain.AllStatuses)
			}
			assigned := p.AssignedToID() == user.ID
			if !lifecycle.CanTransition(p.Status, status, user.Role, assigned) {
				return fmt.Errorf("role %s may not change this project's status", user.Role)
			}
			updated, err := a.projects.UpdateStatus(cmd.Context(), p.ID, status)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", updated.ReferenceID, lifecycle.Label(updated.Status))
			return nil
		},
	}
}

func projectNoteCmd() *cobra.Command {
	var content string
	var public bool
	cmd := &cobra.Command{
		Use:   "note <id|reference-id>",
		Short: "Add a progress note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, user, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			note, err := a.projects.AddNote(cmd.Context(), p.ID, domain.ProjectNote{
				Content:  content,
				Author:   user.Name,
				IsPublic: public,
			})
			if err != nil {
				return err
			}
			visibility := "internal"
			if note.IsPublic {
				visibility = "public"
			}
			fmt.Printf("Note added to %s (%s)\n", p.ReferenceID, visibility)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "note text")
	cmd.Flags().BoolVar(&public, "public", false, "visible on the public tracker")
	cmd.MarkFlagRequired("content")
	return cmd
}

func projectCredentialCmd() *cobra.Command {
	var credType, name, value string
	cmd := &cobra.Command{
		Use:   "credential <id|reference-id>",
		Short: "Attach an access credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			if _, err := a.projects.AddCredential(cmd.Context(), p.ID, domain.Credential{
				Type:  credType,
				Name:  name,
				Value: value,
			}); err != nil {
				return err
			}
			fmt.Printf("Credential %q added to %s\n", name, p.ReferenceID)
			return nil
		},
	}
	cmd.Flags().StringVar(&credType, "type", "other", "credential type (domain, hosting, database, api, other)")
	cmd.Flags().StringVar(&name, "name", "", "credential name")
	cmd.Flags().StringVar(&value, "value", "", "credential value")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("value")
	return cmd
}

func projectDateCmd(field, short string) *cobra.Command {
	return &cobra.Command{
		Use:   field + " <id|reference-id> <date>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			date, err := parseDate(args[1])
			if err != nil {
				return err
			}
			if field == "completion" {
				_, err = a.projects.SetCompletionDate(cmd.Context(), p.ID, date)
			} else {
				_, err = a.projects.SetRenewalDate(cmd.Context(), p.ID, date)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s %s date set to %s\n", p.ReferenceID, field, date.Format("2006-01-02"))
			return nil
		},
	}
}

func projectReassignCmd() *cobra.Command {
	var developerID string
	cmd := &cobra.Command{
		Use:   "reassign <id|reference-id>",
		Short: "Move an approved project to another developer (cto)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := authedProjects(cmd.Context())
			if err != nil {
				return err
			}
			p, err := resolveProject(a, args[0])
			if err != nil {
				return err
			}
			updated, err := a.projects.Reassign(cmd.Context(), p.ID, developerID)
			if err != nil {
				return err
			}
			fmt.Printf("%s reassigned to %s\n", updated.ReferenceID, developerID)
			return nil
		},
	}
	cmd.Flags().StringVar(&developerID, "developer", "", "developer user id")
	cmd.MarkFlagRequired("developer")
	return cmd
}

func developerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "developer",
		Short: "Manage developer accounts (cto)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List developer accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			developers, err := a.users.Developers(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, d := range developers {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Email)
			}
			return w.Flush()
		},
	}

	var name, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Onboard a developer",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			user, err := a.users.CreateDeveloper(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Developer %s created (id %s)\n", user.Name, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "developer name")
	create.Flags().StringVar(&email, "email", "", "developer email")
	create.Flags().StringVar(&password, "password", "", "initial password")
	create.MarkFlagRequired("name")
	create.MarkFlagRequired("email")
	create.MarkFlagRequired("password")

	var newPassword string
	resetPw := &cobra.Command{
		Use:   "password <id>",
		Short: "Reset a developer's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.users.ChangePassword(cmd.Context(), args[0], newPassword); err != nil {
				return err
			}
			fmt.Println("Password updated")
			return nil
		},
	}
	resetPw.Flags().StringVar(&newPassword, "password", "", "new password")
	resetPw.MarkFlagRequired("password")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a developer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.users.DeleteDeveloper(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Developer removed")
			return nil
		},
	}

	cmd.AddCommand(list, create, resetPw, remove)
	return cmd
}
