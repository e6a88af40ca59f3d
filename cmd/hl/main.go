package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/notify"
	"hireline/internal/repo"
	"hireline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "Hireline CLI",
	Long: `Hireline schedules interviews between employers and candidates and keeps
every party informed over email, push, and chat.
- Workspace: your .hireline directory with the database; channel credentials
  and routing live in hireline.yml.
- Interviews: scheduled slots that flow pending -> confirmed -> in_progress
  -> completed (cancelled/no_show are exits; rescheduled is a detour).
- Virtual interviews get a meeting reference and join link at scheduling time.
- Notifications: every lifecycle event fans out to the routed channels; each
  attempt lands in the delivery log ('hl notifications list').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HIRELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(employerCmd())
	rootCmd.AddCommand(candidateCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(interviewCmd())
	rootCmd.AddCommand(notificationsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func employerCmd() *cobra.Command {
	emp := &cobra.Command{Use: "employer", Short: "Manage employers"}
	emp.AddCommand(employerAddCmd())
	emp.AddCommand(employerListCmd())
	emp.AddCommand(employerShowCmd())
	return emp
}

func employerAddCmd() *cobra.Command {
	var e domain.Employer
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.CompanyName == "" || e.Email == "" {
				return fmt.Errorf("--company and --email required")
			}
			e.ID = uuid.New().String()
			e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.InsertEmployer(ctx, e); err != nil {
					return err
				}
				return printJSONOrTable(e)
			})
		},
	}
	cmd.Flags().StringVar(&e.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&e.ContactName, "contact", "", "contact person name")
	cmd.Flags().StringVar(&e.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&e.PushTopic, "push-topic", "", "push notification topic")
	cmd.Flags().StringVar(&e.ChatChannelID, "chat-channel", "", "chat channel id")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func employerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListEmployers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Company", "Contact", "Email"})
				for _, e := range items {
					tw.AppendRow(table.Row{e.ID, e.CompanyName, e.ContactName, e.Email})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func employerShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an employer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				e, err := r.GetEmployer(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(e)
			})
		},
	}
	return cmd
}

func candidateCmd() *cobra.Command {
	cand := &cobra.Command{Use: "candidate", Short: "Manage candidates"}
	cand.AddCommand(candidateAddCmd())
	cand.AddCommand(candidateListCmd())
	cand.AddCommand(candidateShowCmd())
	return cand
}

func candidateAddCmd() *cobra.Command {
	var c domain.Candidate
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.FullName == "" || c.Email == "" {
				return fmt.Errorf("--name and --email required")
			}
			c.ID = uuid.New().String()
			c.CreatedAt = time.Now().UTC().Format(time.RFC3339)
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.InsertCandidate(ctx, c); err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&c.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&c.Email, "email", "", "email address")
	cmd.Flags().StringVar(&c.PushTopic, "push-topic", "", "push notification topic")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func candidateListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListCandidates(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Email"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.FullName, c.Email})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func candidateShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				c, err := r.GetCandidate(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func jobCmd() *cobra.Command {
	job := &cobra.Command{Use: "job", Short: "Manage job postings"}
	job.AddCommand(jobAddCmd())
	job.AddCommand(jobListCmd())
	job.AddCommand(jobApplyCmd())
	return job
}

func jobAddCmd() *cobra.Command {
	var j domain.Job
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a job posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if j.EmployerID == "" || j.Title == "" {
				return fmt.Errorf("--employer and --title required")
			}
			j.ID = uuid.New().String()
			j.Status = "open"
			j.CreatedAt = time.Now().UTC().Format(time.RFC3339)
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if _, err := r.GetEmployer(ctx, j.EmployerID); err != nil {
					return err
				}
				if err := r.InsertJob(ctx, j); err != nil {
					return err
				}
				return printJSONOrTable(j)
			})
		},
	}
	cmd.Flags().StringVar(&j.EmployerID, "employer", "", "employer id")
	cmd.Flags().StringVar(&j.Title, "title", "", "job title")
	cmd.Flags().StringVar(&j.Location, "location", "", "job location")
	_ = cmd.MarkFlagRequired("employer")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func jobListCmd() *cobra.Command {
	var employerID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListJobs(ctx, employerID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Employer", "Title", "Location", "Status"})
				for _, j := range items {
					tw.AppendRow(table.Row{j.ID, j.EmployerID, j.Title, j.Location, j.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&employerID, "employer", "", "employer filter")
	return cmd
}

func jobApplyCmd() *cobra.Command {
	var candidateID string
	cmd := &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Record a candidate application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if candidateID == "" {
				return fmt.Errorf("--candidate required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.RecordApplication(ctx, args[0], candidateID); err != nil {
					return err
				}
				fmt.Println("application recorded")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate", "", "candidate id")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func interviewCmd() *cobra.Command {
	iv := &cobra.Command{
		Use:   "interview",
		Short: "Manage interviews",
		Long:  "Interviews flow pending -> confirmed -> in_progress -> completed. Cancelled and no_show are exits; rescheduling keeps the record and moves the time.",
	}
	iv.AddCommand(interviewScheduleCmd())
	iv.AddCommand(interviewListCmd())
	iv.AddCommand(interviewShowCmd())
	iv.AddCommand(interviewConfirmCmd())
	iv.AddCommand(interviewStartCmd())
	iv.AddCommand(interviewCancelCmd())
	iv.AddCommand(interviewRescheduleCmd())
	iv.AddCommand(interviewCompleteCmd())
	iv.AddCommand(interviewNoShowCmd())
	iv.AddCommand(interviewRemindCmd())
	return iv
}

func interviewScheduleCmd() *cobra.Command {
	var opts engine.ScheduleOptions
	var at string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule an interview",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduledAt, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC 3339 (e.g. 2026-09-15T14:00:00Z)")
			}
			opts.ScheduledAt = scheduledAt
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.Schedule(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	cmd.Flags().StringVar(&opts.EmployerID, "employer", "", "employer id")
	cmd.Flags().StringVar(&opts.CandidateID, "candidate", "", "candidate id")
	cmd.Flags().StringVar(&at, "at", "", "scheduled time (RFC 3339)")
	cmd.Flags().IntVar(&opts.DurationMinutes, "duration", 0, "duration in minutes (default from config)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "virtual", "interview kind (virtual, physical)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location (required for physical)")
	cmd.Flags().StringVar(&opts.JobID, "job", "", "job id")
	cmd.Flags().StringVar(&opts.JobTitleOverride, "job-title", "", "job title when no job id is given")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("employer")
	_ = cmd.MarkFlagRequired("candidate")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func interviewListCmd() *cobra.Command {
	var f repo.InterviewFilters
	var window string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListInterviews(ctx, f, window)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Scheduled", "Kind", "Status", "Window", "Employer", "Candidate"})
				for _, iv := range items {
					tw.AppendRow(table.Row{iv.ID, iv.ScheduledAt, iv.Kind, iv.Status, e.Window(iv), iv.EmployerID, iv.CandidateID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.EmployerID, "employer", "", "employer filter")
	cmd.Flags().StringVar(&f.CandidateID, "candidate", "", "candidate filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&window, "window", "", "window filter (upcoming, past)")
	return cmd
}

func interviewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.Repo.GetInterview(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	return cmd
}

func interviewConfirmCmd() *cobra.Command {
	return transitionCmd("confirm <id>", "Confirm a pending interview", func(ctx context.Context, e engine.Engine, id string) (domain.Interview, error) {
		return e.Confirm(ctx, id)
	})
}

func interviewStartCmd() *cobra.Command {
	return transitionCmd("start <id>", "Mark an interview as underway", func(ctx context.Context, e engine.Engine, id string) (domain.Interview, error) {
		return e.Start(ctx, id)
	})
}

func interviewCancelCmd() *cobra.Command {
	return transitionCmd("cancel <id>", "Cancel an interview", func(ctx context.Context, e engine.Engine, id string) (domain.Interview, error) {
		return e.Cancel(ctx, id, viper.GetString("actor-id"))
	})
}

func interviewNoShowCmd() *cobra.Command {
	return transitionCmd("no-show <id>", "Mark an interview as a no-show", func(ctx context.Context, e engine.Engine, id string) (domain.Interview, error) {
		return e.MarkNoShow(ctx, id)
	})
}

func interviewRemindCmd() *cobra.Command {
	return transitionCmd("remind <id>", "Resend interview details to both parties", func(ctx context.Context, e engine.Engine, id string) (domain.Interview, error) {
		return e.Remind(ctx, id)
	})
}

func transitionCmd(use, short string, fn func(context.Context, engine.Engine, string) (domain.Interview, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := fn(ctx, e, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
}

func interviewRescheduleCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Move an interview to a new time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newAt, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC 3339")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.Reschedule(ctx, args[0], newAt)
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "new scheduled time (RFC 3339)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func interviewCompleteCmd() *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				iv, err := e.Complete(ctx, args[0], outcome)
				if err != nil {
					return err
				}
				return printJSONOrTable(iv)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "outcome notes")
	return cmd
}

func notificationsCmd() *cobra.Command {
	n := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect the delivery log",
		Long:  "Every notification attempt is a row in the delivery log; retries append new rows rather than rewriting old ones.",
	}
	n.AddCommand(notificationsListCmd())
	n.AddCommand(notificationsMarkReadCmd())
	return n
}

func notificationsListCmd() *cobra.Command {
	var recipientType, recipientRef string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery log entries for a recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			if recipientType == "" || recipientRef == "" {
				return fmt.Errorf("--recipient-type and --recipient required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListDeliveryLog(ctx, recipientType, recipientRef, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Created", "Channel", "Event", "Status", "Subject", "Error"})
				for _, d := range items {
					detail := ""
					if d.ErrorDetail != nil {
						detail = *d.ErrorDetail
					}
					tw.AppendRow(table.Row{d.CreatedAt, d.Channel, d.EventKind, d.Status, d.Subject, detail})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recipientType, "recipient-type", "", "recipient type (candidate, employer, admin)")
	cmd.Flags().StringVar(&recipientRef, "recipient", "", "recipient id")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries")
	_ = cmd.MarkFlagRequired("recipient-type")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func notificationsMarkReadCmd() *cobra.Command {
	var recipientType, recipientRef string
	cmd := &cobra.Command{
		Use:   "mark-read",
		Short: "Mark sent notifications as delivered",
		RunE: func(cmd *cobra.Command, args []string) error {
			if recipientType == "" || recipientRef == "" {
				return fmt.Errorf("--recipient-type and --recipient required")
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				n, err := r.MarkDeliveriesRead(cmd.Context(), recipientType, recipientRef)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]int64{"updated": n})
				}
				fmt.Printf("marked %d notifications as delivered\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recipientType, "recipient-type", "", "recipient type (candidate, employer, admin)")
	cmd.Flags().StringVar(&recipientRef, "recipient", "", "recipient id")
	_ = cmd.MarkFlagRequired("recipient-type")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage workspace config",
		Long:  "hireline.yml holds scheduling defaults, meeting link settings, channel credentials, and the event-to-channel routing table.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default hireline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err == nil {
				err = cfg.Validate()
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyDeleteCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var actorID, actorType, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (prints the key once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actorID == "" {
				return fmt.Errorf("--actor required")
			}
			raw := uuid.New().String() + uuid.New().String()
			key := domain.APIKey{
				ID:        uuid.New().String(),
				ActorID:   actorID,
				ActorType: actorType,
				Name:      name,
				KeyHash:   repo.HashAPIKey(raw),
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "key": raw})
				}
				fmt.Printf("api key %s created; secret (save it now): %s\n", key.ID, raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "actor id the key authenticates as")
	cmd.Flags().StringVar(&actorType, "actor-type", "admin", "actor type (candidate, employer, admin)")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			dispatcher := notify.NewDispatcher(repo.Repo{DB: conn}, cfg)
			defer dispatcher.Close()
			e := engine.New(conn, cfg, dispatcher)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("HIRELINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("HIRELINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Hireline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(repo.Repo{DB: conn}, cfg)
	// Flush background deliveries before the connection closes.
	defer dispatcher.Close()
	e := engine.New(conn, cfg, dispatcher)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
