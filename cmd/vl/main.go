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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ventureline/internal/app"
	"ventureline/internal/db"
	"ventureline/internal/domain"
	"ventureline/internal/engine"
	"ventureline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "vl",
	Short: "Ventureline CLI",
	Long: `Ventureline guides a venture idea through seven ordered stages,
from the first rough concept to a synthesized pitch report.
Each stage pairs a conversation with an AI-produced structured analysis;
a report can be generated once the first six stages are complete.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("memory") {
			return nil
		}
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
	viper.SetEnvPrefix("VENTURELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("user-id", "", "user identifier (defaults to config)")
	rootCmd.PersistentFlags().Bool("memory", false, "use the in-memory store (nothing is persisted)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("user-id", rootCmd.PersistentFlags().Lookup("user-id"))
	_ = viper.BindPFlag("memory", rootCmd.PersistentFlags().Lookup("memory"))
}

func registerCommands() {
	rootCmd.AddCommand(ventureCmd())
	rootCmd.AddCommand(stageCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(autopilotCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- venture ---

func ventureCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "venture", Short: "Manage ventures"}
	cmd.AddCommand(ventureListCmd())
	cmd.AddCommand(ventureCreateCmd())
	cmd.AddCommand(ventureShowCmd())
	cmd.AddCommand(ventureAdvanceCmd())
	cmd.AddCommand(ventureDeleteCmd())
	return cmd
}

func ventureListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ventures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListVentures(ctx, userID(a))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Stage", "Completed", "Updated"})
				for _, v := range items {
					stage, _ := domain.StageForRank(v.CurrentStage)
					tw.AppendRow(table.Row{v.ID, v.Title, fmt.Sprintf("%d (%s)", v.CurrentStage, stage.Label()), v.IsCompleted, v.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func ventureCreateCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a venture",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := a.Engine.CreateVenture(ctx, userID(a), title)
				if err != nil {
					return err
				}
				return printJSON(v)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "venture title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func ventureShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <venture-id>",
		Short: "Show a venture with its stage progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := a.Engine.GetVenture(ctx, args[0])
				if err != nil {
					return err
				}
				contents, err := a.Engine.ListStageContents(ctx, v.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"venture": v, "stageContents": contents})
				}
				fmt.Printf("%s  (%s)\n", v.Title, v.ID)
				fmt.Printf("stage: %d  completed: %v  updated: %s\n", v.CurrentStage, v.IsCompleted, v.UpdatedAt)
				completed := map[domain.Stage]bool{}
				for _, sc := range contents {
					completed[sc.Stage] = sc.IsCompleted
				}
				for _, s := range domain.Stages() {
					marker := " "
					if completed[s] {
						marker = "x"
					}
					current := ""
					if s.Order() == v.CurrentStage {
						current = "  <- current"
					}
					fmt.Printf("  [%s] %d. %s%s\n", marker, s.Order(), s.Label(), current)
				}
				return nil
			})
		},
	}
	return cmd
}

func ventureAdvanceCmd() *cobra.Command {
	var rank int
	cmd := &cobra.Command{
		Use:   "advance <venture-id>",
		Short: "Advance the stage pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := a.Engine.AdvanceStage(ctx, args[0], rank, userID(a))
				if err != nil {
					return err
				}
				return printJSON(v)
			})
		},
	}
	cmd.Flags().IntVar(&rank, "to", 0, "target stage rank (1-7)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func ventureDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <venture-id>",
		Short: "Delete a venture and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.DeleteVenture(ctx, args[0], userID(a)); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

// --- stage ---

func stageCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "stage", Short: "Inspect and complete stages"}
	cmd.AddCommand(stageListCmd())
	cmd.AddCommand(stageShowCmd())
	cmd.AddCommand(stageCompleteCmd())
	return cmd
}

func stageListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <venture-id>",
		Short: "List stage content rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListStageContents(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Stage", "Completed", "Analysis", "Updated"})
				for _, sc := range items {
					tw.AppendRow(table.Row{sc.Stage, sc.IsCompleted, len(sc.AIAnalysis) > 0, sc.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func stageShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <venture-id> <stage>",
		Short: "Show one stage's content and analysis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sc, err := a.Engine.GetStageContent(ctx, args[0], stage)
				if err != nil {
					return err
				}
				return printJSON(sc)
			})
		},
	}
	return cmd
}

func stageCompleteCmd() *cobra.Command {
	var contentJSON string
	cmd := &cobra.Command{
		Use:   "complete <venture-id> <stage>",
		Short: "Mark a stage complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			var content json.RawMessage
			if contentJSON != "" {
				if !json.Valid([]byte(contentJSON)) {
					return fmt.Errorf("--content must be valid JSON")
				}
				content = json.RawMessage(contentJSON)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sc, err := a.Engine.CompleteStage(ctx, args[0], stage, content, nil, userID(a))
				if err != nil {
					return err
				}
				return printJSON(sc)
			})
		},
	}
	cmd.Flags().StringVar(&contentJSON, "content", "", "stage content as a JSON object")
	return cmd
}

// --- chat ---

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "chat", Short: "Converse with the stage assistant"}
	cmd.AddCommand(chatSendCmd())
	cmd.AddCommand(chatHistoryCmd())
	return cmd
}

func chatSendCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "send <venture-id> <stage>",
		Short: "Send a message and print the assistant reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				turn, err := a.Engine.SubmitMessage(ctx, args[0], stage, message, userID(a))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(turn)
				}
				fmt.Println(turn.AssistantMessage.Content)
				if turn.AIAnalysis != nil {
					fmt.Println("\nanalysis:")
					var pretty map[string]any
					if err := json.Unmarshal(turn.AIAnalysis, &pretty); err == nil {
						_ = printJSON(pretty)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message text")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func chatHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <venture-id> <stage>",
		Short: "Print a stage's conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				msgs, err := a.Engine.ListMessages(ctx, args[0], stage)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(msgs)
				}
				for _, m := range msgs {
					fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Role, m.Content)
				}
				return nil
			})
		},
	}
	return cmd
}

// --- report ---

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Generate and fetch reports"}
	cmd.AddCommand(reportGenerateCmd())
	cmd.AddCommand(reportShowCmd())
	return cmd
}

func reportGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <venture-id>",
		Short: "Synthesize the venture report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				report, err := a.Engine.GenerateReport(ctx, args[0], userID(a))
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
	return cmd
}

func reportShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <venture-id>",
		Short: "Show the existing report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				report, err := a.Engine.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				fmt.Println("#", report.Title)
				fmt.Println("\nElevator pitch:\n" + report.ElevatorPitch)
				fmt.Println("\nFull pitch:\n" + report.FullPitch)
				fmt.Println("\nPitch deck:")
				for i, s := range report.PitchDeck {
					fmt.Printf("  %d. %s\n", i+1, s.Title)
				}
				return nil
			})
		},
	}
	return cmd
}

// --- autopilot ---

func autopilotCmd() *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "autopilot <venture-id>",
		Short: "Drive every stage automatically and generate the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				report, err := a.Engine.Autopilot(ctx, engine.AutopilotOptions{
					VentureID: args[0],
					Seed:      seed,
					ActorID:   userID(a),
					Progress: func(stage domain.Stage, _ engine.TurnResult) {
						fmt.Printf("completed %s\n", stage.Label())
					},
				})
				if err != nil {
					return err
				}
				fmt.Println("report generated:", report.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "initial idea text for the first stage")
	return cmd
}

// --- log ---

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Event log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, ventureID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Store.LatestEvents(ctx, n, ventureID, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Venture", "Stage", "User"})
				for _, e := range items {
					tw.AppendRow(table.Row{e.TS, e.Type, e.VentureID, e.Stage, e.UserID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&ventureID, "venture", "", "venture id filter")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.Server.Addr
				}
				authCfg := server.AuthConfig{
					JWTSecret:     os.Getenv("VENTURELINE_JWT_SECRET"),
					DefaultUserID: a.Config.User.DefaultID,
				}
				if authCfg.JWTSecret == "" {
					authCfg.JWTSecret = a.Config.Server.JWTSecret
				}
				handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath, Auth: authCfg})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Ventureline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(app.Options{
		Workspace: viper.GetString("workspace"),
		Memory:    viper.GetBool("memory"),
	})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func userID(a *app.App) string {
	if id := viper.GetString("user-id"); id != "" {
		return id
	}
	return a.Config.User.DefaultID
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
