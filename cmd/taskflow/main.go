package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"taskflow/internal/agent"
	"taskflow/internal/config"
	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/gateway"
	"taskflow/internal/llm"
	"taskflow/internal/retry"
	"taskflow/internal/store"
	"taskflow/internal/tokenizer"
	"taskflow/internal/tooling"
)

// version is injectable via ldflags.
var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "Conversational task assistant",
		Long:  "TaskFlow manages a personal task list through natural-language chat backed by an LLM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "taskflow %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to config file")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default taskflow.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("%s already exists", cfgPath)
			}
			if err := config.WriteDefault(cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
			return nil
		},
	}
	root.AddCommand(initCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.AddCommand(serveCmd)

	var chatUser string
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfgPath, chatUser, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "user id to act as")
	root.AddCommand(chatCmd)

	return root
}

// newLogger builds the process logger from infra config.
func newLogger(infra domain.InfraConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(infra.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if infra.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildOrchestrator wires stores, tools, provider, and orchestrator from
// config. Returns the orchestrator plus the stores the gateway needs.
func buildOrchestrator(ctx context.Context, cfg *domain.Config, logger *slog.Logger) (*agent.Orchestrator, domain.TaskStore, domain.ConversationStore, error) {
	conn, err := db.ConnectWithWake(ctx, cfg.Database.URL, retry.FromDomain(cfg.Retry))
	if err != nil {
		return nil, nil, nil, err
	}
	tasks, err := store.NewSQLTaskStore(conn)
	if err != nil {
		return nil, nil, nil, err
	}
	conversations, err := store.NewSQLConversationStore(conn)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := tooling.NewTaskRegistry(tasks)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := llm.NewProvider(&cfg.Agents, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []agent.Option{agent.WithLogger(logger)}
	if cfg.Agents.HistoryBudget > 0 {
		tok, err := tokenizer.NewTikToken("cl100k_base")
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, agent.WithHistoryBudget(tok, cfg.Agents.HistoryBudget))
	}

	dispatcher := agent.NewToolDispatcher(registry, logger)
	orch := agent.NewOrchestrator(provider, dispatcher, opts...)
	return orch, tasks, conversations, nil
}

func runServe(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Infra)
	slog.SetDefault(logger)

	orch, tasks, conversations, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	srv, err := gateway.NewServer(&cfg.Gateway, orch, tasks, conversations, logger)
	if err != nil {
		return err
	}

	shutdown := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-ctx.Done():
		}
		close(shutdown)
	}()

	return srv.Run(shutdown)
}

// runChat is a local REPL against the orchestrator: each line is one
// stateless conversational turn, no gateway involved.
func runChat(ctx context.Context, cfgPath, userID string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Infra)

	orch, _, _, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "TaskFlow chat. Type a message, or 'quit' to exit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		reply, _, err := orch.Process(ctx, userID, line, nil)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}
