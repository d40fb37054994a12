package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/tbxark/voiceform/agent"
	"github.com/tbxark/voiceform/config"
	"github.com/tbxark/voiceform/server"
	"github.com/tbxark/voiceform/stt"
	"golang.org/x/sync/errgroup"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "voiceform",
		Short: "Collect a personal-data record from spoken answers",
		Long: `voiceform turns spoken answers into a validated record of first name,
last name, gender, phone number and license plate, asking again for whatever
was missing or unclear.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: voiceform.yaml)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(interactiveCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slog.SetLogLoggerLevel(level)
	return newApp(ctx, cfg)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run AUDIO [AUDIO...]",
		Short: "Run a conversation over pre-recorded answers in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			audios := make([]stt.Audio, 0, len(args))
			for _, path := range args {
				audio, err := stt.LoadAudio(path)
				if err != nil {
					return err
				}
				audios = append(audios, audio)
			}
			resp, err := a.flow.RunBatch(ctx, audios)
			if err != nil {
				return err
			}
			return printResult(resp)
		},
	}
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive [AUDIO]",
		Short: "Ask for the next audio file after every incomplete turn",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := newReadlineReader()
			if err != nil {
				return err
			}
			defer lines.Close()

			first := ""
			if len(args) > 0 {
				first = args[0]
			}
			source := agent.NewPathSource(lines, os.Stdout, first)
			resp, err := a.flow.RunInteractive(ctx, source)
			if err != nil {
				return err
			}
			return printResult(resp)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /process-audio and /submit-audio over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.sessionStore(ctx)
			if err != nil {
				return err
			}
			sc := a.config.Server
			if addr == "" {
				addr = sc.Addr
			}
			httpServer := &http.Server{
				Addr:         addr,
				Handler:      server.New(agent.NewService(a.flow, store), sc.MaxUploadBytes),
				ReadTimeout:  sc.ReadTimeout,
				WriteTimeout: sc.WriteTimeout,
			}

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				slog.Info("Starting HTTP server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gCtx.Done()
				slog.Info("Shutting down HTTP server")
				return httpServer.Shutdown(context.Background())
			})
			g.Go(func() error {
				return a.sweepExpired(gCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func printResult(resp *agent.Response) error {
	data, err := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\n=== FINAL RESULT ===\n%s\n", data)
	return nil
}

// readlineReader adapts readline to agent.LineReader.
type readlineReader struct {
	rl *readline.Instance
}

func newReadlineReader() (*readlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFilePath(),
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", agent.ErrAbandoned
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "voiceform_history")
	}
	return filepath.Join(home, ".voiceform_history")
}
