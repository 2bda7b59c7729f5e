package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/ctxsync"
	"github.com/skosovsky/tutorkit/internal/config"
	"github.com/skosovsky/tutorkit/internal/logger"
	"github.com/skosovsky/tutorkit/internal/tracer"
	"github.com/skosovsky/tutorkit/realtime"
	"github.com/skosovsky/tutorkit/tools"
)

const shutdownTimeout = 5 * time.Second

var serveConsole bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a tutoring session",
	Long: `Connect to the realtime endpoint, offer the workspace tools and keep the agent's
view of the workspace in sync until interrupted.

With --console, approval requests can be answered on stdin:
  pending            list waiting requests
  approve <id>       allow the action once
  reject <id>        drop the request`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log, closeLog, err := logger.New(cfg.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()

		return serve(ctx, cfg, log, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveConsole, "console", false, "answer approval requests on stdin")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, in io.Reader, out io.Writer) error {
	persona, err := realtime.ParsePersona(cfg.Realtime.Persona)
	if err != nil {
		return err
	}
	token, err := sessionToken(ctx, cfg.Realtime, log)
	if err != nil {
		return err
	}
	client, err := realtime.Dial(ctx, realtime.Options{
		URL:             cfg.Realtime.URL,
		Model:           cfg.Realtime.Model,
		Token:           token,
		EventsPerSecond: cfg.Realtime.EventsPerSecond,
		Logger:          log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	log = log.With("session", client.ID())

	wb, err := newWorkbench(cfg, log, func() tools.Conversation { return client })
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := wb.Close(sctx); err != nil {
			log.Warn("workbench shutdown", "error", err)
		}
	}()

	engine := ctxsync.New(wb.board, func() ctxsync.Session { return client },
		ctxsync.WithCode(wb.editor),
		ctxsync.WithNotes(wb.notes),
		ctxsync.WithLogger(log),
		ctxsync.WithLimits(limits(cfg.Sync)),
		ctxsync.WithDebounce(cfg.Sync.Debounce),
		ctxsync.WithResponseDelay(cfg.Sync.ResponseDelay),
		ctxsync.WithImageHashPrefix(cfg.Sync.ImageHashPrefix),
	)
	bridge := realtime.NewBridge(wb.registry, client, log)
	defer bridge.Wait()
	client.On(bridge.Handle)
	client.On(func(ctx context.Context, ev realtime.Event) { engine.HandleEvent(ctx, ev.Type) })

	session := realtime.DefaultSession(cfg.Realtime.Model, cfg.Realtime.Voice, realtime.Instructions(persona))
	session.Tools = realtime.Tools(wb.registry)
	if err := client.Configure(ctx, session); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	log.Info("session ready", "tools", len(session.Tools), "persona", persona)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Sync.Interval > 0 {
		wg.Go(func() {
			if err := engine.Run(ctx, cfg.Sync.Interval); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("periodic sync stopped", "error", err)
			}
		})
	}
	if serveConsole {
		// The scanner goroutine blocks on stdin and exits with the process.
		go approvalConsole(ctx, in, out, wb.gate)
	}
	engine.Sync(ctx, false)

	return client.Listen(ctx)
}

// sessionToken mints an ephemeral client secret when a token endpoint is configured and
// falls back to the API key otherwise.
func sessionToken(ctx context.Context, cfg config.RealtimeConfig, log *slog.Logger) (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("realtime.api_key is required (or set OPENAI_API_KEY)")
	}
	if cfg.TokenURL == "" {
		return cfg.APIKey, nil
	}
	m := realtime.NewMinter(cfg.TokenURL, cfg.APIKey, &http.Client{Timeout: 10 * time.Second}, log)
	token, err := m.Mint(ctx, cfg.Model, cfg.Voice)
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	return token, nil
}

// approvalConsole answers approval requests from line commands on in.
func approvalConsole(ctx context.Context, in io.Reader, out io.Writer, gate *action.Gate) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		verb, id, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		id = strings.TrimSpace(id)
		var err error
		switch verb {
		case "":
			continue
		case "pending":
			for _, a := range gate.Pending() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", a.ID, a.Kind, a.Summary)
			}
			continue
		case "approve":
			err = gate.Approve(id)
		case "reject":
			err = gate.Reject(id)
		default:
			err = fmt.Errorf("unknown command %q (pending, approve <id>, reject <id>)", verb)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", verb, id)
	}
}
