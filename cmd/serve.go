package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/cron"
	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/webui"
)

var (
	serveAddr     string
	serveAutosave string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prompt builder web UI",
	Long: `Run the prompt builder web UI.

The working session is loaded at startup, edited live through the JSON API
and the preview page, and saved back on shutdown. A websocket at /ws streams
the assembled prompt after every change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveAutosave, "autosave", "*/5 * * * *", "Cron schedule for saving the session; empty disables")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	w := openWorkspace()
	sess, err := w.loadSession()
	if err != nil {
		return err
	}
	dispatcher, err := w.dispatcher()
	if err != nil {
		return err
	}

	history, err := w.openHistory()
	if err != nil {
		logger.Warn("History unavailable, executions will not be recorded: %v", err)
	} else {
		defer history.Close()
		dispatcher.SetRecorder(history)
	}

	scheduler := cron.NewScheduler()
	server := webui.NewServer(webui.Options{
		Config:     w.cfg,
		Session:    sess,
		Dispatcher: dispatcher,
		Files:      w.files,
		History:    history,
		GraphQL:    dataimport.NewGraphQLClient(w.cfg.GraphQL),
		Tasks:      scheduler,
	})

	if err := scheduler.Add(&cron.Task{
		Name:     "audit-cleanup",
		Schedule: "0 3 * * *",
		Run: func(context.Context) error {
			return sess.Builder.CleanupOldAuditFiles()
		},
	}); err != nil {
		return err
	}
	if serveAutosave != "" {
		if err := scheduler.Add(&cron.Task{
			Name:     "autosave",
			Schedule: serveAutosave,
			Timeout:  30 * time.Second,
			Run: func(context.Context) error {
				_, err := server.SaveSession(sessionName)
				return err
			},
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := serveAddr
	if addr == "" {
		addr = w.cfg.Server.Addr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Web UI listening on http://%s (session %s)", addr, sessionName)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)

	if _, err := server.SaveSession(sessionName); err != nil {
		logger.Warn("Failed to save session %s: %v", sessionName, err)
	}
	return nil
}
