package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP server that triggers qualification runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, st, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: serveMux(ctx, p),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// serveMux builds the health, single-posting evaluation, and
// run-trigger routes. Runs are serialized: a
// trigger while one is in flight returns 409 instead of racing two
// runs against the same ledger snapshot.
func serveMux(ctx context.Context, p *pipeline.Pipeline) *http.ServeMux {
	var running atomic.Bool
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /webhook/posting", func(w http.ResponseWriter, r *http.Request) {
		var raw model.RawPosting
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, `{"error":"invalid posting payload"}`, http.StatusBadRequest)
			return
		}

		ev, err := p.Evaluate(r.Context(), raw)
		if err != nil {
			zap.L().Error("webhook evaluate failed", zap.Error(err))
			http.Error(w, `{"error":"evaluation failed"}`, http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ev)
	})

	mux.HandleFunc("POST /webhook/run", func(w http.ResponseWriter, r *http.Request) {
		if !running.CompareAndSwap(false, true) {
			http.Error(w, `{"error":"a run is already in progress"}`, http.StatusConflict)
			return
		}

		go func() {
			defer running.Store(false)
			report, err := p.Run(ctx)
			if err != nil {
				zap.L().Error("webhook run failed", zap.Error(err))
				return
			}
			zap.L().Info("webhook run complete",
				zap.String("run_id", report.RunID),
				zap.Int("delivered", report.Outcomes[model.OutcomeDelivered]),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
