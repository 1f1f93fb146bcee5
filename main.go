package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gmllt/kanvan/board"
	"github.com/gmllt/kanvan/gateway"
)

var (
	configPath string
	debug      bool
	cfg        *Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kanvan",
		Short:         "Single-board task tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			var err error
			cfg, err = loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", os.Getenv("DEBUG") == "1", "enable debug logging")

	root.AddCommand(newServeCmd(), newListCmd(), newAddCmd(), newRmCmd(), newMoveCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the /tasks CRUD API backed by S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	s3Client, err := NewS3Client(cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to init S3: %w", err)
	}
	s3Repo := NewS3Repository(s3Client, cfg.S3)
	if err := s3Repo.EnsureBucketExists(ctx); err != nil {
		return err
	}

	var repo Repository = s3Repo
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		rc := redis.NewClient(opts)
		defer rc.Close()
		repo = NewCachedRepository(s3Repo, rc, cfg.Redis.TTL, cfg.S3.Key)
		log.Infof("redis cache enabled (ttl %s)", cfg.Redis.TTL)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newTaskServer(repo).routes(cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		log.Infof("kanvan server starting on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newGateway builds a gateway whose notifications are logged.
func newGateway() (*gateway.Gateway, error) {
	policy, err := cfg.Board.policy()
	if err != nil {
		return nil, err
	}
	entry := log.WithField("remote", cfg.Remote.BaseURL)
	client, err := gateway.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout,
		gateway.WithFetchRetries(cfg.Remote.Retries),
		gateway.WithClientLogger(entry),
	)
	if err != nil {
		return nil, err
	}
	return gateway.New(board.NewStore(board.WithAppendPolicy(policy)), client,
		gateway.WithLogger(entry),
		gateway.WithNotifier(gateway.NotifierFunc(func(e gateway.Event) {
			switch e.Kind {
			case gateway.EventCardDone:
				log.WithField("card", e.Card.ID).Info("card completed 🎉")
			case gateway.EventCreateFailed, gateway.EventDeleteFailed, gateway.EventLoadFailed:
				log.WithError(e.Err).Errorf("%s", e.Kind)
			}
		})),
	), nil
}

func printBoard(w io.Writer, store *board.Store) {
	for _, lane := range board.Lanes() {
		cards := store.ByLane(lane)
		fmt.Fprintf(w, "%s (%d)\n", lane, len(cards))
		for _, c := range cards {
			fmt.Fprintf(w, "  %s  %s", c.ID, c.Title)
			if c.Info != "" {
				fmt.Fprintf(w, " - %s", c.Info)
			}
			fmt.Fprintln(w)
		}
	}
}
