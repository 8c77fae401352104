package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/api"
	dbfs "github.com/Alpho052/career-guidance-platform/db"
	"github.com/Alpho052/career-guidance-platform/internal/config"
	"github.com/Alpho052/career-guidance-platform/internal/db"
	"github.com/Alpho052/career-guidance-platform/internal/logger"
	"github.com/Alpho052/career-guidance-platform/internal/mail"
	"github.com/Alpho052/career-guidance-platform/internal/notify"
	"github.com/Alpho052/career-guidance-platform/internal/repository/sqlite"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// bootstrap loads and validates the configuration and builds the logger
// from the persistent flags.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(viper.GetString("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug") || cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting career server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("env", cfg.Env),
	)

	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	repo := sqlite.New(conn, log)
	schemas, err := validation.NewRegistry()
	if err != nil {
		return fmt.Errorf("compile schemas: %w", err)
	}

	emitter, closers, err := buildEmitter(ctx, cfg, repo, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn("close emitter", zap.Error(err))
			}
		}
	}()
	trigger := notify.NewTrigger(repo, emitter, log)

	transport, err := buildTransport(cfg, log)
	if err != nil {
		return err
	}
	handlers := map[string]tasks.Handler{
		tasks.TypeNotifyJobPosted:  trigger.TaskHandler(repo),
		tasks.TypeMailVerification: mail.TaskHandler(mail.NewDirect(transport)),
	}

	var submitter tasks.Submitter
	if cfg.Workers > 0 {
		pool := tasks.NewWorkerPool(tasks.NewRepository(conn), handlers, log.Named("tasks"), cfg.Workers)
		pool.Start(ctx)
		defer pool.Stop()
		submitter = pool
	} else {
		submitter = tasks.NewInline(handlers, log.Named("tasks"))
	}

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Store:     repo,
		Schemas:   schemas,
		Mailer:    mail.NewQueued(submitter),
		Submitter: submitter,
		Logger:    log.Named("api"),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

// buildEmitter always stores notifications and additionally publishes them
// to kafka and redis when those are configured.
func buildEmitter(ctx context.Context, cfg *config.Config, repo *sqlite.SQLiteRepo, log *zap.Logger) (notify.Emitter, []io.Closer, error) {
	emitters := notify.Multi{notify.NewStoreEmitter(repo)}
	var closers []io.Closer

	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		emitters = append(emitters, k)
		closers = append(closers, k)
		log.Info("kafka notifications enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	if cfg.Redis.Addr != "" {
		r, err := notify.NewRedisEmitter(ctx, cfg.Redis.Addr, cfg.Redis.Channel)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, fmt.Errorf("redis emitter: %w", err)
		}
		emitters = append(emitters, r)
		closers = append(closers, r)
		log.Info("redis notifications enabled",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel),
		)
	}
	return emitters, closers, nil
}

// buildTransport sends through SendGrid when an API key is configured and
// only logs the messages otherwise.
func buildTransport(cfg *config.Config, log *zap.Logger) (mail.Transport, error) {
	if cfg.Mail.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY not set; verification emails are logged only")
		return mail.NewLogTransport(log.Named("mail")), nil
	}
	sg, err := mail.NewSendGrid(cfg.Mail, log.Named("mail"))
	if err != nil {
		return nil, fmt.Errorf("sendgrid: %w", err)
	}
	return sg, nil
}
