package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vfg2006/daylog-migrator/infrastructure/artifact"
	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/infrastructure/database/postgres"
	"github.com/vfg2006/daylog-migrator/infrastructure/database/sqlite"
	"github.com/vfg2006/daylog-migrator/infrastructure/repository"
	"github.com/vfg2006/daylog-migrator/internal/config"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/internal/scheduler"
	"github.com/vfg2006/daylog-migrator/internal/timezone"
	"github.com/vfg2006/daylog-migrator/internal/usecases/migrating"
	"github.com/vfg2006/daylog-migrator/internal/usecases/normalizing"
	"github.com/vfg2006/daylog-migrator/pkg/log"
	"github.com/vfg2006/daylog-migrator/pkg/utils"
)

// app agrupa as dependências montadas a partir da configuração
type app struct {
	cfg     *config.Config
	conn    *database.Connection
	runs    repository.MigrationRunRepository
	service *migrating.Service
}

func main() {
	// Inicializa configuração de logs
	configureLogger()

	os.Exit(exitCode(newRootCmd().Execute()))
}

// exitCode mapeia o erro do comando: 0 sem erro, 2 para erros fatais, 1 para os demais.
// Roda depois de Execute, então os defers dos comandos já fecharam a conexão.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case domain.IsFatal(err):
		return 2
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Migra artefatos diários legados para registros normalizados",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newReplaceDayCmd(),
		newScheduleCmd(),
		newStatusCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Executa a migração de todos os donos configurados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.conn.Close()

			ctx, _ := log.WithCorrelationID(cmd.Context())

			if owner != "" {
				run, err := a.service.RunOwner(ctx, findOwner(a.service, owner))
				if run != nil {
					fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJson(run))
				}
				return logRunError(err)
			}

			result, err := a.service.Run(ctx)
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJson(result))
			}
			return logRunError(err)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "migra apenas o dono informado")
	return cmd
}

func newReplaceDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replace-day <owner> <arquivo>",
		Short: "Apaga e regrava todos os registros do dia contido no arquivo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.conn.Close()

			ctx, _ := log.WithCorrelationID(cmd.Context())
			owner := findOwner(a.service, args[0])

			result, err := a.service.ReplaceDay(ctx, owner, artifact.RefFromPath(owner.ID, args[1]))
			if err != nil {
				return logRunError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJson(result))
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Executa a migração periodicamente conforme MIGRATION_SYNC_CRON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.conn.Close()

			a.cfg.MigrationSync.Enabled = true
			syncService := scheduler.NewMigrationSyncService(a.service, a.cfg)
			if err := syncService.Start(ctx); err != nil {
				return err
			}
			logrus.Info("Agendador de migração iniciado com sucesso")

			// primeira execução imediata; as próximas seguem o cron
			syncService.TriggerManualSync(ctx)

			<-ctx.Done()
			logrus.WithFields(logrus.Fields(syncService.GetStatus())).Info("Encerrando agendador de migração")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <owner>",
		Short: "Mostra a última execução registrada para o dono",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.conn.Close()

			run, err := a.runs.GetLatestRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "nenhuma execução registrada para %s\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJson(run))
			return nil
		},
	}
}

// setup carrega a configuração e monta o grafo de dependências
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	conn, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	records := repository.NewEntityRecordRepository(conn)
	runs := repository.NewMigrationRunRepository(conn)

	resolver := timezone.NewResolver(log.L)
	normalizer := normalizing.NewNormalizer(resolver, cfg.Migration.DefaultTimezone)
	loader := artifact.NewDirectoryLoader(cfg.Migration.ArtifactRoot)

	return &app{
		cfg:     cfg,
		conn:    conn,
		runs:    runs,
		service: migrating.NewService(cfg, loader, normalizer, records, runs),
	}, nil
}

// connect abre o armazenamento conforme DATABASE_DRIVER e garante o schema
func connect(ctx context.Context, dbConfig config.Database) (*database.Connection, error) {
	switch dbConfig.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, dbConfig)
		if err != nil {
			logrus.WithError(err).Error("Erro ao conectar ao PostgreSQL")
			return nil, err
		}
		if err := conn.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
		return conn, nil
	default:
		conn, err := sqlite.NewConnection(ctx, dbConfig)
		if err != nil {
			logrus.WithError(err).Error("Erro ao abrir SQLite")
			return nil, err
		}
		logrus.WithField("path", dbConfig.SQLitePath).Info("Banco SQLite aberto com sucesso")
		return conn, nil
	}
}

// findOwner usa o fuso configurado do dono; donos fora da lista usam o fuso padrão
func findOwner(service *migrating.Service, ownerID string) domain.Owner {
	for _, owner := range service.Owners() {
		if owner.ID == ownerID {
			return owner
		}
	}
	return domain.Owner{ID: ownerID}
}

// logRunError registra o erro e o devolve sem alterar; o código de saída é decidido em main
func logRunError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsFatal(err) {
		logrus.WithError(err).Error("Migração interrompida por erro fatal")
		return err
	}
	logrus.WithError(err).Error("Migração terminou com erro")
	return err
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}
