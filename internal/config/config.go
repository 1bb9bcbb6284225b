package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	OnCompletedSkip    = "skip"
	OnCompletedRestart = "restart"
)

type Config struct {
	App           App           `mapstructure:",squash"`
	Database      Database      `mapstructure:",squash"`
	Migration     Migration     `mapstructure:",squash"`
	MigrationSync MigrationSync `mapstructure:",squash"`
}

type Database struct {
	DSN        string `mapstructure:"-"`
	Driver     string `mapstructure:"database_driver"`
	Password   string `mapstructure:"database_password"`
	URL        string `mapstructure:"database_url"`
	User       string `mapstructure:"database_user"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Migration struct {
	ArtifactRoot        string            `mapstructure:"migration_artifact_root"`
	Owners              []string          `mapstructure:"migration_owners"`
	OwnerTimezonesRaw   []string          `mapstructure:"migration_owner_timezones"`
	OwnerTimezones      map[string]string `mapstructure:"-"`
	DefaultTimezone     string            `mapstructure:"migration_default_timezone"`
	OnCompleted         string            `mapstructure:"migration_on_completed"`
	MaxConcurrentOwners int               `mapstructure:"migration_max_concurrent_owners"`
	TimeBudget          time.Duration     `mapstructure:"migration_time_budget"`
	StaleRunAfter       time.Duration     `mapstructure:"migration_stale_run_after"`
}

type MigrationSync struct {
	CronSchedule string `mapstructure:"migration_sync_cron"`
	Enabled      bool   `mapstructure:"migration_sync_enabled"`
}

func SetDefaults() {
	viper.SetDefault("DATABASE_DRIVER", DriverSQLite)
	viper.SetDefault("DATABASE_URL", "localhost:5432/daylog?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("SQLITE_PATH", "daylog.db")

	viper.SetDefault("MIGRATION_ARTIFACT_ROOT", "data")
	viper.SetDefault("MIGRATION_OWNERS", "")
	viper.SetDefault("MIGRATION_OWNER_TIMEZONES", "")
	viper.SetDefault("MIGRATION_DEFAULT_TIMEZONE", "Asia/Shanghai")
	viper.SetDefault("MIGRATION_ON_COMPLETED", OnCompletedSkip) // Não reprocessa donos já concluídos
	viper.SetDefault("MIGRATION_MAX_CONCURRENT_OWNERS", 3)      // 3 donos processados em paralelo
	viper.SetDefault("MIGRATION_TIME_BUDGET", "30m")            // Tempo máximo de uma execução
	viper.SetDefault("MIGRATION_STALE_RUN_AFTER", "2h")         // RUNNING mais antigo que isso é considerado abandonado

	viper.SetDefault("MIGRATION_SYNC_CRON", "0 3 * * *") // Todos os dias às 3h da manhã
	viper.SetDefault("MIGRATION_SYNC_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "info")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile()

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env): ", err)
	}

	if err := Decode(viper.AllSettings(), config); err != nil {
		return nil, err
	}

	return config, nil
}

// Decode converte as configurações lidas em Config e completa os campos derivados
func Decode(settings map[string]any, config *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(settings); err != nil {
		return err
	}

	config.Migration.Owners = compact(config.Migration.Owners)
	config.Migration.OwnerTimezones = make(map[string]string)
	for _, pair := range compact(config.Migration.OwnerTimezonesRaw) {
		owner, tz, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("MIGRATION_OWNER_TIMEZONES: par inválido %q, esperado owner=Fuso", pair)
		}
		config.Migration.OwnerTimezones[strings.TrimSpace(owner)] = strings.TrimSpace(tz)
	}

	if config.Database.Driver == DriverPostgres {
		config.Database.DSN = fmt.Sprintf(
			"%s://%s:%s@%s",
			config.Database.Driver,
			config.Database.User,
			config.Database.Password,
			config.Database.URL,
		)
	}

	return nil
}

// Validate verifica a configuração da migração; erros aqui abortam a execução
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL é obrigatório para postgres")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH é obrigatório para sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("DATABASE_DRIVER inválido %q", c.Database.Driver))
	}

	m := c.Migration
	if m.ArtifactRoot == "" {
		problems = append(problems, "MIGRATION_ARTIFACT_ROOT é obrigatório")
	}
	if len(m.Owners) == 0 {
		problems = append(problems, "MIGRATION_OWNERS deve listar ao menos um dono")
	}
	seen := make(map[string]bool, len(m.Owners))
	for _, owner := range m.Owners {
		if seen[owner] {
			problems = append(problems, fmt.Sprintf("dono %q repetido em MIGRATION_OWNERS", owner))
		}
		seen[owner] = true
	}
	for owner := range m.OwnerTimezones {
		if !seen[owner] {
			problems = append(problems, fmt.Sprintf("fuso configurado para dono desconhecido %q", owner))
		}
	}
	if m.OnCompleted != OnCompletedSkip && m.OnCompleted != OnCompletedRestart {
		problems = append(problems, fmt.Sprintf("MIGRATION_ON_COMPLETED inválido %q", m.OnCompleted))
	}
	if m.MaxConcurrentOwners < 1 {
		problems = append(problems, "MIGRATION_MAX_CONCURRENT_OWNERS deve ser >= 1")
	}
	if m.TimeBudget < 0 || m.StaleRunAfter < 0 {
		problems = append(problems, "durações não podem ser negativas")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	// Obter diretório atual
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado de:", location)
			return
		}
	}

	logrus.Debug("Nenhum arquivo .env encontrado, usando variáveis de ambiente")
}
