package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/calyxdata/starschema/pkg/cdc"
	"github.com/calyxdata/starschema/pkg/clickhouse"
	"github.com/calyxdata/starschema/pkg/ddl"
	"github.com/calyxdata/starschema/pkg/logger"
	"github.com/calyxdata/starschema/pkg/metrics"
	"github.com/calyxdata/starschema/pkg/postgres"
	"github.com/calyxdata/starschema/pkg/server"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	descriptorFlag := flag.String("descriptor", "starschema.yaml", "path to the star-schema descriptor file (or set STARSCHEMA_DESCRIPTOR env var)")
	demoFlag := flag.Bool("demo", false, "use the built-in orders demo schema instead of the descriptor")

	// ClickHouse configuration
	clickhouseAddrFlag := flag.String("clickhouse-addr", "", "ClickHouse address (host:port) (or set CLICKHOUSE_ADDR_TCP env var)")
	clickhouseDatabaseFlag := flag.String("clickhouse-database", "default", "ClickHouse database name (or set CLICKHOUSE_DATABASE env var)")
	clickhouseUsernameFlag := flag.String("clickhouse-username", "default", "ClickHouse username (or set CLICKHOUSE_USERNAME env var)")
	clickhousePasswordFlag := flag.String("clickhouse-password", "", "ClickHouse password (or set CLICKHOUSE_PASSWORD env var)")
	clickhouseSecureFlag := flag.Bool("clickhouse-secure", false, "Enable TLS for ClickHouse Cloud (or set CLICKHOUSE_SECURE=true env var)")

	// PostgreSQL configuration (OLTP source)
	pgHostFlag := flag.String("postgres-host", "localhost", "PostgreSQL host (or set POSTGRES_HOST env var)")
	pgPortFlag := flag.String("postgres-port", "5432", "PostgreSQL port (or set POSTGRES_PORT env var)")
	pgDatabaseFlag := flag.String("postgres-database", "", "PostgreSQL database (or set POSTGRES_DB env var)")
	pgUsernameFlag := flag.String("postgres-username", "", "PostgreSQL username (or set POSTGRES_USER env var)")
	pgPasswordFlag := flag.String("postgres-password", "", "PostgreSQL password (or set POSTGRES_PASSWORD env var)")
	pgSSLModeFlag := flag.String("postgres-sslmode", "disable", "PostgreSQL sslmode (or set POSTGRES_SSLMODE env var)")

	// Kafka/Redpanda configuration (CDC topic)
	kafkaBrokersFlag := flag.StringSlice("kafka-brokers", nil, "Kafka/Redpanda broker addresses (or set KAFKA_BROKERS env var, comma-separated)")
	kafkaTopicFlag := flag.String("kafka-topic", "cdc_events", "CDC topic name (or set KAFKA_TOPIC env var)")
	kafkaGroupFlag := flag.String("kafka-group", "starschema-cdc", "consumer group id (or set KAFKA_GROUP env var)")

	// HTTP server configuration
	listenAddrFlag := flag.String("listen-addr", ":8080", "HTTP listen address for --serve (or set LISTEN_ADDR env var)")

	// Commands
	generateFlag := flag.Bool("generate", false, "Sample the OLTP source and print the star-schema DDL")
	emitScriptFlag := flag.Bool("emit-script", false, "Print the generated DDL wrapped in a curl-based deploy script")
	deployFlag := flag.Bool("deploy", false, "Apply the generated DDL to ClickHouse")
	pgMigrateFlag := flag.Bool("pg-migrate", false, "Run the demo OLTP schema migrations using goose")
	pgMigrateDownFlag := flag.Bool("pg-migrate-down", false, "Roll back the last demo OLTP migration")
	pgMigrateStatusFlag := flag.Bool("pg-migrate-status", false, "Show demo OLTP migration status")
	resetDBFlag := flag.Bool("reset-db", false, "Drop all generated star-schema tables (dim_*, fact_*) and dictionaries")
	dryRunFlag := flag.Bool("dry-run", false, "Dry run mode - show what would be done without actually executing")
	yesFlag := flag.Bool("yes", false, "Skip confirmation prompt (use with caution)")
	consumeFlag := flag.Bool("consume", false, "Run the CDC consumer, landing events in the star-schema tables")
	serveFlag := flag.Bool("serve", false, "Serve health, DDL, and metrics over HTTP")

	flag.Parse()

	log := logger.New(*verboseFlag)

	// Override flags with environment variables if set
	if env := os.Getenv("STARSCHEMA_DESCRIPTOR"); env != "" {
		*descriptorFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_ADDR_TCP"); env != "" {
		*clickhouseAddrFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_DATABASE"); env != "" {
		*clickhouseDatabaseFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_USERNAME"); env != "" {
		*clickhouseUsernameFlag = env
	}
	if env := os.Getenv("CLICKHOUSE_PASSWORD"); env != "" {
		*clickhousePasswordFlag = env
	}
	if os.Getenv("CLICKHOUSE_SECURE") == "true" {
		*clickhouseSecureFlag = true
	}
	if env := os.Getenv("POSTGRES_HOST"); env != "" {
		*pgHostFlag = env
	}
	if env := os.Getenv("POSTGRES_PORT"); env != "" {
		*pgPortFlag = env
	}
	if env := os.Getenv("POSTGRES_DB"); env != "" {
		*pgDatabaseFlag = env
	}
	if env := os.Getenv("POSTGRES_USER"); env != "" {
		*pgUsernameFlag = env
	}
	if env := os.Getenv("POSTGRES_PASSWORD"); env != "" {
		*pgPasswordFlag = env
	}
	if env := os.Getenv("POSTGRES_SSLMODE"); env != "" {
		*pgSSLModeFlag = env
	}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		*kafkaBrokersFlag = strings.Split(env, ",")
	}
	if env := os.Getenv("KAFKA_TOPIC"); env != "" {
		*kafkaTopicFlag = env
	}
	if env := os.Getenv("KAFKA_GROUP"); env != "" {
		*kafkaGroupFlag = env
	}
	if env := os.Getenv("LISTEN_ADDR"); env != "" {
		*listenAddrFlag = env
	}

	pgCfg := postgres.Config{
		Host:     *pgHostFlag,
		Port:     *pgPortFlag,
		Database: *pgDatabaseFlag,
		Username: *pgUsernameFlag,
		Password: *pgPasswordFlag,
		SSLMode:  *pgSSLModeFlag,
	}

	chCfg := clickhouse.Config{
		Addr:     *clickhouseAddrFlag,
		Database: *clickhouseDatabaseFlag,
		Username: *clickhouseUsernameFlag,
		Password: *clickhousePasswordFlag,
		Secure:   *clickhouseSecureFlag,
	}

	app := &app{
		log:        log,
		descriptor: *descriptorFlag,
		demo:       *demoFlag,
		pgCfg:      pgCfg,
		chCfg:      chCfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	switch {
	case *pgMigrateFlag:
		return postgres.MigrateUp(log, pgCfg)

	case *pgMigrateDownFlag:
		return postgres.MigrateDown(log, pgCfg)

	case *pgMigrateStatusFlag:
		return postgres.MigrateStatus(log, pgCfg)

	case *generateFlag:
		out, err := app.render(ctx)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil

	case *emitScriptFlag:
		out, err := app.render(ctx)
		if err != nil {
			return err
		}
		fmt.Println(ddl.RenderDeployScript(clickhouse.SplitStatements(out), ddl.ScriptOptions{}))
		return nil

	case *deployFlag:
		if chCfg.Addr == "" {
			return fmt.Errorf("--clickhouse-addr is required for --deploy")
		}
		return app.deploy(ctx)

	case *resetDBFlag:
		if chCfg.Addr == "" {
			return fmt.Errorf("--clickhouse-addr is required for --reset-db")
		}
		return app.resetDB(ctx, *dryRunFlag, *yesFlag)

	case *consumeFlag:
		if chCfg.Addr == "" {
			return fmt.Errorf("--clickhouse-addr is required for --consume")
		}
		if len(*kafkaBrokersFlag) == 0 {
			return fmt.Errorf("--kafka-brokers is required for --consume")
		}
		return app.consume(ctx, cdc.ConsumerConfig{
			Brokers: *kafkaBrokersFlag,
			Topic:   *kafkaTopicFlag,
			GroupID: *kafkaGroupFlag,
		})

	case *serveFlag:
		return app.serve(ctx, server.Config{
			ListenAddr: *listenAddrFlag,
			VersionInfo: server.VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
			},
		})
	}

	flag.Usage()
	return nil
}
