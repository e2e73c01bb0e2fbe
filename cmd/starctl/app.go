package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calyxdata/starschema/examples/orders"
	"github.com/calyxdata/starschema/pkg/cdc"
	"github.com/calyxdata/starschema/pkg/clickhouse"
	"github.com/calyxdata/starschema/pkg/config"
	"github.com/calyxdata/starschema/pkg/ddl"
	"github.com/calyxdata/starschema/pkg/metrics"
	"github.com/calyxdata/starschema/pkg/postgres"
	"github.com/calyxdata/starschema/pkg/server"
	"github.com/calyxdata/starschema/pkg/star"
)

type app struct {
	log        *slog.Logger
	descriptor string
	demo       bool
	pgCfg      postgres.Config
	chCfg      clickhouse.Config
}

// schema is everything a command needs: the registry, the CDC routing
// table, and any dictionary DDL from the descriptor.
type schema struct {
	generator    *star.Generator
	routes       map[string]string
	dictionaries []*ddl.DictionaryModel
}

func (a *app) build(ctx context.Context) (*schema, error) {
	if a.demo {
		g := star.NewGenerator(a.log, ddl.NewEmitter(nil))
		if err := orders.Register(g); err != nil {
			return nil, fmt.Errorf("failed to register demo schema: %w", err)
		}
		return &schema{generator: g, routes: orders.Routes()}, nil
	}

	f, err := config.Load(a.descriptor)
	if err != nil {
		return nil, err
	}

	sampler, err := postgres.NewSampler(ctx, a.log, a.pgCfg)
	if err != nil {
		metrics.SampleQueriesTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	defer sampler.Close()

	g := star.NewGenerator(a.log, ddl.NewEmitter(nil))
	routes := make(map[string]string)

	for _, d := range f.Dimensions {
		sample, err := sampler.SampleRow(ctx, d.SourceTable)
		if err != nil {
			metrics.SampleQueriesTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.SampleQueriesTotal.WithLabelValues("success").Inc()

		if err := g.AddDimension(d.Name, sample, d.Options()); err != nil {
			return nil, err
		}
		routes[d.SourceTable] = d.Name
	}

	for _, fa := range f.Facts {
		sample, err := sampler.SampleRow(ctx, fa.SourceTable)
		if err != nil {
			metrics.SampleQueriesTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.SampleQueriesTotal.WithLabelValues("success").Inc()

		if err := g.AddFact(fa.Name, sample, fa.Options()); err != nil {
			return nil, err
		}
		routes[fa.SourceTable] = fa.Name
	}

	dictionaries := make([]*ddl.DictionaryModel, 0, len(f.Dictionaries))
	for _, d := range f.Dictionaries {
		model, err := ddl.NewDictionaryModel(f.DictionaryConfig(d))
		if err != nil {
			return nil, err
		}
		dictionaries = append(dictionaries, model)
	}

	return &schema{generator: g, routes: routes, dictionaries: dictionaries}, nil
}

// render produces the full DDL document: tables first, dictionaries
// after (they may read from the tables).
func (a *app) render(ctx context.Context) (string, error) {
	s, err := a.build(ctx)
	if err != nil {
		return "", err
	}

	out, err := s.generator.GenerateDDL()
	if err != nil {
		return "", err
	}

	parts := []string{out}
	emitter := ddl.NewEmitter(nil)
	for _, d := range s.dictionaries {
		create, _, err := emitter.RenderDictionary(d)
		if err != nil {
			return "", err
		}
		parts = append(parts, create)
	}

	return strings.Join(parts, "\n\n"), nil
}

func (a *app) deploy(ctx context.Context) error {
	out, err := a.render(ctx)
	if err != nil {
		return err
	}

	client, err := clickhouse.NewClient(ctx, a.log, a.chCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	conn, err := client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if err := clickhouse.Deploy(ctx, a.log, conn, clickhouse.SplitStatements(out)); err != nil {
		metrics.DDLDeploysTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.DDLDeploysTotal.WithLabelValues("success").Inc()
	return nil
}

func (a *app) resetDB(ctx context.Context, dryRun, skipConfirm bool) error {
	client, err := clickhouse.NewClient(ctx, a.log, a.chCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	conn, err := client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return clickhouse.Reset(ctx, a.log, conn, clickhouse.ResetOptions{
		Database:    a.chCfg.Database,
		DryRun:      dryRun,
		SkipConfirm: skipConfirm,
	})
}

func (a *app) consume(ctx context.Context, consumerCfg cdc.ConsumerConfig) error {
	s, err := a.build(ctx)
	if err != nil {
		return err
	}

	client, err := clickhouse.NewClient(ctx, a.log, a.chCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	conn, err := client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	models := make(map[string]*star.TableModel)
	for _, m := range s.generator.Tables() {
		models[m.Name] = m
	}

	router := cdc.NewRouter(a.log)
	for source, dest := range s.routes {
		model, ok := models[dest]
		if !ok {
			return fmt.Errorf("route %s -> %s points at unknown table", source, dest)
		}
		router.Register(source, clickhouse.NewTableSink(a.log, conn, model))
	}

	consumer, err := cdc.NewConsumer(a.log, consumerCfg, router, nil)
	if err != nil {
		return err
	}

	a.log.Info("starting CDC consumer", "topic", consumerCfg.Topic)
	return consumer.Run(ctx)
}

func (a *app) serve(ctx context.Context, serverCfg server.Config) error {
	s, err := a.build(ctx)
	if err != nil {
		return err
	}

	var ready server.ReadyFunc
	if a.chCfg.Addr != "" {
		client, err := clickhouse.NewClient(ctx, a.log, a.chCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		ready = func(ctx context.Context) error {
			conn, err := client.Conn(ctx)
			if err != nil {
				return err
			}
			return conn.Exec(ctx, "SELECT 1")
		}
	}

	srv, err := server.New(a.log, serverCfg, s.generator, ready)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
