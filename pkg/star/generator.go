package star

import (
	"fmt"
	"log/slog"
	"strings"
)

// Renderer turns a table model into DDL text. Implemented by the ddl
// package; the indirection keeps the registry agnostic of the target
// engine dialect.
type Renderer interface {
	RenderTable(m *TableModel) (string, error)
}

// Generator accumulates dimension and fact table models by name and
// emits combined DDL for the full star schema. It holds only in-memory
// state scoped to the generation session; there is no teardown.
//
// A Generator is not safe for concurrent writers. Callers sharing one
// across goroutines must serialize AddDimension/AddFact calls.
type Generator struct {
	log      *slog.Logger
	renderer Renderer

	dimOrder  []string
	factOrder []string
	tables    map[string]*TableModel
}

// NewGenerator creates an empty star-schema generator.
func NewGenerator(log *slog.Logger, renderer Renderer) *Generator {
	return &Generator{
		log:      log,
		renderer: renderer,
		tables:   make(map[string]*TableModel),
	}
}

// AddDimension infers a dimension table from the sample record and
// registers it. Re-adding a name overwrites the previous model but
// keeps its original position in the emission order.
func (g *Generator) AddDimension(name string, sample map[string]any, opts DimensionOptions) error {
	model, err := BuildDimension(name, sample, opts)
	if err != nil {
		return err
	}
	g.register(model)
	return nil
}

// AddFact infers a fact table from the sample record and registers it.
func (g *Generator) AddFact(name string, sample map[string]any, opts FactOptions) error {
	model, err := BuildFact(name, sample, opts)
	if err != nil {
		return err
	}
	g.register(model)
	return nil
}

// AddModel registers a pre-built table model (the typed
// DefineDimension/DefineFact path). The model is validated so malformed
// definitions fail here rather than at render time.
func (g *Generator) AddModel(model *TableModel) error {
	if err := model.Validate(); err != nil {
		return err
	}
	g.register(model)
	return nil
}

// Dimensions returns the registered dimension models in emission order.
func (g *Generator) Dimensions() []*TableModel {
	return g.modelsFor(g.dimOrder)
}

// Facts returns the registered fact models in emission order.
func (g *Generator) Facts() []*TableModel {
	return g.modelsFor(g.factOrder)
}

// Tables returns all registered models, dimensions before facts.
func (g *Generator) Tables() []*TableModel {
	return append(g.Dimensions(), g.Facts()...)
}

// GenerateDDL renders the combined DDL for the registered schema. It is
// a pure read: calling it twice on an unmodified generator yields
// byte-identical output. Dimensions are always emitted before facts,
// regardless of insertion order, since facts depend on dimension keys
// existing first.
func (g *Generator) GenerateDDL() (string, error) {
	statements := make([]string, 0, len(g.tables))

	for _, model := range g.Tables() {
		stmt, err := g.renderer.RenderTable(model)
		if err != nil {
			return "", fmt.Errorf("failed to render table %s: %w", model.Name, err)
		}
		statements = append(statements, stmt)
	}

	if g.log != nil {
		g.log.Debug("generated star schema DDL",
			"dimensions", len(g.dimOrder), "facts", len(g.factOrder))
	}
	return strings.Join(statements, "\n\n"), nil
}

// register inserts or overwrites a model. A name that switches kind
// moves to the end of its new category's order.
func (g *Generator) register(model *TableModel) {
	if prev, ok := g.tables[model.Name]; ok {
		if prev.Kind == model.Kind {
			g.tables[model.Name] = model
			return
		}
		// Kind changed: drop from the old category's order.
		g.dimOrder = remove(g.dimOrder, model.Name)
		g.factOrder = remove(g.factOrder, model.Name)
	}

	g.tables[model.Name] = model
	switch model.Kind {
	case KindDimension:
		g.dimOrder = append(g.dimOrder, model.Name)
	case KindFact:
		g.factOrder = append(g.factOrder, model.Name)
	}
}

func (g *Generator) modelsFor(order []string) []*TableModel {
	models := make([]*TableModel, 0, len(order))
	for _, name := range order {
		models = append(models, g.tables[name])
	}
	return models
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
