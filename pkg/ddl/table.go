package ddl

import (
	"fmt"
	"strings"

	"github.com/calyxdata/starschema/pkg/star"
)

// Emitter renders table models into DDL statements using a pluggable
// engine strategy. The zero value is not usable; construct with
// NewEmitter.
type Emitter struct {
	strategy EngineStrategy
}

// NewEmitter creates an emitter. A nil strategy selects the default
// ClickHouse MergeTree strategy.
func NewEmitter(strategy EngineStrategy) *Emitter {
	if strategy == nil {
		strategy = MergeTreeStrategy{}
	}
	return &Emitter{strategy: strategy}
}

// RenderTable renders a validated table model into a CREATE TABLE
// statement. Column lines appear in model order, one per line, so the
// output is reproducible and diffable.
func (e *Emitter) RenderTable(m *star.TableModel) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	engine, err := e.strategy.TableEngine(m)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		lines = append(lines, fmt.Sprintf("    %s %s", c.Name, c.DDLType()))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n) %s;",
		m.Name, strings.Join(lines, ",\n"), engine), nil
}

// DropTable returns the paired teardown statement for a table model.
func (e *Emitter) DropTable(m *star.TableModel) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", m.Name)
}
