package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"prompterly/pkg/db"
	"prompterly/pkg/metrics"
	"prompterly/pkg/schema"
)

// TableResult counts the outcome for one table.
type TableResult struct {
	Table    string
	Inserted int
	Skipped  int
	IDs      []int64
}

// Result reports a Load, table by table in load order.
type Result struct {
	Tables []*TableResult
}

// Table returns the result for name, or nil when the table was not loaded.
func (r *Result) Table(name string) *TableResult {
	for _, t := range r.Tables {
		if t.Table == name {
			return t
		}
	}
	return nil
}

func (r *Result) table(name string) *TableResult {
	if t := r.Table(name); t != nil {
		return t
	}
	t := &TableResult{Table: name}
	r.Tables = append(r.Tables, t)
	return t
}

// Inserted is the total number of rows written.
func (r *Result) Inserted() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}

// Skipped is the total number of rows already present.
func (r *Result) Skipped() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Skipped
	}
	return n
}

type Option func(*Loader)

func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) { ld.log = l }
}

// WithClock sets the time used for NOT NULL timestamps a row leaves out.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}

// Loader writes datasets through the registry's column metadata.
type Loader struct {
	db     *gorm.DB
	reg    *schema.Registry
	log    zerolog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

func New(gdb *gorm.DB, reg *schema.Registry, opts ...Option) (*Loader, error) {
	if gdb == nil {
		return nil, errors.New("db is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	l := &Loader{
		db:     gdb,
		reg:    reg,
		log:    zerolog.Nop(),
		now:    time.Now,
		tracer: otel.Tracer("prompterly/seed"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load validates every reference in ds, then inserts the groups in order in a
// single transaction. Rows whose natural key already exists with the same id
// are skipped, so loading the same dataset twice changes nothing.
func (l *Loader) Load(ctx context.Context, ds *Dataset) (*Result, error) {
	if ds == nil {
		return nil, errors.New("dataset is required")
	}
	if err := l.validate(ds); err != nil {
		return nil, err
	}

	res := &Result{}
	var failed *LoadError
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range ds.Groups {
			if err := l.loadGroup(ctx, tx, g, res); err != nil {
				return err
			}
		}
		for _, t := range res.Tables {
			if t.Inserted == 0 {
				continue
			}
			if err := db.AdvanceSequence(ctx, tx, t.Table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.As(err, &failed) {
			failed.Applied = res
			return res, failed
		}
		return res, &LoadError{Applied: res, Err: err}
	}
	for _, t := range res.Tables {
		metrics.SeedRows.WithLabelValues(t.Table, "inserted").Add(float64(t.Inserted))
		metrics.SeedRows.WithLabelValues(t.Table, "skipped").Add(float64(t.Skipped))
	}
	l.log.Info().Int("inserted", res.Inserted()).Int("skipped", res.Skipped()).Msg("dataset loaded")
	return res, nil
}

// validate checks tables, columns and ids, and that every reference points at
// a row declared in an earlier group or earlier in the same group.
func (l *Loader) validate(ds *Dataset) error {
	seen := make(map[string]map[int64]bool)
	for _, g := range ds.Groups {
		t, ok := l.reg.Table(g.Table)
		if !ok {
			return fmt.Errorf("unknown table %q", g.Table)
		}
		for _, k := range g.naturalKey() {
			if _, ok := t.Column(k); !ok {
				return fmt.Errorf("%s: unknown key column %q", g.Table, k)
			}
		}
		if seen[g.Table] == nil {
			seen[g.Table] = make(map[int64]bool, len(g.Rows))
		}
		for i, row := range g.Rows {
			id, err := rowID(row)
			if err != nil {
				return &IntegrityError{Table: g.Table, Column: "id", Reason: fmt.Sprintf("row %d: %v", i, err)}
			}
			for col := range row {
				if _, ok := t.Column(col); !ok {
					return &IntegrityError{Table: g.Table, RowID: id, Column: col, Reason: "unknown column"}
				}
			}
			for _, fk := range t.ForeignKeys {
				v, ok := row[fk.Column]
				if !ok || v == nil {
					continue
				}
				parentID, err := toInt64(v)
				if err != nil {
					return &IntegrityError{Table: g.Table, RowID: id, Column: fk.Column, Reason: err.Error()}
				}
				if !seen[fk.ParentTable][parentID] {
					return &IntegrityError{Table: g.Table, RowID: id, Column: fk.Column, ParentTable: fk.ParentTable, ParentID: parentID}
				}
			}
			seen[g.Table][id] = true
		}
	}
	return nil
}

func rowID(row Row) (int64, error) {
	v, ok := row["id"]
	if !ok || v == nil {
		return 0, errors.New("missing id")
	}
	id, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id %d is not positive", id)
	}
	return id, nil
}

func (l *Loader) loadGroup(ctx context.Context, tx *gorm.DB, g Group, res *Result) (err error) {
	ctx, span := l.tracer.Start(ctx, "seed.group", trace.WithAttributes(
		attribute.String("seed.table", g.Table),
		attribute.Int("seed.rows", len(g.Rows)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	t, _ := l.reg.Table(g.Table)
	tr := res.table(g.Table)
	key := g.naturalKey()
	now := l.now().UTC()
	for _, row := range g.Rows {
		id, _ := rowID(row)
		values, err := l.values(t, row, now)
		if err != nil {
			return &LoadError{Table: g.Table, RowID: id, Err: err}
		}
		existing, found, err := lookup(ctx, tx, t.Name, key, values)
		if err != nil {
			return &LoadError{Table: g.Table, RowID: id, Err: err}
		}
		if found {
			if existing != id {
				return &LoadError{Table: g.Table, RowID: id, Err: &IntegrityError{
					Table: g.Table, RowID: id, Column: strings.Join(key, ", "), ExistingID: existing,
				}}
			}
			tr.Skipped++
			continue
		}
		if err := tx.Table(t.Name).Create(values).Error; err != nil {
			return &LoadError{Table: g.Table, RowID: id, Err: schema.TranslateError(err)}
		}
		tr.Inserted++
		tr.IDs = append(tr.IDs, id)
	}
	l.log.Debug().Str("table", g.Table).Int("inserted", tr.Inserted).Int("skipped", tr.Skipped).Msg("group loaded")
	return nil
}

// values converts a row and fills NOT NULL timestamps that have no default.
func (l *Loader) values(t *schema.Table, row Row, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(t.Columns))
	for col, v := range row {
		c, _ := t.Column(col)
		cv, err := convert(t, c, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		out[c.Name] = cv
	}
	for _, c := range t.Columns {
		if _, ok := out[c.Name]; ok {
			continue
		}
		if c.Type == schema.TypeTime && !c.Nullable && !c.HasDefault {
			out[c.Name] = now
		}
	}
	return out, nil
}

// lookup finds the id of the row holding the natural key of values.
func lookup(ctx context.Context, tx *gorm.DB, table string, key []string, values map[string]any) (int64, bool, error) {
	conds := make([]string, 0, len(key))
	args := make([]any, 0, len(key))
	for _, k := range key {
		v, ok := values[k]
		if !ok || v == nil {
			conds = append(conds, tx.Statement.Quote(k)+" IS NULL")
			continue
		}
		conds = append(conds, tx.Statement.Quote(k)+" = ?")
		args = append(args, v)
	}
	q := fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY id LIMIT 1", tx.Statement.Quote(table), strings.Join(conds, " AND "))
	var ids []int64
	if err := db.Select(ctx, tx, &ids, q, args...); err != nil {
		return 0, false, fmt.Errorf("look up %s by (%s): %w", table, strings.Join(key, ", "), err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// Tables lists the tables a dataset touches, sorted.
func (ds *Dataset) Tables() []string {
	set := make(map[string]bool, len(ds.Groups))
	for _, g := range ds.Groups {
		set[g.Table] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
