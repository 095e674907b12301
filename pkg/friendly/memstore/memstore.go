// Package memstore is an in-process friendly.Schema and friendly.Store.
// Transactions hold a single store-wide lock and roll back on error, which
// makes every check-then-write in the protocol serializable.
package memstore

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
)

var (
	_ friendly.Schema = (*Store)(nil)
	_ friendly.Store  = (*Store)(nil)
)

type engine struct {
	mu          sync.Mutex
	now         func() time.Time
	types       map[string]friendly.EntityType
	tables      map[string][]friendly.Record
	collections map[string][]friendly.Collection
	reloads     map[string]map[uint]int
}

type Store struct {
	*engine
	inTx bool
}

func New() *Store {
	return &Store{engine: &engine{
		now:         func() time.Time { return time.Now().UTC() },
		types:       make(map[string]friendly.EntityType),
		tables:      make(map[string][]friendly.Record),
		collections: make(map[string][]friendly.Collection),
		reloads:     make(map[string]map[uint]int),
	}}
}

// SetClock overrides the time used for created_at/updated_at.
func (s *Store) SetClock(now func() time.Time) {
	unlock := s.lock()
	defer unlock()
	s.now = now
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) DeclareEntityType(ctx context.Context, def friendly.EntityType) (friendly.TypeHandle, error) {
	if err := ctx.Err(); err != nil {
		return friendly.TypeHandle{}, err
	}
	unlock := s.lock()
	defer unlock()

	if def.Name == "" || def.Table == "" {
		return friendly.TypeHandle{}, errors.New(errors.ErrCodeConfiguration, "entity type needs a name and a table")
	}
	name := def.Handle().QualifiedName()
	if existing, ok := s.types[name]; ok {
		if reflect.DeepEqual(existing, def) {
			return existing.Handle(), nil
		}
		return friendly.TypeHandle{}, errors.Newf(errors.ErrCodeConfiguration, "%s is already declared with a different shape", name)
	}
	for other, t := range s.types {
		if t.Table == def.Table {
			return friendly.TypeHandle{}, errors.Newf(errors.ErrCodeConfiguration, "table %s already belongs to %s", def.Table, other)
		}
	}

	s.types[name] = def
	s.tables[def.Table] = nil
	return def.Handle(), nil
}

func (s *Store) DeclareHasMany(ctx context.Context, owner friendly.TypeHandle, c friendly.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	key := owner.QualifiedName()
	for _, existing := range s.collections[key] {
		if existing.Name != c.Name {
			continue
		}
		if reflect.DeepEqual(existing, c) {
			return nil
		}
		return errors.Newf(errors.ErrCodeConfiguration, "collection %s on %s already declared differently", c.Name, key)
	}
	s.collections[key] = append(s.collections[key], c)
	return nil
}

func (s *Store) ResolveType(qualifiedName string) (friendly.TypeHandle, error) {
	unlock := s.lock()
	defer unlock()

	def, ok := s.types[qualifiedName]
	if !ok {
		return friendly.TypeHandle{}, errors.Newf(errors.ErrCodeNotFound, "type %s is not declared", qualifiedName)
	}
	return def.Handle(), nil
}

// Collections returns the collections declared on owner.
func (s *Store) Collections(owner friendly.TypeHandle) []friendly.Collection {
	unlock := s.lock()
	defer unlock()
	return append([]friendly.Collection(nil), s.collections[owner.QualifiedName()]...)
}

// Rows returns a copy of every row of edge in insertion order.
func (s *Store) Rows(edge friendly.TypeHandle) []friendly.Record {
	unlock := s.lock()
	defer unlock()

	rows := s.tables[edge.Table]
	out := make([]friendly.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out
}

// Reloads counts how often subject was reloaded.
func (s *Store) Reloads(subject friendly.Capable) int {
	unlock := s.lock()
	defer unlock()
	return s.reloads[subject.FriendlyType()][subject.FriendlyID()]
}

func (s *Store) Query(ctx context.Context, edge friendly.TypeHandle, q friendly.Query) ([]friendly.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock()
	defer unlock()

	def, err := s.definition(edge)
	if err != nil {
		return nil, err
	}

	var out []friendly.Record
	for _, row := range s.tables[def.Table] {
		ok, err := matchAll(def, row, q.Conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, row.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, edge friendly.TypeHandle, fields friendly.Record) (friendly.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock()
	defer unlock()

	def, err := s.definition(edge)
	if err != nil {
		return nil, err
	}
	for col := range fields {
		if !def.HasField(col) {
			return nil, errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, col)
		}
	}

	row := make(friendly.Record, len(def.Fields))
	for _, f := range def.Fields {
		row[f.Name] = fields[f.Name]
	}
	for _, k := range def.Keys {
		if isNull(row[k]) {
			return nil, errors.Newf(errors.ErrCodeValidation, "key column %s is required", k)
		}
	}
	now := s.now()
	if def.HasField(friendly.CreatedAtColumn) {
		row[friendly.CreatedAtColumn] = now
	}
	if def.HasField(friendly.UpdatedAtColumn) {
		row[friendly.UpdatedAtColumn] = now
	}

	for _, existing := range s.tables[def.Table] {
		if sameKey(def.Keys, existing, row) {
			return nil, errors.Newf(errors.ErrCodeConflict, "duplicate key in %s", def.Table)
		}
		for _, pair := range def.UnorderedUnique {
			if samePair(pair, existing, row) {
				return nil, errors.Newf(errors.ErrCodeConflict, "pair (%s, %s) already present in %s", pair[0], pair[1], def.Table)
			}
		}
	}

	s.tables[def.Table] = append(s.tables[def.Table], row)
	return row.Clone(), nil
}

func (s *Store) Update(ctx context.Context, edge friendly.TypeHandle, key friendly.Record, set friendly.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	def, err := s.definition(edge)
	if err != nil {
		return err
	}
	for col := range set {
		if !def.HasField(col) {
			return errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, col)
		}
	}

	matched := 0
	for _, row := range s.tables[def.Table] {
		if !matchRecord(row, key) {
			continue
		}
		for col, v := range set {
			row[col] = v
		}
		if def.HasField(friendly.UpdatedAtColumn) {
			row[friendly.UpdatedAtColumn] = s.now()
		}
		matched++
	}
	if matched == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "no %s row matched", def.Table)
	}
	return nil
}

func (s *Store) Destroy(ctx context.Context, edge friendly.TypeHandle, key friendly.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	def, err := s.definition(edge)
	if err != nil {
		return err
	}

	rows := s.tables[def.Table]
	kept := rows[:0:0]
	for _, row := range rows {
		if !sameKey(def.Keys, row, key) {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(rows) {
		return errors.Newf(errors.ErrCodeNotFound, "no %s row matched", def.Table)
	}
	s.tables[def.Table] = kept
	return nil
}

// Reload has no cached state to refresh; it only records the call.
func (s *Store) Reload(ctx context.Context, subject friendly.Capable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	byID, ok := s.reloads[subject.FriendlyType()]
	if !ok {
		byID = make(map[uint]int)
		s.reloads[subject.FriendlyType()] = byID
	}
	byID[subject.FriendlyID()]++
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(tx friendly.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&Store{engine: s.engine, inTx: true}); err != nil {
		s.tables = snapshot
		return err
	}
	return nil
}

func (s *Store) snapshot() map[string][]friendly.Record {
	out := make(map[string][]friendly.Record, len(s.tables))
	for table, rows := range s.tables {
		cp := make([]friendly.Record, len(rows))
		for i, r := range rows {
			cp[i] = r.Clone()
		}
		out[table] = cp
	}
	return out
}

func (s *Store) definition(edge friendly.TypeHandle) (friendly.EntityType, error) {
	def, ok := s.types[edge.QualifiedName()]
	if !ok {
		return friendly.EntityType{}, errors.Newf(errors.ErrCodeNotFound, "type %s is not declared", edge.QualifiedName())
	}
	return def, nil
}
