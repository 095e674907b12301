package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/logger"
)

var (
	_ friendly.Schema = (*FriendshipStore)(nil)
	_ friendly.Store  = (*FriendshipStore)(nil)
)

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// catalog holds the entity types declared through a FriendshipStore. It is
// shared between a store and the stores handed to its transactions.
type catalog struct {
	mu          sync.RWMutex
	types       map[string]friendly.EntityType
	collections map[string][]friendly.Collection
}

// FriendshipStore keeps friendly edge tables in a gorm database. Tables are
// created on declaration and addressed by name, so one store serves every
// friendly subject type.
type FriendshipStore struct {
	db *gorm.DB
	*catalog
}

func NewFriendshipStore(db *gorm.DB) *FriendshipStore {
	return &FriendshipStore{
		db: db,
		catalog: &catalog{
			types:       make(map[string]friendly.EntityType),
			collections: make(map[string][]friendly.Collection),
		},
	}
}

func (s *FriendshipStore) sqlite() bool {
	return s.db.Dialector.Name() == "sqlite"
}

// DeclareEntityType creates the table, primary key and unordered-pair index
// of def when they do not exist yet.
func (s *FriendshipStore) DeclareEntityType(ctx context.Context, def friendly.EntityType) (friendly.TypeHandle, error) {
	if def.Name == "" || def.Table == "" {
		return friendly.TypeHandle{}, errors.New(errors.ErrCodeConfiguration, "entity type needs a name and a table")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

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

	statements, err := s.ddl(def)
	if err != nil {
		return friendly.TypeHandle{}, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return friendly.TypeHandle{}, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to create table "+def.Table)
	}

	s.types[name] = def
	logger.Debug("Edge table ready", "type", name, "table", def.Table)
	return def.Handle(), nil
}

func (s *FriendshipStore) ddl(def friendly.EntityType) ([]string, error) {
	names := append([]string{def.Table}, def.Keys...)
	for _, f := range def.Fields {
		names = append(names, f.Name)
		if f.References.Table != "" {
			names = append(names, f.References.Table)
		}
	}
	for _, n := range names {
		if !identifierRe.MatchString(n) {
			return nil, errors.Newf(errors.ErrCodeConfiguration, "%q is not a valid identifier", n)
		}
	}

	var cols []string
	for _, f := range def.Fields {
		col := f.Name + " " + s.columnType(f.Kind)
		if !f.Nullable {
			col += " NOT NULL"
		}
		if f.References.Table != "" {
			col += " REFERENCES " + f.References.Table + "(id) ON DELETE CASCADE"
		}
		cols = append(cols, col)
	}
	if len(def.Keys) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(def.Keys, ", ")+")")
	}

	statements := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", def.Table, strings.Join(cols, ", ")),
	}

	least, greatest := "LEAST", "GREATEST"
	if s.sqlite() {
		least, greatest = "min", "max"
	}
	for _, pair := range def.UnorderedUnique {
		statements = append(statements, fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s_%s ON %s (%s(%s, %s), %s(%s, %s))",
			def.Table, pair[0], pair[1], def.Table,
			least, pair[0], pair[1], greatest, pair[0], pair[1],
		))
	}
	if def.HasField(friendly.FriendKey) {
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			def.Table, friendly.FriendKey, def.Table, friendly.FriendKey,
		))
	}
	return statements, nil
}

func (s *FriendshipStore) columnType(kind friendly.FieldKind) string {
	switch kind {
	case friendly.FieldTimestamp:
		if s.sqlite() {
			return "DATETIME"
		}
		return "TIMESTAMPTZ"
	default:
		if s.sqlite() {
			return "INTEGER"
		}
		return "BIGINT"
	}
}

func (s *FriendshipStore) DeclareHasMany(ctx context.Context, owner friendly.TypeHandle, c friendly.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

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

// Collections returns the collections declared on owner.
func (s *FriendshipStore) Collections(owner friendly.TypeHandle) []friendly.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]friendly.Collection(nil), s.collections[owner.QualifiedName()]...)
}

func (s *FriendshipStore) ResolveType(qualifiedName string) (friendly.TypeHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.types[qualifiedName]
	if !ok {
		return friendly.TypeHandle{}, errors.Newf(errors.ErrCodeNotFound, "type %s is not declared", qualifiedName)
	}
	return def.Handle(), nil
}

func (s *FriendshipStore) definition(edge friendly.TypeHandle) (friendly.EntityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.types[edge.QualifiedName()]
	if !ok {
		return friendly.EntityType{}, errors.Newf(errors.ErrCodeNotFound, "type %s is not declared", edge.QualifiedName())
	}
	return def, nil
}

// Query returns matching rows oldest first.
func (s *FriendshipStore) Query(ctx context.Context, edge friendly.TypeHandle, q friendly.Query) ([]friendly.Record, error) {
	def, err := s.definition(edge)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Table(def.Table)
	tx, err = where(tx, def, q.Conditions)
	if err != nil {
		return nil, err
	}
	if def.HasField(friendly.CreatedAtColumn) {
		tx = tx.Order(friendly.CreatedAtColumn)
	}
	for _, k := range def.Keys {
		tx = tx.Order(k)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	// sqlite serialises writers on its own and has no row locks
	if q.ForUpdate && !s.sqlite() {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []map[string]interface{}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to query "+def.Table)
	}

	out := make([]friendly.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, friendly.Record(row))
	}
	return out, nil
}

func where(tx *gorm.DB, def friendly.EntityType, conds []friendly.Condition) (*gorm.DB, error) {
	for _, c := range conds {
		switch c.Op {
		case friendly.OpEq, friendly.OpIsNull, friendly.OpNotNull:
			if !def.HasField(c.Column) {
				return nil, errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, c.Column)
			}
		case friendly.OpEitherWay:
			if !def.HasField(c.Columns[0]) || !def.HasField(c.Columns[1]) {
				return nil, errors.Newf(errors.ErrCodeValidation, "%s has no columns %s, %s", def.Table, c.Columns[0], c.Columns[1])
			}
		}

		switch c.Op {
		case friendly.OpEq:
			tx = tx.Where(c.Column+" = ?", c.Value)
		case friendly.OpIsNull:
			tx = tx.Where(c.Column + " IS NULL")
		case friendly.OpNotNull:
			tx = tx.Where(c.Column + " IS NOT NULL")
		case friendly.OpEitherWay:
			a, b := c.Columns[0], c.Columns[1]
			tx = tx.Where(
				fmt.Sprintf("(%s = ? AND %s = ?) OR (%s = ? AND %s = ?)", a, b, a, b),
				c.Values[0], c.Values[1], c.Values[1], c.Values[0],
			)
		case friendly.OpRaw:
			tx = tx.Where(c.SQL, c.Args...)
		default:
			return nil, errors.Newf(errors.ErrCodeValidation, "unknown condition %d", c.Op)
		}
	}
	return tx, nil
}

// whereKey renders key as equality guards, nil meaning IS NULL. Columns are
// sorted so the statement text is stable.
func whereKey(tx *gorm.DB, def friendly.EntityType, key friendly.Record) (*gorm.DB, error) {
	cols := make([]string, 0, len(key))
	for col := range key {
		if !def.HasField(col) {
			return nil, errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		if key[col] == nil {
			tx = tx.Where(col + " IS NULL")
			continue
		}
		tx = tx.Where(col+" = ?", key[col])
	}
	return tx, nil
}

func (s *FriendshipStore) Create(ctx context.Context, edge friendly.TypeHandle, fields friendly.Record) (friendly.Record, error) {
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
		if row[k] == nil {
			return nil, errors.Newf(errors.ErrCodeValidation, "key column %s is required", k)
		}
	}
	now := s.db.NowFunc()
	if def.HasField(friendly.CreatedAtColumn) {
		row[friendly.CreatedAtColumn] = now
	}
	if def.HasField(friendly.UpdatedAtColumn) {
		row[friendly.UpdatedAtColumn] = now
	}

	if err := s.db.WithContext(ctx).Table(def.Table).Create(map[string]interface{}(row.Clone())).Error; err != nil {
		if isDuplicate(err) {
			return nil, errors.Wrap(err, errors.ErrCodeConflict, "pair already present in "+def.Table)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to insert into "+def.Table)
	}
	return row, nil
}

// Update applies set to the rows matching key. Entries of key beyond the
// primary key act as guards; NOT_FOUND when no row matched.
func (s *FriendshipStore) Update(ctx context.Context, edge friendly.TypeHandle, key friendly.Record, set friendly.Record) error {
	def, err := s.definition(edge)
	if err != nil {
		return err
	}
	for col := range set {
		if !def.HasField(col) {
			return errors.Newf(errors.ErrCodeValidation, "%s has no column %s", def.Table, col)
		}
	}

	tx, err := whereKey(s.db.WithContext(ctx).Table(def.Table), def, key)
	if err != nil {
		return err
	}
	values := map[string]interface{}(set.Clone())
	if def.HasField(friendly.UpdatedAtColumn) {
		values[friendly.UpdatedAtColumn] = s.db.NowFunc()
	}

	result := tx.Updates(values)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update "+def.Table)
	}
	if result.RowsAffected == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "no %s row matched", def.Table)
	}
	return nil
}

func (s *FriendshipStore) Destroy(ctx context.Context, edge friendly.TypeHandle, key friendly.Record) error {
	def, err := s.definition(edge)
	if err != nil {
		return err
	}

	var conds []string
	var args []interface{}
	for _, k := range def.Keys {
		if key[k] == nil {
			return errors.Newf(errors.ErrCodeValidation, "key column %s is required", k)
		}
		conds = append(conds, k+" = ?")
		args = append(args, key[k])
	}

	result := s.db.WithContext(ctx).Exec("DELETE FROM "+def.Table+" WHERE "+strings.Join(conds, " AND "), args...)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete from "+def.Table)
	}
	if result.RowsAffected == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "no %s row matched", def.Table)
	}
	return nil
}

// Reload refreshes subject from its table when it is a gorm model pointer.
// Other values hold no state that could go stale.
func (s *FriendshipStore) Reload(ctx context.Context, subject friendly.Capable) error {
	if v := reflect.ValueOf(subject); v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil
	}

	result := s.db.WithContext(ctx).First(subject, subject.FriendlyID())
	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return errors.Newf(errors.ErrCodeNotFound, "%s %d no longer exists", subject.FriendlyType(), subject.FriendlyID())
	}
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to reload "+subject.FriendlyType())
	}
	return nil
}

func (s *FriendshipStore) Transaction(ctx context.Context, fn func(tx friendly.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FriendshipStore{db: tx, catalog: s.catalog})
	})
}

func isDuplicate(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
