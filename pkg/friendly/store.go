package friendly

import (
	"context"
	"strings"
)

// Capable is implemented by any entity type that can hold friendships.
// FriendlyType returns the qualified type name the capability was declared
// under, FriendlyID the store-assigned primary key.
type Capable interface {
	FriendlyType() string
	FriendlyID() uint
}

// TypeHandle identifies an entity type known to a Schema.
type TypeHandle struct {
	Namespace string
	Name      string
	Table     string
}

// QualifiedName joins namespace and name with a dot. Root types have no prefix.
func (h TypeHandle) QualifiedName() string {
	if h.Namespace == "" {
		return h.Name
	}
	return h.Namespace + "." + h.Name
}

func (h TypeHandle) IsZero() bool {
	return h.Name == ""
}

// SplitQualifiedName splits "a.b.Name" into ("a.b", "Name").
func SplitQualifiedName(qualified string) (namespace, name string) {
	i := strings.LastIndex(qualified, ".")
	if i < 0 {
		return "", qualified
	}
	return qualified[:i], qualified[i+1:]
}

type FieldKind int

const (
	FieldForeignKey FieldKind = iota
	FieldTimestamp
)

type Field struct {
	Name       string
	Kind       FieldKind
	Nullable   bool
	References TypeHandle // set for FieldForeignKey
}

// EntityType describes the shape of a join entity to declare.
type EntityType struct {
	Namespace string
	Name      string
	Table     string
	Fields    []Field
	// Keys form the composite primary key.
	Keys []string
	// UnorderedUnique lists column pairs whose unordered combination must be unique.
	UnorderedUnique [][2]string
}

func (e EntityType) Handle() TypeHandle {
	return TypeHandle{Namespace: e.Namespace, Name: e.Name, Table: e.Table}
}

func (e EntityType) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Collection is a derived has-many view registered on an owner type.
// Collections are computed from the edge table; nothing is stored for them.
type Collection struct {
	Name string
	// Target is the type the collection yields.
	Target TypeHandle
	// ForeignKey is the edge column pointing back at the owner (direct collections).
	ForeignKey string
	// Through names the collection traversed to reach Target, Via the edge column read.
	Through string
	Via     string
	// Inverse marks a through-collection that matches the owner on the far side.
	Inverse bool
}

// TypeResolver resolves a qualified name into a declared type.
type TypeResolver interface {
	ResolveType(qualifiedName string) (TypeHandle, error)
}

// Schema is the declaration side of the persistence collaborator.
type Schema interface {
	TypeResolver
	DeclareEntityType(ctx context.Context, def EntityType) (TypeHandle, error)
	DeclareHasMany(ctx context.Context, owner TypeHandle, c Collection) error
}

// Store is the runtime side of the persistence collaborator.
//
// Update and Destroy locate rows by the key columns found in key. Update
// also honours any extra columns of key as equality guards (nil meaning
// IS NULL) and reports NOT_FOUND when nothing matched. Adapters stamp
// created_at/updated_at themselves and report a duplicate pair as CONFLICT.
type Store interface {
	Query(ctx context.Context, edge TypeHandle, q Query) ([]Record, error)
	Create(ctx context.Context, edge TypeHandle, fields Record) (Record, error)
	Update(ctx context.Context, edge TypeHandle, key Record, set Record) error
	Destroy(ctx context.Context, edge TypeHandle, key Record) error
	Reload(ctx context.Context, subject Capable) error
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
