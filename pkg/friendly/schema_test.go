package friendly_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/friendly/memstore"
)

func ctx() context.Context { return context.Background() }

// fakeSchema records declarations and can be told to reject them.
type fakeSchema struct {
	declareErr  error
	declared    *[]friendly.EntityType
	collections *[]friendly.Collection
}

func (s fakeSchema) DeclareEntityType(_ context.Context, def friendly.EntityType) (friendly.TypeHandle, error) {
	if s.declareErr != nil {
		return friendly.TypeHandle{}, s.declareErr
	}
	if s.declared != nil {
		*s.declared = append(*s.declared, def)
	}
	return def.Handle(), nil
}

func (s fakeSchema) DeclareHasMany(_ context.Context, _ friendly.TypeHandle, c friendly.Collection) error {
	if s.collections != nil {
		*s.collections = append(*s.collections, c)
	}
	return nil
}

func (s fakeSchema) ResolveType(name string) (friendly.TypeHandle, error) {
	return friendly.TypeHandle{}, stderrors.New("unknown type " + name)
}

func TestDeclare_EdgeShape(t *testing.T) {
	var declared []friendly.EntityType
	var collections []friendly.Collection
	reg := friendly.NewRegistry()

	_, err := friendly.Declare(ctx(), reg, fakeSchema{declared: &declared, collections: &collections}, personType)
	require.NoError(t, err)
	require.Len(t, declared, 1)

	def := declared[0]
	assert.Equal(t, "social", def.Namespace)
	assert.Equal(t, "Friendship", def.Name)
	assert.Equal(t, "social_friendships", def.Table)
	assert.Equal(t, []string{"person_id", "friend_id"}, def.Keys)
	assert.Equal(t, [][2]string{{"person_id", "friend_id"}}, def.UnorderedUnique)

	var names []string
	for _, f := range def.Fields {
		names = append(names, f.Name)
		if f.Kind == friendly.FieldForeignKey {
			assert.Equal(t, personType, f.References, f.Name)
		}
		if f.Name == friendly.AcceptedAtColumn {
			assert.True(t, f.Nullable)
		}
	}
	assert.ElementsMatch(t, []string{"accepted_at", "created_at", "updated_at", "person_id", "friend_id"}, names)

	require.Len(t, collections, 3)
	assert.Equal(t, friendly.CollectionFriendships, collections[0].Name)
	assert.Equal(t, "person_id", collections[0].ForeignKey)
	assert.Equal(t, friendly.CollectionFriendsByMe, collections[1].Name)
	assert.Equal(t, friendly.CollectionFriendships, collections[1].Through)
	assert.Equal(t, "friend_id", collections[1].Via)
	assert.Equal(t, friendly.CollectionFriendedBy, collections[2].Name)
	assert.Equal(t, friendly.CollectionFriendships, collections[2].Through)
	assert.True(t, collections[2].Inverse)
	assert.Equal(t, personType, collections[2].Target)
}

func TestDeclare_WithoutAcceptanceOmitsAcceptedAt(t *testing.T) {
	var declared []friendly.EntityType
	reg := friendly.NewRegistry()

	cfg, err := friendly.Declare(ctx(), reg, fakeSchema{declared: &declared}, personType, friendly.WithoutAcceptance())
	require.NoError(t, err)
	assert.False(t, cfg.RequireAcceptance())
	require.Len(t, declared, 1)
	assert.False(t, declared[0].HasField(friendly.AcceptedAtColumn))
	assert.True(t, declared[0].HasField(friendly.CreatedAtColumn))
}

func TestDeclare_CustomEdgeType(t *testing.T) {
	store := memstore.New()
	reg := friendly.NewRegistry()

	cfg, err := friendly.Declare(ctx(), reg, store, personType, friendly.WithEdgeType("Buddy"))
	require.NoError(t, err)
	assert.Equal(t, "social.Buddy", cfg.EdgeTypeName())

	h, err := cfg.ResolveEdgeType()
	require.NoError(t, err)
	assert.Equal(t, "social_buddies", h.Table)
}

func TestDeclare_RootNamespace(t *testing.T) {
	store := memstore.New()
	reg := friendly.NewRegistry()

	cfg, err := friendly.Declare(ctx(), reg, store, friendly.TypeHandle{Name: "Member"})
	require.NoError(t, err)
	assert.Equal(t, "Friendship", cfg.EdgeTypeName())
	assert.Equal(t, "member_id", cfg.SubjectForeignKey())
	assert.Equal(t, "members", cfg.Subject().Table)

	h, err := cfg.ResolveEdgeType()
	require.NoError(t, err)
	assert.Equal(t, "friendships", h.Table)
}

func TestDeclare_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		subject friendly.TypeHandle
		opts    []friendly.Option
	}{
		{"empty edge name", personType, []friendly.Option{friendly.WithEdgeType("")}},
		{"qualified edge name", personType, []friendly.Option{friendly.WithEdgeType("other.Friendship")}},
		{"edge name starting with digit", personType, []friendly.Option{friendly.WithEdgeType("1Friendship")}},
		{"empty subject name", friendly.TypeHandle{Namespace: "social"}, nil},
		{"empty namespace segment", friendly.TypeHandle{Namespace: "app..social", Name: "Person"}, nil},
		{"leading dot namespace", friendly.TypeHandle{Namespace: ".social", Name: "Person"}, nil},
		{"trailing dot namespace", friendly.TypeHandle{Namespace: "social.", Name: "Person"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := friendly.Declare(ctx(), friendly.NewRegistry(), memstore.New(), tt.subject, tt.opts...)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
		})
	}
}

func TestDeclare_SchemaRejection(t *testing.T) {
	reg := friendly.NewRegistry()

	_, err := friendly.Declare(ctx(), reg, fakeSchema{declareErr: stderrors.New("boom")}, personType)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	_, ok := reg.Lookup(personType.QualifiedName())
	assert.False(t, ok, "a failed declaration leaves no config behind")
}

func TestDeclare_Redeclaration(t *testing.T) {
	store := memstore.New()
	reg := friendly.NewRegistry()

	first, err := friendly.Declare(ctx(), reg, store, personType)
	require.NoError(t, err)

	again, err := friendly.Declare(ctx(), reg, store, personType, friendly.WithAcceptance(true), friendly.WithEdgeType("Friendship"))
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = friendly.Declare(ctx(), reg, store, personType, friendly.WithoutAcceptance())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	_, err = friendly.Declare(ctx(), reg, store, personType, friendly.WithEdgeType("Buddy"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	assert.Len(t, store.Collections(personType), 3)
}

func TestDeclare_EdgeNameTakenBySiblingSubject(t *testing.T) {
	store := memstore.New()
	reg := friendly.NewRegistry()

	_, err := friendly.Declare(ctx(), reg, store, personType)
	require.NoError(t, err)

	pet := friendly.TypeHandle{Namespace: "social", Name: "Pet", Table: "pets"}
	_, err = friendly.Declare(ctx(), reg, store, pet)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	_, err = friendly.Declare(ctx(), reg, store, pet, friendly.WithEdgeType("PetFriendship"))
	require.NoError(t, err)
}
