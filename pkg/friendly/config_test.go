package friendly_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
)

func TestForeignKeyFor(t *testing.T) {
	tests := []struct {
		typeName string
		want     string
	}{
		{"Person", "person_id"},
		{"BlogAuthor", "blog_author_id"},
		{"User", "user_id"},
		{"Friendship", "friendship_id"},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			assert.Equal(t, tt.want, friendly.ForeignKeyFor(tt.typeName))
		})
	}
}

func TestTableFor(t *testing.T) {
	assert.Equal(t, "friendships", friendly.TableFor("", "Friendship"))
	assert.Equal(t, "social_friendships", friendly.TableFor("social", "Friendship"))
	assert.Equal(t, "app_social_buddy_links", friendly.TableFor("app.social", "BuddyLink"))
}

func TestTypeHandle_QualifiedName(t *testing.T) {
	assert.Equal(t, "social.Person", personType.QualifiedName())
	assert.Equal(t, "Person", friendly.TypeHandle{Name: "Person"}.QualifiedName())

	ns, name := friendly.SplitQualifiedName("app.social.Friendship")
	assert.Equal(t, "app.social", ns)
	assert.Equal(t, "Friendship", name)

	ns, name = friendly.SplitQualifiedName("Friendship")
	assert.Empty(t, ns)
	assert.Equal(t, "Friendship", name)
}

func TestConfig_Accessors(t *testing.T) {
	fx := newFixture(t)

	assert.Equal(t, "Person", fx.cfg.SubjectTypeName())
	assert.Equal(t, personType, fx.cfg.Subject())
	assert.Equal(t, "social.Friendship", fx.cfg.EdgeTypeName())
	assert.True(t, fx.cfg.RequireAcceptance())
	assert.Equal(t, "person_id", fx.cfg.SubjectForeignKey())
	assert.Equal(t, "friend_id", fx.cfg.FriendForeignKey())
}

// flakyResolver fails until ready is set, the way a type declared after
// its config would.
type flakyResolver struct {
	ready bool
	calls int
}

func (r *flakyResolver) ResolveType(name string) (friendly.TypeHandle, error) {
	r.calls++
	if !r.ready {
		return friendly.TypeHandle{}, stderrors.New("not declared yet")
	}
	ns, n := friendly.SplitQualifiedName(name)
	return friendly.TypeHandle{Namespace: ns, Name: n, Table: friendly.TableFor(ns, n)}, nil
}

type resolverSchema struct {
	*flakyResolver
	fakeSchema
}

func (s resolverSchema) ResolveType(name string) (friendly.TypeHandle, error) {
	return s.flakyResolver.ResolveType(name)
}

func TestConfig_ResolveEdgeTypeIsLazy(t *testing.T) {
	resolver := &flakyResolver{}
	reg := friendly.NewRegistry()

	cfg, err := friendly.Declare(ctx(), reg, resolverSchema{flakyResolver: resolver}, personType)
	require.NoError(t, err)
	assert.Equal(t, 0, resolver.calls, "Declare must not resolve the edge type")

	_, err = cfg.ResolveEdgeType()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	resolver.ready = true
	h, err := cfg.ResolveEdgeType()
	require.NoError(t, err)
	assert.Equal(t, "social_friendships", h.Table)

	_, err = cfg.ResolveEdgeType()
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.calls, "a resolved handle is cached")
}

func TestRegistry_Lookup(t *testing.T) {
	fx := newFixture(t)

	cfg, ok := fx.reg.Lookup("social.Person")
	require.True(t, ok)
	assert.Same(t, fx.cfg, cfg)

	_, ok = fx.reg.Lookup("social.Pet")
	assert.False(t, ok)

	assert.Equal(t, []string{"social.Person"}, fx.reg.SubjectTypes())
}
