package memstore

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
)

var linkType = friendly.EntityType{
	Namespace: "test",
	Name:      "Link",
	Table:     "test_links",
	Fields: []friendly.Field{
		{Name: "accepted_at", Kind: friendly.FieldTimestamp, Nullable: true},
		{Name: "created_at", Kind: friendly.FieldTimestamp},
		{Name: "updated_at", Kind: friendly.FieldTimestamp},
		{Name: "node_id", Kind: friendly.FieldForeignKey},
		{Name: "friend_id", Kind: friendly.FieldForeignKey},
	},
	Keys:            []string{"node_id", "friend_id"},
	UnorderedUnique: [][2]string{{"node_id", "friend_id"}},
}

func newLinkStore(t *testing.T) (*Store, friendly.TypeHandle) {
	t.Helper()
	s := New()
	s.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })
	h, err := s.DeclareEntityType(context.Background(), linkType)
	require.NoError(t, err)
	return s, h
}

func TestDeclareEntityType(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()

	again, err := s.DeclareEntityType(ctx, linkType)
	require.NoError(t, err)
	assert.Equal(t, h, again)

	changed := linkType
	changed.Keys = []string{"node_id"}
	_, err = s.DeclareEntityType(ctx, changed)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	sameTable := linkType
	sameTable.Name = "OtherLink"
	_, err = s.DeclareEntityType(ctx, sameTable)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))

	resolved, err := s.ResolveType("test.Link")
	require.NoError(t, err)
	assert.Equal(t, "test_links", resolved.Table)

	_, err = s.ResolveType("test.Missing")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestCreate(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()

	row, err := s.Create(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2), "accepted_at": nil})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), row["created_at"])
	assert.Nil(t, row["accepted_at"])

	tests := []struct {
		name   string
		fields friendly.Record
		code   string
	}{
		{"same key", friendly.Record{"node_id": 1, "friend_id": 2}, errors.ErrCodeConflict},
		{"mirrored pair", friendly.Record{"node_id": int64(2), "friend_id": "1"}, errors.ErrCodeConflict},
		{"unknown column", friendly.Record{"node_id": 3, "friend_id": 4, "note": "x"}, errors.ErrCodeValidation},
		{"missing key", friendly.Record{"node_id": 3}, errors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, h, tt.fields)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}

	assert.Len(t, s.Rows(h), 1)
}

func TestQuery(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()
	for _, pair := range [][2]uint{{1, 2}, {3, 1}, {2, 3}} {
		_, err := s.Create(ctx, h, friendly.Record{"node_id": pair[0], "friend_id": pair[1], "accepted_at": nil})
		require.NoError(t, err)
	}

	rows, err := s.Query(ctx, h, friendly.Where(friendly.EitherWay("node_id", "friend_id", uint(1), uint(3))))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["node_id"])

	rows, err = s.Query(ctx, h, friendly.Where(friendly.IsNull("accepted_at")).First())
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.Query(ctx, h, friendly.Where(friendly.NotNull("accepted_at")))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.Query(ctx, h, friendly.Where(friendly.Eq("missing", 1)))
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))

	_, err = s.Query(ctx, h, friendly.Where(friendly.Raw("node_id > ?", 1)))
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))

	_, err = s.Query(ctx, friendly.TypeHandle{Namespace: "test", Name: "Missing"}, friendly.Query{})
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestUpdate_GuardsAndStamps(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2), "accepted_at": nil})
	require.NoError(t, err)

	later := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return later })

	key := friendly.Record{"node_id": uint(1), "friend_id": uint(2), "accepted_at": nil}
	require.NoError(t, s.Update(ctx, h, key, friendly.Record{"accepted_at": later}))

	rows := s.Rows(h)
	assert.Equal(t, later, rows[0]["accepted_at"])
	assert.Equal(t, later, rows[0]["updated_at"])

	err = s.Update(ctx, h, key, friendly.Record{"accepted_at": later})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "accepted_at IS NULL guard no longer matches")

	err = s.Update(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2)}, friendly.Record{"bogus": 1})
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestDestroy(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2)})
	require.NoError(t, err)

	err = s.Destroy(ctx, h, friendly.Record{"node_id": uint(2), "friend_id": uint(1)})
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err), "keys are ordered")

	require.NoError(t, s.Destroy(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2)}))
	assert.Empty(t, s.Rows(h))
}

func TestTransaction_RollsBack(t *testing.T) {
	s, h := newLinkStore(t)
	ctx := context.Background()
	boom := stderrors.New("boom")

	err := s.Transaction(ctx, func(tx friendly.Store) error {
		if _, err := tx.Create(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2)}); err != nil {
			return err
		}
		return tx.Transaction(ctx, func(inner friendly.Store) error {
			if _, err := inner.Create(ctx, h, friendly.Record{"node_id": uint(3), "friend_id": uint(4)}); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Rows(h))

	err = s.Transaction(ctx, func(tx friendly.Store) error {
		_, err := tx.Create(ctx, h, friendly.Record{"node_id": uint(1), "friend_id": uint(2)})
		return err
	})
	require.NoError(t, err)
	assert.Len(t, s.Rows(h), 1)
}

func TestDeclareHasMany(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := friendly.TypeHandle{Namespace: "test", Name: "Node", Table: "nodes"}
	c := friendly.Collection{Name: "links", Target: owner, ForeignKey: "node_id"}

	require.NoError(t, s.DeclareHasMany(ctx, owner, c))
	require.NoError(t, s.DeclareHasMany(ctx, owner, c))
	assert.Len(t, s.Collections(owner), 1)

	c.ForeignKey = "other_id"
	err := s.DeclareHasMany(ctx, owner, c)
	assert.Equal(t, errors.ErrCodeConfiguration, errors.CodeOf(err))
}

func TestReload_Counts(t *testing.T) {
	s := New()
	n := node(7)
	require.NoError(t, s.Reload(context.Background(), n))
	require.NoError(t, s.Reload(context.Background(), n))
	assert.Equal(t, 2, s.Reloads(n))
	assert.Equal(t, 0, s.Reloads(node(8)))
}

type node uint

func (n node) FriendlyType() string { return "test.Node" }
func (n node) FriendlyID() uint     { return uint(n) }
