package friendly_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/friendly/memstore"
)

var personType = friendly.TypeHandle{Namespace: "social", Name: "Person", Table: "people"}

type person struct {
	id  uint
	typ string
}

func (p person) FriendlyType() string {
	if p.typ != "" {
		return p.typ
	}
	return personType.QualifiedName()
}

func (p person) FriendlyID() uint { return p.id }

var (
	alice = person{id: 1}
	bob   = person{id: 2}
	carol = person{id: 3}
)

type fixture struct {
	ctx   context.Context
	reg   *friendly.Registry
	store *memstore.Store
	cfg   *friendly.Config
	now   time.Time
}

func newFixture(t *testing.T, opts ...friendly.Option) *fixture {
	t.Helper()

	fx := &fixture{
		ctx:   context.Background(),
		reg:   friendly.NewRegistry(),
		store: memstore.New(),
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.store.SetClock(func() time.Time { return fx.now })

	cfg, err := friendly.Declare(fx.ctx, fx.reg, fx.store, personType, opts...)
	require.NoError(t, err)
	fx.cfg = cfg
	return fx
}

func (fx *fixture) as(t *testing.T, p person) *friendly.Friendly {
	t.Helper()
	f, err := friendly.For(fx.reg, fx.store, p)
	require.NoError(t, err)
	return f.WithClock(func() time.Time { return fx.now })
}

func (fx *fixture) edges(t *testing.T) []friendly.Record {
	t.Helper()
	edge, err := fx.cfg.ResolveEdgeType()
	require.NoError(t, err)
	return fx.store.Rows(edge)
}
