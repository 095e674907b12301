package friendly

import (
	"context"
	"time"

	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/logger"
)

// Friendly binds one subject instance to its Config and a Store.
type Friendly struct {
	cfg   *Config
	store Store
	self  Capable
	now   func() time.Time
}

// For looks up the Config of self's type in reg.
func For(reg *Registry, store Store, self Capable) (*Friendly, error) {
	if self == nil {
		return nil, errors.New(errors.ErrCodeValidation, "subject is required")
	}
	cfg, ok := reg.Lookup(self.FriendlyType())
	if !ok {
		return nil, errors.Newf(errors.ErrCodeConfiguration, "%s is not friendly", self.FriendlyType())
	}
	return New(cfg, store, self), nil
}

func New(cfg *Config, store Store, self Capable) *Friendly {
	return &Friendly{
		cfg:   cfg,
		store: store,
		self:  self,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of f stamping acceptance times with now.
func (f *Friendly) WithClock(now func() time.Time) *Friendly {
	cp := *f
	cp.now = now
	return &cp
}

func (f *Friendly) Config() *Config { return f.cfg }

// Friends returns the ids of every accepted friend, whichever side asked.
func (f *Friendly) Friends(ctx context.Context) ([]uint, error) {
	requested, err := f.FriendshipRequests(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	toAccept, err := f.FriendshipsToAccept(ctx, nil, true)
	if err != nil {
		return nil, err
	}
	return unionIDs(requested, toAccept), nil
}

// FriendshipRequests returns the ids self has sent requests to. Pending
// requests only unless includeAccepted; a non-nil friend narrows the
// result to that friend.
func (f *Friendly) FriendshipRequests(ctx context.Context, friend Capable, includeAccepted bool) ([]uint, error) {
	q := Where(Eq(f.cfg.SubjectForeignKey(), f.self.FriendlyID()))
	return f.directed(ctx, q, friend, FriendKey, includeAccepted)
}

// FriendshipsToAccept returns the ids that have sent requests to self.
func (f *Friendly) FriendshipsToAccept(ctx context.Context, friend Capable, includeAccepted bool) ([]uint, error) {
	q := Where(Eq(FriendKey, f.self.FriendlyID()))
	return f.directed(ctx, q, friend, f.cfg.SubjectForeignKey(), includeAccepted)
}

// FriendshipRequested reports whether self has a pending request out to friend.
func (f *Friendly) FriendshipRequested(ctx context.Context, friend Capable) (bool, error) {
	if err := f.checkFriend(friend); err != nil {
		return false, err
	}
	ids, err := f.FriendshipRequests(ctx, friend, false)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// FriendshipToAccept reports whether friend is waiting for self to accept.
func (f *Friendly) FriendshipToAccept(ctx context.Context, friend Capable) (bool, error) {
	if !f.cfg.RequireAcceptance() {
		return false, nil
	}
	if err := f.checkFriend(friend); err != nil {
		return false, err
	}
	ids, err := f.FriendshipsToAccept(ctx, friend, false)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// IsFriendsWith reports whether an edge exists between self and friend in
// either direction, pending or accepted.
func (f *Friendly) IsFriendsWith(ctx context.Context, friend Capable) (bool, error) {
	edge, err := f.Friendship(ctx, friend)
	if err != nil {
		return false, err
	}
	return edge != nil, nil
}

// Friendship returns the edge between self and friend, or nil.
func (f *Friendly) Friendship(ctx context.Context, friend Capable) (*Friendship, error) {
	if err := f.checkFriend(friend); err != nil {
		return nil, err
	}
	return f.friendship(ctx, f.store, friend, Query{})
}

// RequestFriendship creates an edge from self to friend. ok is false when the
// pair already has an edge, including one created concurrently by friend.
func (f *Friendly) RequestFriendship(ctx context.Context, friend Capable) (edge *Friendship, ok bool, err error) {
	if err := f.checkFriend(friend); err != nil {
		return nil, false, err
	}
	if friend.FriendlyID() == f.self.FriendlyID() {
		return nil, false, errors.New(errors.ErrCodeValidation, "cannot request friendship with oneself")
	}
	edgeType, err := f.cfg.ResolveEdgeType()
	if err != nil {
		return nil, false, err
	}

	err = f.store.Transaction(ctx, func(tx Store) error {
		existing, err := f.friendship(ctx, tx, friend, Query{})
		if err != nil || existing != nil {
			return err
		}

		fields := Record{
			f.cfg.SubjectForeignKey(): f.self.FriendlyID(),
			FriendKey:                 friend.FriendlyID(),
		}
		if f.cfg.RequireAcceptance() {
			fields[AcceptedAtColumn] = nil
		}
		rec, err := tx.Create(ctx, edgeType, fields)
		if err != nil {
			return err
		}
		edge, err = edgeFromRecord(f.cfg, rec)
		return err
	})

	if errors.Is(err, errors.ErrCodeConflict) {
		logger.Info("Friendship request lost race to existing edge",
			"requester", f.self.FriendlyID(), "friend", friend.FriendlyID())
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if edge == nil {
		return nil, false, nil
	}

	logger.Info("Friendship requested",
		"subject", f.self.FriendlyType(),
		"requester", edge.RequesterID,
		"friend", edge.FriendID,
		"accepted", edge.Accepted(),
	)
	return edge, true, nil
}

// ConfirmFriendshipWith accepts the pending edge between self and friend.
// An already accepted edge is returned unchanged; no edge at all is NOT_FOUND.
// Both parties are reloaded from the store afterwards.
func (f *Friendly) ConfirmFriendshipWith(ctx context.Context, friend Capable) (*Friendship, error) {
	if err := f.checkFriend(friend); err != nil {
		return nil, err
	}
	edgeType, err := f.cfg.ResolveEdgeType()
	if err != nil {
		return nil, err
	}

	var confirmed *Friendship
	err = f.store.Transaction(ctx, func(tx Store) error {
		pending := Query{}
		if f.cfg.RequireAcceptance() {
			pending = Where(IsNull(AcceptedAtColumn))
		}
		edge, err := f.friendship(ctx, tx, friend, pending.Locked())
		if err != nil {
			return err
		}
		if edge == nil {
			if edge, err = f.friendship(ctx, tx, friend, Query{}); err != nil {
				return err
			}
		}
		if edge == nil {
			return errors.New(errors.ErrCodeNotFound, "no pending friendship to confirm")
		}
		if edge.Accepted() {
			confirmed = edge
			return nil
		}

		now := f.now()
		guard := edge.key(f.cfg)
		guard[AcceptedAtColumn] = nil
		if err := tx.Update(ctx, edgeType, guard, Record{AcceptedAtColumn: now}); err != nil {
			return err
		}
		edge.AcceptedAt = &now
		confirmed = edge
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Both in-memory views may still hold the pending state.
	if err := f.store.Reload(ctx, friend); err != nil {
		return confirmed, err
	}
	if err := f.store.Reload(ctx, f.self); err != nil {
		return confirmed, err
	}

	logger.Info("Friendship confirmed",
		"subject", f.self.FriendlyType(),
		"requester", confirmed.RequesterID,
		"friend", confirmed.FriendID,
	)
	return confirmed, nil
}

// EndFriendshipWith destroys the edge between self and friend, pending or
// accepted. It reports false when there was nothing to end.
func (f *Friendly) EndFriendshipWith(ctx context.Context, friend Capable) (bool, error) {
	if err := f.checkFriend(friend); err != nil {
		return false, err
	}
	edgeType, err := f.cfg.ResolveEdgeType()
	if err != nil {
		return false, err
	}

	var ended *Friendship
	err = f.store.Transaction(ctx, func(tx Store) error {
		edge, err := f.friendship(ctx, tx, friend, Query{}.Locked())
		if err != nil || edge == nil {
			return err
		}
		if err := tx.Destroy(ctx, edgeType, edge.key(f.cfg)); err != nil {
			return err
		}
		ended = edge
		return nil
	})
	if err != nil || ended == nil {
		return false, err
	}

	logger.Info("Friendship ended",
		"subject", f.self.FriendlyType(),
		"requester", ended.RequesterID,
		"friend", ended.FriendID,
		"was_accepted", ended.Accepted(),
	)
	return true, nil
}

// Friendships returns every edge self requested, in any state.
func (f *Friendly) Friendships(ctx context.Context) ([]*Friendship, error) {
	return f.edges(ctx, f.store, Where(Eq(f.cfg.SubjectForeignKey(), f.self.FriendlyID())))
}

// FriendsByMe returns the ids on the friend side of Friendships.
func (f *Friendly) FriendsByMe(ctx context.Context) ([]uint, error) {
	return f.side(ctx, Where(Eq(f.cfg.SubjectForeignKey(), f.self.FriendlyID())), FriendKey)
}

// FriendedBy returns the ids of everyone who requested self, in any state.
func (f *Friendly) FriendedBy(ctx context.Context) ([]uint, error) {
	return f.side(ctx, Where(Eq(FriendKey, f.self.FriendlyID())), f.cfg.SubjectForeignKey())
}

// friendship is the single symmetric lookup: the edge with self and friend
// on either side, narrowed by extra. With two mirrored edges the store's
// first match wins.
func (f *Friendly) friendship(ctx context.Context, st Store, friend Capable, extra Query) (*Friendship, error) {
	q := Where(EitherWay(f.cfg.SubjectForeignKey(), FriendKey, f.self.FriendlyID(), friend.FriendlyID())).
		And(extra.Conditions...).
		First()
	q.ForUpdate = extra.ForUpdate

	edges, err := f.edges(ctx, st, q)
	if err != nil || len(edges) == 0 {
		return nil, err
	}
	return edges[0], nil
}

func (f *Friendly) directed(ctx context.Context, q Query, friend Capable, column string, includeAccepted bool) ([]uint, error) {
	if f.cfg.RequireAcceptance() {
		if includeAccepted {
			q = q.And(NotNull(AcceptedAtColumn))
		} else {
			q = q.And(IsNull(AcceptedAtColumn))
		}
	}
	if friend != nil {
		if err := f.checkFriend(friend); err != nil {
			return nil, err
		}
		// friend sits on the side being returned
		q = q.And(Eq(column, friend.FriendlyID())).First()
	}
	return f.side(ctx, q, column)
}

func (f *Friendly) side(ctx context.Context, q Query, column string) ([]uint, error) {
	edgeType, err := f.cfg.ResolveEdgeType()
	if err != nil {
		return nil, err
	}
	recs, err := f.store.Query(ctx, edgeType, q)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(recs))
	for _, rec := range recs {
		id, err := rec.Uint(column)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed edge row")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *Friendly) edges(ctx context.Context, st Store, q Query) ([]*Friendship, error) {
	edgeType, err := f.cfg.ResolveEdgeType()
	if err != nil {
		return nil, err
	}
	recs, err := st.Query(ctx, edgeType, q)
	if err != nil {
		return nil, err
	}
	out := make([]*Friendship, 0, len(recs))
	for _, rec := range recs {
		edge, err := edgeFromRecord(f.cfg, rec)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "malformed edge row")
		}
		out = append(out, edge)
	}
	return out, nil
}

func (f *Friendly) checkFriend(friend Capable) error {
	if friend == nil {
		return errors.New(errors.ErrCodeValidation, "friend is required")
	}
	if friend.FriendlyType() != f.self.FriendlyType() {
		return errors.Newf(errors.ErrCodeValidation, "cannot befriend %s from %s", friend.FriendlyType(), f.self.FriendlyType())
	}
	return nil
}

func unionIDs(a, b []uint) []uint {
	seen := make(map[uint]struct{}, len(a)+len(b))
	out := make([]uint, 0, len(a)+len(b))
	for _, list := range [][]uint{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
