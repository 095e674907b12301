package friendly

import "time"

// Friendship is a typed view of one edge row.
type Friendship struct {
	RequesterID uint
	FriendID    uint
	// AcceptedAt is nil while pending. Edge types declared without acceptance
	// have no such column and report every edge as accepted.
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	implicitlyAccepted bool
}

func (f *Friendship) Accepted() bool {
	return f.implicitlyAccepted || f.AcceptedAt != nil
}

func (f *Friendship) Pending() bool {
	return !f.Accepted()
}

// Other returns the party of the edge that is not id.
func (f *Friendship) Other(id uint) uint {
	if f.RequesterID == id {
		return f.FriendID
	}
	return f.RequesterID
}

func (f *Friendship) Involves(id uint) bool {
	return f.RequesterID == id || f.FriendID == id
}

func edgeFromRecord(cfg *Config, rec Record) (*Friendship, error) {
	requester, err := rec.Uint(cfg.SubjectForeignKey())
	if err != nil {
		return nil, err
	}
	friend, err := rec.Uint(FriendKey)
	if err != nil {
		return nil, err
	}

	f := &Friendship{
		RequesterID:        requester,
		FriendID:           friend,
		implicitlyAccepted: !cfg.RequireAcceptance(),
	}

	if cfg.RequireAcceptance() {
		at, ok, err := rec.Time(AcceptedAtColumn)
		if err != nil {
			return nil, err
		}
		if ok {
			f.AcceptedAt = &at
		}
	}
	if at, ok, err := rec.Time(CreatedAtColumn); err == nil && ok {
		f.CreatedAt = at
	}
	if at, ok, err := rec.Time(UpdatedAtColumn); err == nil && ok {
		f.UpdatedAt = at
	}
	return f, nil
}

// key returns the composite key of f as a Record.
func (f *Friendship) key(cfg *Config) Record {
	return Record{
		cfg.SubjectForeignKey(): f.RequesterID,
		FriendKey:               f.FriendID,
	}
}
