package services

import (
	"context"

	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/logger"
)

// RequestOutcome describes what a friend request did.
type RequestOutcome int

const (
	// RequestSent created a pending edge the target has to accept.
	RequestSent RequestOutcome = iota
	// RequestAccepted created an edge that needs no acceptance.
	RequestAccepted
	// RequestExists found an edge between the pair already.
	RequestExists
)

type FriendService struct {
	reg    *friendly.Registry
	store  friendly.Store
	people *repositories.PersonRepository
}

func NewFriendService(reg *friendly.Registry, store friendly.Store, people *repositories.PersonRepository) *FriendService {
	return &FriendService{
		reg:    reg,
		store:  store,
		people: people,
	}
}

func (s *FriendService) as(person *models.Person) (*friendly.Friendly, error) {
	return friendly.For(s.reg, s.store, person)
}

// SendRequest asks target to become friends with person.
func (s *FriendService) SendRequest(ctx context.Context, person, target *models.Person) (RequestOutcome, error) {
	f, err := s.as(person)
	if err != nil {
		return RequestExists, err
	}
	edge, ok, err := f.RequestFriendship(ctx, target)
	if err != nil {
		return RequestExists, err
	}
	if !ok {
		return RequestExists, nil
	}
	if edge.Accepted() {
		return RequestAccepted, nil
	}
	return RequestSent, nil
}

// Accept confirms the request requester sent to person.
func (s *FriendService) Accept(ctx context.Context, person, requester *models.Person) error {
	f, err := s.as(person)
	if err != nil {
		return err
	}
	waiting, err := f.FriendshipToAccept(ctx, requester)
	if err != nil {
		return err
	}
	if !waiting {
		return errors.New(errors.ErrCodeNotFound, "no pending request from this person")
	}
	_, err = f.ConfirmFriendshipWith(ctx, requester)
	return err
}

// Remove ends the friendship or request between person and other, in
// either direction. It reports whether anything was removed.
func (s *FriendService) Remove(ctx context.Context, person, other *models.Person) (bool, error) {
	f, err := s.as(person)
	if err != nil {
		return false, err
	}
	ended, err := f.EndFriendshipWith(ctx, other)
	if err != nil {
		return false, err
	}
	if ended {
		logger.Debug("Friendship removed", "person", person.ID, "other", other.ID)
	}
	return ended, nil
}

// Reject declines a pending request from requester. Accepted friendships
// are left alone.
func (s *FriendService) Reject(ctx context.Context, person, requester *models.Person) error {
	f, err := s.as(person)
	if err != nil {
		return err
	}
	waiting, err := f.FriendshipToAccept(ctx, requester)
	if err != nil {
		return err
	}
	if !waiting {
		return errors.New(errors.ErrCodeNotFound, "no pending request from this person")
	}
	_, err = f.EndFriendshipWith(ctx, requester)
	return err
}

func (s *FriendService) Friends(ctx context.Context, person *models.Person) ([]models.Person, error) {
	f, err := s.as(person)
	if err != nil {
		return nil, err
	}
	return s.load(f.Friends(ctx))
}

// IncomingRequests lists people waiting for person to accept.
func (s *FriendService) IncomingRequests(ctx context.Context, person *models.Person) ([]models.Person, error) {
	f, err := s.as(person)
	if err != nil {
		return nil, err
	}
	return s.load(f.FriendshipsToAccept(ctx, nil, false))
}

// SentRequests lists people person is waiting on.
func (s *FriendService) SentRequests(ctx context.Context, person *models.Person) ([]models.Person, error) {
	f, err := s.as(person)
	if err != nil {
		return nil, err
	}
	return s.load(f.FriendshipRequests(ctx, nil, false))
}

func (s *FriendService) AreFriends(ctx context.Context, person, other *models.Person) (bool, error) {
	f, err := s.as(person)
	if err != nil {
		return false, err
	}
	edge, err := f.Friendship(ctx, other)
	if err != nil || edge == nil {
		return false, err
	}
	return edge.Accepted(), nil
}

func (s *FriendService) load(ids []uint, err error) ([]models.Person, error) {
	if err != nil {
		return nil, err
	}
	return s.people.FindPeopleByIDs(ids)
}
