// Package friendly adds a mutual-consent friendship relation to any entity
// type that implements Capable.
//
// A subject type is made friendly once at setup:
//
//	reg := friendly.NewRegistry()
//	cfg, err := friendly.Declare(ctx, reg, schema, models.PersonType)
//
// Declare creates the edge type (person_id, friend_id, accepted_at,
// created_at, updated_at) through the Schema and registers the
// friendships, friends-by-me and friended-by collections on the subject.
//
// At runtime every operation goes through a Friendly bound to one subject:
//
//	alice, _ := friendly.For(reg, store, aliceModel)
//	alice.RequestFriendship(ctx, bobModel)
//	bob.ConfirmFriendshipWith(ctx, aliceModel)
//	ids, _ := alice.Friends(ctx)
//
// An unordered pair {A, B} has at most one edge. Every lookup that mutates or
// answers a yes/no question matches the pair in both directions, and the
// Store is expected to reject a mirrored edge with a CONFLICT error.
package friendly
