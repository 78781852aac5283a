package sqlstore

import (
	"context"
	"testing"
)

func TestFollowLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	added, err := s.Follow(ctx, alice.ID, bob.ID)
	if err != nil || !added {
		t.Fatalf("Follow() = %v, %v, want true, nil", added, err)
	}

	again, err := s.Follow(ctx, alice.ID, bob.ID)
	if err != nil || again {
		t.Errorf("second Follow() = %v, %v, want false, nil", again, err)
	}

	following, err := s.IsFollowing(ctx, alice.ID, bob.ID)
	if err != nil || !following {
		t.Errorf("IsFollowing(alice, bob) = %v, %v, want true", following, err)
	}
	reverse, err := s.IsFollowing(ctx, bob.ID, alice.ID)
	if err != nil || reverse {
		t.Errorf("IsFollowing(bob, alice) = %v, %v, want false (edges are directed)", reverse, err)
	}

	removed, err := s.Unfollow(ctx, alice.ID, bob.ID)
	if err != nil || !removed {
		t.Errorf("Unfollow() = %v, %v, want true, nil", removed, err)
	}
	removedAgain, err := s.Unfollow(ctx, alice.ID, bob.ID)
	if err != nil || removedAgain {
		t.Errorf("second Unfollow() = %v, %v, want false, nil", removedAgain, err)
	}
}

func TestFollow_SelfRejectedByStore(t *testing.T) {
	s := newTestStore(t)
	alice := createTestUser(t, s, "alice")

	if _, err := s.Follow(context.Background(), alice.ID, alice.ID); err == nil {
		t.Error("Follow(self) should violate the CHECK constraint")
	}
}

func TestFollowedAmong(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	if _, err := s.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	got, err := s.FollowedAmong(ctx, alice.ID, []string{bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("FollowedAmong() error = %v", err)
	}
	if !got[bob.ID] || got[carol.ID] {
		t.Errorf("FollowedAmong() = %v, want only bob", got)
	}

	anon, err := s.FollowedAmong(ctx, "", []string{bob.ID})
	if err != nil || len(anon) != 0 {
		t.Errorf("FollowedAmong(anonymous) = %v, %v, want empty", anon, err)
	}
}
