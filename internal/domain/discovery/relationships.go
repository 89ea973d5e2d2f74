package discovery

import (
	"context"
	"fmt"

	"dating-api/internal/domain/entity"
)

// Direction selects which end of the like edges to collect
type Direction int

const (
	// Likers are users who liked the subject
	Likers Direction = iota
	// Likees are users the subject liked
	Likees
)

func (d Direction) String() string {
	switch d {
	case Likers:
		return "likers"
	case Likees:
		return "likees"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// LikeLister loads every like edge touching a user in one fetch
type LikeLister interface {
	ListLikes(ctx context.Context, id entity.UserID) ([]entity.Like, error)
}

// IDSet is a set of user ids
type IDSet map[entity.UserID]struct{}

// Contains reports whether id is in the set
func (s IDSet) Contains(id entity.UserID) bool {
	_, ok := s[id]
	return ok
}

// Intersect returns the ids present in both sets
func (s IDSet) Intersect(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if other.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// ResolveRelationships returns the likers or likees of userID. A user without
// edges in that direction, or one that does not exist, yields an empty set.
func ResolveRelationships(ctx context.Context, likes LikeLister, userID entity.UserID, dir Direction) (IDSet, error) {
	edges, err := likes.ListLikes(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := make(IDSet)
	for _, edge := range edges {
		switch dir {
		case Likers:
			if edge.LikeeID == userID {
				set[edge.LikerID] = struct{}{}
			}
		case Likees:
			if edge.LikerID == userID {
				set[edge.LikeeID] = struct{}{}
			}
		}
	}
	return set, nil
}
