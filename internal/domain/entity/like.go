package entity

import "dating-api/internal/domain/errors"

// Like is a directed edge from the liker to the likee. The ordered pair is its key.
type Like struct {
	LikerID UserID `json:"likerId"`
	LikeeID UserID `json:"likeeId"`
}

// NewLike validates both ends of the edge
func NewLike(likerID, likeeID UserID) (Like, error) {
	if !likerID.IsValid() {
		return Like{}, errors.InvalidArgument("likerId", "liker must be a valid user id")
	}
	if !likeeID.IsValid() {
		return Like{}, errors.InvalidArgument("likeeId", "likee must be a valid user id")
	}
	if likerID == likeeID {
		return Like{}, errors.InvalidArgument("likeeId", "you cannot like yourself")
	}
	return Like{LikerID: likerID, LikeeID: likeeID}, nil
}

// Touches reports whether id is either end of the edge
func (l Like) Touches(id UserID) bool {
	return l.LikerID == id || l.LikeeID == id
}
