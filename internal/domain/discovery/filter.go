package discovery

import "dating-api/internal/domain/entity"

// CandidateFilter is the conjunction of every active discovery constraint.
// A nil relationship set means the constraint is not requested.
type CandidateFilter struct {
	RequesterID entity.UserID
	Gender      entity.Gender
	Age         AgeWindow
	Likers      IDSet
	Likees      IDSet
}

// Matches reports whether user survives all active constraints
func (f CandidateFilter) Matches(user *entity.User) bool {
	if user == nil || user.ID() == f.RequesterID {
		return false
	}
	if user.Gender() != f.Gender {
		return false
	}
	if !f.Age.Contains(user.DateOfBirth()) {
		return false
	}
	if f.Likers != nil && !f.Likers.Contains(user.ID()) {
		return false
	}
	if f.Likees != nil && !f.Likees.Contains(user.ID()) {
		return false
	}
	return true
}

// Apply returns the users that match, keeping their order
func (f CandidateFilter) Apply(users []*entity.User) []*entity.User {
	out := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}
