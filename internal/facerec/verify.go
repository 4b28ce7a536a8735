package facerec

import (
	"context"
	"fmt"

	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/andresmejia3/faceenroll/internal/store"
	"github.com/andresmejia3/faceenroll/internal/types"
)

// DefaultThreshold is the euclidean distance under which two dlib
// descriptors are treated as the same person.
const DefaultThreshold = 0.5

// Match is the nearest enrolled user for a live descriptor.
type Match struct {
	User     types.User
	Distance float64
}

// Verifier compares a live capture against every enrolled user.
type Verifier struct {
	Store     store.Store
	Capture   *Capture
	Threshold float64
	// Metric defaults to euclidean distance when nil.
	Metric embedding.Metric
}

// Run loads the enrollments, captures one descriptor and returns the nearest
// user. ErrNoMatch is returned (with the nearest candidate, if any) when
// nobody is under the threshold.
func (v *Verifier) Run(ctx context.Context) (Match, error) {
	users, err := v.Store.ListUsers(ctx)
	if err != nil {
		return Match{}, &StoreError{Op: "list", Err: err}
	}
	if len(users) == 0 {
		return Match{}, fmt.Errorf("%w: no users enrolled", ErrNoMatch)
	}

	res, err := v.Capture.Run(ctx)
	if err != nil {
		return Match{}, err
	}

	best, ok := Nearest(users, res.Embedding, v.Metric)
	if !ok || best.Distance >= v.Threshold {
		return best, ErrNoMatch
	}
	return best, nil
}

// Nearest returns the user closest to vec under metric (euclidean when nil).
// Ties keep the lower id. ok is false when users is empty.
func Nearest(users []types.User, vec types.Embedding, metric embedding.Metric) (m Match, ok bool) {
	if metric == nil {
		metric = embedding.Distance
	}
	for _, u := range users {
		d := metric(u.Embedding, vec)
		if !ok || d < m.Distance {
			m = Match{User: u, Distance: d}
			ok = true
		}
	}
	return m, ok
}
