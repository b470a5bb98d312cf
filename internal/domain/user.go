package domain

// DefaultTrustScore is assigned at signup, before any lending history exists.
const DefaultTrustScore = 50

type User struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`

	// Trust statistics. TrustScore is always ComputeTrustScore of the
	// counters below, never set directly after initialization.
	TrustScore      int `json:"trust_score"`
	TotalLendings   int `json:"total_lendings"`
	TotalBorrowings int `json:"total_borrowings"`
	OnTimeReturns   int `json:"on_time_returns"`
	LateReturns     int `json:"late_returns"`
	DisputesAgainst int `json:"disputes_against"`
	TotalRatings    int `json:"total_ratings"`
	RatingSum       int `json:"rating_sum"`

	CreatedOn string `json:"created_on"`
	UpdatedOn string `json:"updated_on"`
}

// PublicProfile is the subset of a user record exposed to other members.
type PublicProfile struct {
	Username        string  `json:"username"`
	Name            string  `json:"name"`
	TrustScore      int     `json:"trust_score"`
	TrustBadge      string  `json:"trust_badge"`
	TotalLendings   int     `json:"total_lendings"`
	TotalBorrowings int     `json:"total_borrowings"`
	OnTimeReturns   int     `json:"on_time_returns"`
	LateReturns     int     `json:"late_returns"`
	AverageRating   float64 `json:"average_rating"`
	MemberSince     string  `json:"member_since"`
}

// Profile derives the public view of u.
func (u *User) Profile() PublicProfile {
	p := PublicProfile{
		Username:        u.Username,
		Name:            u.Name,
		TrustScore:      u.TrustScore,
		TrustBadge:      TrustBadge(u.TrustScore),
		TotalLendings:   u.TotalLendings,
		TotalBorrowings: u.TotalBorrowings,
		OnTimeReturns:   u.OnTimeReturns,
		LateReturns:     u.LateReturns,
		MemberSince:     u.CreatedOn,
	}
	if u.TotalRatings > 0 {
		p.AverageRating = float64(u.RatingSum) / float64(u.TotalRatings)
	}
	return p
}
