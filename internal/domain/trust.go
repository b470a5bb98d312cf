package domain

import "math"

// TrustStats are the accumulated inputs of the trust score formula.
type TrustStats struct {
	OnTimeReturns   int
	LateReturns     int
	DisputesAgainst int
	TotalRatings    int
	RatingSum       int
}

// Stats extracts the score inputs from a user record.
func (u *User) Stats() TrustStats {
	return TrustStats{
		OnTimeReturns:   u.OnTimeReturns,
		LateReturns:     u.LateReturns,
		DisputesAgainst: u.DisputesAgainst,
		TotalRatings:    u.TotalRatings,
		RatingSum:       u.RatingSum,
	}
}

// ComputeTrustScore derives the 0-100 trust score from accumulated
// statistics. A bounded additive model: each input moves the score
// independently and the result is clamped, so no single extreme can run
// away with it.
//
//	base 50
//	+ up to 30 for on-time return rate
//	+ up to 15 for average rating
//	+ up to 10 loyalty bonus (1 point per 5 transactions)
//	- 5 per dispute against the user
func ComputeTrustScore(s TrustStats) int {
	score := 50.0

	totalTransactions := s.OnTimeReturns + s.LateReturns
	if totalTransactions > 0 {
		onTimeRate := float64(s.OnTimeReturns) / float64(totalTransactions)
		score += math.Round(onTimeRate * 30)
	}

	if s.TotalRatings > 0 {
		avgRating := float64(s.RatingSum) / float64(s.TotalRatings)
		score += math.Round(avgRating / 5 * 15)
	}

	loyalty := totalTransactions / 5
	if loyalty > 10 {
		loyalty = 10
	}
	score += float64(loyalty)

	score -= float64(s.DisputesAgainst) * 5

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

// TrustBadge maps a score to its display tier. Derived, never stored.
func TrustBadge(score int) string {
	switch {
	case score >= 95:
		return "Elite"
	case score >= 85:
		return "Trusted"
	case score >= 70:
		return "Reliable"
	case score >= 50:
		return "New User"
	default:
		return "Caution"
	}
}
