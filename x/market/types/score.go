package types

import "math"

// ScoreConfidenceZ is the normal quantile for a 95% confidence interval.
const ScoreConfidenceZ = 1.96

// Score returns the lower bound of the Wilson score interval for the share of
// upvotes, or 0 when there are no votes. Fewer votes pull the score toward 0.
//
// The operation order matches the score providers already display, and the
// explicit float64 conversions stop the compiler from fusing multiply-adds so
// the result is identical on every architecture.
func Score(upvotes, downvotes uint64) float64 {
	if upvotes+downvotes == 0 {
		return 0
	}

	z := ScoreConfidenceZ
	n := float64(upvotes + downvotes)
	p := float64(upvotes) / n

	left := p + float64((1/(2*n))*z*z)
	right := z * math.Sqrt(float64(p*(1-p))/n+float64(z*z)/float64(4*n*n))
	under := 1 + float64((1/n)*z*z)

	return (left - float64(right)) / under
}
