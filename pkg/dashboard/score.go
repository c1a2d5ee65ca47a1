package dashboard

import "github.com/danhoran/volpulse/pkg/platform"

// HotScore is the engagement score of a single post. A comment signals
// deeper engagement than a like, weighted 2:1. Counts below zero are
// treated as zero, so the score is never negative.
func HotScore(p platform.Post) int {
	return 2*clampNonNegative(p.Comments) + clampNonNegative(p.Likes)
}

// Attractiveness is the participation score of an event. Volunteer
// sign-ups are the primary success metric and are weighted 3x over
// discussion volume.
func Attractiveness(registrations, posts int) int {
	return 3*clampNonNegative(registrations) + clampNonNegative(posts)
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
