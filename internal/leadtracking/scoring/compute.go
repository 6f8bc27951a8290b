package scoring

import (
	"math"
	"time"

	"estate_portal_backend/internal/leadtracking/domain"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Inputs is the complete fact set a score is derived from. A nil Profile
// means the client has no profile on file.
type Inputs struct {
	Activities []domain.Activity
	Profile    *domain.ClientProfile
	Properties map[uuid.UUID]domain.Property
}

// Breakdown is the component view of a score.
type Breakdown struct {
	Prequalification int
	Engagement       int
	PropertyMatch    int
}

// Total is the sum of the components.
func (b Breakdown) Total() int {
	return b.Prequalification + b.Engagement + b.PropertyMatch
}

// Compute derives a score from in as of now. It has no side effects.
func Compute(in Inputs, w Weights, now time.Time) Breakdown {
	return Breakdown{
		Prequalification: prequalificationScore(in.Profile, w, now),
		Engagement:       engagementScore(in.Activities, w),
		PropertyMatch:    propertyMatchScore(in, w),
	}
}

func prequalificationScore(p *domain.ClientProfile, w Weights, now time.Time) int {
	if p == nil || !p.PrequalValidAt(now) {
		return 0
	}
	score := w.Prequalification.Base
	if p.HasLenderDetails() {
		score += w.Prequalification.LenderBonus
	}
	return min(score, w.MaxPrequalification())
}

// engagementScore sums weight*log2(1+n) per type with n capped at CapCount.
// Each term is non-decreasing in n, so adding activities never lowers it.
func engagementScore(activities []domain.Activity, w Weights) int {
	counts := make(map[domain.ActivityType]int, len(domain.ActivityTypes))
	for _, a := range activities {
		counts[a.Type]++
	}

	var sum float64
	for _, t := range domain.ActivityTypes {
		n := min(counts[t], w.Engagement.CapCount)
		sum += w.Engagement.PerType[t] * math.Log2(float64(1+n))
	}
	return clamp(int(math.Round(sum)), 0, w.Engagement.Max)
}

// propertyMatchScore scales the share of distinct viewed or booked listings
// located in a preferred area. Areas compare under Unicode case folding.
func propertyMatchScore(in Inputs, w Weights) int {
	if in.Profile == nil || len(in.Profile.PreferredAreas) == 0 {
		return 0
	}

	distinct := make(map[uuid.UUID]struct{})
	for _, a := range in.Activities {
		if a.PropertyID != nil && a.Type.RefersToProperty() {
			distinct[*a.PropertyID] = struct{}{}
		}
	}
	if len(distinct) == 0 {
		return 0
	}

	folder := cases.Fold()
	preferred := make(map[string]struct{}, len(in.Profile.PreferredAreas))
	for _, area := range in.Profile.PreferredAreas {
		preferred[folder.String(area)] = struct{}{}
	}

	matched := 0
	for id := range distinct {
		p, ok := in.Properties[id]
		if !ok {
			continue
		}
		if _, hit := preferred[folder.String(p.City)]; hit {
			matched++
		}
	}

	ratio := float64(matched) / float64(len(distinct))
	return clamp(int(math.Round(ratio*float64(w.PropertyMatch.Max))), 0, w.PropertyMatch.Max)
}

// propertyIDs lists the distinct listings that property matching will look up.
func propertyIDs(activities []domain.Activity) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, a := range activities {
		if a.PropertyID == nil || !a.Type.RefersToProperty() {
			continue
		}
		if _, dup := seen[*a.PropertyID]; dup {
			continue
		}
		seen[*a.PropertyID] = struct{}{}
		ids = append(ids, *a.PropertyID)
	}
	return ids
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
