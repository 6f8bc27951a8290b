package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"estate_portal_backend/internal/leadtracking/domain"

	"gopkg.in/yaml.v3"
)

// Weights holds every scoring constant. DefaultWeights is used unless a
// YAML override is loaded with LoadWeights.
type Weights struct {
	Prequalification PrequalWeights    `yaml:"prequalification"`
	Engagement       EngagementWeights `yaml:"engagement"`
	PropertyMatch    MatchWeights      `yaml:"property_match"`
}

type PrequalWeights struct {
	// Base is awarded for a prequalification that is in force.
	Base int `yaml:"base"`
	// LenderBonus is added when both amount and lender are on file.
	LenderBonus int `yaml:"lender_bonus"`
}

type EngagementWeights struct {
	Max int `yaml:"max"`
	// CapCount is the activity count per type beyond which more of the same
	// type adds nothing.
	CapCount int                             `yaml:"cap_count"`
	PerType  map[domain.ActivityType]float64 `yaml:"weights"`
}

type MatchWeights struct {
	Max int `yaml:"max"`
}

// DefaultWeights returns the production scoring constants:
// prequalification 0-30, engagement 0-50, property match 0-20.
func DefaultWeights() Weights {
	return Weights{
		Prequalification: PrequalWeights{Base: 20, LenderBonus: 10},
		Engagement: EngagementWeights{
			Max:      50,
			CapCount: 7,
			PerType: map[domain.ActivityType]float64{
				domain.ActivityContactAgent:          12,
				domain.ActivityBookingRequest:        10,
				domain.ActivityOpenHouseRegistration: 8,
				domain.ActivityReturnVisit:           5,
				domain.ActivityPropertyView:          3,
			},
		},
		PropertyMatch: MatchWeights{Max: 20},
	}
}

// MaxPrequalification is the highest prequalification component.
func (w Weights) MaxPrequalification() int {
	return w.Prequalification.Base + w.Prequalification.LenderBonus
}

// TypeCap is the most a single activity type can contribute to engagement.
func (w Weights) TypeCap(t domain.ActivityType) float64 {
	return w.Engagement.PerType[t] * math.Log2(float64(1+w.Engagement.CapCount))
}

// Validate checks the constants keep scores bounded and keep any single
// activity type from saturating engagement.
func (w Weights) Validate() error {
	var errs []error

	if w.Prequalification.Base < 0 || w.Prequalification.LenderBonus < 0 {
		errs = append(errs, errors.New("prequalification weights must not be negative"))
	}
	if w.Engagement.Max <= 0 {
		errs = append(errs, errors.New("engagement.max must be positive"))
	}
	if w.Engagement.CapCount < 1 {
		errs = append(errs, errors.New("engagement.cap_count must be at least 1"))
	}
	if w.PropertyMatch.Max < 0 {
		errs = append(errs, errors.New("property_match.max must not be negative"))
	}
	if total := w.MaxPrequalification() + w.Engagement.Max + w.PropertyMatch.Max; total > 100 {
		errs = append(errs, fmt.Errorf("component maxima sum to %d, above 100", total))
	}

	for _, t := range domain.ActivityTypes {
		weight, ok := w.Engagement.PerType[t]
		if !ok || weight <= 0 {
			errs = append(errs, fmt.Errorf("engagement weight for %s must be positive", t))
			continue
		}
		if w.Engagement.Max > 0 && w.TypeCap(t) >= float64(w.Engagement.Max) {
			errs = append(errs, fmt.Errorf("%s alone can reach the engagement maximum", t))
		}
	}
	for t := range w.Engagement.PerType {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("unknown activity type %q in weights", t))
		}
	}

	view := w.Engagement.PerType[domain.ActivityPropertyView]
	if w.Engagement.PerType[domain.ActivityContactAgent] <= view || w.Engagement.PerType[domain.ActivityBookingRequest] <= view {
		errs = append(errs, errors.New("contact_agent and booking_request must outweigh property_view"))
	}

	return errors.Join(errs...)
}

// LoadWeights reads a YAML override on top of DefaultWeights. Keys absent
// from the file keep their default value.
func LoadWeights(path string) (Weights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read scoring weights: %w", err)
	}
	return ParseWeights(raw)
}

// ParseWeights decodes and validates a YAML weights document.
func ParseWeights(raw []byte) (Weights, error) {
	w := DefaultWeights()
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return Weights{}, fmt.Errorf("decode scoring weights: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return w, nil
}
