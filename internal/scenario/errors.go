package scenario

import "fmt"

// MissingDataError reports that no fixture rows exist for a tier.
type MissingDataError struct {
	Tier string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no baseline data for tier %q", e.Tier)
}

// ConstraintViolationError rejects a price edit outside the scenario's
// allowed range. The scenario is left unchanged.
type ConstraintViolationError struct {
	ScenarioID string
	Price      float64
	Min        float64
	Max        float64
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("price $%.2f outside allowed range [$%.2f, $%.2f] for scenario %s",
		e.Price, e.Min, e.Max, e.ScenarioID)
}

// NotFoundError reports an unknown scenario or result ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}
