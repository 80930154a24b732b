package elasticity

import "fmt"

// UnknownTierError reports a tier absent from a required lookup table.
type UnknownTierError struct {
	Tier  Tier
	Table string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown tier %q in %s table", e.Tier, e.Table)
}
