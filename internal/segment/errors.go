package segment

import "fmt"

// NoDataError reports that no segment rows match the requested tier and
// target segment.
type NoDataError struct {
	Tier          string
	TargetSegment string
}

func (e *NoDataError) Error() string {
	if e.TargetSegment == "" {
		return fmt.Sprintf("no segment data for tier %q", e.Tier)
	}
	return fmt.Sprintf("no segment data for tier %q matching segment %q", e.Tier, e.TargetSegment)
}

// InvalidInputError rejects a malformed estimate request.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid segment input: %s %s", e.Field, e.Reason)
}
