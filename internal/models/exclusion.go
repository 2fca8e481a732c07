package models

import "time"

// ExclusionReason names the side-table a filtered record is routed to
type ExclusionReason string

const (
	ReasonGroupProductCode          ExclusionReason = "group_product_code"
	ReasonPostValuationCommencement ExclusionReason = "post_valuation_commencement"
	ReasonPreValuationMaturity      ExclusionReason = "pre_valuation_maturity"
	ReasonMaturityCalculationError  ExclusionReason = "maturity_calculation_error"
)

// ExclusionReasons lists the reasons in pipeline order
var ExclusionReasons = []ExclusionReason{
	ReasonGroupProductCode,
	ReasonPostValuationCommencement,
	ReasonPreValuationMaturity,
	ReasonMaturityCalculationError,
}

// String returns the reason identifier
func (r ExclusionReason) String() string {
	return string(r)
}

// IsValid checks if the reason is known
func (r ExclusionReason) IsValid() bool {
	for _, known := range ExclusionReasons {
		if r == known {
			return true
		}
	}
	return false
}

// Label returns a human readable description of the side-table
func (r ExclusionReason) Label() string {
	switch r {
	case ReasonGroupProductCode:
		return "Group MCR policies"
	case ReasonPostValuationCommencement:
		return "Policies commencing after the valuation date"
	case ReasonPreValuationMaturity:
		return "Policies maturing on or before the valuation date"
	case ReasonMaturityCalculationError:
		return "Policies with maturity calculation errors"
	default:
		return string(r)
	}
}

// Exclusion is a record removed by a filter stage
type Exclusion struct {
	Record *InputRecord    `json:"record"`
	Reason ExclusionReason `json:"reason"`
	// StartDate is set when the stage normalized the start date
	StartDate *time.Time `json:"start_date,omitempty"`
	// MaturityDate is set for pre-valuation maturity exclusions
	MaturityDate *time.Time `json:"maturity_date,omitempty"`
	Detail       string     `json:"detail,omitempty"`
}
