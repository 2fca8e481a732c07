// Package mapper derives MP File rows from filtered policy records.
package mapper

import (
	"strings"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/normalize"
)

// Fixed values and fallbacks written into every MP File
const (
	SPCode             = 1
	ChannelCode        = "Partnership"
	DefaultRICompany   = "MunichRe"
	DefaultLoanType    = "Error"
	UnknownProphetCode = "Check"
	ErrorSentinel      = "Error"
)

// PlanRule maps a Plan Code prefix to a valuation model point and plan number
type PlanRule struct {
	Prefix      string
	ProphetCode string
	PlanNo      int64
}

// PlanRules are checked in order; the first matching prefix wins
var PlanRules = []PlanRule{
	{Prefix: "PLAN07", ProphetCode: "C_07MRP", PlanNo: 7},
	{Prefix: "PLAN11", ProphetCode: "C_11MICRO", PlanNo: 11},
	{Prefix: "PLAN25", ProphetCode: "C_25MRPTAKAFUL", PlanNo: 25},
}

// MatchPlan returns the rule whose prefix starts planCode
func MatchPlan(planCode string) (PlanRule, bool) {
	for _, rule := range PlanRules {
		if strings.HasPrefix(planCode, rule.Prefix) {
			return rule, true
		}
	}
	return PlanRule{}, false
}

// genderCodes maps normalized gender tokens to valuation codes
var genderCodes = map[string]int64{
	"male":   0,
	"m":      0,
	"female": 1,
	"f":      1,
}

// tpdDecline maps a TPD option answer to the decline flag. The flag is the
// inverse of the answer: a policy with TPD cover has not declined it.
var tpdDecline = map[string]string{
	"yes": "N",
	"no":  "Y",
}

// Gender maps a gender cell to 0 or 1, or the error sentinel
func Gender(c models.Cell) models.FieldValue {
	if code, ok := genderCodes[normalize.Token(c)]; ok {
		return models.IntegerValue(code)
	}
	return models.StringValue(ErrorSentinel)
}

// TPDDecline maps the first life's TPD option; unknown answers are errors
func TPDDecline(c models.Cell) models.FieldValue {
	if flag, ok := tpdDecline[normalize.Token(c)]; ok {
		return models.StringValue(flag)
	}
	return models.StringValue(ErrorSentinel)
}

// TPDDecline2 maps the second life's TPD option. A second life is often
// absent, so unknown answers become 0 rather than an error.
func TPDDecline2(c models.Cell) models.FieldValue {
	if flag, ok := tpdDecline[normalize.Token(c)]; ok {
		return models.StringValue(flag)
	}
	return models.IntegerValue(0)
}

// Interest types
const (
	InterestFixed    = "fixed"
	InterestVariable = "variable"
)
