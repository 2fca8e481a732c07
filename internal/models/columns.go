package models

// Source column names of the policy export. Names are matched exactly, so
// the double space in the TPD option columns is significant.
const (
	ColPolicyNumber    = "Policy Number"
	ColPlanCode        = "Plan Code"
	ColProductCode     = "Product Code"
	ColPolicyStartDate = "Policy Start Date"
	ColPolicyTerm      = "Policy Term (Months)"
	ColGenderLife1     = "Gender (Life 1)"
	ColGenderLife2     = "Gender (Life 2)"
	ColDOBLife1        = "DOB (Life 1)"
	ColDOBLife2        = "DOB (Life 2)"
	ColSinglePremium   = "Single Premium"
	ColLoanAmountLife1 = "Loan Amount (Death Benefit) -Life 1"
	ColInterestType    = "Interest Type"
	ColFixedInterest   = "Fixed Interest"
	ColCurrentAWPLR    = "Current AWPLR"
	ColAdditionalAWPLR = "Additional AWPLR"
	ColTPDOptionLife1  = "TPD Option  - Life 1"
	ColTPDOptionLife2  = "TPD Option  - Life 2"
	ColPolicyStatus    = "Policy Status"
)

// InputColumns lists every source column the transformation reads
var InputColumns = []string{
	ColPolicyNumber,
	ColPlanCode,
	ColProductCode,
	ColPolicyStartDate,
	ColPolicyTerm,
	ColGenderLife1,
	ColGenderLife2,
	ColDOBLife1,
	ColDOBLife2,
	ColSinglePremium,
	ColLoanAmountLife1,
	ColInterestType,
	ColFixedInterest,
	ColCurrentAWPLR,
	ColAdditionalAWPLR,
	ColTPDOptionLife1,
	ColTPDOptionLife2,
	ColPolicyStatus,
}
