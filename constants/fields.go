package constants

// FieldName identifies one of the extractable policy fields.
type FieldName string

const (
	FieldProposalReceivedDate FieldName = "Proposal Received Date"
	FieldProposalNo           FieldName = "Proposal No"
	FieldProposerName         FieldName = "Proposer Name"
	FieldPinCode              FieldName = "Pin Code"
	FieldTotalLives           FieldName = "Total No of Lives"
	FieldBusinessType         FieldName = "Business Type"
	FieldInsuranceCompany     FieldName = "Insurance Company"
	FieldTPA                  FieldName = "TPA"
	FieldProductType          FieldName = "Product Type"
	FieldProductName          FieldName = "Product Name"
	FieldCoverType            FieldName = "Cover Type"
	FieldTenureMonths         FieldName = "Tenure (In Months)"
	FieldPaymentMode          FieldName = "Payment Mode"
	FieldReceivedAmount       FieldName = "Received Amount"
	FieldBasicPremium         FieldName = "Basic Premium"
	FieldTaxes                FieldName = "Taxes"
	FieldFinalPremium         FieldName = "Final Premium"
	FieldShortExcess          FieldName = "Short / Excess"
	FieldEmail                FieldName = "Email"
	FieldMobileNo             FieldName = "Mobile No"
	FieldPolicyNo             FieldName = "Policy No"
	FieldPolicyStartDate      FieldName = "Policy Start Date"
	FieldPolicyEndDate        FieldName = "Policy End Date"
	FieldAgentCode            FieldName = "Agent / Broker Code"
	FieldAgentName            FieldName = "Agent / Broker Name"
	FieldODPremium            FieldName = "OD Premium"
	FieldLiabilityPremium     FieldName = "Liability Premium"
	FieldVehicleRegNo         FieldName = "Vehicle Reg. No"
	FieldVehicleMake          FieldName = "Vehicle Make"
)

// FieldCount is the size of the field schema.
const FieldCount = 29

// fieldOrder is the canonical column order for grids and exports.
// Changing it breaks the model contract and every exported file.
var fieldOrder = [FieldCount]FieldName{
	FieldProposalReceivedDate,
	FieldProposalNo,
	FieldProposerName,
	FieldPinCode,
	FieldTotalLives,
	FieldBusinessType,
	FieldInsuranceCompany,
	FieldTPA,
	FieldProductType,
	FieldProductName,
	FieldCoverType,
	FieldTenureMonths,
	FieldPaymentMode,
	FieldReceivedAmount,
	FieldBasicPremium,
	FieldTaxes,
	FieldFinalPremium,
	FieldShortExcess,
	FieldEmail,
	FieldMobileNo,
	FieldPolicyNo,
	FieldPolicyStartDate,
	FieldPolicyEndDate,
	FieldAgentCode,
	FieldAgentName,
	FieldODPremium,
	FieldLiabilityPremium,
	FieldVehicleRegNo,
	FieldVehicleMake,
}

var fieldIndex = func() map[FieldName]int {
	m := make(map[FieldName]int, FieldCount)
	for i, f := range fieldOrder {
		m[f] = i
	}
	return m
}()

// RequiredFields must be non-blank on every extracted record.
var RequiredFields = []FieldName{
	FieldProposerName,
	FieldPolicyNo,
	FieldFinalPremium,
	FieldPolicyStartDate,
}

// Fields returns the schema in canonical order. The slice is a copy.
func Fields() []FieldName {
	out := make([]FieldName, FieldCount)
	copy(out, fieldOrder[:])
	return out
}

// FieldAt returns the field at position i of the canonical order.
func FieldAt(i int) FieldName {
	return fieldOrder[i]
}

// FieldIndex returns the canonical position of f.
func FieldIndex(f FieldName) (int, bool) {
	i, ok := fieldIndex[f]
	return i, ok
}

// IsField reports whether s names a schema field exactly.
func IsField(s string) bool {
	_, ok := fieldIndex[FieldName(s)]
	return ok
}

// FieldsAsStringSlice mirrors Fields for callers that need plain strings
// (JSON schema "required", CSV headers).
func FieldsAsStringSlice() []string {
	out := make([]string, FieldCount)
	for i, f := range fieldOrder {
		out[i] = string(f)
	}
	return out
}
