package models

type RequestType string

const (
	APInvoiceProcessing       RequestType = "AP_INVOICE_PROCESSING"
	APVendorPaymentInquiry    RequestType = "AP_VENDOR_PAYMENT_INQUIRY"
	APVendorMasterdataChange  RequestType = "AP_VENDOR_MASTERDATA_CHANGE"
	ExpenseReimbursementIssue RequestType = "EXPENSE_REIMBURSEMENT_ISSUE"
	ARCustomerInvoiceRequest  RequestType = "AR_CUSTOMER_INVOICE_REQUEST"
	ARCashApplication         RequestType = "AR_CASH_APPLICATION"
	ARCreditMemoRequest       RequestType = "AR_CREDIT_MEMO_REQUEST"
	GLJournalEntryRequest     RequestType = "GL_JOURNAL_ENTRY_REQUEST"
	AP3WayMatchException      RequestType = "AP_3WAY_MATCH_EXCEPTION"
	CloseSupportRequest       RequestType = "CLOSE_SUPPORT_REQUEST"
)

const FieldEntityCode = "entity_code"

// requestTypes lists every known type with the fields a reviewer must fill
// before approval. Order matches the selector shown to reviewers.
var requestTypes = []struct {
	Type     RequestType
	Required []string
}{
	{APInvoiceProcessing, []string{FieldEntityCode, "invoice_date", "invoice_number", "vendor_name", "po_number"}},
	{APVendorPaymentInquiry, []string{FieldEntityCode, "invoice_number", "vendor_name"}},
	{APVendorMasterdataChange, []string{FieldEntityCode, "vendor_name", "vendor_id", "change_type"}},
	{ExpenseReimbursementIssue, []string{FieldEntityCode, "employee_id", "expense_report_id"}},
	{ARCustomerInvoiceRequest, []string{FieldEntityCode, "customer_name", "po_number", "invoice_amount"}},
	{ARCashApplication, []string{FieldEntityCode, "payment_amount", "bank_reference"}},
	{ARCreditMemoRequest, []string{FieldEntityCode, "customer_name", "invoice_number", "requested_credit_amount", "reason"}},
	{GLJournalEntryRequest, []string{FieldEntityCode, "effective_date", "amount", "debit_account", "credit_account"}},
	{AP3WayMatchException, []string{FieldEntityCode, "po_number", "invoice_number"}},
	{CloseSupportRequest, []string{FieldEntityCode, "account", "variance_amount"}},
}

func RequestTypes() []RequestType {
	out := make([]RequestType, 0, len(requestTypes))
	for _, rt := range requestTypes {
		out = append(out, rt.Type)
	}
	return out
}

func (t RequestType) Valid() bool {
	for _, rt := range requestTypes {
		if rt.Type == t {
			return true
		}
	}
	return false
}

// RequiredFields returns the fields required for t. Types outside the known
// set only require an entity code.
func (t RequestType) RequiredFields() []string {
	for _, rt := range requestTypes {
		if rt.Type == t {
			return append([]string(nil), rt.Required...)
		}
	}
	return []string{FieldEntityCode}
}
