package contracts

// ExtractedFields is the raw field mapping produced by the document
// extraction service, prior to deadline enrichment. Fields may be partial
// or empty; enrichment tolerates anything except a missing CFAAM reference.
// Dates arrive as strings in the document format and are parsed once at
// the enrichment boundary.
type ExtractedFields struct {
	CFAAMRef         string `json:"CFAAM_Ref"`
	ImporterName     string `json:"Importer_Name"`
	DateSubmitted    string `json:"Date_Submitted"`
	CurrencyAmount   string `json:"Currency_and_Amount"`
	ExpiryDate       string `json:"Expiry_Date"`
	ReturnsFrequency string `json:"Returns_Frequency"`
	ConditionText    string `json:"Condition_Text"`
}
