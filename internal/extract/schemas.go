package extract

import (
	"context"
	"fmt"
)

// loanFormat asks for the loan-product shape clients of the structured
// API expect.
const loanFormat = `{
  "loan_products": [
    {
      "name": "string",
      "interest_rate": "string",
      "term_length": "string",
      "minimum_amount": "string",
      "requirements": ["string"]
    }
  ],
  "fees": [
    {
      "fee_type": "string",
      "amount": "string",
      "description": "string"
    }
  ]
}`

const complianceFormat = `{
  "regulations": [
    {
      "name": "string",
      "requirements": ["string"],
      "deadlines": ["string"],
      "penalties": ["string"]
    }
  ],
  "procedures": [
    {
      "procedure_name": "string",
      "steps": ["string"],
      "responsible_party": "string"
    }
  ]
}`

// LoanInformation extracts loan products and fees from the indexed
// documents. An empty loanType asks about all available products.
func (e *Extractor) LoanInformation(ctx context.Context, loanType string) (StructuredResult, error) {
	question := "What loan products are available?"
	if loanType != "" {
		question = fmt.Sprintf("What are the terms and conditions for %s loans?", loanType)
	}
	return e.Query(ctx, question, loanFormat)
}

// ComplianceRequirements extracts regulations and procedures. An empty
// regulationType asks about all compliance requirements.
func (e *Extractor) ComplianceRequirements(ctx context.Context, regulationType string) (StructuredResult, error) {
	question := "What are the main compliance requirements?"
	if regulationType != "" {
		question = fmt.Sprintf("What are the compliance requirements for %s?", regulationType)
	}
	return e.Query(ctx, question, complianceFormat)
}
