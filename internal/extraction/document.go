package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Document is the parsed form of a structured-extraction response. Every
// field is optional at this stage; the pipeline decides which absences are
// fatal.
type Document struct {
	StoreName *string    `json:"store_name"`
	Location  *string    `json:"location"`
	Date      *string    `json:"date"`
	Subtotal  *float64   `json:"subtotal"`
	Tax       *float64   `json:"tax"`
	Total     *float64   `json:"total"`
	Items     []ItemData `json:"items"`
}

// ItemData is one line item as produced by the model.
type ItemData struct {
	Description *string  `json:"description"`
	GeneralName *string  `json:"general_name"`
	Qty         *int     `json:"qty"`
	UnitPrice   *float64 `json:"unit_price"`
	Price       *float64 `json:"price"`
	Tags        []string `json:"tags"`
}

// documentSchema constrains field types only. Nulls are allowed everywhere;
// the mandatory-field check happens separately so its failures are
// distinguishable from malformed output.
const documentSchema = `{
	"type": "object",
	"properties": {
		"store_name": {"type": ["string", "null"]},
		"location": {"type": ["string", "null"]},
		"date": {"type": ["string", "null"]},
		"subtotal": {"type": ["number", "null"]},
		"tax": {"type": ["number", "null"]},
		"total": {"type": ["number", "null"]},
		"items": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"description": {"type": ["string", "null"]},
					"general_name": {"type": ["string", "null"]},
					"qty": {"type": ["integer", "null"]},
					"unit_price": {"type": ["number", "null"]},
					"price": {"type": ["number", "null"]},
					"tags": {"type": ["array", "null"], "items": {"type": "string"}}
				}
			}
		}
	}
}`

var schema = jsonschema.MustCompileString("receipt.json", documentSchema)

// ParseDocument extracts the JSON object from a model response and validates
// its shape. The response is plain text and may carry markdown fences or
// surrounding prose despite the JSON-only instruction.
func ParseDocument(response string) (*Document, error) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[start : end+1]

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("response does not match receipt schema: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	return &doc, nil
}

// MissingFields reports which mandatory fields are absent. store_name, date,
// and total gate persistence; everything else passes through as produced.
func (d *Document) MissingFields() []string {
	var missing []string
	if d.StoreName == nil || strings.TrimSpace(*d.StoreName) == "" {
		missing = append(missing, "store_name")
	}
	if d.Date == nil || strings.TrimSpace(*d.Date) == "" {
		missing = append(missing, "date")
	}
	if d.Total == nil {
		missing = append(missing, "total")
	}
	return missing
}
