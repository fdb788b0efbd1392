package receipt

import "time"

// ObjectEvent is a blob-finalized notification for an uploaded object.
type ObjectEvent struct {
	Bucket      string `json:"bucket"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

// Receipt is one validated purchase record. Receipts are created exactly once
// by the ingestion pipeline and are immutable afterwards.
type Receipt struct {
	ID        string    `json:"id"`
	StoreName string    `json:"store_name"`
	Location  string    `json:"location"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Subtotal  *float64  `json:"subtotal"`
	Tax       *float64  `json:"tax"`
	Total     *float64  `json:"total"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	ImagePath string    `json:"image_path"` // provenance only; the object is gone after ingestion
}

// Item is one line within a receipt (product, discount, or fee).
type Item struct {
	Description string   `json:"description"`
	GeneralName string   `json:"general_name"`
	Qty         int      `json:"qty"`
	UnitPrice   *float64 `json:"unit_price"`
	Price       float64  `json:"price"` // negative for discounts
	Tags        []string `json:"tags"`
}

// ErrorRecord is one failed ingestion attempt, kept for offline diagnosis.
type ErrorRecord struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"file_path"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
