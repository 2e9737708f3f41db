package entities

// Document is an entry of the digitized document catalog.
type Document struct {
	ID       string `json:"id" db:"uid"`
	RecordID string `json:"record_id" db:"record_id"`
	Title    string `json:"title" db:"title"`
}
