package model

import "time"

// LandStatus is the ledger-assigned state of a land parcel. The values are
// mutually exclusive.
type LandStatus string

const (
	StatusPending  LandStatus = "Pending"
	StatusVerified LandStatus = "Verified"
	StatusRejected LandStatus = "Rejected"
	StatusForSale  LandStatus = "ForSale"
	StatusSold     LandStatus = "Sold"
)

// LandStatuses lists every status in ledger order.
var LandStatuses = []LandStatus{StatusPending, StatusVerified, StatusRejected, StatusForSale, StatusSold}

// String returns the string representation of the status.
func (s LandStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is one of the known values.
func (s LandStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusForSale, StatusSold:
		return true
	}
	return false
}

// Land is the ledger's authoritative record of a registered parcel. The client
// never edits one locally; it re-fetches after every mutation.
type Land struct {
	ID              uint64     `json:"id"`
	Owner           Principal  `json:"owner"`
	Coordinates     string     `json:"coordinates"`
	Size            float64    `json:"size"`
	Description     string     `json:"description"`
	Status          LandStatus `json:"status"`
	VerifiedBy      *Principal `json:"verified_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	History         []Transfer `json:"history,omitempty"`
	Price           *float64   `json:"price,omitempty"` // display units
	Metadata        string     `json:"metadata,omitempty"`
	PreviewImageURL string     `json:"preview_image_url,omitempty"`
}

// OwnedBy reports whether p owns the parcel.
func (l *Land) OwnedBy(p Principal) bool {
	return l.Owner.Equal(p)
}

// IsForSale reports whether the parcel is currently listed.
func (l *Land) IsForSale() bool {
	return l.Status == StatusForSale
}

// Transfer is one entry of a parcel's append-only ownership history.
type Transfer struct {
	From       Principal  `json:"from"`
	To         Principal  `json:"to"`
	Timestamp  time.Time  `json:"timestamp"`
	VerifiedBy *Principal `json:"verified_by,omitempty"`
}

// LandInput holds the fields a caller submits to register a parcel.
type LandInput struct {
	Coordinates string   `json:"coordinates"`
	Size        float64  `json:"size"`
	Description string   `json:"description"`
	Metadata    string   `json:"metadata"`
	Price       *float64 `json:"price,omitempty"` // display units
}
