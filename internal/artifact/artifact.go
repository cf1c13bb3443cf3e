// Package artifact defines the indexed Artifact record and its mapping to
// and from flat index documents.
//
// The set of indexed fields is declared once in Schema. Collection-typed
// members exist on Artifact for the canonical store but are filtered out of
// the index by kind.
package artifact

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Artifact is a catalogued collection item.
type Artifact struct {
	ID              int             `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Category        string          `json:"category" yaml:"category"`
	Culture         string          `json:"culture" yaml:"culture"`
	Origin          string          `json:"origin" yaml:"origin"`
	Description     string          `json:"description" yaml:"description"`
	Materials       string          `json:"materials" yaml:"materials"`
	Height          int             `json:"height" yaml:"height"`
	Width           int             `json:"width" yaml:"width"`
	CircaDate       string          `json:"circaDate" yaml:"circaDate"`
	CulturalNotes   string          `json:"culturalNotes" yaml:"culturalNotes"`
	Seller          string          `json:"seller" yaml:"seller"`
	SellerCity      string          `json:"sellerCity" yaml:"sellerCity"`
	SellerCountry   string          `json:"sellerCountry" yaml:"sellerCountry"`
	Cost            decimal.Decimal `json:"cost" yaml:"cost"`
	YearCollected   string          `json:"yearCollected" yaml:"yearCollected"`
	EstimatedValue  decimal.Decimal `json:"estimatedValue" yaml:"estimatedValue"`
	CurrentLocation string          `json:"currentLocation" yaml:"currentLocation"`
	Destination     string          `json:"destination" yaml:"destination"`

	// Images and Tags are owned by the canonical store and never indexed.
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`
	Tags   []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Validate reports whether a can be indexed. IDs start at 1; zero is what
// an absent id decodes to.
func (a *Artifact) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("artifact id must be positive, got %d", a.ID)
	}
	return nil
}
