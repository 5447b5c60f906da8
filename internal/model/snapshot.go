package model

import "encoding/json"

// VariantSnapshot is the captured state of one variant before the reset.
// Snapshots are immutable once written to the backup store.
type VariantSnapshot struct {
	VariantID       int64
	ProductID       int64
	InventoryItemID int64
	Position        int
	Variant         Variant
	RawJSON         []byte
}

// NewVariantSnapshot builds a snapshot from a platform-reported variant.
func NewVariantSnapshot(v Variant) (VariantSnapshot, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return VariantSnapshot{}, err
	}
	return VariantSnapshot{
		VariantID:       v.ID,
		ProductID:       v.ProductID,
		InventoryItemID: v.InventoryItemID,
		Position:        v.Position,
		Variant:         v,
		RawJSON:         raw,
	}, nil
}

// CreatePayload returns the variant attributes to send on recreation.
// Platform-assigned identifiers are cleared; the new inventory_item_id is
// discovered from the creation response, never copied from the snapshot.
// Image associations are intentionally not carried over.
func (s *VariantSnapshot) CreatePayload() Variant {
	v := s.Variant
	v.ID = 0
	v.ProductID = 0
	v.InventoryItemID = 0
	v.InventoryQuantity = 0
	v.ImageID = nil
	v.AdminGraphQLAPIID = ""
	v.CreatedAt = ""
	v.UpdatedAt = ""
	return v
}

// InventorySnapshot is one captured (location, quantity) pair for a tracked
// variant. A zero quantity is a meaningful fact and is captured too.
type InventorySnapshot struct {
	VariantID       int64
	InventoryItemID int64
	LocationID      int64
	Available       int
}
