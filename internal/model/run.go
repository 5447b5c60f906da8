package model

import "time"

// ProductState tracks a product's progress through the reset sequence.
type ProductState string

const (
	StateIdle               ProductState = "idle"
	StateCaptured           ProductState = "captured"
	StateSecondaryDeleted   ProductState = "secondary_deleted"
	StateSecondaryRecreated ProductState = "secondary_recreated"
	StatePrimaryDeleted     ProductState = "primary_deleted"
	StatePrimaryRecreated   ProductState = "primary_recreated"
	StateDone               ProductState = "done"
	StateFailed             ProductState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s ProductState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// RunContext carries per-product state across the delete/recreate boundary.
// It is created when a product enters processing, passed explicitly into
// each reconciler, and discarded when the product finishes. Never shared
// across products.
type RunContext struct {
	ProductID int64

	// NewInventoryItemIDs maps original variant ID to the inventory item
	// ID assigned to its recreated replacement.
	NewInventoryItemIDs map[int64]int64

	// Excluded holds original variant IDs matched by the exclusion
	// predicate: deleted, never recreated, no inventory work.
	Excluded map[int64]bool
}

// NewRunContext creates an empty context for one product.
func NewRunContext(productID int64) *RunContext {
	return &RunContext{
		ProductID:           productID,
		NewInventoryItemIDs: make(map[int64]int64),
		Excluded:            make(map[int64]bool),
	}
}

// ProductResult reports the outcome of one product's reset.
type ProductResult struct {
	ProductID int64        `json:"product_id"`
	State     ProductState `json:"state"`
	Error     string       `json:"error,omitempty"`
	Recreated int          `json:"recreated"`
	Skipped   int          `json:"skipped"`
	Duration  string       `json:"duration"`
}

// RunReport aggregates the results of a whole run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Products   []ProductResult `json:"products"`
}

// Failed returns how many products ended in StateFailed.
func (r *RunReport) Failed() int {
	n := 0
	for _, p := range r.Products {
		if p.State == StateFailed {
			n++
		}
	}
	return n
}
