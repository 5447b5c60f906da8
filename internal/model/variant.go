package model

// Variant mirrors the Shopify Admin REST variant resource.
type Variant struct {
	ID                  int64   `json:"id,omitempty"`
	ProductID           int64   `json:"product_id,omitempty"`
	Title               string  `json:"title,omitempty"`
	Price               string  `json:"price,omitempty"`
	CompareAtPrice      *string `json:"compare_at_price,omitempty"`
	SKU                 string  `json:"sku,omitempty"`
	Barcode             string  `json:"barcode,omitempty"`
	Position            int     `json:"position,omitempty"`
	Option1             *string `json:"option1,omitempty"`
	Option2             *string `json:"option2,omitempty"`
	Option3             *string `json:"option3,omitempty"`
	Grams               int     `json:"grams,omitempty"`
	Weight              float64 `json:"weight,omitempty"`
	WeightUnit          string  `json:"weight_unit,omitempty"`
	Taxable             bool    `json:"taxable"`
	RequiresShipping    bool    `json:"requires_shipping"`
	InventoryItemID     int64   `json:"inventory_item_id,omitempty"`
	InventoryManagement string  `json:"inventory_management,omitempty"`
	InventoryPolicy     string  `json:"inventory_policy,omitempty"`
	InventoryQuantity   int     `json:"inventory_quantity,omitempty"`
	ImageID             *int64  `json:"image_id,omitempty"`
	CreatedAt           string  `json:"created_at,omitempty"`
	UpdatedAt           string  `json:"updated_at,omitempty"`
	AdminGraphQLAPIID   string  `json:"admin_graphql_api_id,omitempty"`
}

// Tracked reports whether Shopify tracks stock for this variant.
func (v *Variant) Tracked() bool {
	return v.InventoryManagement == "shopify"
}

// Location is a warehouse or store location capable of holding stock.
type Location struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// InventoryLevel is one (inventory item, location, quantity) record as
// reported by the platform.
type InventoryLevel struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       int   `json:"available"`
}
