package entity

import "time"

// Product/Variation/SKU statuses
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Product a garment style (e.g. "Anarkali Kurta AK-102")
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:32;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Category    string    `json:"category" gorm:"size:64"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedBy   string    `json:"created_by" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Variations []Variation `json:"variations,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// Variation a colourway of a product
type Variation struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID  string    `json:"product_id" gorm:"size:32;not null;index"`
	Colour     string    `json:"colour" gorm:"size:64;not null"`
	Code       string    `json:"code" gorm:"size:32"`
	Status     string    `json:"status" gorm:"size:16;not null;default:active"`
	BOMCost    *float64  `json:"bom_cost,omitempty" gorm:"type:numeric(15,4)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	SKUs    []SKU    `json:"skus,omitempty" gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
}

func (Variation) TableName() string {
	return "variations"
}

// SKU a sellable size of a variation.
// FabricConsumption is the legacy flat metres-per-piece field still read by
// older reports; the consumption grid keeps it mirrored with the main-fabric
// BOM line.
type SKU struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	VariationID       string    `json:"variation_id" gorm:"size:32;not null;index"`
	Code              string    `json:"code" gorm:"size:48;uniqueIndex"`
	Size              string    `json:"size" gorm:"size:16;not null"`
	Status            string    `json:"status" gorm:"size:16;not null;default:active"`
	MRP               float64   `json:"mrp" gorm:"type:numeric(15,2);default:0"`
	BOMCost           *float64  `json:"bom_cost,omitempty" gorm:"type:numeric(15,4)"`
	FabricConsumption *float64  `json:"fabric_consumption,omitempty" gorm:"type:numeric(10,3)"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Variation *Variation `json:"variation,omitempty" gorm:"foreignKey:VariationID"`
}

func (SKU) TableName() string {
	return "skus"
}
