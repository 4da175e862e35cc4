package entity

import "time"

// Fabric a purchasable cloth (e.g. "Rayon Slub 140gsm")
type Fabric struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:32;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Composition string    `json:"composition" gorm:"size:128"`
	GSM         int       `json:"gsm" gorm:"default:0"`
	Unit        string    `json:"unit" gorm:"size:16;default:m"`
	CostPerUnit float64   `json:"cost_per_unit" gorm:"type:numeric(15,4);default:0"`
	SupplierID  string    `json:"supplier_id" gorm:"size:32;index"`
	Status      string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Colours []FabricColour `json:"colours,omitempty" gorm:"foreignKey:FabricID;constraint:OnDelete:CASCADE"`
}

func (Fabric) TableName() string {
	return "fabrics"
}

// FabricColour a dyed/printed colour of a fabric. CostPerUnit of zero means
// the parent fabric's cost applies.
type FabricColour struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	FabricID    string    `json:"fabric_id" gorm:"size:32;not null;index"`
	Colour      string    `json:"colour" gorm:"size:64;not null"`
	ColourCode  string    `json:"colour_code" gorm:"size:32"`
	CostPerUnit *float64  `json:"cost_per_unit,omitempty" gorm:"type:numeric(15,4)"`
	SwatchPath  string    `json:"swatch_path,omitempty" gorm:"size:512"`
	Status      string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Fabric *Fabric `json:"fabric,omitempty" gorm:"foreignKey:FabricID"`
}

func (FabricColour) TableName() string {
	return "fabric_colours"
}

// UnitCost resolves the effective per-unit cost, falling back to the parent
// fabric when the colour has no own cost.
func (fc *FabricColour) UnitCost() float64 {
	if fc.CostPerUnit != nil {
		return *fc.CostPerUnit
	}
	if fc.Fabric != nil {
		return fc.Fabric.CostPerUnit
	}
	return 0
}

// TrimItem buttons, zippers, labels, threads
type TrimItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:32;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Unit        string    `json:"unit" gorm:"size:16;default:pcs"`
	CostPerUnit float64   `json:"cost_per_unit" gorm:"type:numeric(15,4);default:0"`
	SupplierID  string    `json:"supplier_id" gorm:"size:32;index"`
	Status      string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TrimItem) TableName() string {
	return "trim_items"
}

// ServiceItem job-work operations (stitching, printing, embroidery, washing)
type ServiceItem struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Code       string    `json:"code" gorm:"size:32;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	CostPerJob float64   `json:"cost_per_job" gorm:"type:numeric(15,4);default:0"`
	VendorID   string    `json:"vendor_id" gorm:"size:32;index"`
	Status     string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ServiceItem) TableName() string {
	return "service_items"
}
