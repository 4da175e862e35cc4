package entity

import "time"

// ProductBOMTemplate the style-level default for one component role.
// One row per (product, role).
type ProductBOMTemplate struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID      string    `json:"product_id" gorm:"size:32;not null;uniqueIndex:uniq_tpl_product_role"`
	RoleID         string    `json:"role_id" gorm:"size:32;not null;uniqueIndex:uniq_tpl_product_role"`
	Quantity       float64   `json:"quantity" gorm:"type:numeric(15,4);default:1"`
	Unit           string    `json:"unit" gorm:"size:16;default:pcs"`
	WastagePercent float64   `json:"wastage_percent" gorm:"type:numeric(6,2);default:0"`
	TrimItemID     *string   `json:"trim_item_id,omitempty" gorm:"size:32"`
	ServiceItemID  *string   `json:"service_item_id,omitempty" gorm:"size:32"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Product     *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Role        *ComponentRole `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	TrimItem    *TrimItem      `json:"trim_item,omitempty" gorm:"foreignKey:TrimItemID"`
	ServiceItem *ServiceItem   `json:"service_item,omitempty" gorm:"foreignKey:ServiceItemID"`
}

func (ProductBOMTemplate) TableName() string {
	return "product_bom_templates"
}

// VariationBOMLine the colourway-level line for one component role.
// Nil Quantity/WastagePercent inherit from the template. Removing the
// component means deleting the row, never nulling the reference.
type VariationBOMLine struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	VariationID    string    `json:"variation_id" gorm:"size:32;not null;uniqueIndex:uniq_var_line_role"`
	RoleID         string    `json:"role_id" gorm:"size:32;not null;uniqueIndex:uniq_var_line_role"`
	Quantity       *float64  `json:"quantity,omitempty" gorm:"type:numeric(15,4)"`
	WastagePercent *float64  `json:"wastage_percent,omitempty" gorm:"type:numeric(6,2)"`
	FabricColourID *string   `json:"fabric_colour_id,omitempty" gorm:"size:32;index"`
	TrimItemID     *string   `json:"trim_item_id,omitempty" gorm:"size:32"`
	ServiceItemID  *string   `json:"service_item_id,omitempty" gorm:"size:32"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Variation    *Variation     `json:"variation,omitempty" gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
	Role         *ComponentRole `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	FabricColour *FabricColour  `json:"fabric_colour,omitempty" gorm:"foreignKey:FabricColourID"`
	TrimItem     *TrimItem      `json:"trim_item,omitempty" gorm:"foreignKey:TrimItemID"`
	ServiceItem  *ServiceItem   `json:"service_item,omitempty" gorm:"foreignKey:ServiceItemID"`
}

func (VariationBOMLine) TableName() string {
	return "variation_bom_lines"
}

// SKUBOMLine the size-level line for one component role. OverrideCost, when
// set, replaces the whole unit-cost × quantity computation for the line.
type SKUBOMLine struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	SKUID          string    `json:"sku_id" gorm:"size:32;not null;uniqueIndex:uniq_sku_line_role"`
	RoleID         string    `json:"role_id" gorm:"size:32;not null;uniqueIndex:uniq_sku_line_role"`
	Quantity       *float64  `json:"quantity,omitempty" gorm:"type:numeric(15,4)"`
	WastagePercent *float64  `json:"wastage_percent,omitempty" gorm:"type:numeric(6,2)"`
	OverrideCost   *float64  `json:"override_cost,omitempty" gorm:"type:numeric(15,4)"`
	FabricColourID *string   `json:"fabric_colour_id,omitempty" gorm:"size:32;index"`
	TrimItemID     *string   `json:"trim_item_id,omitempty" gorm:"size:32"`
	ServiceItemID  *string   `json:"service_item_id,omitempty" gorm:"size:32"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	SKU          *SKU           `json:"sku,omitempty" gorm:"foreignKey:SKUID;constraint:OnDelete:CASCADE"`
	Role         *ComponentRole `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	FabricColour *FabricColour  `json:"fabric_colour,omitempty" gorm:"foreignKey:FabricColourID"`
	TrimItem     *TrimItem      `json:"trim_item,omitempty" gorm:"foreignKey:TrimItemID"`
	ServiceItem  *ServiceItem   `json:"service_item,omitempty" gorm:"foreignKey:ServiceItemID"`
}

func (SKUBOMLine) TableName() string {
	return "sku_bom_lines"
}
