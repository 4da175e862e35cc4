package entity

import "time"

// Component types for BOM roles
const (
	ComponentTypeFabric  = "FABRIC"
	ComponentTypeTrim    = "TRIM"
	ComponentTypeService = "SERVICE"
)

// Well-known role codes
const (
	RoleCodeMainFabric = "main_fabric"
)

// ComponentRole a named slot in a garment BOM (main fabric, lining, buttons, stitching...)
type ComponentRole struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Code            string    `json:"code" gorm:"size:50;not null;uniqueIndex:uniq_role_code_type"`
	Name            string    `json:"name" gorm:"size:100;not null"`
	ComponentType   string    `json:"component_type" gorm:"size:16;not null;uniqueIndex:uniq_role_code_type"`
	Required        bool      `json:"required" gorm:"default:false"`
	AllowMultiple   bool      `json:"allow_multiple" gorm:"default:false"`
	DefaultQuantity float64   `json:"default_quantity" gorm:"type:numeric(15,4);default:1"`
	DefaultUnit     string    `json:"default_unit" gorm:"size:16;default:pcs"`
	SortOrder       int       `json:"sort_order" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (ComponentRole) TableName() string {
	return "component_roles"
}
