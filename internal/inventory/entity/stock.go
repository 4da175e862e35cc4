package entity

import "time"

// Movement kinds
const (
	MovementIn     = "in"
	MovementOut    = "out"
	MovementAdjust = "adjust"
)

// Material kinds a stock row can track
const (
	MaterialKindFabricColour = "fabric_colour"
	MaterialKindTrim         = "trim"
)

// Supplier a material supplier
type Supplier struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Code          string    `json:"code" gorm:"size:32;uniqueIndex"`
	Name          string    `json:"name" gorm:"size:128;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:64"`
	Phone         string    `json:"phone" gorm:"size:20"`
	Email         string    `json:"email" gorm:"size:128"`
	Address       string    `json:"address" gorm:"size:256"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// MaterialStock on-hand quantity for one fabric colour or trim item
type MaterialStock struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	MaterialKind string    `json:"material_kind" gorm:"size:16;not null;uniqueIndex:uniq_stock_material"`
	MaterialID   string    `json:"material_id" gorm:"size:32;not null;uniqueIndex:uniq_stock_material"`
	SupplierID   *string   `json:"supplier_id,omitempty" gorm:"size:32;index"`
	OnHand       float64   `json:"on_hand" gorm:"type:numeric(15,4);default:0"`
	Unit         string    `json:"unit" gorm:"size:16;default:metres"`
	ReorderLevel float64   `json:"reorder_level" gorm:"type:numeric(15,4);default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (MaterialStock) TableName() string {
	return "material_stocks"
}

// StockMovement one in/out/adjust record against a stock row
type StockMovement struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	StockID   string    `json:"stock_id" gorm:"size:32;not null;index"`
	Kind      string    `json:"kind" gorm:"size:8;not null"`
	Quantity  float64   `json:"quantity" gorm:"type:numeric(15,4);not null"`
	Reference string    `json:"reference" gorm:"size:64"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

// MaterialDocument an uploaded swatch or spec sheet stored in object storage
type MaterialDocument struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	MaterialKind string    `json:"material_kind" gorm:"size:16;not null;index:idx_doc_material"`
	MaterialID   string    `json:"material_id" gorm:"size:32;not null;index:idx_doc_material"`
	FileName     string    `json:"file_name" gorm:"size:256"`
	FilePath     string    `json:"file_path" gorm:"size:512"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type" gorm:"size:128"`
	UploadedBy   string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MaterialDocument) TableName() string {
	return "material_documents"
}
