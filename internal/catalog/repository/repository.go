package repository

import "gorm.io/gorm"

// Repositories catalog repository collection
type Repositories struct {
	Role      *RoleRepository
	Product   *ProductRepository
	Component *ComponentRepository
	BOM       *BOMRepository
}

// NewRepositories creates the catalog repository collection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Role:      NewRoleRepository(db),
		Product:   NewProductRepository(db),
		Component: NewComponentRepository(db),
		BOM:       NewBOMRepository(db),
	}
}
