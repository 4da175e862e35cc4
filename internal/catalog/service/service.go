package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services catalog service collection
type Services struct {
	Role          *RoleService
	Product       *ProductService
	Component     *ComponentService
	BOM           *BOMService
	Resolver      *BOMResolver
	Recalc        *RecalcService
	FabricMapping *FabricMappingService
	Consumption   *ConsumptionService
}

// NewServices wires the catalog services
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *Services {
	resolver := NewBOMResolver(repos.BOM, repos.Product, repos.Role)
	recalc := NewRecalcService(resolver, repos.Product, logger)
	roleSvc := NewRoleService(repos.Role, recalc, rdb)

	return &Services{
		Role:          roleSvc,
		Product:       NewProductService(repos.Product, recalc),
		Component:     NewComponentService(repos.Component),
		BOM:           NewBOMService(repos.BOM, repos.Product, repos.Role, repos.Component, recalc),
		Resolver:      resolver,
		Recalc:        recalc,
		FabricMapping: NewFabricMappingService(db, repos.Product, repos.Component, roleSvc, recalc),
		Consumption:   NewConsumptionService(db, repos.BOM, repos.Product, roleSvc, recalc, logger),
	}
}
