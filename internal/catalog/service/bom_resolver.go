package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/vastralabs/karkhana/internal/catalog/entity"
	"github.com/vastralabs/karkhana/internal/catalog/repository"
)

// TierSource records which tier supplied a resolved value
type TierSource string

const (
	SourceSKU       TierSource = "sku"
	SourceVariation TierSource = "variation"
	SourceTemplate  TierSource = "template"
	SourceDefault   TierSource = "default"
)

// CostSource marks whether a total came from the cached column or a live sum
type CostSource string

const (
	CostSourceCached CostSource = "cached"
	CostSourceLive   CostSource = "live"
)

// ResolvedValue a numeric field together with the tier that supplied it
type ResolvedValue struct {
	Value  float64    `json:"value"`
	Source TierSource `json:"source"`
}

// SKUSpread per-role quantity and cost spread across a variation's SKUs
type SKUSpread struct {
	MinQty   float64 `json:"min_qty"`
	MaxQty   float64 `json:"max_qty"`
	AvgCost  float64 `json:"avg_cost"`
	SKUCount int     `json:"sku_count"`
}

// ResolvedBOMLine one component role of a variation, fully merged
type ResolvedBOMLine struct {
	RoleID         string        `json:"role_id"`
	RoleCode       string        `json:"role_code"`
	RoleName       string        `json:"role_name"`
	ComponentType  string        `json:"component_type"`
	ComponentID    string        `json:"component_id,omitempty"`
	ComponentName  string        `json:"component_name,omitempty"`
	Unit           string        `json:"unit"`
	Quantity       ResolvedValue `json:"quantity"`
	WastagePercent ResolvedValue `json:"wastage_percent"`
	EffectiveQty   float64       `json:"effective_qty"`
	UnitCost       float64       `json:"unit_cost"`
	LineCost       float64       `json:"line_cost"`
	SKUSpread      *SKUSpread    `json:"sku_spread,omitempty"`
	Notes          string        `json:"notes,omitempty"`
}

// ResolvedBOM the full costed BOM of a variation
type ResolvedBOM struct {
	VariationID string            `json:"variation_id"`
	ProductID   string            `json:"product_id"`
	Lines       []ResolvedBOMLine `json:"lines"`
	TotalCost   float64           `json:"total_cost"`
	CostSource  CostSource        `json:"cost_source"`
}

// ResolvedSKUBOM the full costed BOM of one SKU
type ResolvedSKUBOM struct {
	SKUID       string            `json:"sku_id"`
	VariationID string            `json:"variation_id"`
	Lines       []ResolvedBOMLine `json:"lines"`
	TotalCost   float64           `json:"total_cost"`
	CostSource  CostSource        `json:"cost_source"`
}

// ========== pure resolution helpers ==========

// resolveQuantity walks SKU → variation → template, defaulting to zero
func resolveQuantity(tpl *entity.ProductBOMTemplate, varLine *entity.VariationBOMLine, skuLine *entity.SKUBOMLine) ResolvedValue {
	if skuLine != nil && skuLine.Quantity != nil {
		return ResolvedValue{Value: *skuLine.Quantity, Source: SourceSKU}
	}
	if varLine != nil && varLine.Quantity != nil {
		return ResolvedValue{Value: *varLine.Quantity, Source: SourceVariation}
	}
	if tpl != nil {
		return ResolvedValue{Value: tpl.Quantity, Source: SourceTemplate}
	}
	return ResolvedValue{Value: 0, Source: SourceDefault}
}

// resolveWastage walks SKU → variation → template, defaulting to zero
func resolveWastage(tpl *entity.ProductBOMTemplate, varLine *entity.VariationBOMLine, skuLine *entity.SKUBOMLine) ResolvedValue {
	if skuLine != nil && skuLine.WastagePercent != nil {
		return ResolvedValue{Value: *skuLine.WastagePercent, Source: SourceSKU}
	}
	if varLine != nil && varLine.WastagePercent != nil {
		return ResolvedValue{Value: *varLine.WastagePercent, Source: SourceVariation}
	}
	if tpl != nil {
		return ResolvedValue{Value: tpl.WastagePercent, Source: SourceTemplate}
	}
	return ResolvedValue{Value: 0, Source: SourceDefault}
}

// effectiveQuantity applies the wastage factor to the base quantity
func effectiveQuantity(quantity, wastagePercent float64) float64 {
	return quantity * (1 + wastagePercent/100)
}

// lineCost computes a single merged line's cost. A SKU override cost replaces
// the whole unit-cost computation.
func lineCost(unitCost, quantity, wastagePercent float64, overrideCost *float64) float64 {
	if overrideCost != nil {
		return *overrideCost
	}
	return unitCost * effectiveQuantity(quantity, wastagePercent)
}

// componentInfo the cheapest assigned component wins by tier: SKU line,
// then variation line, then template (trim/service only at template level)
func componentInfo(tpl *entity.ProductBOMTemplate, varLine *entity.VariationBOMLine, skuLine *entity.SKUBOMLine) (id, name string, unitCost float64) {
	if skuLine != nil {
		if skuLine.FabricColour != nil {
			fc := skuLine.FabricColour
			return fc.ID, fabricColourName(fc), fc.UnitCost()
		}
		if skuLine.TrimItem != nil {
			return skuLine.TrimItem.ID, skuLine.TrimItem.Name, skuLine.TrimItem.CostPerUnit
		}
		if skuLine.ServiceItem != nil {
			return skuLine.ServiceItem.ID, skuLine.ServiceItem.Name, skuLine.ServiceItem.CostPerJob
		}
	}
	if varLine != nil {
		if varLine.FabricColour != nil {
			fc := varLine.FabricColour
			return fc.ID, fabricColourName(fc), fc.UnitCost()
		}
		if varLine.TrimItem != nil {
			return varLine.TrimItem.ID, varLine.TrimItem.Name, varLine.TrimItem.CostPerUnit
		}
		if varLine.ServiceItem != nil {
			return varLine.ServiceItem.ID, varLine.ServiceItem.Name, varLine.ServiceItem.CostPerJob
		}
	}
	if tpl != nil {
		if tpl.TrimItem != nil {
			return tpl.TrimItem.ID, tpl.TrimItem.Name, tpl.TrimItem.CostPerUnit
		}
		if tpl.ServiceItem != nil {
			return tpl.ServiceItem.ID, tpl.ServiceItem.Name, tpl.ServiceItem.CostPerJob
		}
	}
	return "", "", 0
}

func fabricColourName(fc *entity.FabricColour) string {
	if fc.Fabric != nil {
		return fc.Fabric.Name + " / " + fc.Colour
	}
	return fc.Colour
}

// mergeLine builds the resolved line for one role from the three tiers
func mergeLine(role *entity.ComponentRole, tpl *entity.ProductBOMTemplate, varLine *entity.VariationBOMLine, skuLine *entity.SKUBOMLine) ResolvedBOMLine {
	qty := resolveQuantity(tpl, varLine, skuLine)
	wastage := resolveWastage(tpl, varLine, skuLine)
	componentID, componentName, unitCost := componentInfo(tpl, varLine, skuLine)

	var overrideCost *float64
	notes := ""
	if skuLine != nil {
		overrideCost = skuLine.OverrideCost
		notes = skuLine.Notes
	}
	if notes == "" && varLine != nil {
		notes = varLine.Notes
	}
	if notes == "" && tpl != nil {
		notes = tpl.Notes
	}

	unit := role.DefaultUnit
	if tpl != nil && tpl.Unit != "" {
		unit = tpl.Unit
	}

	return ResolvedBOMLine{
		RoleID:         role.ID,
		RoleCode:       role.Code,
		RoleName:       role.Name,
		ComponentType:  role.ComponentType,
		ComponentID:    componentID,
		ComponentName:  componentName,
		Unit:           unit,
		Quantity:       qty,
		WastagePercent: wastage,
		EffectiveQty:   effectiveQuantity(qty.Value, wastage.Value),
		UnitCost:       unitCost,
		LineCost:       lineCost(unitCost, qty.Value, wastage.Value, overrideCost),
		Notes:          notes,
	}
}

// ========== resolver ==========

// BOMResolver merges the three tiers into costed BOMs. Read-only: never
// writes cached costs (that is the recalc service's job).
type BOMResolver struct {
	bomRepo     *repository.BOMRepository
	productRepo *repository.ProductRepository
	roleRepo    *repository.RoleRepository
}

// NewBOMResolver creates a BOM resolver
func NewBOMResolver(bomRepo *repository.BOMRepository, productRepo *repository.ProductRepository, roleRepo *repository.RoleRepository) *BOMResolver {
	return &BOMResolver{
		bomRepo:     bomRepo,
		productRepo: productRepo,
		roleRepo:    roleRepo,
	}
}

// ResolveVariation merges template, variation and SKU tiers for every role
// the product's template declares. The cached variation cost is preferred for
// the total; a live sum serves until the recalc cascade has caught up.
func (r *BOMResolver) ResolveVariation(ctx context.Context, variationID string) (*ResolvedBOM, error) {
	variation, err := r.productRepo.FindVariationByID(ctx, variationID)
	if err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}

	lines, liveTotal, err := r.buildVariationLines(ctx, variation)
	if err != nil {
		return nil, err
	}

	result := &ResolvedBOM{
		VariationID: variation.ID,
		ProductID:   variation.ProductID,
		Lines:       lines,
		TotalCost:   liveTotal,
		CostSource:  CostSourceLive,
	}
	if variation.BOMCost != nil {
		result.TotalCost = *variation.BOMCost
		result.CostSource = CostSourceCached
	}
	return result, nil
}

// ResolveSKU merges all three tiers for a single SKU
func (r *BOMResolver) ResolveSKU(ctx context.Context, skuID string) (*ResolvedSKUBOM, error) {
	sku, err := r.productRepo.FindSKUByID(ctx, skuID)
	if err != nil {
		return nil, fmt.Errorf("find sku: %w", err)
	}
	variation, err := r.productRepo.FindVariationByID(ctx, sku.VariationID)
	if err != nil {
		return nil, fmt.Errorf("find variation: %w", err)
	}

	lines, liveTotal, err := r.buildSKULines(ctx, variation, sku)
	if err != nil {
		return nil, err
	}

	result := &ResolvedSKUBOM{
		SKUID:       sku.ID,
		VariationID: sku.VariationID,
		Lines:       lines,
		TotalCost:   liveTotal,
		CostSource:  CostSourceLive,
	}
	if sku.BOMCost != nil {
		result.TotalCost = *sku.BOMCost
		result.CostSource = CostSourceCached
	}
	return result, nil
}

// ComputeVariationCost live-computes the variation total, ignoring caches.
// Used by the recalc cascade.
func (r *BOMResolver) ComputeVariationCost(ctx context.Context, variationID string) (float64, error) {
	variation, err := r.productRepo.FindVariationByID(ctx, variationID)
	if err != nil {
		return 0, fmt.Errorf("find variation: %w", err)
	}
	_, total, err := r.buildVariationLines(ctx, variation)
	return total, err
}

// ComputeSKUCost live-computes one SKU's total, ignoring caches
func (r *BOMResolver) ComputeSKUCost(ctx context.Context, skuID string) (float64, error) {
	sku, err := r.productRepo.FindSKUByID(ctx, skuID)
	if err != nil {
		return 0, fmt.Errorf("find sku: %w", err)
	}
	variation, err := r.productRepo.FindVariationByID(ctx, sku.VariationID)
	if err != nil {
		return 0, fmt.Errorf("find variation: %w", err)
	}
	_, total, err := r.buildSKULines(ctx, variation, sku)
	return total, err
}

func (r *BOMResolver) buildVariationLines(ctx context.Context, variation *entity.Variation) ([]ResolvedBOMLine, float64, error) {
	tpls, err := r.bomRepo.ListTemplates(ctx, variation.ProductID)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	varLines, err := r.bomRepo.ListVariationLines(ctx, variation.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list variation lines: %w", err)
	}
	skuLines, err := r.bomRepo.ListSKULinesForVariation(ctx, variation.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list sku lines: %w", err)
	}
	skus, err := r.productRepo.ListActiveSKUs(ctx, variation.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list skus: %w", err)
	}

	varByRole := make(map[string]*entity.VariationBOMLine, len(varLines))
	for i := range varLines {
		varByRole[varLines[i].RoleID] = &varLines[i]
	}
	lineByRoleSKU := make(map[string]map[string]*entity.SKUBOMLine)
	for i := range skuLines {
		sl := &skuLines[i]
		if lineByRoleSKU[sl.RoleID] == nil {
			lineByRoleSKU[sl.RoleID] = make(map[string]*entity.SKUBOMLine)
		}
		lineByRoleSKU[sl.RoleID][sl.SKUID] = sl
	}

	sortTemplatesByRole(tpls)

	var lines []ResolvedBOMLine
	var total float64
	for i := range tpls {
		tpl := &tpls[i]
		if tpl.Role == nil {
			continue
		}
		line := mergeLine(tpl.Role, tpl, varByRole[tpl.RoleID], nil)

		// any SKU-tier line makes sizes diverge: spread over every SKU of
		// the variation, lineless SKUs inheriting from the lower tiers
		if roleLines := lineByRoleSKU[tpl.RoleID]; len(roleLines) > 0 && len(skus) > 0 {
			perSKU := make([]*entity.SKUBOMLine, len(skus))
			for j := range skus {
				perSKU[j] = roleLines[skus[j].ID]
			}
			spread := buildSKUSpread(tpl, varByRole[tpl.RoleID], perSKU)
			line.SKUSpread = &spread
			line.LineCost = spread.AvgCost
		}

		total += line.LineCost
		lines = append(lines, line)
	}
	return lines, total, nil
}

func (r *BOMResolver) buildSKULines(ctx context.Context, variation *entity.Variation, sku *entity.SKU) ([]ResolvedBOMLine, float64, error) {
	tpls, err := r.bomRepo.ListTemplates(ctx, variation.ProductID)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	varLines, err := r.bomRepo.ListVariationLines(ctx, variation.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list variation lines: %w", err)
	}
	skuLines, err := r.bomRepo.ListSKULines(ctx, sku.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("list sku lines: %w", err)
	}

	varByRole := make(map[string]*entity.VariationBOMLine, len(varLines))
	for i := range varLines {
		varByRole[varLines[i].RoleID] = &varLines[i]
	}
	skuByRole := make(map[string]*entity.SKUBOMLine, len(skuLines))
	for i := range skuLines {
		skuByRole[skuLines[i].RoleID] = &skuLines[i]
	}

	sortTemplatesByRole(tpls)

	var lines []ResolvedBOMLine
	var total float64
	for i := range tpls {
		tpl := &tpls[i]
		if tpl.Role == nil {
			continue
		}
		line := mergeLine(tpl.Role, tpl, varByRole[tpl.RoleID], skuByRole[tpl.RoleID])
		total += line.LineCost
		lines = append(lines, line)
	}
	return lines, total, nil
}

// buildSKUSpread summarises one role across a variation's SKUs: quantity
// bounds over the base (pre-wastage) quantities and the mean of per-SKU line
// costs. skuLines carries one entry per SKU, nil for SKUs without an own
// line, so inheriting sizes still count into the bounds and the average.
func buildSKUSpread(tpl *entity.ProductBOMTemplate, varLine *entity.VariationBOMLine, skuLines []*entity.SKUBOMLine) SKUSpread {
	spread := SKUSpread{SKUCount: len(skuLines)}
	var costSum float64
	for i, sl := range skuLines {
		qty := resolveQuantity(tpl, varLine, sl)
		wastage := resolveWastage(tpl, varLine, sl)
		_, _, unitCost := componentInfo(tpl, varLine, sl)
		var overrideCost *float64
		if sl != nil {
			overrideCost = sl.OverrideCost
		}
		cost := lineCost(unitCost, qty.Value, wastage.Value, overrideCost)
		costSum += cost

		if i == 0 || qty.Value < spread.MinQty {
			spread.MinQty = qty.Value
		}
		if i == 0 || qty.Value > spread.MaxQty {
			spread.MaxQty = qty.Value
		}
	}
	spread.AvgCost = costSum / float64(len(skuLines))
	return spread
}

func sortTemplatesByRole(tpls []entity.ProductBOMTemplate) {
	sort.SliceStable(tpls, func(i, j int) bool {
		ri, rj := tpls[i].Role, tpls[j].Role
		if ri == nil || rj == nil {
			return ri != nil
		}
		if ri.SortOrder != rj.SortOrder {
			return ri.SortOrder < rj.SortOrder
		}
		return ri.Code < rj.Code
	})
}
