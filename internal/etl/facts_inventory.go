package etl

import (
	"context"
	"time"

	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// buildInventoryFacts samples current stock levels per region and writes
// the same aggregate for every day in the range, mirroring the shelter
// fact's current-state sampling.
func (p *Processor) buildInventoryFacts(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	stocks, err := p.source.StockLevels(ctx)
	if err != nil {
		return err
	}

	byArea := make(map[string][]operational.StockRecord)
	for _, rec := range stocks {
		byArea[rec.AreaCode] = append(byArea[rec.AreaCode], rec)
	}

	upserted := 0
	for areaCode, regionStocks := range byArea {
		regionKey, ok := st.regionKeys[areaCode]
		if !ok {
			p.logger.Warn("stock area has no region dimension, skipping", "area", areaCode)
			continue
		}

		fact := aggregateStock(regionStocks)
		fact.RegionKey = regionKey

		err := eachDay(start, end, func(day time.Time) error {
			fact.DateKey = warehouse.DateKey(day)
			if err := ts.UpsertInventory(ctx, fact); err != nil {
				return err
			}
			upserted++
			return nil
		})
		if err != nil {
			return err
		}
	}

	st.factsUpserted += upserted
	p.metrics.RowsUpserted("fact_inventory", upserted)
	p.logger.Debug("inventory facts written", "rows", upserted)
	return nil
}

func aggregateStock(stocks []operational.StockRecord) warehouse.FactInventory {
	var f warehouse.FactInventory

	for _, rec := range stocks {
		f.TotalItems += rec.Quantity
		if rec.IsLowStock() {
			f.LowStockItems++
		}
		if rec.Quantity == 0 {
			f.OutOfStockItems++
		}

		switch rec.ItemCategory {
		case operational.ItemFood:
			f.FoodWaterItems += rec.Quantity
		case operational.ItemMedical:
			f.MedicalItems += rec.Quantity
		case operational.ItemHygiene:
			f.HygieneItems += rec.Quantity
		case operational.ItemClothing:
			f.ClothingItems += rec.Quantity
		case operational.ItemTools:
			f.ToolItems += rec.Quantity
		}
	}
	return f
}
