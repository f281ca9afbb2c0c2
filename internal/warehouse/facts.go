package warehouse

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Fact rows are last-write-wins: re-running a range overwrites the metrics
// for the same grain with freshly computed values.

// UpsertIncidentDaily writes one day/region incident aggregate.
func (s *Store) UpsertIncidentDaily(ctx context.Context, f FactIncidentDaily) error {
	query := s.driver.Rebind(`
		INSERT INTO fact_incident_daily (fact_key, date_key, region_key,
			total_incidents, new_incidents, resolved_incidents, closed_incidents,
			avg_severity, max_severity, min_severity,
			fire_incidents, flood_incidents, accident_incidents, violence_incidents,
			medical_incidents, natural_incidents, other_incidents,
			avg_response_time_minutes, total_response_time_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date_key, region_key) DO UPDATE SET
			total_incidents = excluded.total_incidents,
			new_incidents = excluded.new_incidents,
			resolved_incidents = excluded.resolved_incidents,
			closed_incidents = excluded.closed_incidents,
			avg_severity = excluded.avg_severity,
			max_severity = excluded.max_severity,
			min_severity = excluded.min_severity,
			fire_incidents = excluded.fire_incidents,
			flood_incidents = excluded.flood_incidents,
			accident_incidents = excluded.accident_incidents,
			violence_incidents = excluded.violence_incidents,
			medical_incidents = excluded.medical_incidents,
			natural_incidents = excluded.natural_incidents,
			other_incidents = excluded.other_incidents,
			avg_response_time_minutes = excluded.avg_response_time_minutes,
			total_response_time_minutes = excluded.total_response_time_minutes`)

	_, err := s.q.ExecContext(ctx, query,
		uuid.NewString(), f.DateKey, f.RegionKey,
		f.TotalIncidents, f.NewIncidents, f.ResolvedIncidents, f.ClosedIncidents,
		f.AvgSeverity, f.MaxSeverity, f.MinSeverity,
		f.FireIncidents, f.FloodIncidents, f.AccidentIncidents, f.ViolenceIncidents,
		f.MedicalIncidents, f.NaturalIncidents, f.OtherIncidents,
		f.AvgResponseTimeMinutes, f.TotalResponseTimeMinutes)
	if err != nil {
		return fmt.Errorf("failed to upsert incident daily fact %s/%s: %w", f.DateKey, f.RegionKey, err)
	}
	return nil
}

// UpsertResponse writes one incident/unit response fact. On conflict only
// the timing metrics and outcome are refreshed; the original date, region
// and placeholder counters stand.
func (s *Store) UpsertResponse(ctx context.Context, f FactResponse) error {
	var outcome *string
	if f.Outcome != "" {
		outcome = &f.Outcome
	}

	query := s.driver.Rebind(`
		INSERT INTO fact_response (fact_key, date_key, incident_key, unit_key, region_key,
			dispatch_time_minutes, response_time_minutes, on_scene_time_minutes,
			total_response_time_minutes, outcome, casualties, fatalities,
			unit_distance_km, unit_utilization_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (incident_key, unit_key) DO UPDATE SET
			dispatch_time_minutes = excluded.dispatch_time_minutes,
			response_time_minutes = excluded.response_time_minutes,
			on_scene_time_minutes = excluded.on_scene_time_minutes,
			total_response_time_minutes = excluded.total_response_time_minutes,
			outcome = excluded.outcome`)

	_, err := s.q.ExecContext(ctx, query,
		uuid.NewString(), f.DateKey, f.IncidentKey, f.UnitKey, f.RegionKey,
		f.DispatchTimeMinutes, f.ResponseTimeMinutes, f.OnSceneTimeMinutes,
		f.TotalResponseTimeMinutes, outcome, f.Casualties, f.Fatalities,
		f.UnitDistanceKM, f.UnitUtilizationHours)
	if err != nil {
		return fmt.Errorf("failed to upsert response fact %s/%s: %w", f.IncidentKey, f.UnitKey, err)
	}
	return nil
}

// UpsertShelterUtilization writes one day/region shelter aggregate.
func (s *Store) UpsertShelterUtilization(ctx context.Context, f FactShelterUtilization) error {
	query := s.driver.Rebind(`
		INSERT INTO fact_shelter_utilization (fact_key, date_key, region_key,
			total_shelters, active_shelters, total_capacity, total_occupancy,
			avg_occupancy_rate, emergency_shelters, temporary_shelters, medical_shelters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date_key, region_key) DO UPDATE SET
			total_shelters = excluded.total_shelters,
			active_shelters = excluded.active_shelters,
			total_capacity = excluded.total_capacity,
			total_occupancy = excluded.total_occupancy,
			avg_occupancy_rate = excluded.avg_occupancy_rate,
			emergency_shelters = excluded.emergency_shelters,
			temporary_shelters = excluded.temporary_shelters,
			medical_shelters = excluded.medical_shelters`)

	_, err := s.q.ExecContext(ctx, query,
		uuid.NewString(), f.DateKey, f.RegionKey,
		f.TotalShelters, f.ActiveShelters, f.TotalCapacity, f.TotalOccupancy,
		f.AvgOccupancyRate, f.EmergencyShelters, f.TemporaryShelters, f.MedicalShelters)
	if err != nil {
		return fmt.Errorf("failed to upsert shelter fact %s/%s: %w", f.DateKey, f.RegionKey, err)
	}
	return nil
}

// UpsertInventory writes one day/region inventory aggregate.
func (s *Store) UpsertInventory(ctx context.Context, f FactInventory) error {
	query := s.driver.Rebind(`
		INSERT INTO fact_inventory (fact_key, date_key, region_key,
			total_items, low_stock_items, out_of_stock_items,
			food_water_items, medical_items, hygiene_items, clothing_items, tool_items,
			items_distributed, items_restocked, items_expired)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date_key, region_key) DO UPDATE SET
			total_items = excluded.total_items,
			low_stock_items = excluded.low_stock_items,
			out_of_stock_items = excluded.out_of_stock_items,
			food_water_items = excluded.food_water_items,
			medical_items = excluded.medical_items,
			hygiene_items = excluded.hygiene_items,
			clothing_items = excluded.clothing_items,
			tool_items = excluded.tool_items`)

	_, err := s.q.ExecContext(ctx, query,
		uuid.NewString(), f.DateKey, f.RegionKey,
		f.TotalItems, f.LowStockItems, f.OutOfStockItems,
		f.FoodWaterItems, f.MedicalItems, f.HygieneItems, f.ClothingItems, f.ToolItems,
		f.ItemsDistributed, f.ItemsRestocked, f.ItemsExpired)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory fact %s/%s: %w", f.DateKey, f.RegionKey, err)
	}
	return nil
}
