package domain

import (
	"math"

	commissionsdomain "sparrow-parcel/internal/features/commissions/domain"
	deliverydomain "sparrow-parcel/internal/features/deliveries/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Per-unit rates for the payout formula.
const (
	earthRadiusKm = 6371.0
	ratePerKg     = 10.0
	ratePerKm     = 5.0

	urgentMultiplier = 1.5
	highMultiplier   = 1.2
)

// FallbackBaseAmount is the default payout base for a route type, used when
// commission settings carry no base amount.
func FallbackBaseAmount(deliveryType string) float64 {
	switch deliveryType {
	case deliverydomain.TypeWarehouseToWarehouse:
		return 50
	case deliverydomain.TypeWarehouseToAddress:
		return 100
	case deliverydomain.TypeAddressToWarehouse:
		return 75
	}
	return 0
}

// EstimatedDistanceKm is the route-type estimate used when the status history
// carries no usable coordinates.
func EstimatedDistanceKm(deliveryType string) float64 {
	switch deliveryType {
	case deliverydomain.TypeWarehouseToWarehouse:
		return 10
	case deliverydomain.TypeWarehouseToAddress:
		return 15
	case deliverydomain.TypeAddressToWarehouse:
		return 12
	}
	return 0
}

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// DistanceFromHistory sums the distances between consecutive status history
// entries that both carry nonzero coordinates.
func DistanceFromHistory(history []deliverydomain.StatusHistoryEntry) float64 {
	var distance float64
	for i := 1; i < len(history); i++ {
		loc1 := history[i-1].Location
		loc2 := history[i].Location
		if loc1 == nil || loc2 == nil {
			continue
		}
		if loc1.Latitude == 0 || loc1.Longitude == 0 || loc2.Latitude == 0 || loc2.Longitude == 0 {
			continue
		}
		distance += Haversine(loc1.Latitude, loc1.Longitude, loc2.Latitude, loc2.Longitude)
	}
	return distance
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// DeliveryBaseAmount computes the payout base for a delivery from the carried
// items' weight, the travelled (or estimated) distance and the priority.
// settings may be nil.
func DeliveryBaseAmount(delivery *deliverydomain.Delivery, items []*parceldomain.Parcel, settings *commissionsdomain.Settings) float64 {
	var baseAmount float64
	if settings != nil && settings.BaseAmount > 0 {
		baseAmount = settings.BaseAmount
	} else {
		baseAmount = FallbackBaseAmount(delivery.DeliveryType)
	}

	var totalWeight float64
	for _, item := range items {
		totalWeight += item.Weight.Value
	}
	baseAmount += totalWeight * ratePerKg

	distance := DistanceFromHistory(delivery.StatusHistory)
	if distance == 0 {
		distance = EstimatedDistanceKm(delivery.DeliveryType)
	}
	baseAmount += distance * ratePerKm

	switch delivery.Priority {
	case deliverydomain.PriorityUrgent:
		baseAmount *= urgentMultiplier
	case deliverydomain.PriorityHigh:
		baseAmount *= highMultiplier
	}

	return Round2(baseAmount)
}
