package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Haversine3DKm returns the distance between two coordinates in kilometers,
// corrected for the elevation delta between them. Elevations are in meters.
func Haversine3DKm(lat1, lon1, ele1, lat2, lon2, ele2 float64) float64 {
	flatKm := HaversineKm(lat1, lon1, lat2, lon2)
	eleKm := (ele2 - ele1) / 1000
	return math.Sqrt(flatKm*flatKm + eleKm*eleKm)
}
