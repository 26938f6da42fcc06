package models

import "time"

// WeatherSnapshot is the read model produced by one provider fetch. CityName
// carries the canonical spelling reported by the provider, which is what gets
// registered in the city table, not the caller's input.
type WeatherSnapshot struct {
	Description    string    `json:"description"`
	Temperature    float64   `json:"temperature"`
	TemperatureMin float64   `json:"temperature_min"`
	TemperatureMax float64   `json:"temperature_max"`
	Humidity       float64   `json:"humidity"`
	WindSpeed      float64   `json:"wind_speed"`
	CityID         int64     `json:"city_id"`
	CityName       string    `json:"city_name"`
	ObservedAt     time.Time `json:"observed_at"`
}
