package types

// Observation is one row of the measurement table. A station has at most one
// row per day in the bundled dataset, but (Station, Date) is not enforced unique.
type Observation struct {
	Station       string   `json:"station"`
	Date          string   `json:"date"`
	Precipitation *float64 `json:"prcp"`
	Temperature   *float64 `json:"tobs"`
}

// Station is a reporting site. The roster is the distinct Observation.Station values.
type Station struct {
	ID string `json:"station"`
}

type PrecipitationReading struct {
	Date          string
	Precipitation *float64
}

type TemperatureObservation struct {
	Date        string   `json:"date"`
	Temperature *float64 `json:"tobs"`
}

// TemperatureStats holds aggregate temperatures. All fields are nil when no
// rows matched.
type TemperatureStats struct {
	Min *float64 `json:"TMIN"`
	Avg *float64 `json:"TAVG"`
	Max *float64 `json:"TMAX"`
}

type StationActivity struct {
	Station      string `json:"station"`
	Observations int    `json:"count"`
}

// DateRange is an inclusive YYYY-MM-DD range. An empty End leaves it open.
type DateRange struct {
	Start string
	End   string
}
