// FilePath: internal/models/models.survey.go
package models

// Survey is a monitored building or area. Maps keep upstream order.
type Survey struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Maps      []Map  `json:"maps"`
}

// Map is a floor or wing of a survey.
type Map struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	ImageID int    `json:"image_id"`
}

// MapSensors is a map together with the sensors placed on it.
type MapSensors struct {
	Map
	Sensors *SensorSet `json:"sensors"`
}

// SurveySensors is the denormalized answer for a survey sensor query.
type SurveySensors struct {
	Maps []MapSensors `json:"maps"`
}
