package upstream

// Wire shapes of the occupancy API. Field names are upstream-defined.

type Survey struct {
	SurveyID  int    `json:"SurveyID"`
	Active    bool   `json:"Active"`
	Name      string `json:"Name"`
	StartTime string `json:"StartTime"`
	EndTime   string `json:"EndTime"`
}

type Map struct {
	MapID   int    `json:"MapID"`
	MapName string `json:"MapName"`
	ImageID int    `json:"ImageID"`
}

type SensorLatest struct {
	HardwareID      int    `json:"HardwareID"`
	SensorID        int    `json:"SensorID"`
	LastTriggerType string `json:"LastTriggerType"`
	LastTriggerTime string `json:"LastTriggerTime"`
}

type MapItem struct {
	HardwareID int `json:"HardwareID"`
	X          int `json:"X"`
	Y          int `json:"Y"`
}

type MapLayout struct {
	MapItemViewModels []MapItem `json:"MapItemViewModels"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
