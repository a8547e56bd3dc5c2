package rediscache

import "fmt"

const keyPrefix = "occupeye"

const (
	AccessTokenKey       = keyPrefix + ":access_token"
	AccessTokenExpiryKey = keyPrefix + ":access_token_expiry"
	SurveysKey           = keyPrefix + ":surveys"
)

func SurveyKey(surveyID string) string {
	return fmt.Sprintf("%s:%s", SurveysKey, surveyID)
}

func SurveyMapsKey(surveyID string) string {
	return SurveyKey(surveyID) + ":maps"
}

func MapKey(surveyID, mapID string) string {
	return fmt.Sprintf("%s:%s", SurveyMapsKey(surveyID), mapID)
}

func SurveySensorsKey(surveyID string) string {
	return SurveyKey(surveyID) + ":sensors"
}

func SensorDataKey(surveyID, hardwareID string) string {
	return fmt.Sprintf("%s:%s:data", SurveySensorsKey(surveyID), hardwareID)
}

func SensorStatusKey(surveyID, hardwareID string) string {
	return fmt.Sprintf("%s:%s:status", SurveySensorsKey(surveyID), hardwareID)
}

func MapSensorsKey(surveyID, mapID string) string {
	return MapKey(surveyID, mapID) + ":sensors"
}

func SensorPropertiesKey(surveyID, mapID, hardwareID string) string {
	return fmt.Sprintf("%s:%s:properties", MapSensorsKey(surveyID, mapID), hardwareID)
}

func ImageDataKey(imageID string) string {
	return fmt.Sprintf("%s:image:%s:base64", keyPrefix, imageID)
}

func ImageContentTypeKey(imageID string) string {
	return fmt.Sprintf("%s:image:%s:content_type", keyPrefix, imageID)
}
