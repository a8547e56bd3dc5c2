// Package notify fans refresh events out to interested listeners.
package notify

import (
	nuts "github.com/vaudience/go-nuts"
)

// Refresh events. The argument passed to listeners is the id of the
// refreshed entity, or "" for deployment-wide refreshes.
const (
	SurveysRefreshed      = "surveys.refreshed"
	MapsRefreshed         = "maps.refreshed"
	SensorStatesRefreshed = "sensor_states.refreshed"
	MapSensorsRefreshed   = "map_sensors.refreshed"
	ImageCached           = "image.cached"
	TokenRefreshed        = "token.refreshed"
)

// Events lists every event the populators emit.
var Events = []string{
	SurveysRefreshed,
	MapsRefreshed,
	SensorStatesRefreshed,
	MapSensorsRefreshed,
	ImageCached,
	TokenRefreshed,
}

// Notifier coordinates refresh notifications
type Notifier struct {
	events *nuts.EventEmitter
}

// New creates a new Notifier
func New() *Notifier {
	return &Notifier{events: nuts.NewEventEmitter()}
}

// Emit publishes event for id to every listener, synchronously. A nil
// Notifier drops the event.
func (n *Notifier) Emit(event, id string) {
	if n == nil {
		return
	}
	if err := n.events.Emit(event, id); err != nil {
		nuts.L.Warnf("[Notifier] Failed to deliver %s for %q: %v", event, id, err)
	}
}

// OnRefresh registers a callback for a refresh event. Registering the same
// handlerID twice replaces the earlier callback.
func (n *Notifier) OnRefresh(event, handlerID string, handler func(id string)) error {
	if _, err := n.events.On(event, handlerID, handler); err != nil {
		nuts.L.Warnf("[Notifier] Failed to register %s for %s: %v", handlerID, event, err)
		return err
	}
	return nil
}
