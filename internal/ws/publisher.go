package ws

// Events pushed to clients
const (
	EventDeviceStatus  = "devices:status"
	EventCommandUpdate = "commands:update"
	EventDevicesList   = "devices:initial"

	// EventRequestDevices is sent by clients wanting a status snapshot
	EventRequestDevices = "request:devices"
)

// Publisher broadcasts realtime events. *Hub implements it.
type Publisher interface {
	Publish(event string, payload interface{})
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) {}
