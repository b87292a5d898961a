package outbox

// Event types emitted by appointment mutations. The Kafka topic name equals
// the event type.
const (
	EventCreated   = "appointment.created.v1"
	EventUpdated   = "appointment.updated.v1"
	EventCancelled = "appointment.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table in the
// same transaction as the mutation it describes.
type Event struct {
	AggregateID string
	EventType   string
	Payload     []byte
}
