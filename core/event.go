package core

type EventKind uint8

const (
	PipelineEvent EventKind = iota
	DataEvent
	TimeEvent
	ExecuteTriggerEvent
)

func (k EventKind) String() string {
	switch k {
	case PipelineEvent:
		return "Pipeline"
	case DataEvent:
		return "Data"
	case TimeEvent:
		return "Time"
	case ExecuteTriggerEvent:
		return "ExecuteTrigger"
	default:
		return "Unknown"
	}
}

// Event is recommended by a block for emission once the block is committed. Its data is
// opaque to the block layer.
type Event struct {
	Kind EventKind `cbor:"1,keyasint"`
	Data []byte    `cbor:"2,keyasint"`
}
