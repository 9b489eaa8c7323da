package metrics

import "time"

// RequestKind labels which document kind an ad request was for.
type RequestKind string

const (
	RequestKindVMAP RequestKind = "vmap"
	RequestKindVAST RequestKind = "vast"
)

func RequestKinds() []RequestKind {
	return []RequestKind{
		RequestKindVMAP,
		RequestKindVAST,
	}
}

// Engine is the interface the client records its runtime health through.
type Engine interface {
	RecordRequest(kind RequestKind)
	RecordRequestTime(kind RequestKind, length time.Duration)
	RecordFailure(kind RequestKind, errorCode int)
	RecordWrapperDepth(depth int)
	RecordBeacon(event string)
	RecordBeaconFailure(event string)
	RecordBreakStarted()
	RecordBreakCompleted()
}
