package x

import (
	"github.com/gogo/protobuf/proto"
)

// Validater is any struct that can be validated.
type Validater interface {
	Validate() error
}

// Model is a protobuf message that can be validated before it is
// persisted.
type Model interface {
	proto.Message
	Validater
}
