package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for input-class failures that carry no extra detail.
var (
	ErrBadInput       = errors.New("each line must split into an item name and a volume, separated by a tab or two spaces")
	ErrUnknownStation = errors.New("station not recognized")
)

// UnknownItemTypeError means a contract line referenced an item name that is
// not in the catalog. It fails the whole request.
type UnknownItemTypeError struct {
	Name string
}

func (e *UnknownItemTypeError) Error() string {
	return fmt.Sprintf("invalid item type '%s': item type not recognized", e.Name)
}

// UnknownMaterialTypeError means a refinement yield row referenced a material
// id that is not in the catalog. The engine keeps scanning remaining rows, but
// the presence of this error fails the enclosing request.
type UnknownMaterialTypeError struct {
	TypeID int32
}

func (e *UnknownMaterialTypeError) Error() string {
	return fmt.Sprintf("material type id '%d' not recognized: correct or exclude it", e.TypeID)
}

// UpstreamError wraps an order source failure. It is infrastructure-class: not
// retried, not partially recovered, fatal for the enclosing request.
type UpstreamError struct {
	Station string
	TypeID  int32
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("market data unavailable for type %d at %s: %v", e.TypeID, e.Station, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
