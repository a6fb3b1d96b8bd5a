package domain

const (
	DefaultZoom = 13
	MaxZoom     = 18
)

// PickerState is one interactive location picker session.
type PickerState struct {
	ID     string      `json:"id"`
	Marker *Coordinate `json:"marker,omitempty"`
	Label  string      `json:"label"`
	// Generation increases every time the marker moves; reverse lookups
	// carry the generation they were issued for.
	Generation   uint64      `json:"generation"`
	LabelPending bool        `json:"labelPending"`
	Center       *Coordinate `json:"center,omitempty"`
	Zoom         int         `json:"zoom"`
	Message      string      `json:"message,omitempty"`
	Lang         string      `json:"lang"`
}

// Resolved reports whether the picker has a coordinate to search from.
func (p PickerState) Resolved() bool { return p.Marker != nil }

// MoveMarker places the marker, re-centers and bumps the generation.
func (p *PickerState) MoveMarker(c Coordinate) uint64 {
	p.Marker = &c
	center := c
	p.Center = &center
	p.Generation++
	p.Message = ""
	return p.Generation
}
