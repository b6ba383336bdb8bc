package models

// TripReportFilter represents query parameters for fleet trip reports
type TripReportFilter struct {
	From  string `form:"from"`  // RFC 3339, defaults to To - 24h
	To    string `form:"to"`    // RFC 3339, defaults to now
	Plate string `form:"plate"` // Comma separated plate numbers
}

// RouteFilter represents query parameters for route and history queries
type RouteFilter struct {
	Plate string `form:"plate"`
	From  string `form:"from"`
	To    string `form:"to"`
	Snap  string `form:"snap"` // "false" disables road snapping
}

// SnapRequested reports whether road snapping was asked for (default on)
func (f RouteFilter) SnapRequested() bool {
	return f.Snap != "false"
}

// CurrentVehiclesFilter represents query parameters for live positions
type CurrentVehiclesFilter struct {
	Plate               string `form:"plate"`
	ActiveWithinMinutes string `form:"activeWithinMinutes"`
}
