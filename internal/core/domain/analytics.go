package domain

import "time"

// Dimension is a categorical custom field exposed as a grouped count.
type Dimension struct {
	// Slug is the URL fragment, e.g. "report-method".
	Slug string
	// Field is the custom field name as it appears upstream.
	Field string
	// CountKey and ListKey name the JSON members of the grouped-count and
	// value-list responses.
	CountKey string
	ListKey  string
	// ListPath is the route of the value list.
	ListPath string
}

// DefaultDimensions are the categorical fields reported by the service.
var DefaultDimensions = []Dimension{
	{Slug: "department", Field: "Department", CountKey: "tickets_by_department", ListKey: "departments", ListPath: "/departments"},
	{Slug: "location", Field: "Location", CountKey: "tickets_by_location", ListKey: "locations", ListPath: "/locations"},
	{Slug: "report-method", Field: "Report Method", CountKey: "tickets_by_report_method", ListKey: "report_methods", ListPath: "/report-method"},
	{Slug: "service-type", Field: "Service Type", CountKey: "tickets_by_service_type", ListKey: "service_types", ListPath: "/service-type"},
	{Slug: "category", Field: "Category", CountKey: "tickets_by_category", ListKey: "categories", ListPath: "/category"},
}

// SnapshotStatus describes the age and size of the current snapshot.
type SnapshotStatus struct {
	Ready       bool
	RefreshedAt time.Time
	Age         time.Duration
	AllCount    int
	ClosedCount int
	Samples     int
}
