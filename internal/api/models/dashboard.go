package models

// SidebarState is the body of the sidebar endpoints.
type SidebarState struct {
	Collapsed bool `json:"sidebarCollapsed"`
}

// DemoResult is returned after demo data has been loaded.
type DemoResult struct {
	Services int `json:"services"`
	Alerts   int `json:"alerts"`
	Points   int `json:"points"`
}
