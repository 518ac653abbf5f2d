// pkg/registry/schema.go
package registry

type ScreenRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Screens     []Screen `json:"screens"`
}

// Screen describes one routable screen of the client.
type Screen struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Route        string   `json:"route"`
	RequiresAuth bool     `json:"requiresAuth"`
	Commands     []string `json:"commands"`
	ErrorCodes   []string `json:"errorCodes"`
	Tags         []string `json:"tags"`
}
