package models

// Pharmacy is one result of the nearest-pharmacy lookup.
type Pharmacy struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
