// internal/models/common.go
package models

import "strings"

// Address is a structured location. Latitude and longitude are decimal degrees.
type Address struct {
	FullText  string  `bson:"fullText,omitempty" json:"fullText,omitempty"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// NormalizeName folds a display name into the key used for de-duplication.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
