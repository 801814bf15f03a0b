package game

import "strings"

// DefaultDescription is shown until a location has been described.
const DefaultDescription = "The place looks indistinct..."

// Location is where the player stands.
type Location struct {
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// TagLine joins the tags with spaces for use in memory queries.
func (l Location) TagLine() string {
	return strings.Join(l.Tags, " ")
}
