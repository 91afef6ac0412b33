package location

import (
	"fmt"
	"strings"
)

// fieldCount is the number of |-separated fields on a location line.
const fieldCount = 6

// Location is one card on the board. Name is also the key the story rules use.
type Location struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Hint         string `json:"hint"`
	IsAccessible bool   `json:"isAccessible"`
	Action       string `json:"action"`   // Identifier of the action handler bound to this location
	TaskHint     string `json:"taskHint"` // Shown only while the location is accessible
}

// ParseError reports a malformed line in the location data.
type ParseError struct {
	Line int    // 1-based line number in the raw data
	Text string // The offending line
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed location data at line %d (want %d fields): %q", e.Line, fieldCount, e.Text)
}

// Parse turns raw location data into locations, one per non-blank line.
// Parsing stops at the first malformed line and returns no locations.
func Parse(data string) ([]Location, error) {
	var locations []Location
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < fieldCount {
			return nil, &ParseError{Line: i + 1, Text: line}
		}

		locations = append(locations, Location{
			Name:         parts[0],
			Description:  parts[1],
			Hint:         parts[2],
			IsAccessible: parts[3] == "true",
			Action:       parts[4],
			TaskHint:     parts[5],
		})
	}
	return locations, nil
}

// Find returns the index of the named location, or -1.
func Find(locations []Location, name string) int {
	for i := range locations {
		if locations[i].Name == name {
			return i
		}
	}
	return -1
}
