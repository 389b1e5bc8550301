// pkg/cleaner/coordinates.go
package cleaner

import "strings"

// RepairCoordinate fixes coordinates serialized with more than one decimal
// point, keeping the first point and joining the remaining digit groups into
// a single fractional part: "-23.558.579.334" becomes "-23.558579334".
// Values with zero or one point are returned unchanged.
func RepairCoordinate(value string) string {
	parts := strings.Split(value, ".")
	if len(parts) <= 2 {
		return value
	}
	return parts[0] + "." + strings.Join(parts[1:], "")
}
