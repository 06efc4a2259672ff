package providers

import (
	"time"
	_ "time/tzdata"
)

// Paris is the zone of providers that send local wall-clock times.
var Paris = MustLocation("Europe/Paris")

// MustLocation loads a zone from the embedded database and panics when it is unknown.
func MustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
