package clock

import "time"

// Clock provides time to the application.
// An interface lets tests drive record ages and completion times deterministically.
type Clock interface {
	Now() time.Time
}
