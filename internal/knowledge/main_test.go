package knowledge

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that Rebuild's bounded errgroup fan-out leaves no
// goroutines running after the package's tests complete. The sqlite driver's
// own connection-opener goroutine is long-lived by design and not a leak.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
