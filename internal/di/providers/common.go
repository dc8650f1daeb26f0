package providers

import "time"

// shutdownTimeout bounds each provider's teardown. Players and stream
// clients wind down in well under this; anything slower is stuck.
const shutdownTimeout = 10 * time.Second
