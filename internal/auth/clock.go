package auth

import "time"

// nowFunc is swapped in tests.
var nowFunc = time.Now
