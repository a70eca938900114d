package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PLENARIO_TEST_MODE") == "" {
			_ = os.Setenv("PLENARIO_TEST_MODE", "1")
		}
	})
}
