package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/primegen/internal/fs"
)

// UniquePath returns a store path in dir that no existing file occupies,
// derived from the process id and the current time.
func UniquePath(fsys fs.FileSystem, dir string) string {
	base := fmt.Sprintf("primes_%d_%d", os.Getpid(), time.Now().UnixMilli())
	path := filepath.Join(dir, base+".dat")
	for i := 1; ; i++ {
		if _, err := fsys.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.dat", base, i))
	}
}
