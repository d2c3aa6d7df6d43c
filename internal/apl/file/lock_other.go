//go:build !unix

package file

import "os"

// Advisory locks are unix-only; elsewhere the store relies on its mutex and
// supports a single process per file.
func lockFile(*os.File, bool) error { return nil }

func unlockFile(*os.File) error { return nil }
