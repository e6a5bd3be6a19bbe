package main

import "errors"

// keep error handling in one place (avoids importing errors in every file).
// runImport uses it to keep a backend's own exit code and exitCode uses it to unwrap a *cliError.
func as(err error, target any) bool { return errors.As(err, target) }
