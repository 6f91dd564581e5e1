//go:build sqlite_vec && cgo

// This file is only compiled when building against a cgo SQLite driver
// linked with the real sqlite-vec extension. The default build uses the
// pure-Go modernc.org/sqlite driver with the vec0 compatibility shim in
// vec_compat.go instead, so this path requires swapping in a cgo driver
// at build time in addition to the sqlite_vec,cgo tags.
package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	vec.Auto()
}
