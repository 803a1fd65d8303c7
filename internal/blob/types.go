// Package blob selects and constructs the store that input files are read
// from. It is the only package that imports the infra blob drivers.
package blob

import (
	"legfed/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// Info describes stored file metadata.
	Info = core.Info
	// Store is the interface for input file backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverGCS        = core.DriverGCS
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)
