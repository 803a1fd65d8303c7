package blob

import (
	"legfed/internal/infra/blob/fs"
)

// NewFilesystem constructs a store over the files below root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
