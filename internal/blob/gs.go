package blob

import (
	"context"

	infraGS "legfed/internal/infra/blob/gs"
)

// GCSConfig re-exports the infra Cloud Storage configuration type.
type GCSConfig = infraGS.Config

// NewGCS constructs a Cloud Storage backed Store.
func NewGCS(ctx context.Context, cfg GCSConfig) (Store, error) {
	return infraGS.New(ctx, cfg)
}
