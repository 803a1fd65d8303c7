package gs

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

func preconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
