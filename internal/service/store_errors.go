package service

import (
	"errors"

	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/recordstore"
)

// storeError maps record store failures onto the domain taxonomy. Missing
// records become NotFound; everything else, permission denials included, is a
// PersistenceError. Errors that are already typed pass through.
func storeError(err error, notFoundMsg, failMsg string) error {
	if err == nil {
		return nil
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, recordstore.ErrRecordNotFound) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, notFoundMsg)
	}
	return appErrors.Persistence(err, failMsg)
}

func isNotFound(err error) bool {
	return errors.Is(err, appErrors.ErrNotFound)
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func stringPtr(v string) *string {
	return &v
}
