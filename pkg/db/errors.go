package db

import (
	"errors"

	pkgerrors "github.com/colmena-app/colmena-backend/pkg/errors"
	"gorm.io/gorm"
)

// TranslateError maps driver-level errors onto the package error taxonomy.
// Record misses become NotFound; anything else is a dependency failure.
func TranslateError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database operation failed")
}
