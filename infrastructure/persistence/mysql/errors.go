package mysql

import (
	"errors"

	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence/retry"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// translateError maps driver failures onto domain sentinels. Record-not-found
// is left to callers because each repository reports it with its own entity.
func translateError(entity string, err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		(errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry) {
		return shared.NewConflictError(entity, entity+" already exists")
	}
	if retry.IsConnectionError(err) {
		return shared.NewUnavailableError(entity, err)
	}
	return err
}
