package duty

import (
	"errors"
	"strings"

	dutyerrors "fleetops/internal/duty/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dutyerrors.ErrNoActiveDuty
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == OpenIndexName {
			return dutyerrors.ErrAlreadyOnDuty
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, OpenIndexName) {
		return dutyerrors.ErrAlreadyOnDuty
	}

	return err
}
