package checklist

import (
	"fmt"
	"net/http"

	"fleetops/internal/shared/apperror"
)

const (
	CodeMissingVerdict = "CHECKLIST_MISSING_VERDICT"
	CodeMissingPhoto   = "CHECKLIST_MISSING_PHOTO"
)

func MissingVerdict(item CatalogItem) *apperror.AppError {
	return apperror.New(
		CodeMissingVerdict,
		fmt.Sprintf("Checklist item %q has no verdict", item.Name),
		http.StatusBadRequest,
	)
}

func MissingRequiredPhoto(item CatalogItem) *apperror.AppError {
	return apperror.New(
		CodeMissingPhoto,
		fmt.Sprintf("Checklist item %q requires a photo", item.Name),
		http.StatusBadRequest,
	)
}

// Validate checks a submission against the catalog. Every catalog item
// must carry an explicit verdict, and items flagged RequiresPhoto must
// carry a photo reference regardless of the pass/fail value. Pure, no I/O.
func Validate(catalog []CatalogItem, sub Submission) error {
	for _, item := range catalog {
		entry, ok := sub[item.ID]
		if !ok {
			return MissingVerdict(item)
		}
		if item.RequiresPhoto && entry.PhotoRef == "" {
			return MissingRequiredPhoto(item)
		}
	}
	return nil
}
