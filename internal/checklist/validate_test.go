package checklist

import (
	"errors"
	"testing"

	"fleetops/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

var testCatalog = []CatalogItem{
	{ID: "tyres", Name: "Tyres", RequiresPhoto: false, Position: 0},
	{ID: "brakes", Name: "Brakes", RequiresPhoto: false, Position: 1},
	{ID: "first_aid", Name: "First Aid Kit", RequiresPhoto: true, Position: 2},
}

func TestValidate_CompleteSubmission(t *testing.T) {
	sub := Submission{
		"tyres":     {Passed: true},
		"brakes":    {Passed: false},
		"first_aid": {Passed: true, PhotoRef: "d1_123_ab.jpg"},
	}

	assert.NoError(t, Validate(testCatalog, sub))
}

func TestValidate_MissingVerdict(t *testing.T) {
	sub := Submission{
		"tyres":     {Passed: true},
		"first_aid": {Passed: true, PhotoRef: "d1_123_ab.jpg"},
	}

	err := Validate(testCatalog, sub)
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeMissingVerdict, appErr.Code)
	assert.Contains(t, appErr.Message, "Brakes")
}

func TestValidate_MissingRequiredPhoto(t *testing.T) {
	// The photo requirement is unconditional for flagged items, even when
	// the item passed.
	for _, passed := range []bool{true, false} {
		sub := Submission{
			"tyres":     {Passed: true},
			"brakes":    {Passed: true},
			"first_aid": {Passed: passed},
		}

		err := Validate(testCatalog, sub)
		assert.Error(t, err)

		var appErr *apperror.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, CodeMissingPhoto, appErr.Code)
		assert.Contains(t, appErr.Message, "First Aid Kit")
	}
}

func TestValidate_ExtraEntriesIgnored(t *testing.T) {
	sub := Submission{
		"tyres":     {Passed: true},
		"brakes":    {Passed: true},
		"first_aid": {Passed: true, PhotoRef: "ref.jpg"},
		"unknown":   {Passed: false},
	}

	assert.NoError(t, Validate(testCatalog, sub))
}

func TestValidate_EmptyCatalog(t *testing.T) {
	assert.NoError(t, Validate(nil, Submission{}))
}
