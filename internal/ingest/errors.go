package ingest

import (
	"errors"

	"expenseit/internal/docintel"
)

var (
	// ErrUpload: the captured image could not be pushed to remote storage.
	ErrUpload = errors.New("image upload failed")
	// ErrPersistence: the parsed receipt could not be written locally.
	ErrPersistence = errors.New("saving receipt failed")
)

// FailureReason turns a pipeline error into the short human-readable message
// surfaced to the user. The receipt list is left unchanged in every case.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUpload):
		return "Could not upload the receipt image"
	case errors.Is(err, docintel.ErrSubmission):
		return "The analysis service rejected the receipt"
	case errors.Is(err, docintel.ErrTimeout):
		return "Receipt analysis took too long"
	case errors.Is(err, docintel.ErrAnalysis):
		return "The receipt could not be analyzed"
	case errors.Is(err, docintel.ErrParse):
		return "No receipt was found in the image"
	case errors.Is(err, ErrPersistence):
		return "Could not save the receipt"
	default:
		return "Receipt scan failed"
	}
}
