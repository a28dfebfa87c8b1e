package billing

import "errors"

// Terminal errors surfaced to callers. Handlers map these onto HTTP
// statuses; anything else is an internal failure.
var (
	ErrNotFound            = errors.New("record not found")                     // User, balance or plan missing
	ErrInsufficientCredits = errors.New("user has low credit to perform this task") // Deduction would go negative
	ErrAlreadyProcessed    = errors.New("payment event already processed")      // Replayed webhook delivery
	ErrAttachmentUpload    = errors.New("failed to upload review attachment")   // Post-commit upload failure; the spend stays committed
)
