package protocols

import "github.com/giovaniif/vending/domain/bank"

const (
	OutcomeSucceeded         = "succeeded"
	OutcomeReplayed          = "replayed"
	OutcomeItemNotFound      = "item_not_found"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeInvalidAmount     = "invalid_amount"
	OutcomeInProgress        = "in_progress"
	OutcomeError             = "error"
)

// Recorder observes purchase outcomes and the coins that left the register.
type Recorder interface {
	RecordPurchase(outcome string)
	RecordChange(change bank.Change)
}
