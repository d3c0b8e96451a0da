package cfdsdk

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

var (
	ErrAlreadyInitialized = fmt.Errorf("client already initialized")
	ErrNotInitialized     = fmt.Errorf(
		"client not initialized, create a new one with Init or load an existing one",
	)
)

// ScriptSatisfactionError is returned when a finalized witness fails to
// satisfy the script it spends.
type ScriptSatisfactionError struct {
	Txid   string
	Reason string
}

func (e ScriptSatisfactionError) Error() string {
	return fmt.Sprintf("tx %s does not satisfy its spending conditions: %s", e.Txid, e.Reason)
}

// FeePolicyViolationError is returned when a party's payout cannot cover
// its share of the transaction fees.
type FeePolicyViolationError struct {
	Party     string
	Available btcutil.Amount
	Required  btcutil.Amount
}

func (e FeePolicyViolationError) Error() string {
	return fmt.Sprintf(
		"%s payout of %d sats cannot cover its fee share of %d sats",
		e.Party, e.Available, e.Required,
	)
}

// BelowMinRelayFeeError is returned when a transaction pays less than the
// minimum relay fee of 1 sat per virtual byte.
type BelowMinRelayFeeError struct {
	Txid  string
	Fee   btcutil.Amount
	VSize uint64
}

func (e BelowMinRelayFeeError) Error() string {
	return fmt.Sprintf(
		"tx %s pays %d sats in fees, below the min relay fee of %d sats",
		e.Txid, e.Fee, e.VSize,
	)
}

// NotPunishableError is returned when a transaction cannot be punished
// with the material at hand, for example because it does not spend to the
// expected commit output or its witness does not reveal the counterparty's
// publish key.
type NotPunishableError struct {
	Txid   string
	Reason string
}

func (e NotPunishableError) Error() string {
	return fmt.Sprintf("tx %s is not punishable: %s", e.Txid, e.Reason)
}
