// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request validation errors
	CodeActorRequired Code = "ACTOR_REQUIRED"
	CodeLootInvalid   Code = "LOOT_INVALID"
	CodeOfferInvalid  Code = "OFFER_INVALID"

	// Attacker precondition errors
	CodeSelfTarget           Code = "CONFRONTATION_SELF_TARGET"
	CodeAttackerNotInWorld   Code = "ATTACKER_NOT_IN_WORLD"
	CodeAttackerTraveling    Code = "ATTACKER_TRAVELING"
	CodeAttackerNotEmbarked  Code = "ATTACKER_NOT_EMBARKED"
	CodeAttackerBusy         Code = "ATTACKER_IN_CONFRONTATION"
	CodeTargetNotInWorld     Code = "TARGET_NOT_IN_WORLD"
	CodeTargetNotEmbarked    Code = "TARGET_NOT_EMBARKED"
	CodeTargetIdle           Code = "TARGET_IDLE"
	CodeTargetIsPirate       Code = "TARGET_IS_PIRATE"
	CodeTargetUnreachable    Code = "TARGET_UNREACHABLE"
	CodeTargetBusy           Code = "TARGET_IN_CONFRONTATION"
	CodeTargetIntercepted    Code = "TARGET_ALREADY_INTERCEPTED"
	CodeTargetUnderPlunder   Code = "TARGET_UNDER_PLUNDER"
	CodeNotLinkedAttacker    Code = "CONFRONTATION_NOT_ATTACKER"
	CodeEscapeAlreadyTried   Code = "ESCAPE_ALREADY_ATTEMPTED"
	CodeResponseWindowClosed Code = "RESPONSE_WINDOW_CLOSED"
	CodeResponseWindowOpen   Code = "RESPONSE_WINDOW_OPEN"
	CodeConfrontationEnded   Code = "CONFRONTATION_ENDED"
	CodePlunderExpired       Code = "PLUNDER_EXPIRED"
	CodePlunderLooted        Code = "PLUNDER_ALREADY_LOOTED"

	// Authorization errors
	CodeOfferSignatureInvalid  Code = "OFFER_SIGNATURE_INVALID"
	CodeOfferSignersIncomplete Code = "OFFER_SIGNERS_INCOMPLETE"
	CodeOfferNonceUsed         Code = "OFFER_NONCE_USED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Random/seed errors
	CodeSeedUnavailable Code = "SEED_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeActorRequired,
		CodeLootInvalid,
		CodeOfferInvalid,
		CodeSelfTarget:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeAttackerNotInWorld,
		CodeAttackerTraveling,
		CodeAttackerNotEmbarked,
		CodeTargetNotInWorld,
		CodeTargetNotEmbarked,
		CodeTargetIdle,
		CodeTargetIsPirate,
		CodeTargetUnreachable,
		CodeEscapeAlreadyTried,
		CodeResponseWindowClosed,
		CodeResponseWindowOpen,
		CodeConfrontationEnded,
		CodePlunderExpired,
		CodePlunderLooted:
		return codes.FailedPrecondition

	// AlreadyExists - uniqueness constraints
	case CodeAttackerBusy,
		CodeTargetBusy,
		CodeTargetIntercepted,
		CodeTargetUnderPlunder,
		CodeOfferNonceUsed:
		return codes.AlreadyExists

	// PermissionDenied - caller is not allowed to act
	case CodeNotLinkedAttacker,
		CodeOfferSignatureInvalid,
		CodeOfferSignersIncomplete:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	case CodeSeedUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
