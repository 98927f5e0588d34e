package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeActorRequired          = "ACTOR_REQUIRED"
	CodeLootInvalid            = "LOOT_INVALID"
	CodeOfferInvalid           = "OFFER_INVALID"
	CodeSelfTarget             = "CONFRONTATION_SELF_TARGET"
	CodeAttackerNotInWorld     = "ATTACKER_NOT_IN_WORLD"
	CodeAttackerTraveling      = "ATTACKER_TRAVELING"
	CodeAttackerNotEmbarked    = "ATTACKER_NOT_EMBARKED"
	CodeAttackerBusy           = "ATTACKER_IN_CONFRONTATION"
	CodeTargetNotInWorld       = "TARGET_NOT_IN_WORLD"
	CodeTargetNotEmbarked      = "TARGET_NOT_EMBARKED"
	CodeTargetIdle             = "TARGET_IDLE"
	CodeTargetIsPirate         = "TARGET_IS_PIRATE"
	CodeTargetUnreachable      = "TARGET_UNREACHABLE"
	CodeTargetBusy             = "TARGET_IN_CONFRONTATION"
	CodeTargetIntercepted      = "TARGET_ALREADY_INTERCEPTED"
	CodeTargetUnderPlunder     = "TARGET_UNDER_PLUNDER"
	CodeNotLinkedAttacker      = "CONFRONTATION_NOT_ATTACKER"
	CodeEscapeAlreadyTried     = "ESCAPE_ALREADY_ATTEMPTED"
	CodeResponseWindowClosed   = "RESPONSE_WINDOW_CLOSED"
	CodeResponseWindowOpen     = "RESPONSE_WINDOW_OPEN"
	CodeConfrontationEnded     = "CONFRONTATION_ENDED"
	CodePlunderExpired         = "PLUNDER_EXPIRED"
	CodePlunderLooted          = "PLUNDER_ALREADY_LOOTED"
	CodeOfferSignatureInvalid  = "OFFER_SIGNATURE_INVALID"
	CodeOfferSignersIncomplete = "OFFER_SIGNERS_INCOMPLETE"
	CodeOfferNonceUsed         = "OFFER_NONCE_USED"
	CodeNotFound               = "NOT_FOUND"
	CodeSeedUnavailable        = "SEED_UNAVAILABLE"
)

var enUSCatalog = &Catalog{
	locale: BaseLocale,
	messages: map[Code]string{
		// Request errors
		CodeActorRequired: "A {{.Role}} is required",
		CodeLootInvalid:   "Loot selection is invalid: {{.Reason}}",
		CodeOfferInvalid:  "Offer is invalid: {{.Reason}}",

		// Interception errors
		CodeSelfTarget:          "You cannot intercept your own ship",
		CodeAttackerNotInWorld:  "{{.Attacker}} is not in the world",
		CodeAttackerTraveling:   "{{.Attacker}} must be stationary to intercept",
		CodeAttackerNotEmbarked: "{{.Attacker}} must be embarked to intercept",
		CodeAttackerBusy:        "{{.Attacker}} is already in a confrontation",
		CodeTargetNotInWorld:    "{{.Target}} is not in the world",
		CodeTargetNotEmbarked:   "{{.Target}} is not embarked",
		CodeTargetIdle:          "{{.Target}} is idle and cannot be intercepted",
		CodeTargetIsPirate:      "{{.Target}} sails under the pirate flag",
		CodeTargetUnreachable:   "{{.Target}} is out of reach from tile {{.Tile}}",
		CodeTargetBusy:          "{{.Target}} is already in a confrontation",
		CodeTargetIntercepted:   "{{.Target}} was already intercepted on this voyage",
		CodeTargetUnderPlunder:  "{{.Target}} can be plundered by {{.Attacker}} until {{.Deadline}}",

		// Confrontation errors
		CodeNotLinkedAttacker:    "{{.Actor}} is not the attacker of {{.Target}}",
		CodeEscapeAlreadyTried:   "{{.Target}} already attempted to escape",
		CodeResponseWindowClosed: "The response window closed at {{.Deadline}}",
		CodeResponseWindowOpen:   "{{.Target}} can still respond until {{.Deadline}}",
		CodeConfrontationEnded:   "The confrontation with {{.Target}} has ended",
		CodePlunderExpired:       "The right to plunder {{.Target}} lapsed at {{.Deadline}}",
		CodePlunderLooted:        "{{.Target}} was already plundered at {{.LootedAt}}",

		// Authorization errors
		CodeOfferSignatureInvalid:  "The offer signatures are invalid",
		CodeOfferSignersIncomplete: "The offer needs {{.Threshold}} signatures, got {{.Signed}}",
		CodeOfferNonceUsed:         "This offer has already been used",

		// Storage errors
		CodeNotFound: "No {{.Resource}} found for {{.Target}}",

		CodeSeedUnavailable: "Randomness is temporarily unavailable",
	},
}
