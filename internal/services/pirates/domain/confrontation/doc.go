// Package confrontation owns the pirate confrontation state machine.
//
// An attacker intercepts a target in transit. Until the response deadline the
// target may accept a negotiated offer, attempt one escape or start a battle;
// once the deadline passes and before expiration, the attacker may force the
// battle. An attacker victory opens a time-boxed plunder right.
//
// Every transition validates all preconditions before touching a
// collaborator, then applies collaborator mutations and the store commit in a
// single Transactor scope. Expiry is evaluated lazily against the clock on
// every call; nothing sweeps records in the background.
package confrontation
