// Package local provides in-process collaborators for the confrontation
// manager: a player registry, map, inventory and signer directory backed by a
// JSON world fixture. Mutations made inside WithinTx are rolled back when the
// transaction fails.
package local
