// Package authz verifies the multi-signature proofs a target attaches to a
// negotiated offer.
//
// Each signer of the target account produces one EdDSA JWT over the same
// domain-separated message: subject, counterparty, offer terms hash, deadline,
// nonce and service identity (the audience). An offer is authorized once
// distinct valid signers meet the account threshold.
package authz

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/plunder"
)

// Message is the structured payload every signer commits to.
type Message struct {
	Subject      string
	Counterparty string
	TermsHash    []byte
	Deadline     time.Time
	Nonce        string
	Service      string
}

// Request is an offer awaiting verification.
type Request struct {
	Subject      string
	Counterparty string
	Terms        []plunder.Item
	Deadline     time.Time
	Nonce        string
	Proofs       []string
}

// SignerSet lists the keys allowed to sign for an account and how many of
// them must agree.
type SignerSet struct {
	Threshold int
	Keys      map[string]ed25519.PublicKey
}

// Accounts resolves the signer set of an account.
type Accounts interface {
	Signers(ctx context.Context, account string) (SignerSet, error)
}

type offerClaims struct {
	jwt.RegisteredClaims
	Counterparty string `json:"counterparty"`
	Terms        string `json:"terms"`
}

// TermsHash commits to the exact item list of an offer. Every field is
// length-prefixed or fixed width so no asset name can forge a second item.
func TermsHash(items []plunder.Item) []byte {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(len(items)))
	h.Write(buf[:4])
	for _, item := range items {
		binary.BigEndian.PutUint32(buf[:4], uint32(len(item.Asset)))
		h.Write(buf[:4])
		h.Write([]byte(item.Asset))
		binary.BigEndian.PutUint32(buf[:4], uint32(item.Kind))
		h.Write(buf[:4])
		binary.BigEndian.PutUint32(buf[:4], item.Slot)
		h.Write(buf[:4])
		binary.BigEndian.PutUint64(buf[:], item.Amount)
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], item.TokenID)
		h.Write(buf[:])
	}
	return h.Sum(nil)
}

// Verifier checks offer proofs for one service identity.
type Verifier struct {
	service  string
	accounts Accounts
	now      func() time.Time
}

// NewVerifier builds a verifier that accepts proofs addressed to service.
func NewVerifier(service string, accounts Accounts, now func() time.Time) (*Verifier, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, errors.New("service identity is required")
	}
	if accounts == nil {
		return nil, errors.New("accounts are required")
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{service: service, accounts: accounts, now: now}, nil
}

// Verify reports whether req carries enough valid signatures.
func (v *Verifier) Verify(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Nonce) == "" {
		return offerInvalid("nonce is required")
	}
	if req.Deadline.IsZero() {
		return offerInvalid("deadline is required")
	}
	if !req.Deadline.After(v.now()) {
		return offerInvalid("offer deadline has passed")
	}

	set, err := v.accounts.Signers(ctx, req.Subject)
	if err != nil {
		return fmt.Errorf("load signers of %s: %w", req.Subject, err)
	}
	if set.Threshold <= 0 {
		return apperrors.New(apperrors.CodeOfferSignatureInvalid, "account has no signing policy")
	}

	expected := Message{
		Subject:      req.Subject,
		Counterparty: req.Counterparty,
		TermsHash:    TermsHash(req.Terms),
		Deadline:     req.Deadline,
		Nonce:        req.Nonce,
		Service:      v.service,
	}

	signed := make(map[string]struct{}, len(req.Proofs))
	for _, proof := range req.Proofs {
		keyID, err := v.verifyProof(proof, expected, set)
		if err != nil {
			return err
		}
		signed[keyID] = struct{}{}
	}
	if len(signed) < set.Threshold {
		return apperrors.WithMetadata(
			apperrors.CodeOfferSignersIncomplete,
			"offer signer threshold not met",
			map[string]string{
				"Threshold": strconv.Itoa(set.Threshold),
				"Signed":    strconv.Itoa(len(signed)),
			},
		)
	}
	return nil
}

func (v *Verifier) verifyProof(proof string, expected Message, set SignerSet) (string, error) {
	var (
		parsed offerClaims
		keyID  string
	)
	_, err := jwt.ParseWithClaims(strings.TrimSpace(proof), &parsed, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		key, ok := set.Keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signer %q", kid)
		}
		keyID = kid
		return key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	switch {
	case parsed.Subject != expected.Subject:
		return "", signatureMismatch("subject")
	case parsed.Counterparty != expected.Counterparty:
		return "", signatureMismatch("counterparty")
	case !audienceContains(parsed.Audience, expected.Service):
		return "", signatureMismatch("audience")
	case parsed.Terms != hex.EncodeToString(expected.TermsHash):
		return "", signatureMismatch("terms")
	case parsed.ID != expected.Nonce:
		return "", signatureMismatch("nonce")
	case parsed.ExpiresAt == nil || parsed.ExpiresAt.Unix() != expected.Deadline.Unix():
		return "", signatureMismatch("deadline")
	}
	return keyID, nil
}

// Signer produces proofs for one account key.
type Signer struct {
	KeyID string
	Key   ed25519.PrivateKey
}

// Sign returns the compact JWT proof of msg.
func (s Signer) Sign(msg Message) (string, error) {
	if s.KeyID == "" || len(s.Key) != ed25519.PrivateKeySize {
		return "", errors.New("signer is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, offerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   msg.Subject,
			Audience:  jwt.ClaimStrings{msg.Service},
			ExpiresAt: jwt.NewNumericDate(msg.Deadline),
			ID:        msg.Nonce,
		},
		Counterparty: msg.Counterparty,
		Terms:        hex.EncodeToString(msg.TermsHash),
	})
	token.Header["kid"] = s.KeyID
	signed, err := token.SignedString(s.Key)
	if err != nil {
		return "", fmt.Errorf("sign offer: %w", err)
	}
	return signed, nil
}

func offerInvalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeOfferInvalid, "offer is invalid: "+reason, map[string]string{"Reason": reason})
}

func signatureMismatch(field string) error {
	return apperrors.WithMetadata(
		apperrors.CodeOfferSignatureInvalid,
		"offer proof "+field+" mismatch",
		map[string]string{"Field": field},
	)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeOfferSignatureInvalid, "offer signature is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeOfferSignatureInvalid, "offer proof is invalid", err)
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// StaticAccounts is an in-memory signer directory.
type StaticAccounts map[string]SignerSet

// Signers returns the registered set of account.
func (a StaticAccounts) Signers(_ context.Context, account string) (SignerSet, error) {
	set, ok := a[account]
	if !ok {
		return SignerSet{}, apperrors.WithMetadata(
			apperrors.CodeOfferSignatureInvalid,
			"account has no registered signers",
			map[string]string{"Target": account},
		)
	}
	return set, nil
}
