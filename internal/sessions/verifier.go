package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/utils"
)

var ErrSessionRevoked = errors.New("session revoked")

// JWTVerifier checks token signature and expiry, then the revocation list.
type JWTVerifier struct {
	Secret      string
	Revocations Revocations
}

func NewJWTVerifier(secret string, rev Revocations) *JWTVerifier {
	return &JWTVerifier{Secret: secret, Revocations: rev}
}

func (v *JWTVerifier) Verify(ctx context.Context, rawToken string) (messaging.AuthenticatedUser, error) {
	claims, err := utils.ParseJWT(v.Secret, rawToken)
	if err != nil {
		return messaging.AuthenticatedUser{}, err
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return messaging.AuthenticatedUser{}, fmt.Errorf("token subject: %w", err)
	}
	if claims.ID == "" {
		return messaging.AuthenticatedUser{}, errors.New("token without session id")
	}
	if v.Revocations != nil {
		revoked, err := v.Revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail closed: an unreachable revocation list rejects the call
			log.Printf("sessions: revocation lookup: %v", err)
			return messaging.AuthenticatedUser{}, err
		}
		if revoked {
			return messaging.AuthenticatedUser{}, ErrSessionRevoked
		}
	}
	return messaging.AuthenticatedUser{ID: uid, SessionID: claims.ID, ClaimedRole: claims.Role}, nil
}

// Revoke ends the session carried by rawToken for the rest of its lifetime.
func (v *JWTVerifier) Revoke(ctx context.Context, rawToken string) error {
	claims, err := utils.ParseJWT(v.Secret, rawToken)
	if err != nil {
		return err
	}
	if v.Revocations == nil {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return v.Revocations.Revoke(ctx, claims.ID, ttl)
}
