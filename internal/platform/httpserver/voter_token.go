package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"pollster/contexts/community-polls/voting-service/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

var errInvalidVoterToken = errors.New("invalid voter token")

// VoterClaims is the payload of an X-Voter-Token: the subject is the user id
// and the admin role grants the duplicate-vote override.
type VoterClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// VoterTokenVerifier checks HS256 voter tokens against a shared secret.
type VoterTokenVerifier struct {
	Secret []byte
}

func NewVoterTokenVerifier(secret string) VoterTokenVerifier {
	return VoterTokenVerifier{Secret: []byte(strings.TrimSpace(secret))}
}

// Voter resolves a raw header value. An empty value is an anonymous voter; a
// token that fails verification, or any token when no secret is configured,
// is rejected.
func (v VoterTokenVerifier) Voter(raw string) (entities.Voter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entities.AnonymousVoter(), nil
	}
	if len(v.Secret) == 0 {
		return entities.Voter{}, errInvalidVoterToken
	}

	claims := &VoterClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return entities.Voter{}, errInvalidVoterToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" || subject == entities.AnonymousUserID {
		return entities.Voter{}, errInvalidVoterToken
	}
	voter := entities.Voter{UserID: subject}
	for _, role := range claims.Roles {
		if strings.EqualFold(strings.TrimSpace(role), adminRole) {
			voter.Admin = true
		}
	}
	return voter, nil
}

// Sign issues an HS256 token for claims.
func (v VoterTokenVerifier) Sign(claims VoterClaims) (string, error) {
	if len(v.Secret) == 0 {
		return "", errors.New("voter token secret is not configured")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
