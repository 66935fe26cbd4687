package httpserver

import (
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

func TestVoterTokenVerifier(t *testing.T) {
	verifier := NewVoterTokenVerifier("secret")

	voter, err := verifier.Voter("")
	if err != nil || !voter.IsAnonymous() || voter.EffectiveUserID() != entities.AnonymousUserID {
		t.Fatalf("expected anonymous voter, got %+v err=%v", voter, err)
	}

	token, err := verifier.Sign(VoterClaims{
		Roles:            []string{"Admin"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u7"},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	voter, err = verifier.Voter(token)
	if err != nil || voter.UserID != "u7" || !voter.Admin {
		t.Fatalf("expected admin voter u7, got %+v err=%v", voter, err)
	}

	expired, _ := verifier.Sign(VoterClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	if _, err := verifier.Voter(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	foreign, _ := NewVoterTokenVerifier("other").Sign(VoterClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u7"}})
	if _, err := verifier.Voter(foreign); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}

	anonymousSubject, _ := verifier.Sign(VoterClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: entities.AnonymousUserID}})
	if _, err := verifier.Voter(anonymousSubject); err == nil {
		t.Fatal("expected anonymous marker subject to be rejected")
	}

	if _, err := NewVoterTokenVerifier("").Voter(token); err == nil {
		t.Fatal("expected rejection when no secret is configured")
	}
}
