package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"saccolink/internal/adapters/persistence/repositories"
)

// stubUserRepo answers username existence from a fixed set
type stubUserRepo struct {
	repositories.UserRepository
	usernames map[string]bool
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return r.usernames[username], nil
}

// stubMemberRepo answers national ID existence from a fixed set
type stubMemberRepo struct {
	repositories.MemberRepository
	nationalIDs map[string]bool
}

func (r *stubMemberRepo) NationalIDExists(_ context.Context, id string) (bool, error) {
	return r.nationalIDs[id], nil
}

func TestClassifyRegisterConflict(t *testing.T) {
	ctx := context.Background()
	svc := &MemberService{
		userRepo:   &stubUserRepo{usernames: map[string]bool{"jkato": true}},
		memberRepo: &stubMemberRepo{nationalIDs: map[string]bool{"CM880114": true}},
	}

	taken := "CM880114"
	free := "CM990101"

	assert.ErrorIs(t,
		svc.classifyRegisterConflict(ctx, &RegisterMemberInput{Username: "jkato"}),
		ErrUserAlreadyExists)

	assert.ErrorIs(t,
		svc.classifyRegisterConflict(ctx, &RegisterMemberInput{NationalID: &taken}),
		ErrNationalIDTaken)

	// A collision that is not the national ID is reported against the member
	// number, not guessed from the input
	assert.ErrorIs(t,
		svc.classifyRegisterConflict(ctx, &RegisterMemberInput{NationalID: &free}),
		ErrMemberNumberTaken)

	assert.ErrorIs(t,
		svc.classifyRegisterConflict(ctx, &RegisterMemberInput{}),
		ErrMemberNumberTaken)
}
