package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"culturemark/api/internal/store"
)

type fakeUserStore struct {
	users      map[string]store.User
	resets     map[string]string
	usedResets map[string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:      map[string]store.User{},
		resets:     map[string]string{},
		usedResets: map[string]bool{},
	}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, errors.New("no rows")
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return store.User{}, errors.New("no rows")
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	for email, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			f.users[email] = u
		}
	}
	return nil
}

func (f *fakeUserStore) CreatePasswordReset(_ context.Context, userID, token string, _ time.Time) error {
	f.resets[token] = userID
	return nil
}

func (f *fakeUserStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	if f.usedResets[token] {
		return "", errors.New("used")
	}
	userID, ok := f.resets[token]
	if !ok {
		return "", errors.New("no rows")
	}
	return userID, nil
}

func (f *fakeUserStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	f.usedResets[token] = true
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "Ada@Example.com", Password: "long-enough", Name: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.UserID == "" {
		t.Fatal("expected a user ID")
	}

	user, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email should be lowercased on sign-up, got %q", user.Email)
	}
	if user.Role != "annotator" {
		t.Errorf("new users default to annotator, got %q", user.Role)
	}
}

func TestSignUpRejectsShortPasswordAndDuplicates(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "short", Name: "A"}); err == nil {
		t.Error("short password should be rejected")
	}

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "long-enough", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "long-enough", Name: "A"}); err == nil {
		t.Error("duplicate email should be rejected")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "long-enough", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "wrong-password"}); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "missing@example.com", Password: "whatever1"}); err == nil {
		t.Error("unknown email should fail")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fake := newFakeUserStore()
	svc := NewService(fake)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "first-password", Name: "A"}); err != nil {
		t.Fatal(err)
	}

	token, err := svc.RequestPasswordReset(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "second-password"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "first-password"}); err == nil {
		t.Error("old password should no longer work")
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "second-password"}); err != nil {
		t.Errorf("new password should work: %v", err)
	}

	// token is single use
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "third-password"}); err == nil {
		t.Error("reset token should be single use")
	}
}

func TestPasswordResetUnknownEmailDoesNotLeak(t *testing.T) {
	svc := NewService(newFakeUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		t.Error("unknown email should yield an empty token, not an error")
	}
}
