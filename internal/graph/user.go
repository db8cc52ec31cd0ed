package graph

import (
	"context"

	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/security"
)

var userSelect = []string{"displayName", "mail", "userPrincipalName"}

// User is the subset of the signed-in user's profile the application shows.
// Fields the service did not return are empty.
type User struct {
	DisplayName       string
	Mail              string
	UserPrincipalName string
}

// Email returns Mail, or UserPrincipalName for accounts without a mailbox
// address.
func (u *User) Email() string {
	if u == nil {
		return ""
	}
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// CurrentUser fetches the signed-in user's display name, mail and UPN.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	if s == nil {
		return nil, ErrUninitializedSession
	}
	if err := s.wait(ctx, "get current user"); err != nil {
		return nil, err
	}

	logger.LogDebug(s.logger, "Calling Graph API", "method", "GET", "path", "/me")
	result, err := s.client.Me().Get(ctx, &users.UserItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UserItemRequestBuilderGetQueryParameters{
			Select: userSelect,
		},
	})
	if err != nil {
		logger.LogError(s.logger, "Failed to get current user", "error", err)
		return nil, newRemoteCallError("get current user", err)
	}

	user := &User{}
	if result != nil {
		if result.GetDisplayName() != nil {
			user.DisplayName = *result.GetDisplayName()
		}
		if result.GetMail() != nil {
			user.Mail = *result.GetMail()
		}
		if result.GetUserPrincipalName() != nil {
			user.UserPrincipalName = *result.GetUserPrincipalName()
		}
	}

	logger.LogDebug(s.logger, "Current user retrieved", "user", security.MaskEmail(user.Email()))
	return user, nil
}
