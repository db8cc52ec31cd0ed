package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/security"
	"graphtutorial/internal/common/validation"
)

// InboxPageSize is the number of messages ListInbox requests.
const InboxPageSize = 25

var inboxSelect = []string{"from", "isRead", "receivedDateTime", "subject"}

// MessageSummary is one inbox entry.
type MessageSummary struct {
	Subject          string
	FromName         string
	FromAddress      string
	IsRead           bool
	ReceivedDateTime time.Time
}

// InboxPage is the first page of the inbox, newest first.
type InboxPage struct {
	Messages      []MessageSummary
	MoreAvailable bool   // True when the service reported a next page
	NextLink      string // Continuation URL, empty on the last page
}

// ListInbox returns up to InboxPageSize inbox messages ordered by received time,
// newest first. Only the first page is fetched.
func (s *Session) ListInbox(ctx context.Context) (*InboxPage, error) {
	if s == nil {
		return nil, ErrUninitializedSession
	}
	if err := s.wait(ctx, "list inbox"); err != nil {
		return nil, err
	}

	top := int32(InboxPageSize)
	logger.LogDebug(s.logger, "Calling Graph API", "method", "GET", "path", "/me/mailFolders/inbox/messages", "top", top)
	result, err := s.client.Me().MailFolders().ByMailFolderId("inbox").Messages().Get(ctx,
		&users.ItemMailFoldersItemMessagesRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemMailFoldersItemMessagesRequestBuilderGetQueryParameters{
				Select:  inboxSelect,
				Top:     &top,
				Orderby: []string{"receivedDateTime DESC"},
			},
		})
	if err != nil {
		logger.LogError(s.logger, "Failed to list inbox", "error", err)
		return nil, newRemoteCallError("list inbox", err)
	}

	page := &InboxPage{}
	if result == nil {
		return page, nil
	}

	for _, msg := range result.GetValue() {
		if msg == nil {
			continue
		}
		page.Messages = append(page.Messages, summarizeMessage(msg))
	}

	// The service already orders by received time; keep the guarantee locally.
	sort.SliceStable(page.Messages, func(i, j int) bool {
		return page.Messages[i].ReceivedDateTime.After(page.Messages[j].ReceivedDateTime)
	})
	if len(page.Messages) > InboxPageSize {
		page.Messages = page.Messages[:InboxPageSize]
	}

	if next := result.GetOdataNextLink(); next != nil && *next != "" {
		page.NextLink = *next
		page.MoreAvailable = true
	}

	logger.LogDebug(s.logger, "Inbox retrieved", "count", len(page.Messages), "moreAvailable", page.MoreAvailable)
	return page, nil
}

func summarizeMessage(msg models.Messageable) MessageSummary {
	var summary MessageSummary
	if msg.GetSubject() != nil {
		summary.Subject = *msg.GetSubject()
	}
	if msg.GetIsRead() != nil {
		summary.IsRead = *msg.GetIsRead()
	}
	if msg.GetReceivedDateTime() != nil {
		summary.ReceivedDateTime = *msg.GetReceivedDateTime()
	}
	if from := msg.GetFrom(); from != nil && from.GetEmailAddress() != nil {
		addr := from.GetEmailAddress()
		if addr.GetName() != nil {
			summary.FromName = *addr.GetName()
		}
		if addr.GetAddress() != nil {
			summary.FromAddress = *addr.GetAddress()
		}
	}
	return summary
}

// SendMail sends a plain-text message to a single recipient.
func (s *Session) SendMail(ctx context.Context, subject, body, recipient string) error {
	if s == nil {
		return ErrUninitializedSession
	}
	recipient = strings.TrimSpace(recipient)
	if err := validation.ValidateEmail(recipient); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidArgument, err)
	}
	if err := s.wait(ctx, "send mail"); err != nil {
		return err
	}

	message := models.NewMessage()
	message.SetSubject(&subject)

	messageBody := models.NewItemBody()
	messageBody.SetContent(&body)
	contentType := models.TEXT_BODYTYPE
	messageBody.SetContentType(&contentType)
	message.SetBody(messageBody)

	message.SetToRecipients([]models.Recipientable{newRecipient("", recipient)})

	requestBody := users.NewItemSendMailPostRequestBody()
	requestBody.SetMessage(message)

	logger.LogDebug(s.logger, "Calling Graph API", "method", "POST", "path", "/me/sendMail",
		"to", security.MaskEmail(recipient))
	if err := s.client.Me().SendMail().Post(ctx, requestBody, nil); err != nil {
		logger.LogError(s.logger, "Failed to send mail", "error", err)
		return newRemoteCallError("send mail", err)
	}

	logger.LogInfo(s.logger, "Mail sent", "to", security.MaskEmail(recipient))
	return nil
}

func newRecipient(name, address string) models.Recipientable {
	emailAddress := models.NewEmailAddress()
	emailAddress.SetAddress(&address)
	if name != "" {
		emailAddress.SetName(&name)
	}
	recipient := models.NewRecipient()
	recipient.SetEmailAddress(emailAddress)
	return recipient
}
