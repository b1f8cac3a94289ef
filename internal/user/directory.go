package user

import (
	"context"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
)

// Directory exposes users as notification recipients for scheduled jobs.
type Directory struct {
	service Service
}

func NewDirectory(service Service) *Directory {
	return &Directory{service: service}
}

func (d *Directory) Recipient(ctx context.Context, userID string) (*application.Recipient, error) {
	user, err := d.service.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recipient := toRecipient(*user)
	return &recipient, nil
}

func (d *Directory) Recipients(ctx context.Context) ([]application.Recipient, error) {
	users, err := d.service.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	recipients := make([]application.Recipient, 0, len(users))
	for _, user := range users {
		recipients = append(recipients, toRecipient(user))
	}
	return recipients, nil
}

func toRecipient(user User) application.Recipient {
	return application.Recipient{UserID: user.ID, Email: user.Email, Name: user.Name}
}
