package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack"
)

// Author is what the chat platform knows about a message author.
type Author struct {
	ID      string
	Name    string
	IsBot   bool
	Profile json.RawMessage
}

// UserDirectory resolves author ids to profiles.
type UserDirectory interface {
	LookupUser(ctx context.Context, userID string) (*Author, error)
}

type slackDirectory struct {
	client *slack.Client
}

func NewSlackDirectory(client *slack.Client) UserDirectory {
	return &slackDirectory{client: client}
}

func (d *slackDirectory) LookupUser(ctx context.Context, userID string) (*Author, error) {
	user, err := d.client.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("users.info %s: %w", userID, err)
	}

	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("encoding profile for %s: %w", userID, err)
	}

	name := user.RealName
	if name == "" {
		name = user.Name
	}

	return &Author{
		ID:      user.ID,
		Name:    name,
		IsBot:   user.IsBot,
		Profile: profile,
	}, nil
}
