package api

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultTrelloURL is the Trello REST API root.
const DefaultTrelloURL = "https://api.trello.com/1/"

// Card is a project-board card with its list and label ids.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Desc     string   `json:"desc"`
	IDList   string   `json:"idList"`
	IDLabels []string `json:"idLabels"`
}

// HasLabel reports whether the card carries label id.
func (c Card) HasLabel(id string) bool {
	return id != "" && slices.Contains(c.IDLabels, id)
}

// Trello reads cards from boards with an API key and token.
type Trello struct {
	client  *Client
	baseURL string
	key     string
	token   string
}

// NewTrello creates a Trello client. An empty baseURL selects DefaultTrelloURL.
func NewTrello(client *Client, baseURL, key, token string) *Trello {
	if baseURL == "" {
		baseURL = DefaultTrelloURL
	}
	return &Trello{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		key:     key,
		token:   token,
	}
}

// BoardCards returns every card on a board, in board order.
func (t *Trello) BoardCards(ctx context.Context, boardID string) ([]Card, error) {
	q := url.Values{}
	q.Set("key", t.key)
	q.Set("token", t.token)
	q.Set("fields", "name,desc,idList,idLabels")

	endpoint := fmt.Sprintf("%sboards/%s/cards/?%s", t.baseURL, url.PathEscape(boardID), q.Encode())
	var cards []Card
	if err := t.client.GetJSON(ctx, endpoint, &cards); err != nil {
		return nil, fmt.Errorf("fetch cards of board %s: %w", boardID, err)
	}
	return cards, nil
}
