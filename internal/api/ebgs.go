package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultEBGSURL is the EliteBGS API root.
const DefaultEBGSURL = "https://elitebgs.app/api/ebgs/v5/"

// ErrNoTick is returned when the tick endpoint returns no entries.
var ErrNoTick = errors.New("no tick reported")

// EliteBGS fetches background simulation tick times.
type EliteBGS struct {
	client  *Client
	baseURL string
}

// NewEliteBGS creates an EliteBGS client. An empty baseURL selects DefaultEBGSURL.
func NewEliteBGS(client *Client, baseURL string) *EliteBGS {
	if baseURL == "" {
		baseURL = DefaultEBGSURL
	}
	return &EliteBGS{client: client, baseURL: strings.TrimRight(baseURL, "/") + "/"}
}

type tick struct {
	ID   string    `json:"_id"`
	Time time.Time `json:"time"`
}

// LastTick returns the time of the most recent tick.
func (b *EliteBGS) LastTick(ctx context.Context) (time.Time, error) {
	var ticks []tick
	if err := b.client.GetJSON(ctx, b.baseURL+"ticks", &ticks); err != nil {
		return time.Time{}, fmt.Errorf("fetch last tick: %w", err)
	}
	if len(ticks) == 0 {
		return time.Time{}, ErrNoTick
	}
	return ticks[0].Time, nil
}
