package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bgsforge/powerstate/internal/galaxy"
)

// DefaultEDSMURL is the EDSM system API root.
const DefaultEDSMURL = "https://www.edsm.net/api-system-v1/"

// EDSM fetches per-system faction and station data.
type EDSM struct {
	client  *Client
	baseURL string
}

// NewEDSM creates an EDSM client. An empty baseURL selects DefaultEDSMURL.
func NewEDSM(client *Client, baseURL string) *EDSM {
	if baseURL == "" {
		baseURL = DefaultEDSMURL
	}
	return &EDSM{client: client, baseURL: strings.TrimRight(baseURL, "/") + "/"}
}

// SystemFactions returns factions with influence history for an EDSM system id.
func (e *EDSM) SystemFactions(ctx context.Context, systemID int64) (*galaxy.SystemFactions, error) {
	q := url.Values{}
	q.Set("systemId", strconv.FormatInt(systemID, 10))
	q.Set("showHistory", "1")

	var sf galaxy.SystemFactions
	if err := e.client.GetJSON(ctx, e.baseURL+"factions?"+q.Encode(), &sf); err != nil {
		return nil, fmt.Errorf("fetch factions of system %d: %w", systemID, err)
	}
	return &sf, nil
}

type stationsResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Stations []*galaxy.Station `json:"stations"`
}

// SystemStations returns the stations of a system by name.
func (e *EDSM) SystemStations(ctx context.Context, systemName string) ([]*galaxy.Station, error) {
	q := url.Values{}
	q.Set("systemName", systemName)

	var resp stationsResponse
	if err := e.client.GetJSON(ctx, e.baseURL+"stations?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch stations of %s: %w", systemName, err)
	}
	return resp.Stations, nil
}
