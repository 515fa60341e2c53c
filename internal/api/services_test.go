package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEDSM_SystemFactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/factions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("systemId") != "4242" || r.URL.Query().Get("showHistory") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"id": 4242, "name": "Cubeo",
			"controllingFaction": {"id": 7, "name": "Cubeo Company", "government": "Cooperative"},
			"factions": [{
				"id": 7, "name": "Cubeo Company", "government": "Cooperative", "allegiance": "Empire",
				"influence": 0.41, "activeStates": [{"state": "Boom"}], "pendingStates": [],
				"influenceHistory": {"1700000000": 0.4}, "lastUpdate": 1700000100
			}]
		}`))
	}))
	defer srv.Close()

	edsm := NewEDSM(NewClient(Options{}), srv.URL)
	sf, err := edsm.SystemFactions(context.Background(), 4242)
	if err != nil {
		t.Fatalf("SystemFactions: %v", err)
	}
	if sf.ControllingFaction == nil || sf.ControllingFaction.ID != 7 {
		t.Errorf("controlling faction = %+v", sf.ControllingFaction)
	}
	if len(sf.Factions) != 1 || !sf.Factions[0].HasActiveState("boom") {
		t.Errorf("factions = %+v", sf.Factions)
	}
	if sf.Factions[0].InfluenceHistory["1700000000"] != 0.4 {
		t.Errorf("history not decoded: %v", sf.Factions[0].InfluenceHistory)
	}
}

func TestEDSM_SystemStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("systemName"); got != "LHS 1234" {
			t.Errorf("systemName = %q", got)
		}
		w.Write([]byte(`{"id": 1, "name": "LHS 1234", "stations": [
			{"id": 10, "name": "Dock", "type": "Coriolis Starport", "distanceToArrival": 312.5,
			 "controllingFaction": {"id": 7, "name": "Cubeo Company"}}
		]}`))
	}))
	defer srv.Close()

	stations, err := NewEDSM(NewClient(Options{}), srv.URL+"/").SystemStations(context.Background(), "LHS 1234")
	if err != nil {
		t.Fatalf("SystemStations: %v", err)
	}
	if len(stations) != 1 || stations[0].ControllingFaction.ID != 7 || stations[0].DistanceToArrival != 312.5 {
		t.Errorf("stations = %+v", stations)
	}
}

func TestEliteBGS_LastTick(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id": "abc", "time": "2026-10-13T15:04:05.000Z"}]`))
	}))
	defer srv.Close()

	tick, err := NewEliteBGS(NewClient(Options{}), srv.URL).LastTick(context.Background())
	if err != nil {
		t.Fatalf("LastTick: %v", err)
	}
	want := time.Date(2026, 10, 13, 15, 4, 5, 0, time.UTC)
	if !tick.Equal(want) {
		t.Errorf("tick = %v, want %v", tick, want)
	}
}

func TestEliteBGS_NoTick(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewEliteBGS(NewClient(Options{}), srv.URL).LastTick(context.Background())
	if !errors.Is(err, ErrNoTick) {
		t.Fatalf("expected ErrNoTick, got %v", err)
	}
}

func TestTrello_BoardCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boards/b0ard/cards/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("token") != "tok" || q.Get("fields") != "name,desc,idList,idLabels" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id": "c1", "name": "Rhea", "idList": "L1", "idLabels": ["top"]}]`))
	}))
	defer srv.Close()

	cards, err := NewTrello(NewClient(Options{}), srv.URL, "k", "tok").BoardCards(context.Background(), "b0ard")
	if err != nil {
		t.Fatalf("BoardCards: %v", err)
	}
	if len(cards) != 1 || !cards[0].HasLabel("top") || cards[0].HasLabel("") {
		t.Errorf("cards = %+v", cards)
	}
}
