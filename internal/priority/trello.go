package priority

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bgsforge/powerstate/internal/api"
)

// CardSource lists the cards of a board.
type CardSource interface {
	BoardCards(ctx context.Context, boardID string) ([]api.Card, error)
}

// Labels maps the three tiers onto board label ids.
type Labels struct {
	Top  string `yaml:"top" json:"top"`
	High string `yaml:"high" json:"high"`
	Low  string `yaml:"low" json:"low"`
}

// tier returns the best tier among the card's labels.
func (l Labels) tier(card api.Card) (Tier, bool) {
	switch {
	case card.HasLabel(l.Top):
		return TierTop, true
	case card.HasLabel(l.High):
		return TierHigh, true
	case card.HasLabel(l.Low):
		return TierLow, true
	}
	return TierNone, false
}

// DefaultDoNotFortifyMarker opens the do-not-fortify section of the orders list.
const DefaultDoNotFortifyMarker = "!!! DO NOT FORTIFY EVER !!!"

// TrelloMapping locates priorities on the project boards.
type TrelloMapping struct {
	// ConfigBoard carries the sphere priority and blacklist lists.
	ConfigBoard          string `yaml:"config_board" json:"config_board"`
	PriorityList         string `yaml:"priority_list" json:"priority_list"`
	PriorityLabels       Labels `yaml:"priority_labels" json:"priority_labels"`
	BlacklistList        string `yaml:"blacklist_list" json:"blacklist_list"`
	DoNotFortifyLabel    string `yaml:"do_not_fortify_label" json:"do_not_fortify_label"`
	ManagedByOthersLabel string `yaml:"managed_by_others_label" json:"managed_by_others_label"`

	// FortBoard carries fortification orders. Card names may be suffixed
	// with " - comment".
	FortBoard          string `yaml:"fort_board" json:"fort_board"`
	FortList           string `yaml:"fort_list" json:"fort_list"`
	FortLabels         Labels `yaml:"fort_labels" json:"fort_labels"`
	OrdersList         string `yaml:"orders_list" json:"orders_list"`
	DoNotFortifyMarker string `yaml:"do_not_fortify_marker,omitempty" json:"do_not_fortify_marker,omitempty"`
}

// Enabled reports whether any board is configured.
func (m TrelloMapping) Enabled() bool { return m.ConfigBoard != "" || m.FortBoard != "" }

// LoadTrello reads both boards once and converts them to Entries.
func LoadTrello(ctx context.Context, src CardSource, m TrelloMapping) (Entries, error) {
	e := Entries{Priorities: map[string]int{}, FortPriorities: map[string]int{}}

	if m.ConfigBoard != "" {
		cards, err := src.BoardCards(ctx, m.ConfigBoard)
		if err != nil {
			return Entries{}, fmt.Errorf("load config board: %w", err)
		}
		readConfigCards(&e, cards, m)
	}

	if m.FortBoard != "" {
		cards, err := src.BoardCards(ctx, m.FortBoard)
		if err != nil {
			return Entries{}, fmt.Errorf("load fort board: %w", err)
		}
		readFortCards(&e, cards, m)
	}

	e.DoNotFortify = dedupe(e.DoNotFortify)
	return e, nil
}

func readConfigCards(e *Entries, cards []api.Card, m TrelloMapping) {
	for _, card := range cards {
		switch card.IDList {
		case m.PriorityList:
			if t, ok := m.PriorityLabels.tier(card); ok {
				e.Priorities[card.Name] = int(t)
			}
		case m.BlacklistList:
			if card.HasLabel(m.DoNotFortifyLabel) {
				e.DoNotFortify = append(e.DoNotFortify, card.Name)
			}
			if card.HasLabel(m.ManagedByOthersLabel) {
				e.ManagedByOthers = append(e.ManagedByOthers, card.Name)
			}
		}
	}
}

func readFortCards(e *Entries, cards []api.Card, m TrelloMapping) {
	marker := m.DoNotFortifyMarker
	if marker == "" {
		marker = DefaultDoNotFortifyMarker
	}

	inDoNotFortify := false
	for _, card := range cards {
		switch {
		case card.IDList == m.FortList && m.FortList != "":
			if t, ok := m.FortLabels.tier(card); ok {
				e.FortPriorities[sphereName(card.Name)] = int(t)
			}
		case card.IDList != m.OrdersList || m.OrdersList == "":
		case card.Name == marker:
			inDoNotFortify = true
		case inDoNotFortify && strings.Contains(card.Name, "!!!"):
			inDoNotFortify = false
		case inDoNotFortify:
			e.DoNotFortify = append(e.DoNotFortify, card.Name)
		}
	}
}

var commentSeparator = regexp.MustCompile(`\s+-\s+`)

// sphereName strips a " - comment" suffix from a card name.
func sphereName(name string) string {
	return strings.TrimSpace(commentSeparator.Split(name, 2)[0])
}
