package report

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bgsforge/powerstate/internal/galaxy"
)

const (
	edsmURL  = "https://www.edsm.net/en/"
	inaraURL = "https://inara.cz/search/?location=search&searchglobal="
	target   = `{:target="_blank"}`
)

func itoa(n int) string { return strconv.Itoa(n) }

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }

// SystemLink renders a system name with EDSM and Inara links.
func SystemLink(s *galaxy.System) string {
	return fmt.Sprintf("%s <sup>[M](%ssystem/id/%d/name/%s)%s [I](%s%s)%s</sup>",
		s.Name, edsmURL, s.ExternalID, url.PathEscape(s.Name), target,
		inaraURL, url.QueryEscape(s.Name), target)
}

// FactionLink renders a faction name with EDSM and Inara links.
func FactionLink(f *galaxy.Faction) string {
	return fmt.Sprintf("%s <sup>[M](%sfaction/id/%d/name/%s)%s [I](%s%s)%s</sup>",
		f.Name, edsmURL, f.ID, url.QueryEscape(f.Name), target,
		inaraURL, url.QueryEscape(f.Name), target)
}

// Distance formats a distance to HQ.
func Distance(ly float64) string { return fmt.Sprintf("%.1f LY", ly) }

// Percent formats a ratio in [0,1] as a percentage.
func Percent(ratio float64) string { return fmt.Sprintf("%.1f%%", 100*ratio) }

// Points formats an influence difference in percent points with a sign.
func Points(delta float64) string { return fmt.Sprintf("%+.1f", 100*delta) }

// CC formats a CC amount.
func CC(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v)) + " CC"
	}
	return humanize.CommafWithDigits(v, 1) + " CC"
}

// States lists active states, then pending states on a second line.
func States(f *galaxy.Faction) string {
	active := f.ActiveStateNames()
	text := "None"
	if len(active) > 0 {
		text = strings.Join(active, ", ")
	}
	if pending := f.PendingStateNames(); len(pending) > 0 {
		text += "<br>(Pending: " + strings.Join(pending, ", ") + ")"
	}
	return text
}

// ageClass colors data older than a day yellow and older than four days red.
func ageClass(age time.Duration) string {
	switch days := age.Hours() / 24; {
	case days > 4:
		return "age-red"
	case days > 1:
		return "age-yellow"
	default:
		return "age-green"
	}
}

// UpdatedAt renders the age of a system's faction data relative to now.
func UpdatedAt(updated, now time.Time) string {
	if updated.IsZero() {
		return "Unknown"
	}
	stamp := updated.UTC().Format(time.RFC3339)
	return fmt.Sprintf(`<u><em class="timeago %s" datetime="%s" data-toggle="tooltip" title="%s">%s</em></u>`,
		ageClass(now.Sub(updated)), stamp, stamp, humanize.RelTime(updated, now, "ago", "from now"))
}
