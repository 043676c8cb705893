// Package locale resolves the host timezone and country for session reports.
package locale

import (
	"fmt"
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// fallbackTimezone is reported when the runtime zone cannot be read
const fallbackTimezone = "UTC"

// Info is where the session ran
type Info struct {
	Timezone string
	Country  string // empty when the zone has no country
}

// Detect returns the local timezone and its country
func Detect() Info {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil || timezone == "" {
		timezone = fallbackTimezone
	}
	return ForTimezone(timezone)
}

// ForTimezone resolves the country for an IANA timezone.
// Exported for testing with specific timezones.
func ForTimezone(timezone string) Info {
	info := Info{Timezone: timezone}

	// UTC/GMT carry no country association
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return info
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return info
	}
	if country, err := tzMap.GetCountry(timezone); err == nil {
		info.Country = country
	}
	return info
}

func (i Info) String() string {
	if i.Country == "" {
		return i.Timezone
	}
	return fmt.Sprintf("%s (%s)", i.Timezone, i.Country)
}
