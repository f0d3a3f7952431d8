package dialogue

import (
	"fmt"
	"strings"
	"time"
)

// Service is one bookable catalog entry.
type Service struct {
	Name     string
	Duration time.Duration
}

// Catalog is the static list of bookable services. It is injected into
// the engine at construction and never mutated at runtime.
type Catalog []Service

// DefaultDuration applies when a draft carries no selected service.
const DefaultDuration = time.Hour

// DefaultCatalog returns the salon's current service menu.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "剪髮", Duration: time.Hour},
		{Name: "染髮", Duration: 2 * time.Hour},
		{Name: "燙髮", Duration: 2 * time.Hour},
		{Name: "護髮", Duration: time.Hour},
	}
}

// Match returns the first catalog service mentioned in the message.
func (c Catalog) Match(text string) (Service, bool) {
	for _, svc := range c {
		if strings.Contains(text, svc.Name) {
			return svc, true
		}
	}
	return Service{}, false
}

// DurationOf returns the duration for a service name, falling back to
// DefaultDuration for unknown or empty names.
func (c Catalog) DurationOf(name string) time.Duration {
	for _, svc := range c {
		if svc.Name == name {
			return svc.Duration
		}
	}
	return DefaultDuration
}

// Menu renders the catalog as a single line for prompts.
func (c Catalog) Menu() string {
	parts := make([]string, 0, len(c))
	for _, svc := range c {
		parts = append(parts, fmt.Sprintf("%s（%d小時）", svc.Name, int(svc.Duration.Hours())))
	}
	return strings.Join(parts, "、")
}
