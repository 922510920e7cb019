// Package browser drives an authenticated browser session through login,
// manual challenge, navigation, content expansion and text harvesting.
package browser

import (
	"time"
)

// State is a step of one extraction run.
type State string

const (
	StateInit                    State = "init"
	StateLoggingIn               State = "logging_in"
	StateChallengeCheck          State = "challenge_check"
	StateAwaitingManualChallenge State = "awaiting_manual_challenge"
	StateNavigating              State = "navigating"
	StateExpanding               State = "expanding"
	StateHarvesting              State = "harvesting"
	StateDone                    State = "done"
)

// Selectors for the target site's DOM.
const (
	SelectorUsername  = "#username"
	SelectorPassword  = "#password"
	SelectorSubmit    = `button[type="submit"]`
	SelectorBody      = "body"
	SelectorChallenge = ".captcha__prompt, .rc-imageselect-tile"
	SelectorSeeMore   = ".inline-show-more-text__button.inline-show-more-text__button--light.link"
)

const DefaultLoginURL = "https://www.linkedin.com/login"

// Credentials are used for one run and never logged.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) String() string { return "Credentials{redacted}" }

// GoString keeps %#v from printing the password.
func (c Credentials) GoString() string { return c.String() }

// Options bounds every wait of a run.
type Options struct {
	Headless          bool
	ExecutablePath    string
	LoginURL          string
	NavigationTimeout time.Duration

	LoginFormTimeout      time.Duration
	ChallengeProbeDelay   time.Duration
	ChallengeProbeTimeout time.Duration
	BodyTimeout           time.Duration
	PostLoginSettle       time.Duration
	ProfileSettle         time.Duration
	ExpandDelay           time.Duration

	ExpandSelectors []string
}

func DefaultOptions() Options {
	return Options{
		LoginURL:              DefaultLoginURL,
		NavigationTimeout:     60 * time.Second,
		LoginFormTimeout:      20 * time.Second,
		ChallengeProbeDelay:   2 * time.Second,
		ChallengeProbeTimeout: 5 * time.Second,
		BodyTimeout:           30 * time.Second,
		PostLoginSettle:       3 * time.Second,
		ProfileSettle:         5 * time.Second,
		ExpandDelay:           time.Second,
		ExpandSelectors:       []string{SelectorSeeMore},
	}
}

// Harvest is the raw page text with its provenance.
type Harvest struct {
	Text        string
	SourceURL   string
	ExtractedAt time.Time
	Expanded    int
}
