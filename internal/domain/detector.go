package domain

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title fragments typical of bot-challenge interstitials.
var challengeTitleFragments = []string{
	"just a moment",
	"attention required",
	"access denied",
	"are you a robot",
	"verifying you are human",
	"security check",
	"403 forbidden",
	"captcha",
}

// DOM markers of common challenge pages.
var challengeSelectors = []string{
	"#challenge-form",
	"#challenge-running",
	"#cf-wrapper",
	"form#distil_r_captcha",
	"div.g-recaptcha",
}

// IsBotChallenge reports whether the document looks like a bot-protection
// interstitial rather than the site's real landing page. These are reported
// as a distinct failure, not treated as empty pages.
func IsBotChallenge(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}

	title := strings.ToLower(strings.TrimSpace(doc.Find("head title").First().Text()))
	for _, fragment := range challengeTitleFragments {
		if strings.Contains(title, fragment) {
			return true
		}
	}

	for _, sel := range challengeSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
