package fetch

import (
	"math/rand"
	"net/http"
)

// HeaderProfile is a coherent set of request headers for one browser/device.
type HeaderProfile struct {
	UserAgent       string
	Accept          string
	AcceptLanguage  string
	SecFetchDest    string
	SecFetchMode    string
	SecFetchSite    string
	SecChUa         string
	SecChUaMobile   string
	SecChUaPlatform string
}

// HeaderStrategy selects the pool a profile is drawn from.
type HeaderStrategy string

const (
	StrategyModernBrowser HeaderStrategy = "modern_browser"
	StrategyMobileDevice  HeaderStrategy = "mobile_device"
	StrategyBotFriendly   HeaderStrategy = "bot_friendly"
)

const htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

var modernBrowserProfiles = []HeaderProfile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Accept:          htmlAccept,
		AcceptLanguage:  "en-UG,en-GB;q=0.9,en;q=0.8",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecChUa:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUaMobile:   "?0",
		SecChUaPlatform: `"Windows"`,
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
		Accept:         htmlAccept,
		AcceptLanguage: "en-GB,en;q=0.9",
		SecFetchDest:   "document",
		SecFetchMode:   "navigate",
		SecFetchSite:   "none",
	},
}

var mobileDeviceProfiles = []HeaderProfile{
	{
		UserAgent:       "Mozilla/5.0 (Linux; Android 14; SM-A155F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Accept:          htmlAccept,
		AcceptLanguage:  "en-UG,en;q=0.9",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecChUa:         `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		SecChUaMobile:   "?1",
		SecChUaPlatform: `"Android"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (iPhone; CPU iPhone OS 18_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Mobile/15E148 Safari/604.1",
		Accept:          htmlAccept,
		AcceptLanguage:  "en-GB,en;q=0.9",
		SecFetchDest:    "document",
		SecFetchMode:    "navigate",
		SecFetchSite:    "none",
		SecChUaMobile:   "?1",
		SecChUaPlatform: `"iOS"`,
	},
}

var botFriendlyProfiles = []HeaderProfile{
	{
		UserAgent:      "Mozilla/5.0 (compatible; JobcrawlerBot/1.0)",
		Accept:         htmlAccept,
		AcceptLanguage: "en;q=0.9",
	},
}

// ParseStrategy maps a config value to a strategy, defaulting to modern_browser.
func ParseStrategy(s string) HeaderStrategy {
	switch HeaderStrategy(s) {
	case StrategyMobileDevice, StrategyBotFriendly:
		return HeaderStrategy(s)
	default:
		return StrategyModernBrowser
	}
}

// GetHeaderProfile returns a random profile for the given strategy.
func GetHeaderProfile(strategy HeaderStrategy) HeaderProfile {
	switch strategy {
	case StrategyModernBrowser:
		return modernBrowserProfiles[rand.Intn(len(modernBrowserProfiles))]
	case StrategyMobileDevice:
		return mobileDeviceProfiles[rand.Intn(len(mobileDeviceProfiles))]
	case StrategyBotFriendly:
		return botFriendlyProfiles[rand.Intn(len(botFriendlyProfiles))]
	default:
		return modernBrowserProfiles[0]
	}
}

// Apply writes the non-empty profile fields onto h.
func (p HeaderProfile) Apply(h *http.Header) {
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	set("User-Agent", p.UserAgent)
	set("Accept", p.Accept)
	set("Accept-Language", p.AcceptLanguage)
	set("Sec-Fetch-Dest", p.SecFetchDest)
	set("Sec-Fetch-Mode", p.SecFetchMode)
	set("Sec-Fetch-Site", p.SecFetchSite)
	set("Sec-Ch-Ua", p.SecChUa)
	set("Sec-Ch-Ua-Mobile", p.SecChUaMobile)
	set("Sec-Ch-Ua-Platform", p.SecChUaPlatform)
}
