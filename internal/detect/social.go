package detect

import (
	"regexp"
	"strings"

	"github.com/nao1215/websummary/internal/model"
)

// SocialCatalog is the ordered list of platform rules matched against
// anchor hrefs. Patterns are case-insensitive and unanchored, so an href
// like "https://www.facebook.com/acme?ref=footer" matches Facebook.
var SocialCatalog = []Rule{
	{Name: "Facebook", Pattern: regexp.MustCompile(`(?i)facebook\.com`)},
	{Name: "Twitter", Pattern: regexp.MustCompile(`(?i)twitter\.com|(?:^|[/.])x\.com(?:[/?#:]|$)`)},
	{Name: "LinkedIn", Pattern: regexp.MustCompile(`(?i)linkedin\.com`)},
	{Name: "Instagram", Pattern: regexp.MustCompile(`(?i)instagram\.com`)},
	{Name: "YouTube", Pattern: regexp.MustCompile(`(?i)youtube\.com|youtu\.be/`)},
	{Name: "Pinterest", Pattern: regexp.MustCompile(`(?i)pinterest\.com`)},
	{Name: "TikTok", Pattern: regexp.MustCompile(`(?i)tiktok\.com`)},
	{Name: "Reddit", Pattern: regexp.MustCompile(`(?i)reddit\.com`)},
	{Name: "GitHub", Pattern: regexp.MustCompile(`(?i)github\.com`)},
	{Name: "Telegram", Pattern: regexp.MustCompile(`(?i)(?:^|[/.])(?:t|telegram)\.me/`)},
	{Name: "Discord", Pattern: regexp.MustCompile(`(?i)discord\.gg/|discord(?:app)?\.com/invite/`)},
	{Name: "WhatsApp", Pattern: regexp.MustCompile(`(?i)(?:^|[/.])wa\.me/|chat\.whatsapp\.com/`)},
}

// SocialDetector finds social-media links among anchor hrefs.
type SocialDetector struct {
	rules []Rule
}

// NewSocialDetector creates a SocialDetector using SocialCatalog.
func NewSocialDetector() *SocialDetector {
	return &SocialDetector{rules: SocialCatalog}
}

// Detect returns a (platform, href) pair for every href matching a platform.
// An href matching several platforms is reported once per platform.
// Duplicates within hrefs are reported once.
func (d *SocialDetector) Detect(hrefs []string) []model.SocialLink {
	var links []model.SocialLink
	seen := make(map[model.SocialLink]struct{})

	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		for _, rule := range d.rules {
			if !rule.Pattern.MatchString(href) {
				continue
			}
			link := model.SocialLink{Platform: rule.Name, URL: href}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links
}
