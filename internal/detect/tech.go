package detect

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/websummary/internal/model"
)

// Rule maps a technology name to a pattern.
type Rule struct {
	// Name is the technology name shown in the report.
	Name string

	// Pattern is matched against script src and link href values.
	Pattern *regexp.Regexp
}

// TechnologyCatalog is the ordered list of resource URL rules.
// Patterns are case-insensitive and unanchored.
var TechnologyCatalog = []Rule{
	{Name: "jQuery", Pattern: regexp.MustCompile(`(?i)jquery.*\.js`)},
	{Name: "Bootstrap", Pattern: regexp.MustCompile(`(?i)bootstrap.*\.js`)},
	{Name: "React", Pattern: regexp.MustCompile(`(?i)react.*\.js`)},
	{Name: "Vue", Pattern: regexp.MustCompile(`(?i)vue.*\.js`)},
	{Name: "Angular", Pattern: regexp.MustCompile(`(?i)angular.*\.js`)},
	{Name: "Ember", Pattern: regexp.MustCompile(`(?i)ember.*\.js`)},
	{Name: "Backbone", Pattern: regexp.MustCompile(`(?i)backbone.*\.js`)},
	{Name: "WordPress", Pattern: regexp.MustCompile(`(?i)/wp-content/`)},
	{Name: "Drupal", Pattern: regexp.MustCompile(`(?i)/sites/default/`)},
	{Name: "Joomla", Pattern: regexp.MustCompile(`(?i)/components/com_`)},
	{Name: "Magento", Pattern: regexp.MustCompile(`(?i)/static/frontend/`)},
	{Name: "Shopify", Pattern: regexp.MustCompile(`(?i)cdn.shopify.com`)},
	{Name: "Squarespace", Pattern: regexp.MustCompile(`(?i)squarespace.*\.js`)},
	{Name: "Wix", Pattern: regexp.MustCompile(`(?i)wix.*\.js`)},
	{Name: "Google Analytics", Pattern: regexp.MustCompile(`(?i)google-analytics\.com/ga\.js`)},
	{Name: "Google Tag Manager", Pattern: regexp.MustCompile(`(?i)googletagmanager\.com/gtm\.js`)},
	{Name: "jQuery UI", Pattern: regexp.MustCompile(`(?i)jquery-ui.*\.js`)},
	{Name: "Moment.js", Pattern: regexp.MustCompile(`(?i)moment.*\.js`)},
	{Name: "D3.js", Pattern: regexp.MustCompile(`(?i)d3.*\.js`)},
	{Name: "Three.js", Pattern: regexp.MustCompile(`(?i)three.*\.js`)},
	{Name: "Chart.js", Pattern: regexp.MustCompile(`(?i)chart.*\.js`)},
	{Name: "Lodash", Pattern: regexp.MustCompile(`(?i)lodash.*\.js`)},
	{Name: "Underscore.js", Pattern: regexp.MustCompile(`(?i)underscore.*\.js`)},
	{Name: "Handlebars.js", Pattern: regexp.MustCompile(`(?i)handlebars.*\.js`)},
	{Name: "TypeScript", Pattern: regexp.MustCompile(`(?i)typescript.*\.js`)},
	{Name: "Babel", Pattern: regexp.MustCompile(`(?i)babel.*\.js`)},
	{Name: "Webpack", Pattern: regexp.MustCompile(`(?i)webpack.*\.js`)},
	{Name: "Grunt", Pattern: regexp.MustCompile(`(?i)grunt.*\.js`)},
	{Name: "Gulp", Pattern: regexp.MustCompile(`(?i)gulp.*\.js`)},
	{Name: "Flask", Pattern: regexp.MustCompile(`(?i)flask.*\.js`)},
	{Name: "Django", Pattern: regexp.MustCompile(`(?i)django.*\.js`)},
	{Name: "Ruby on Rails", Pattern: regexp.MustCompile(`(?i)rails.*\.js`)},
	{Name: "ASP.NET", Pattern: regexp.MustCompile(`(?i)aspnet.*\.js`)},
	{Name: "Spring", Pattern: regexp.MustCompile(`(?i)spring.*\.js`)},
	{Name: "Laravel", Pattern: regexp.MustCompile(`(?i)laravel.*\.js`)},
	{Name: "Symfony", Pattern: regexp.MustCompile(`(?i)symfony.*\.js`)},
	{Name: "CodeIgniter", Pattern: regexp.MustCompile(`(?i)codeigniter.*\.js`)},
	{Name: "CakePHP", Pattern: regexp.MustCompile(`(?i)cakephp.*\.js`)},
	{Name: "PHP", Pattern: regexp.MustCompile(`(?i)\.php`)},
}

// phpURLPattern matches request URLs served by PHP.
var phpURLPattern = regexp.MustCompile(`(?i)\.php`)

// generatorCatalog maps meta generator prefixes to CMS names.
var generatorCatalog = []Rule{
	{Name: "WordPress", Pattern: regexp.MustCompile(`(?i)^\s*wordpress`)},
	{Name: "Drupal", Pattern: regexp.MustCompile(`(?i)^\s*drupal`)},
	{Name: "Joomla", Pattern: regexp.MustCompile(`(?i)^\s*joomla`)},
}

// PageSignals is everything the Fingerprinter looks at for one page.
type PageSignals struct {
	// URL is the request URL.
	URL string

	// Scripts are the src attributes of script elements.
	Scripts []string

	// Stylesheets are the href attributes of link elements.
	Stylesheets []string

	// Comments are the HTML comment texts.
	Comments []string

	// Generator is the content of the meta generator tag.
	Generator string

	// Header contains the response headers.
	Header http.Header
}

// Fingerprinter detects technologies used by a page.
//
// Design decision: The Fingerprinter does not decide when it runs. The
// crawl engine calls it at most once per run; keeping it a pure function
// of its input makes it trivially testable and safe to share.
type Fingerprinter struct {
	rules []Rule
}

// NewFingerprinter creates a Fingerprinter using TechnologyCatalog.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{rules: TechnologyCatalog}
}

// Fingerprint matches the page against the catalog and the header,
// comment and generator checks. It returns TechnologyDetected with sorted
// names, or TechnologyNoneDetected if nothing matched.
func (f *Fingerprinter) Fingerprint(signals PageSignals) model.TechnologyResult {
	found := make(map[string]struct{})

	for _, resources := range [][]string{signals.Scripts, signals.Stylesheets} {
		for _, ref := range resources {
			for _, rule := range f.rules {
				if rule.Pattern.MatchString(ref) {
					found[rule.Name] = struct{}{}
				}
			}
		}
	}

	for _, comment := range signals.Comments {
		if containsFold(comment, "php") {
			found["PHP"] = struct{}{}
		}
	}

	for _, name := range headerTechnologies(signals.Header) {
		found[name] = struct{}{}
	}

	if signals.Generator != "" {
		for _, rule := range generatorCatalog {
			if rule.Pattern.MatchString(signals.Generator) {
				found[rule.Name] = struct{}{}
			}
		}
	}

	if phpURLPattern.MatchString(signals.URL) {
		found["PHP"] = struct{}{}
	}

	result := model.TechnologyResult{URL: signals.URL}
	if len(found) == 0 {
		result.Status = model.TechnologyNoneDetected
		return result
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	result.Status = model.TechnologyDetected
	result.Names = names
	return result
}

// headerTechnologies inspects server-side headers.
func headerTechnologies(header http.Header) []string {
	if header == nil {
		return nil
	}

	var names []string
	if containsFold(header.Get("Server"), "php") {
		names = append(names, "PHP")
	}

	poweredBy := header.Get("X-Powered-By")
	if containsFold(poweredBy, "php") {
		names = append(names, "PHP")
	}
	if containsFold(poweredBy, "asp.net") {
		names = append(names, "ASP.NET")
	}

	if header.Get("X-AspNet-Version") != "" {
		names = append(names, "ASP.NET")
	}
	return names
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
