package classify

import (
	"net/url"
	"strings"
)

const (
	maxTags     = 4
	fallbackTag = "Tech"
)

// rule binds a tag to the ordered keyword list that selects it. Rules are
// evaluated in slice order; the first matching keyword claims the tag.
type rule struct {
	tag      string
	keywords []string
}

// Topical rules are checked before company rules. Order matters for the
// 4-tag cap, so both tables are slices, never maps.
var topicRules = []rule{
	{"AI", []string{"llm", "gpt-", "chatgpt", "machine learning", "neural net", "deep learning", "transformer", " ai ", "artificial intelligence", "diffusion model"}},
	{"Security", []string{"security", "vulnerability", "exploit", "breach", "malware", "ransomware", "zero-day", "cve-", "phishing"}},
	{"Programming", []string{"programming", "compiler", "golang", " rust ", "python", "javascript", "typescript", "debugging", "refactor", "open source", "github"}},
	{"Web", []string{"browser", "chrome", "firefox", "css", "html", "frontend", "web app", "http/", "webassembly"}},
	{"Hardware", []string{"chip", "gpu", "cpu", "semiconductor", "raspberry pi", "arduino", "risc-v", "fpga"}},
	{"Science", []string{"research", "quantum", "physics", "biology", "astronomy", "genome", "telescope", "spacecraft"}},
	{"Crypto", []string{"bitcoin", "ethereum", "blockchain", "cryptocurrency", "web3"}},
	{"Startups", []string{"startup", "funding round", "series a", "series b", "acquisition", "venture capital", "y combinator"}},
}

var companyRules = []rule{
	{"OpenAI", []string{"openai", "chatgpt", "sam altman"}},
	{"Google", []string{"google", "deepmind", "android", "gemini"}},
	{"Apple", []string{"apple", "iphone", "macos", "ipad"}},
	{"Microsoft", []string{"microsoft", "windows", "azure", "copilot"}},
	{"Meta", []string{"meta ", "facebook", "instagram", "whatsapp"}},
	{"Amazon", []string{"amazon", " aws ", "alexa"}},
	{"Nvidia", []string{"nvidia", "cuda"}},
	{"Tesla", []string{"tesla", "spacex", "elon musk"}},
}

// domainRule maps a hostname fragment to a tag. Consulted only when no
// keyword matched, and only the first match is taken.
type domainRule struct {
	fragment string
	tag      string
}

var domainRules = []domainRule{
	{"github.com", "Programming"},
	{"arxiv.org", "Science"},
	{"nature.com", "Science"},
	{"techcrunch.com", "Startups"},
	{"bloomberg.com", "Business"},
	{"youtube.com", "Media"},
	{"substack.com", "Media"},
}

// Tags maps a free-text title and optional URL to at most four topical
// or company labels, never returning an empty list.
func Tags(title, rawURL string) []string {
	lowered := strings.ToLower(title)
	// Pad so word-boundary-sensitive keywords like " ai " can match at the
	// edges of the title.
	padded := " " + lowered + " "

	var tags []string
	for _, r := range topicRules {
		if matchesAny(padded, r.keywords) {
			tags = append(tags, r.tag)
		}
	}
	for _, r := range companyRules {
		if matchesAny(padded, r.keywords) {
			tags = append(tags, r.tag)
		}
	}

	if len(tags) == 0 && rawURL != "" {
		if tag, ok := tagFromDomain(rawURL); ok {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, fallbackTag)
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

func matchesAny(padded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(padded, kw) {
			return true
		}
	}
	return false
}

func tagFromDomain(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	host := strings.ToLower(parsed.Host)
	for _, r := range domainRules {
		if strings.Contains(host, r.fragment) {
			return r.tag, true
		}
	}
	return "", false
}
