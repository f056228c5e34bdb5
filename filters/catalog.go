package filters

import "fmt"

// Filter name constants used in catalog definitions and lookup matches.
const (
	FilterChannel    = "channel"
	FilterPersona    = "persona"
	FilterGoal       = "goal"
	FilterTimePeriod = "time_period"
	FilterLocation   = "location"
	FilterSyntax     = "syntax"
)

// Definition is a single entry of the fixed filter/keyword catalog. The
// catalog is embedded offline and searched by similarity; it is read-only
// after initial load.
type Definition struct {
	Name        string   // filter name, e.g. "channel"
	Value       string   // canonical value, e.g. "twitter"
	Description string   // indexed alongside the value for retrieval
	Aliases     []string // alternate spellings folded into the indexed text
}

// DocumentText renders the text that gets embedded for this definition.
func (d Definition) DocumentText() string {
	text := fmt.Sprintf("%s: %s", d.Name, d.Value)
	if d.Description != "" {
		text += " - " + d.Description
	}
	for _, alias := range d.Aliases {
		text += " " + alias
	}
	return text
}

// ID returns a stable identifier for the definition.
func (d Definition) ID() string {
	return d.Name + ":" + d.Value
}

// DefaultCatalog returns the built-in filter and keyword definitions the
// assistant ships with.
func DefaultCatalog() []Definition {
	return []Definition{
		{Name: FilterChannel, Value: "twitter", Description: "public posts and replies on Twitter/X", Aliases: []string{"x", "tweets"}},
		{Name: FilterChannel, Value: "instagram", Description: "Instagram posts, reels and comments", Aliases: []string{"insta"}},
		{Name: FilterChannel, Value: "facebook", Description: "Facebook pages, posts and comments", Aliases: []string{"fb"}},
		{Name: FilterChannel, Value: "youtube", Description: "YouTube videos and comment threads"},
		{Name: FilterChannel, Value: "tiktok", Description: "TikTok videos and comments"},
		{Name: FilterChannel, Value: "linkedin", Description: "LinkedIn posts and company pages"},
		{Name: FilterChannel, Value: "reddit", Description: "Reddit submissions and comments", Aliases: []string{"subreddit"}},
		{Name: FilterChannel, Value: "news", Description: "online news articles and press coverage"},
		{Name: FilterChannel, Value: "blogs", Description: "blog posts and editorial content"},
		{Name: FilterChannel, Value: "forums", Description: "discussion forums and community boards"},
		{Name: FilterChannel, Value: "reviews", Description: "product review sites and ratings"},

		{Name: FilterPersona, Value: "brand manager", Description: "tracks brand perception and share of voice"},
		{Name: FilterPersona, Value: "sales manager", Description: "tracks demand signals and lead conversations"},
		{Name: FilterPersona, Value: "marketing analyst", Description: "measures campaign reach and engagement"},
		{Name: FilterPersona, Value: "product manager", Description: "mines feature requests and complaints"},
		{Name: FilterPersona, Value: "customer support lead", Description: "monitors support issues and response quality"},

		{Name: FilterGoal, Value: "brand health", Description: "overall sentiment, awareness and reputation of the brand"},
		{Name: FilterGoal, Value: "campaign analysis", Description: "performance and reception of a marketing campaign"},
		{Name: FilterGoal, Value: "competitor analysis", Description: "comparison against competing brands and products"},
		{Name: FilterGoal, Value: "customer feedback", Description: "complaints, praise and feature requests from customers"},
		{Name: FilterGoal, Value: "crisis detection", Description: "spikes of negative coverage or emerging incidents"},
		{Name: FilterGoal, Value: "influencer identification", Description: "accounts driving the conversation about the brand"},
		{Name: FilterGoal, Value: "product insights", Description: "what users say about specific product features"},
		{Name: FilterGoal, Value: "market trends", Description: "emerging topics and shifts in the product category"},

		{Name: FilterTimePeriod, Value: "last 7 days", Description: "the most recent week of data", Aliases: []string{"past week"}},
		{Name: FilterTimePeriod, Value: "last 30 days", Description: "the most recent month of data", Aliases: []string{"past month"}},
		{Name: FilterTimePeriod, Value: "last 90 days", Description: "the most recent quarter of data", Aliases: []string{"past quarter"}},
		{Name: FilterTimePeriod, Value: "last 365 days", Description: "the most recent year of data", Aliases: []string{"past year"}},

		{Name: FilterSyntax, Value: "AND", Description: "boolean conjunction of query terms"},
		{Name: FilterSyntax, Value: "OR", Description: "boolean disjunction of query terms"},
		{Name: FilterSyntax, Value: "NOT", Description: "boolean exclusion of query terms"},
	}
}
