package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/jobscout/jobscout/internal/jobsearch"
)

// SearchJobsInput are the arguments the model supplies for a job search.
type SearchJobsInput struct {
	Query    string `json:"query" jsonschema_description:"Job search query, e.g. 'remote backend engineer'. Required."`
	Location string `json:"location,omitempty" jsonschema_description:"Optional location filter, e.g. 'Berlin, Germany'."`
	Recency  string `json:"recency,omitempty" jsonschema_description:"Optional posting-age filter: today, 3days, week, or month."`
}

var SearchJobsInputSchema = GenerateSchema[SearchJobsInput]()

// JobSearcher is the capability behind the search_jobs tool.
type JobSearcher interface {
	Search(ctx context.Context, query, location, recency string) ([]jobsearch.Posting, error)
}

// maxSearchResults caps how many postings flow into one observation so tool
// results stay predictably small for the model.
const maxSearchResults = 20

// NewSearchJobsTool wires a search backend into a tool definition. A search
// that matches nothing is a success with no_results set, distinct from any
// upstream failure.
func NewSearchJobsTool(searcher JobSearcher) ToolDefinition {
	return ToolDefinition{
		Name:        "search_jobs",
		Description: "Search for current job postings matching a query. Returns a JSON object with a count and a results list of postings (title, company, location, link, posted_at). A count of 0 with no_results=true means the search worked but nothing matched.",
		InputSchema: SearchJobsInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in SearchJobsInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid search_jobs arguments: %w", err)
			}
			if in.Query == "" {
				return "", fmt.Errorf("search_jobs requires a non-empty query")
			}

			postings, err := searcher.Search(ctx, in.Query, in.Location, in.Recency)
			if err != nil {
				return "", err
			}
			if len(postings) > maxSearchResults {
				postings = postings[:maxSearchResults]
			}

			payload := "{}"
			payload, _ = sjson.Set(payload, "count", len(postings))
			if len(postings) == 0 {
				payload, _ = sjson.Set(payload, "no_results", true)
				payload, _ = sjson.Set(payload, "note", "the search succeeded but matched no postings")
				return payload, nil
			}
			payload, _ = sjson.Set(payload, "results", postings)
			return payload, nil
		},
	}
}
