// Package ytscrape extracts regular expression matches from the descriptions
// of every video a YouTube channel has uploaded.
//
// Overview
//
// A scrape resolves the channel's uploads playlist on the YouTube Data API
// v3, pages through it to collect every video id, fetches titles and
// descriptions in batches of up to 50 ids, and then prints the matches of
// each pattern, one per line:
//
//	cfg := config.DefaultConfig()
//	cfg.APIKey = os.Getenv("API_KEY")
//	cfg.ChannelID = "UCxxxxxxxxxxxxxxxxxxxxxx"
//	cfg.Patterns = []string{`https?://(?:www\.)?dropbox\.com/\S+`}
//
//	res, err := ytscrape.Scrape(ctx, cfg, os.Stdout)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Fprintf(os.Stderr, "%d matches in %d videos\n", res.MatchCount(), res.VideoCount)
//
// Output is grouped by pattern in the order the patterns were given, and
// within a pattern follows the order in which the uploads playlist returned
// the videos. A channel without uploads is not an error: Scrape returns a
// Result whose Empty method reports true.
//
// Configuration
//
// config.Load reads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytscrape.json or ~/.config/ytscrape/ytscrape.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - API_KEY, YTSCRAPE_API_KEY: YouTube Data API key
//   - CHANNEL_ID, YTSCRAPE_CHANNEL_ID: Channel id, @handle or channel URL
//   - YTSCRAPE_PATTERNS: Newline separated patterns
//   - YTSCRAPE_PAGE_SIZE, YTSCRAPE_BATCH_SIZE: Request sizes (1-50)
//   - YTSCRAPE_TIMEOUT: Per request timeout
//   - YTSCRAPE_RPS: Requests per second
//   - YTSCRAPE_MAX_RETRIES: Maximum retry attempts
//   - YTSCRAPE_INITIAL_BACKOFF, YTSCRAPE_MAX_BACKOFF: Retry backoff bounds
//   - YTSCRAPE_REPORT: Path of the JSON run report
//
// Error Handling
//
// Configuration problems wrap ErrConfig and are reported before any
// network call. API failures arrive as *APIError values that wrap one of
// the sentinel errors:
//
//	if errors.Is(err, ytscrape.ErrAuth) {
//		fmt.Println("check the API key")
//	}
//
//	var apiErr *ytscrape.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s %s failed: %v\n", apiErr.Op, apiErr.Ref, apiErr.Err)
//	}
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - youtube: Channel resolution, pagination, batching and matching
//   - http: API key injection, rate limiting and circuit breaking
//   - config: Configuration management
package ytscrape
