package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON lines")
	cmd.PersistentFlags().String("proxy", "", "Comma-separated HTTP/SOCKS5 proxies (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", DefaultPageTimeout.String(), "Deadline applied to each page")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("base-url", "", "Listing endpoint (default "+DefaultBaseURL+")")
	cmd.PersistentFlags().String("renderer", "", "Page renderer: static or chrome")
	cmd.PersistentFlags().String("chrome-path", "", "Chrome/Chromium executable for --renderer=chrome")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
}

// RegisterScrapeFlags registers the flags of the scrape command
func RegisterScrapeFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().StringP("query", "k", "", "Search term")
	cmd.Flags().IntP("pages", "p", 0, "Number of result pages to fetch")
	cmd.Flags().Bool("print", false, "Echo every record to stdout")
	cmd.Flags().StringP("output", "o", "", "Output file, .json for JSON (default "+DefaultOutputPath+")")
	cmd.Flags().IntP("concurrency", "c", DefaultConcurrency, "Worker pool size (0 = auto)")
	cmd.Flags().StringArrayP("header", "H", nil, "Extra request header \"Key: Value\" (repeatable)")
	cmd.Flags().String("pg-dsn", "", "Also store records in PostgreSQL")
	cmd.Flags().String("mongo-uri", "", "Also store records in MongoDB")
}
