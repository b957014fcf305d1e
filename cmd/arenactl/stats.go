package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var statsPeriod string

var statsCmd = &cobra.Command{
	Use:   "stats <content-type> <content-id>",
	Short: "Show view statistics for a piece of content",
	Long:  "Fetches total views, unique viewers, and recent view rows for one content item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStats(args[0], args[1])
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsPeriod, "period", "all", "Aggregation period: day, week, month, or all")
}

type viewStatsResponse struct {
	ContentID     string `json:"content_id"`
	ContentType   string `json:"content_type"`
	Period        string `json:"period"`
	TotalViews    int64  `json:"total_views"`
	UniqueViewers int64  `json:"unique_viewers"`
	Recent        []struct {
		ViewedAt       string `json:"viewed_at"`
		ViewerIdentity string `json:"viewer_identity"`
	} `json:"recent"`
}

func showStats(contentType, contentID string) error {
	path := fmt.Sprintf("/api/v1/views/%s/%s/stats?period=%s",
		url.PathEscape(contentType), url.PathEscape(contentID), url.QueryEscape(statsPeriod))

	body, err := apiRequest(http.MethodGet, path)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var stats viewStatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("%s %s (%s)\n", stats.ContentType, stats.ContentID, stats.Period)
	fmt.Printf("  Total views:    %d\n", stats.TotalViews)
	fmt.Printf("  Unique viewers: %d\n", stats.UniqueViewers)
	if len(stats.Recent) > 0 {
		fmt.Println("  Recent:")
		for _, r := range stats.Recent {
			fmt.Printf("    %s  %s\n", r.ViewedAt, truncateString(r.ViewerIdentity, 16))
		}
	}
	return nil
}
