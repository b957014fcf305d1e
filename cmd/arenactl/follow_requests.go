package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var followRequestsCmd = &cobra.Command{
	Use:   "follow-requests",
	Short: "Manage follow requests for your private account",
	Long:  "Commands for managing pending follow requests if your account is private",
}

var listFollowRequestsCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending follow requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFollowRequests()
	},
}

var acceptFollowRequestCmd = &cobra.Command{
	Use:   "accept <request-id>",
	Short: "Accept a follow request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actOnFollowRequest(args[0], "accept")
	},
}

var rejectFollowRequestCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a follow request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actOnFollowRequest(args[0], "reject")
	},
}

var cancelFollowRequestCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Cancel a follow request you sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := apiRequest(http.MethodDelete, "/api/v1/follow-requests/"+args[0])
		if err != nil {
			return err
		}
		fmt.Println("Follow request cancelled")
		return nil
	},
}

func init() {
	followRequestsCmd.AddCommand(listFollowRequestsCmd)
	followRequestsCmd.AddCommand(acceptFollowRequestCmd)
	followRequestsCmd.AddCommand(rejectFollowRequestCmd)
	followRequestsCmd.AddCommand(cancelFollowRequestCmd)
}

type followRequestEntry struct {
	ID        string `json:"id"`
	Requester struct {
		Username string `json:"username"`
	} `json:"requester"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type followRequestsResponse struct {
	Requests []followRequestEntry `json:"requests"`
	Count    int                  `json:"count"`
}

func listFollowRequests() error {
	body, err := apiRequest(http.MethodGet, "/api/v1/follow-requests")
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result followRequestsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Count == 0 {
		fmt.Println("No pending follow requests")
		return nil
	}

	fmt.Printf("Pending follow requests (%d)\n\n", result.Count)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tSTATUS\tCREATED")
	for _, req := range result.Requests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncateString(req.ID, 8),
			req.Requester.Username,
			req.Status,
			req.CreatedAt)
	}
	w.Flush()

	fmt.Println("\nUse: arenactl follow-requests accept <id>")
	fmt.Println("     arenactl follow-requests reject <id>")
	return nil
}

func actOnFollowRequest(requestID, action string) error {
	_, err := apiRequest(http.MethodPost, "/api/v1/follow-requests/"+requestID+"/"+action)
	if err != nil {
		return err
	}
	fmt.Printf("Follow request %sed\n", action)
	return nil
}
