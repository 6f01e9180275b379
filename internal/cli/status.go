package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// StatusCmd queries a running core's admin surface and prints its status,
// the operator workflow implied by original_source's admin client and CLI
// play loop.
func StatusCmd() *cobra.Command {
	var addr, token string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running crowdcade core's admin status endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequest(http.MethodGet, "http://"+addr+"/status", nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("querying admin surface: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("admin surface returned %s: %s", resp.Status, body)
			}

			var pretty map[string]interface{}
			if err := json.Unmarshal(body, &pretty); err != nil {
				fmt.Println(string(body))
				return nil
			}
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "admin-addr", "localhost:8082", "admin surface host:port")
	cmd.Flags().StringVar(&token, "admin-token", "", "admin bearer token")

	return cmd
}
