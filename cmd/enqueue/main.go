// Command enqueue submits an aggregation job to a running metrics-api
// instance and polls it until it reaches a terminal state. Handy for
// kicking off recomputes from cron or by hand.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fraghub/metrics-api/internal/models"
)

func main() {
	var (
		apiURL   = flag.String("api", "http://localhost:8080", "base URL of the metrics API")
		jobType  = flag.String("type", models.JobFullRecompute, "job type: update-player, update-team, batch-players, batch-teams, full-recompute")
		steamID  = flag.String("steam-id", "", "steam ID for update-player")
		teamID   = flag.String("team-id", "", "team ID for update-team")
		steamIDs = flag.String("steam-ids", "", "comma separated steam IDs for batch-players")
		teamIDs  = flag.String("team-ids", "", "comma separated team IDs for batch-teams")
		window   = flag.String("window", "", "aggregation window, e.g. all_time or last_30d")
		wait     = flag.Bool("wait", true, "poll the job until it completes or fails")
		interval = flag.Duration("interval", 2*time.Second, "poll interval")
	)
	flag.Parse()

	job := models.AggregationJob{
		Type:     *jobType,
		SteamID:  *steamID,
		TeamID:   *teamID,
		SteamIDs: splitList(*steamIDs),
		TeamIDs:  splitList(*teamIDs),
		Window:   *window,
	}

	client := &http.Client{Timeout: 10 * time.Second}

	id, err := submit(client, *apiURL, job)
	if err != nil {
		log.Fatalf("enqueue failed: %v", err)
	}
	fmt.Printf("enqueued job %s\n", id)

	if !*wait {
		return
	}

	for {
		time.Sleep(*interval)

		status, err := fetchStatus(client, *apiURL, id)
		if err != nil {
			log.Fatalf("status poll failed: %v", err)
		}

		fmt.Printf("state=%s progress=%d%%\n", status.State, status.Progress)

		switch status.State {
		case models.JobStateCompleted:
			if status.Result != nil {
				fmt.Printf("players=%d teams=%d duration=%s errors=%d\n",
					status.Result.PlayersUpdated, status.Result.TeamsUpdated,
					status.Result.Duration, len(status.Result.Errors))
				for _, e := range status.Result.Errors {
					fmt.Printf("  item error: %s\n", e)
				}
			}
			return
		case models.JobStateFailed:
			fmt.Printf("job failed: %s\n", status.Error)
			os.Exit(1)
		}
	}
}

func submit(client *http.Client, base string, job models.AggregationJob) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", err
	}

	resp, err := client.Post(base+"/v1/jobs", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error)
	}

	var accepted struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return "", err
	}
	return accepted.ID, nil
}

func fetchStatus(client *http.Client, base, id string) (*models.JobStatus, error) {
	resp, err := client.Get(base + "/v1/jobs/" + id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var status models.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
