package lobbyprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/okian/lobbyrisk/internal/domain/types"
	"github.com/okian/lobbyrisk/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// postLobbies posts every lobby using cfg.Workers concurrent workers.
func postLobbies(ctx context.Context, cfg *Config, lobbies []Lobby) []Result {
	logger.Get().Info(ctx, "posting lobbies", logger.Int("lobbies", len(lobbies)), logger.Int("workers", cfg.Workers))

	workers := max(cfg.Workers, 1)
	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/getUserProfiles"

	results := make([]Result, len(lobbies))
	jobs := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = postLobby(ctx, client, url, lobbies[i])
				logger.Get().Debug(ctx, "lobby posted",
					logger.String("lobby", results[i].LobbyID),
					logger.Int("status", results[i].Status),
					logger.Float64("lobbyRisk", results[i].LobbyRisk),
					logger.Duration("latency", results[i].Latency),
				)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range lobbies {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return results
}

// postLobby posts one lobby and decodes the reply.
func postLobby(ctx context.Context, client *HTTPClient, url string, lobby Lobby) Result {
	res := Result{LobbyID: lobby.ID, Usernames: lobby.Usernames}
	if ctx.Err() != nil {
		res.Error = ctx.Err().Error()
		return res
	}

	start := time.Now()
	resp, err := client.Post(ctx, url, types.ProfilesRequest{Usernames: lobby.Usernames})
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if resp.StatusCode != StatusOK {
		var e types.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			res.Error = e.Error
		} else {
			res.Error = http.StatusText(resp.StatusCode)
		}
		return res
	}

	var out types.ProfilesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		res.Error = fmt.Sprintf("decode response: %v", err)
		return res
	}
	res.Profiles = out.Profiles
	res.LobbyRisk = out.LobbyRisk
	return res
}
