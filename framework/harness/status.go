package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const statusPollInterval = 100 * time.Millisecond

// AppInfo is what the application reported when the harness first reached it.
type AppInfo struct {
	URL     string `json:"-"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// queryAppStatus polls the application until it responds or the timeout elapses. A JSON response
// body is read as AppInfo; any other successful response just means the application is up.
func queryAppStatus(ctx context.Context, url string, timeout time.Duration, output io.Writer) (AppInfo, error) {
	fmt.Fprintf(output, "Connecting to application at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		info, retry, err := getAppStatus(ctx, url)
		if err == nil {
			fmt.Fprintln(output)
			if info.Version != "" {
				fmt.Fprintf(output, "Application version: %s\n", info.Version)
			}
			return info, nil
		}
		if !retry {
			fmt.Fprintln(output)
			return AppInfo{}, err
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return AppInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(output)
			return AppInfo{}, ctx.Err()
		case <-time.After(statusPollInterval):
		}
	}
}

// getAppStatus queries the application once. The retry result is false if the error will not go
// away by waiting.
func getAppStatus(ctx context.Context, url string) (AppInfo, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return AppInfo{}, false, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return AppInfo{}, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		// 5xx usually means a proxy in front of an application that is still starting
		return AppInfo{}, resp.StatusCode >= 500, fmt.Errorf("application returned status code %d", resp.StatusCode)
	}
	info := AppInfo{URL: url}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return AppInfo{}, true, err
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return AppInfo{}, false, fmt.Errorf("malformed status response from application: %s", string(data))
		}
		info.URL = url
	}
	return info, false, nil
}
