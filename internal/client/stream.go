package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StreamEvents reads the server's event stream and calls fn for every event
// until ctx is done, the server closes the stream, or fn returns an error.
// A nil or empty topics list receives every topic.
func (c *HTTPClient) StreamEvents(ctx context.Context, topics []string, fn func(Event) error) error {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		path += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var evt Event
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if evt.Data != "" {
				if err := fn(evt); err != nil {
					return err
				}
			}
			evt = Event{}
			continue
		}
		// Lines starting with ':' are comments (heartbeats).
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			evt.ID = value
		case "event":
			evt.Topic = value
		case "data":
			evt.Data = value
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}
