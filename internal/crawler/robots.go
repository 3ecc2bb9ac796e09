package crawler

import (
	"context"
	"errors"
	"net/url"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/pagebinder/internal/fetch"
	"github.com/nao1215/pagebinder/internal/model"
)

// LoadRobots fetches /robots.txt for the base location and returns the group
// for agent.
//
// Status handling follows robotstxt.FromStatusAndBytes: 2xx bodies are
// parsed, 4xx allows everything and 5xx disallows everything. A transport
// failure allows everything and is returned alongside a nil group so the
// caller can log it.
func LoadRobots(ctx context.Context, f fetch.Fetcher, base model.Location, agent string) (*robotstxt.Group, error) {
	u, err := url.Parse(base.String())
	if err != nil {
		return nil, err
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	status := 200
	var body []byte
	resp, err := f.Fetch(ctx, robotsURL)
	if err != nil {
		var fe *fetch.Error
		if !errors.As(err, &fe) || fe.StatusCode == 0 {
			return nil, err
		}
		status = fe.StatusCode
	} else {
		body = resp.Body
	}

	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return nil, err
	}
	return data.FindGroup(agent), nil
}
