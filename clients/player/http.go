package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type clientImpl struct {
	apiHost    string
	httpClient *http.Client
}

type Config struct {
	ApiHost string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func NewClient(cfg *Config) (API, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.ApiHost == "" {
		return nil, errors.New("missing parameter: cfg.ApiHost")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &clientImpl{
		apiHost:    cfg.ApiHost,
		httpClient: httpClient,
	}, nil
}

func (client *clientImpl) Send(ctx context.Context, action string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.apiHost+"/control", nil)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	q.Add("action", action)
	req.URL.RawQuery = q.Encode()

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("player returned %s: %s", resp.Status, body)
	}

	return nil
}
