package app

import (
	"fmt"

	"github.com/yungbote/jobscribe-backend/internal/clients/recordstore"
	"github.com/yungbote/jobscribe-backend/internal/platform/fetchd"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/platform/openai"
)

// Clients holds every outbound collaborator.
type Clients struct {
	RecordStore *recordstore.Client
	Fetchd      *fetchd.Client
	OpenAI      openai.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	store, err := recordstore.NewClient(log, recordstore.Config{
		BaseURL: cfg.RecordStoreBaseURL,
		Token:   cfg.RecordStoreToken,
		Timeout: cfg.RecordStoreTimeout,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init record store client: %w", err)
	}

	fetcher, err := fetchd.NewClient(log, fetchd.Config{
		BaseURL: cfg.FetchdBaseURL,
		Timeout: cfg.FetchdTimeout,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init fetchd client: %w", err)
	}

	llm, err := openai.NewClient(log, openai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Timeout:     cfg.OpenAITimeout,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	return Clients{
		RecordStore: store,
		Fetchd:      fetcher,
		OpenAI:      llm,
	}, nil
}
