package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/redbutton-labs/persuasion-engine/internal/handlers"
	"github.com/redbutton-labs/persuasion-engine/pkg/auth"
	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// sendInteraction posts one persuasion attempt. The console mints a local
// submission id per message; real deployments use the transaction hash.
func sendInteraction(client *http.Client, cfg *ConsoleConfig, message string) (*game.InteractionResult, error) {
	req := game.InteractionRequest{
		PlayerID:     cfg.PlayerID,
		Message:      message,
		SubmissionID: "0xconsole-" + uuid.New().String(),
	}

	if cfg.Secret != "" {
		verifier, err := auth.NewStaticVerifier(cfg.Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize signer: %w", err)
		}
		req.Signature = verifier.Sign(req.Message, req.PlayerID)
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		cfg.APIBaseURL+"/v1/interact",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result game.InteractionResult
	if err := json.Unmarshal(body, &result); err == nil && (result.Success || result.Error != "") {
		// Both 200 and engine-level failures carry a result object.
		return &result, nil
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil, fmt.Errorf("interaction failed: %s", errorResp.Error)
}

func getScore(client *http.Client, baseURL, playerID string) (*handlers.ScoreResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/score/%s", baseURL, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get score: %s", errorResp.Error)
	}

	var score handlers.ScoreResponse
	if err := json.Unmarshal(body, &score); err != nil {
		return nil, fmt.Errorf("failed to parse score response: %w", err)
	}
	return &score, nil
}
