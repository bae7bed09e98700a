package listener

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// RPCSource reads submission events from an EVM JSON-RPC endpoint. Each
// matching log is one persuasion attempt: the player address is the first
// indexed topic, the message is an ABI-encoded string in the log data, and
// the transaction hash is the submission id.
type RPCSource struct {
	endpoint string
	contract string
	client   *http.Client

	nextID int64 // advanced atomically
}

// NewRPCSource creates an event source for the given endpoint and
// contract address.
func NewRPCSource(endpoint, contract string) (*RPCSource, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint cannot be empty")
	}
	if contract == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}
	return &RPCSource{
		endpoint: endpoint,
		contract: contract,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	Removed         bool     `json:"removed"`
}

// LatestBlock returns the current chain head number.
func (s *RPCSource) LatestBlock(ctx context.Context) (int64, error) {
	var result string
	if err := s.call(ctx, "eth_blockNumber", nil, &result); err != nil {
		return 0, err
	}
	return parseHexUint(result)
}

// SubmissionsInRange fetches submission logs for the inclusive block range.
func (s *RPCSource) SubmissionsInRange(ctx context.Context, fromBlock, toBlock int64) ([]Submission, error) {
	filter := map[string]interface{}{
		"address":   s.contract,
		"fromBlock": fmt.Sprintf("0x%x", fromBlock),
		"toBlock":   fmt.Sprintf("0x%x", toBlock),
	}

	var logs []rpcLog
	if err := s.call(ctx, "eth_getLogs", []interface{}{filter}, &logs); err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		sub, err := decodeLog(lg)
		if err != nil {
			// A malformed log is skipped, not fatal for the batch.
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *RPCSource) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	id := atomic.AddInt64(&s.nextID, 1)
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	})
	if err != nil {
		return fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc endpoint returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to decode rpc result: %w", err)
	}
	return nil
}

// decodeLog turns one event log into a Submission. The event carries the
// player as an indexed address topic and the message as an ABI-encoded
// string in the data field.
func decodeLog(lg rpcLog) (Submission, error) {
	block, err := parseHexUint(lg.BlockNumber)
	if err != nil {
		return Submission{}, fmt.Errorf("bad block number %q: %w", lg.BlockNumber, err)
	}
	if len(lg.Topics) < 2 {
		return Submission{}, fmt.Errorf("log has no player topic")
	}

	player, err := topicAddress(lg.Topics[1])
	if err != nil {
		return Submission{}, err
	}

	message, err := decodeABIString(lg.Data)
	if err != nil {
		return Submission{}, err
	}

	return Submission{
		SubmissionID: lg.TransactionHash,
		PlayerID:     player,
		Message:      message,
		BlockNumber:  block,
	}, nil
}

func parseHexUint(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad hex quantity %q: %w", s, err)
	}
	return v, nil
}

// topicAddress extracts the 20-byte address padded into a 32-byte topic.
func topicAddress(topic string) (string, error) {
	raw := strings.TrimPrefix(topic, "0x")
	if len(raw) != 64 {
		return "", fmt.Errorf("bad topic length %d", len(raw))
	}
	return "0x" + raw[24:], nil
}

// decodeABIString decodes a single dynamic string from log data: a 32-byte
// offset word, a 32-byte length word, then the UTF-8 bytes.
func decodeABIString(data string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return "", fmt.Errorf("bad log data: %w", err)
	}
	if len(raw) < 64 {
		return "", fmt.Errorf("log data too short for a string")
	}

	offset, err := wordUint(raw[:32])
	if err != nil {
		return "", err
	}
	if offset+32 > int64(len(raw)) {
		return "", fmt.Errorf("string offset out of range")
	}

	length, err := wordUint(raw[offset : offset+32])
	if err != nil {
		return "", err
	}
	start := offset + 32
	if start+length > int64(len(raw)) {
		return "", fmt.Errorf("string length out of range")
	}
	return string(raw[start : start+length]), nil
}

// wordUint reads a 32-byte big-endian word that must fit in an int64.
func wordUint(word []byte) (int64, error) {
	for _, b := range word[:24] {
		if b != 0 {
			return 0, fmt.Errorf("abi word overflows int64")
		}
	}
	var v int64
	for _, b := range word[24:] {
		v = v<<8 | int64(b)
	}
	return v, nil
}
