// Package ollamachat 以本機 Ollama 的串流 Chat API 提供模擬雙工通道。
package ollamachat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/ollama/ollama/api"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements emulate.StreamClient over the Ollama chat API.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama-backed streaming client. An empty baseURL
// falls back to OLLAMA_HOST / the default local endpoint.
func NewClient(model string, baseURL string) (*Client, error) {
	var client *api.Client
	var err error

	if baseURL != "" {
		u, perr := url.Parse(baseURL)
		if perr != nil {
			return nil, fmt.Errorf("invalid base URL: %w", perr)
		}
		client = api.NewClient(u, http.DefaultClient)
	} else {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) Provider() string {
	return "ollama"
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "connection reset") {
		return true
	}
	if strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}
	return false
}

func (c *Client) Stream(ctx context.Context, transcript []emulate.Message, cfg wire.Config) (<-chan emulate.Chunk, error) {
	messages := convertTranscript(transcript, cfg.SystemInstruction)
	tools := convertTools(cfg.Tools)

	chunkCh := make(chan emulate.Chunk, 100)

	go func() {
		defer close(chunkCh)

		streamVal := true
		req := &api.ChatRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
			Stream:   &streamVal,
		}

		err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				chunkCh <- emulate.Chunk{Text: resp.Message.Content}
			}

			if len(resp.Message.ToolCalls) > 0 {
				var calls []wire.FunctionCall
				for _, tc := range resp.Message.ToolCalls {
					// JSON 轉換繞過 SDK 的 arguments 型別
					var args map[string]any
					if argsB, err := json.Marshal(tc.Function.Arguments); err == nil {
						json.Unmarshal(argsB, &args)
					}
					calls = append(calls, wire.FunctionCall{
						Name: tc.Function.Name,
						ID:   tc.ID,
						Args: args,
					})
				}
				chunkCh <- emulate.Chunk{ToolCalls: calls}
			}

			return nil
		})

		if err != nil {
			chunkCh <- emulate.Chunk{Err: err}
		}
	}()

	return chunkCh, nil
}

func convertTranscript(transcript []emulate.Message, systemInstruction string) []api.Message {
	var messages []api.Message

	if systemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemInstruction})
	}

	for _, m := range transcript {
		switch m.Role {
		case "user":
			messages = append(messages, api.Message{Role: "user", Content: m.Text})

		case "model":
			msg := api.Message{Role: "assistant", Content: m.Text}
			for _, tc := range m.ToolCalls {
				argsB, err := json.Marshal(tc.Args)
				if err != nil {
					argsB = []byte("{}")
				}
				var apiArgs api.ToolCallFunctionArguments
				json.Unmarshal(argsB, &apiArgs)
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Name,
						Arguments: apiArgs,
					},
				})
			}
			messages = append(messages, msg)

		case "tool":
			for _, r := range m.ToolResults {
				body := map[string]any{}
				if r.Error != "" {
					body["error"] = r.Error
				} else {
					body["output"] = r.Output
				}
				outB, err := json.Marshal(body)
				if err != nil {
					outB = []byte("{}")
				}
				messages = append(messages, api.Message{
					Role:       "tool",
					Content:    string(outB),
					ToolCallID: r.ID,
				})
			}
		}
	}

	return messages
}

// convertTools 以 JSON 轉換繞過 SDK 的巢狀 schema 型別
func convertTools(decls []wire.ToolDecl) []api.Tool {
	if len(decls) == 0 {
		return nil
	}

	raw := make([]map[string]any, 0, len(decls))
	for _, t := range decls {
		params := map[string]any{
			"type":       "object",
			"properties": t.Parameters,
		}
		if len(t.Required) > 0 {
			params["required"] = t.Required
		}
		raw = append(raw, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			},
		})
	}

	rawB, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var tools []api.Tool
	if err := json.Unmarshal(rawB, &tools); err != nil {
		return nil
	}
	return tools
}
