// Package openaichat 以 OpenAI Responses API 的串流生成提供模擬雙工通道。
// 也相容任何支援同一協定的 OpenAI-compatible 服務 (透過 base_url)。
package openaichat

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements emulate.StreamClient over the Responses streaming API.
type Client struct {
	client   *openai.Client
	provider string
	model    string
}

// NewClient creates an OpenAI-backed streaming client.
func NewClient(provider string, apiKey string, model string, baseURL string) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{
		client:   &client,
		provider: provider,
		model:    model,
	}
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// Transient: network-level issues
	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Transient: server-side temporary failures
	if strings.Contains(msg, "500 internal") ||
		strings.Contains(msg, "502 bad gateway") ||
		strings.Contains(msg, "503 service unavailable") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	// Everything else (400 Bad Request, 401 Unauthorized, etc.) is non-transient
	return false
}

func (c *Client) Stream(ctx context.Context, transcript []emulate.Message, cfg wire.Config) (<-chan emulate.Chunk, error) {
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertTranscript(transcript, cfg.SystemInstruction),
		},
	}
	if tools := convertTools(cfg.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	chunkCh := make(chan emulate.Chunk, 100)

	go func() {
		defer close(chunkCh)

		stream := c.client.Responses.NewStreaming(ctx, params)
		defer stream.Close()

		// 函式呼叫的 arguments 是逐段累積的字串
		type pendingCall struct {
			name string
			args string
		}
		pending := make(map[string]*pendingCall)
		var order []string

		for stream.Next() {
			event := stream.Current()

			switch variant := event.AsAny().(type) {
			case responses.ResponseTextDeltaEvent:
				chunkCh <- emulate.Chunk{Text: variant.Delta}

			case responses.ResponseOutputItemAddedEvent:
				if variant.Item.Type == "function_call" {
					pc, ok := pending[variant.Item.ID]
					if !ok {
						pc = &pendingCall{}
						pending[variant.Item.ID] = pc
						order = append(order, variant.Item.ID)
					}
					if variant.Item.Name != "" {
						pc.name = variant.Item.Name
					}
				}

			case responses.ResponseFunctionCallArgumentsDeltaEvent:
				pc, ok := pending[variant.ItemID]
				if !ok {
					pc = &pendingCall{}
					pending[variant.ItemID] = pc
					order = append(order, variant.ItemID)
				}
				pc.args += variant.Delta

			case responses.ResponseFunctionCallArgumentsDoneEvent:
				if pc, ok := pending[variant.ItemID]; ok && variant.Name != "" {
					pc.name = variant.Name
				}

			case responses.ResponseOutputItemDoneEvent:
				if variant.Item.Type == "function_call" {
					if pc, ok := pending[variant.Item.ID]; ok && variant.Item.Name != "" {
						pc.name = variant.Item.Name
					}
				}

			case responses.ResponseFailedEvent:
				chunkCh <- emulate.Chunk{Err: fmt.Errorf("response failed")}
				return

			case responses.ResponseErrorEvent:
				chunkCh <- emulate.Chunk{Err: fmt.Errorf("api error: %s", variant.Message)}
				return
			}
		}

		if err := stream.Err(); err != nil {
			chunkCh <- emulate.Chunk{Err: err}
			return
		}

		if len(order) > 0 {
			calls := make([]wire.FunctionCall, 0, len(order))
			for _, id := range order {
				pc := pending[id]
				var args map[string]any
				if pc.args != "" {
					if err := json.Unmarshal([]byte(pc.args), &args); err != nil {
						args = nil
					}
				}
				calls = append(calls, wire.FunctionCall{Name: pc.name, ID: id, Args: args})
			}
			chunkCh <- emulate.Chunk{ToolCalls: calls}
		}
	}()

	return chunkCh, nil
}

func convertTranscript(transcript []emulate.Message, systemInstruction string) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(transcript)+1)

	if systemInstruction != "" {
		items = append(items, responses.ResponseInputItemParamOfMessage(
			systemInstruction,
			responses.EasyInputMessageRoleSystem,
		))
	}

	for _, m := range transcript {
		switch m.Role {
		case "user":
			items = append(items, responses.ResponseInputItemParamOfMessage(
				m.Text,
				responses.EasyInputMessageRoleUser,
			))

		case "model":
			if m.Text != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(
					m.Text,
					responses.EasyInputMessageRoleAssistant,
				))
			}
			for _, tc := range m.ToolCalls {
				argsB, err := json.Marshal(tc.Args)
				if err != nil {
					argsB = []byte("{}")
				}
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(
					string(argsB),
					tc.ID,
					tc.Name,
				))
			}

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
				items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(
					r.ID,
					string(outB),
				))
			}
		}
	}

	return items
}

func convertTools(decls []wire.ToolDecl) []responses.ToolUnionParam {
	var tools []responses.ToolUnionParam
	for _, t := range decls {
		params := map[string]any{
			"type":       "object",
			"properties": t.Parameters,
		}
		if len(t.Required) > 0 {
			params["required"] = t.Required
		}
		tools = append(tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		})
	}
	return tools
}
