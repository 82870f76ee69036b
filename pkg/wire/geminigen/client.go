// Package geminigen 透過 google.golang.org/genai 的單次串流生成 API
// 提供模擬雙工通道，作為原生 Live 連線的備援。
package geminigen

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"

	"parley/pkg/wire"
	"parley/pkg/wire/emulate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client implements emulate.StreamClient over GenerateContentStream.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a genai-backed streaming client.
func NewClient(ctx context.Context, apiKey string, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Provider() string {
	return "gemini-genai"
}

func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 503 Service Unavailable / Overloaded
	if strings.Contains(errMsg, "503") || strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}
	// 429 Too Many Requests (Rate Limit)
	if strings.Contains(errMsg, "429") || strings.Contains(strings.ToLower(errMsg), "resource exhausted") {
		return true
	}
	// 500 Internal Error
	if strings.Contains(errMsg, "500") || strings.Contains(strings.ToLower(errMsg), "internal error") {
		return true
	}
	return false
}

func (c *Client) Stream(ctx context.Context, transcript []emulate.Message, cfg wire.Config) (<-chan emulate.Chunk, error) {
	contents := convertTranscript(transcript)
	config := &genai.GenerateContentConfig{
		Tools: convertTools(cfg),
	}
	if cfg.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
		}
	}

	chunkCh := make(chan emulate.Chunk, 100)
	startResultCh := make(chan error, 1)

	go func() {
		defer close(chunkCh)

		iter := c.client.Models.GenerateContentStream(ctx, c.model, contents, config)

		started := false
		for resp, err := range iter {
			if err != nil {
				if resp == nil {
					if !started {
						startResultCh <- err
					} else {
						chunkCh <- emulate.Chunk{Err: err}
					}
					break
				}
				// err 與資料並存時先處理資料
			}

			if !started {
				started = true
				startResultCh <- nil
			}

			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				chunk := emulate.Chunk{}
				for _, p := range candidate.Content.Parts {
					switch {
					case p.FunctionCall != nil:
						chunk.ToolCalls = append(chunk.ToolCalls, wire.FunctionCall{
							Name: p.FunctionCall.Name,
							ID:   p.FunctionCall.ID,
							Args: p.FunctionCall.Args,
						})
					case p.ExecutableCode != nil:
						chunk.Parts = append(chunk.Parts, wire.Part{ExecutableCode: &wire.ExecutableCode{
							Language: fmt.Sprintf("%v", p.ExecutableCode.Language),
							Code:     p.ExecutableCode.Code,
						}})
					case p.CodeExecutionResult != nil:
						chunk.Parts = append(chunk.Parts, wire.Part{CodeExecutionResult: &wire.CodeExecutionResult{
							Output: p.CodeExecutionResult.Output,
						}})
					case p.Text != "" && !p.Thought:
						chunk.Text += p.Text
					}
				}
				if chunk.Text != "" || len(chunk.Parts) > 0 || len(chunk.ToolCalls) > 0 {
					chunkCh <- chunk
				}
			}
		}
	}()

	select {
	case err := <-startResultCh:
		if err != nil {
			return nil, err
		}
		return chunkCh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// convertTranscript 將 transcript 轉為 genai Content 序列
func convertTranscript(transcript []emulate.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range transcript {
		switch msg.Role {
		case "user":
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Text}},
			})

		case "model":
			var parts []*genai.Part
			if msg.Text != "" {
				parts = append(parts, &genai.Part{Text: msg.Text})
			}
			// Gemini 要求在回覆前回放 FunctionCall
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: tc.Args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}

		case "tool":
			var parts []*genai.Part
			for _, r := range msg.ToolResults {
				body := map[string]any{}
				if r.Error != "" {
					body["error"] = r.Error
				} else {
					body["output"] = r.Output
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       r.ID,
						Name:     r.Name,
						Response: body,
					},
				})
			}
			if len(parts) > 0 {
				// Tool results travel as user role in Gemini
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}

	return contents
}

func convertTools(cfg wire.Config) []*genai.Tool {
	var tools []*genai.Tool

	var fds []*genai.FunctionDeclaration
	for _, t := range cfg.Tools {
		fd := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		params := map[string]any{
			"type":       "OBJECT",
			"properties": t.Parameters,
		}
		if len(t.Required) > 0 {
			params["required"] = t.Required
		}
		// JSON 轉換繞過 SDK 型別組裝
		schemaB, _ := json.Marshal(params)
		var schema genai.Schema
		if err := json.Unmarshal(schemaB, &schema); err == nil {
			fd.Parameters = &schema
		}
		fds = append(fds, fd)
	}
	if len(fds) > 0 {
		tools = append(tools, &genai.Tool{FunctionDeclarations: fds})
	}

	if cfg.EnableSearch {
		tools = append(tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if cfg.EnableCodeExec {
		tools = append(tools, &genai.Tool{CodeExecution: &genai.ToolCodeExecution{}})
	}

	return tools
}
