package gemini

import (
	"strings"
	"testing"

	"parley/pkg/wire"
)

func decodeFrame(t *testing.T, raw string) *serverFrame {
	t.Helper()
	var frame serverFrame
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}
	return &frame
}

func TestTranslateModelTurn(t *testing.T) {
	raw := `{"serverContent":{"modelTurn":{"parts":[{"text":"hello"}]}}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.Content == nil {
		t.Fatalf("message = %+v, want content", msg)
	}
	if msg.Content.Parts[0].Text != "hello" {
		t.Errorf("text = %q", msg.Content.Parts[0].Text)
	}
	if msg.TurnComplete {
		t.Error("turn must not be complete")
	}
}

func TestTranslateTurnCompleteAlone(t *testing.T) {
	raw := `{"serverContent":{"turnComplete":true}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || !msg.TurnComplete {
		t.Fatalf("message = %+v, want turn complete", msg)
	}
	if msg.Content != nil {
		t.Error("no content expected")
	}
}

func TestTranslateToolCall(t *testing.T) {
	raw := `{"toolCall":{"functionCalls":[{"name":"read_file","id":"fc-1","args":{"path":"a.txt"}}]}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.ToolCall == nil {
		t.Fatalf("message = %+v, want tool call", msg)
	}
	call := msg.ToolCall.Calls[0]
	if call.Name != "read_file" || call.ID != "fc-1" || call.Args["path"] != "a.txt" {
		t.Errorf("call = %+v", call)
	}
}

func TestTranslateExecutableCode(t *testing.T) {
	raw := `{"serverContent":{"modelTurn":{"parts":[` +
		`{"executableCode":{"language":"PYTHON","code":"print(1)"}},` +
		`{"codeExecutionResult":{"outcome":"OUTCOME_OK","output":"1\n"}}]}}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.Content == nil || len(msg.Content.Parts) != 2 {
		t.Fatalf("message = %+v, want two parts", msg)
	}
	if ec := msg.Content.Parts[0].ExecutableCode; ec == nil || ec.Code != "print(1)" {
		t.Errorf("executable code = %+v", msg.Content.Parts[0])
	}
	if cr := msg.Content.Parts[1].CodeExecutionResult; cr == nil || cr.Output != "1\n" {
		t.Errorf("execution result = %+v", msg.Content.Parts[1])
	}
}

func TestTranslateGroundingQueries(t *testing.T) {
	raw := `{"serverContent":{"modelTurn":{"parts":[{"text":"per the web"}]},` +
		`"groundingMetadata":{"webSearchQueries":["go 1.25 release date"]}}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.Content == nil {
		t.Fatalf("message = %+v", msg)
	}
	if !strings.Contains(msg.Content.GroundingText, "go 1.25 release date") {
		t.Errorf("grounding text = %q", msg.Content.GroundingText)
	}
}

func TestTranslateGroundingRenderedContent(t *testing.T) {
	// searchEntryPoint 的完整引用內容優先於查詢字串
	raw := `{"serverContent":{"modelTurn":{"parts":[{"text":"cited"}]},` +
		`"groundingMetadata":{"webSearchQueries":["q1"],` +
		`"searchEntryPoint":{"renderedContent":"Sources: example.com"}}}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.Content == nil {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Content.GroundingText != "Sources: example.com" {
		t.Errorf("grounding text = %q, want rendered content", msg.Content.GroundingText)
	}
}

func TestTranslateErrorFrame(t *testing.T) {
	raw := `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.ErrorDetail == "" {
		t.Fatalf("message = %+v, want error detail", msg)
	}
	if !strings.Contains(msg.ErrorDetail, "quota exceeded") {
		t.Errorf("error detail = %q", msg.ErrorDetail)
	}
}

func TestTranslateSkippedFrames(t *testing.T) {
	for _, raw := range []string{
		`{"setupComplete":{}}`,
		`{"usageMetadata":{"totalTokenCount":12}}`,
	} {
		if msg := translateFrame(decodeFrame(t, raw), raw); msg != nil {
			t.Errorf("frame %s: message = %+v, want skip", raw, msg)
		}
	}
}

func TestTranslateUnknownFrameKeepsRaw(t *testing.T) {
	raw := `{"somethingNew":{}}`
	msg := translateFrame(decodeFrame(t, raw), raw)

	if msg == nil || msg.Raw != raw {
		t.Fatalf("message = %+v, want raw passthrough", msg)
	}
	if msg.Text != "" || msg.Content != nil || msg.ToolCall != nil || msg.TurnComplete {
		t.Error("unknown frame must carry nothing but raw")
	}
}

func TestBuildSetupFrame(t *testing.T) {
	cfg := wire.Config{
		SystemInstruction:  "stay factual",
		ResponseModalities: []string{"TEXT"},
		Tools: []wire.ToolDecl{{
			Name:        "file_ops",
			Description: "file access",
			Parameters:  map[string]any{"path": map[string]any{"type": "string"}},
			Required:    []string{"path"},
		}},
		EnableSearch:   true,
		EnableCodeExec: true,
	}

	frame := buildSetupFrame("gemini-2.0-flash-exp", cfg)

	if frame.Setup.Model != "models/gemini-2.0-flash-exp" {
		t.Errorf("model = %q", frame.Setup.Model)
	}
	if frame.Setup.SystemInstruction == nil ||
		frame.Setup.SystemInstruction.Parts[0].Text != "stay factual" {
		t.Errorf("system instruction = %+v", frame.Setup.SystemInstruction)
	}
	if got := frame.Setup.GenerationConfig.ResponseModalities; len(got) != 1 || got[0] != "TEXT" {
		t.Errorf("modalities = %v", got)
	}

	// 三組 tools: function declarations, googleSearch, codeExecution
	if len(frame.Setup.Tools) != 3 {
		t.Fatalf("tools = %d groups, want 3", len(frame.Setup.Tools))
	}
	decl := frame.Setup.Tools[0].FunctionDeclarations[0]
	if decl.Name != "file_ops" {
		t.Errorf("declaration name = %q", decl.Name)
	}
	required, _ := decl.Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "path" {
		t.Errorf("required = %v", decl.Parameters["required"])
	}
	if frame.Setup.Tools[1].GoogleSearch == nil {
		t.Error("googleSearch group missing")
	}
	if frame.Setup.Tools[2].CodeExecution == nil {
		t.Error("codeExecution group missing")
	}

	// model prefix 不可重複
	frame = buildSetupFrame("models/gemini-2.0-flash-exp", cfg)
	if frame.Setup.Model != "models/gemini-2.0-flash-exp" {
		t.Errorf("model = %q, want single prefix", frame.Setup.Model)
	}
}
