package tools

import (
	"testing"
	"time"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewHTTPTool(time.Second))
	reg.Register(NewFileTool(""))

	if _, ok := reg.Get("http_request"); !ok {
		t.Error("http_request not found")
	}
	if _, ok := reg.Get("file_ops"); !ok {
		t.Error("file_ops not found")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Error("unexpected tool 'nope'")
	}

	all := reg.GetAll()
	if len(all) != 2 {
		t.Fatalf("GetAll() = %d tools, want 2", len(all))
	}
	// 註冊順序保持穩定
	if all[0].Name() != "http_request" || all[1].Name() != "file_ops" {
		t.Errorf("order = [%s, %s]", all[0].Name(), all[1].Name())
	}
}

func TestRegisterDefaults(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg, time.Second)

	for _, name := range []string{"file_ops", "http_request"} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("default tool %q not registered", name)
		}
	}
}
