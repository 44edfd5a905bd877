package webui

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogin_RendersErrorAndPrefix(t *testing.T) {
	var b bytes.Buffer
	if err := Login(&b, Page{Prefix: "/hidden", Error: "wrong password"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `action="/hidden/login"`) {
		t.Fatalf("missing form action: %s", out)
	}
	if !strings.Contains(out, "wrong password") {
		t.Fatal("missing error message")
	}
}

func TestIndex_EscapesPrefixInScript(t *testing.T) {
	var b bytes.Buffer
	if err := Index(&b, Page{Prefix: "/p"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `const prefix = "`) {
		t.Fatal("prefix not rendered as a JS string")
	}
	if !strings.Contains(out, `href="/p/logout"`) {
		t.Fatal("missing logout link")
	}
}
