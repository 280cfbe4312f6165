package main

import "testing"

func TestComposeSubmission(t *testing.T) {
	c := &console{}

	text, pdf := c.composeSubmission("what are the trends?")
	if text != "what are the trends?" || pdf != "" {
		t.Fatalf("unexpected submission: %q %q", text, pdf)
	}

	// A staged PDF forces the synthesized query, whatever was typed.
	c.pendingPDF = "cGRmZGF0YQ=="
	c.pendingPDFName = "guide.pdf"
	text, pdf = c.composeSubmission("ignored")
	if text != "use this pdf guide.pdf" {
		t.Fatalf("unexpected text: %q", text)
	}
	if pdf != "cGRmZGF0YQ==" {
		t.Fatalf("unexpected pdf payload: %q", pdf)
	}

	// The attachment is consumed.
	text, pdf = c.composeSubmission("next turn")
	if text != "next turn" || pdf != "" {
		t.Fatalf("attachment not consumed: %q %q", text, pdf)
	}
}
