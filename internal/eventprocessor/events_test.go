// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package eventprocessor

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestSyncMessageRoundTrip(t *testing.T) {
	msg, err := NewSyncMessage("r")
	if err != nil {
		t.Fatalf("NewSyncMessage: %v", err)
	}
	if msg.UUID == "" {
		t.Error("message must carry a uuid")
	}

	ev, err := ParseSyncEvent(msg)
	if err != nil {
		t.Fatalf("ParseSyncEvent: %v", err)
	}
	if ev.DocType != "r" {
		t.Errorf("doc type = %q, want r", ev.DocType)
	}
}

func TestViewMessageRoundTrip(t *testing.T) {
	msg, err := NewViewMessage(1234567)
	if err != nil {
		t.Fatalf("NewViewMessage: %v", err)
	}
	ev, err := ParseViewEvent(msg)
	if err != nil {
		t.Fatalf("ParseViewEvent: %v", err)
	}
	if ev.DocumentID != 1234567 {
		t.Errorf("document id = %d, want 1234567", ev.DocumentID)
	}
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	msg := message.NewMessage("bad", []byte("not json"))
	if _, err := ParseSyncEvent(msg); err == nil {
		t.Error("expected an error for a malformed sync payload")
	}
	if _, err := ParseViewEvent(msg); err == nil {
		t.Error("expected an error for a malformed view payload")
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	a, _ := NewViewMessage(1)
	b, _ := NewViewMessage(1)
	if a.UUID == b.UUID {
		t.Error("two view events for one document must not share an id")
	}
}
