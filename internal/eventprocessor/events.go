// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SyncEvent notifies the search syncer that documents of a type changed.
// The event carries no document ids: a sync pass always re-reads everything
// past the watermark, so events are safe to coalesce and to lose duplicates.
type SyncEvent struct {
	DocType string `json:"doc_type"`
}

// ViewEvent records one view of one document. Delivery is at-most-once by
// design; a lost event costs a count, never correctness.
type ViewEvent struct {
	DocumentID int64 `json:"document_id"`
}

// NewSyncMessage builds a Watermill message for a sync notification.
func NewSyncMessage(docType string) (*message.Message, error) {
	payload, err := json.Marshal(SyncEvent{DocType: docType})
	if err != nil {
		return nil, fmt.Errorf("marshal sync event: %w", err)
	}
	return message.NewMessage(uuid.New().String(), payload), nil
}

// NewViewMessage builds a Watermill message for a view increment.
func NewViewMessage(documentID int64) (*message.Message, error) {
	payload, err := json.Marshal(ViewEvent{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("marshal view event: %w", err)
	}
	return message.NewMessage(uuid.New().String(), payload), nil
}

// ParseSyncEvent decodes a sync notification payload.
func ParseSyncEvent(msg *message.Message) (SyncEvent, error) {
	var ev SyncEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return SyncEvent{}, fmt.Errorf("unmarshal sync event: %w", err)
	}
	return ev, nil
}

// ParseViewEvent decodes a view increment payload.
func ParseViewEvent(msg *message.Message) (ViewEvent, error) {
	var ev ViewEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ViewEvent{}, fmt.Errorf("unmarshal view event: %w", err)
	}
	return ev, nil
}
