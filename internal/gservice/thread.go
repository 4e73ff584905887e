package gservice

import (
	"encoding/base64"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-scheduler/internal/format"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

func convertThread(t *gmail.Thread) *types.Thread {
	thread := &types.Thread{ID: t.Id}
	for _, msg := range t.Messages {
		m := convertMessage(msg)
		if thread.Subject == "" {
			thread.Subject = m.Subject
		}
		thread.Messages = append(thread.Messages, m)
	}
	return thread
}

func convertMessage(msg *gmail.Message) types.Message {
	m := types.Message{
		ID:   msg.Id,
		Date: time.UnixMilli(msg.InternalDate).UTC(),
	}
	if msg.Payload == nil {
		m.Body = msg.Snippet
		return m
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			m.From = h.Value
		case "reply-to":
			m.ReplyTo = h.Value
		case "to":
			m.To = h.Value
		case "cc":
			m.CC = h.Value
		case "subject":
			m.Subject = h.Value
		case "message-id":
			m.MessageID = h.Value
		case "references":
			m.References = h.Value
		}
	}

	textBody, htmlBody := extractMessageBodies(msg.Payload)
	switch {
	case textBody != "":
		m.Body = format.StripQuotedReply(textBody)
	case htmlBody != "":
		m.Body = format.HTMLToText(htmlBody)
	default:
		m.Body = msg.Snippet
	}
	m.HasInvite = hasCalendarPart(msg.Payload)

	return m
}

func extractMessageBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	textBody, htmlBody = extractBodyFromPart(payload)

	for _, part := range payload.Parts {
		partText, partHTML := extractMessageBodies(part)
		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}
	}

	return textBody, htmlBody
}

func extractBodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" || part.Filename != "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", decodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

func hasCalendarPart(part *gmail.MessagePart) bool {
	if part.MimeType == "text/calendar" || part.MimeType == "application/ics" ||
		strings.HasSuffix(strings.ToLower(part.Filename), ".ics") {
		return true
	}
	for _, p := range part.Parts {
		if hasCalendarPart(p) {
			return true
		}
	}
	return false
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}
