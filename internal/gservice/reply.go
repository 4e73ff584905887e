package gservice

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// ComposeReply builds an RFC 5322 reply to msg from owner. The reply goes to
// Reply-To when present, otherwise to the sender, and threads through
// In-Reply-To and References.
func ComposeReply(owner string, msg types.Message, body string, now time.Time) ([]byte, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: reply body is empty", types.ErrValidation)
	}

	recipient := msg.ReplyTo
	if recipient == "" {
		recipient = msg.From
	}
	to, err := mail.ParseAddressList(recipient)
	if err != nil || len(to) == 0 {
		return nil, fmt.Errorf("%w: no reply address in %q", types.ErrValidation, recipient)
	}
	from, err := mail.ParseAddress(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: bad owner address %q", types.ErrValidation, owner)
	}

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(replySubject(msg.Subject))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if msg.MessageID != "" {
		h.Set("In-Reply-To", msg.MessageID)
	}
	if refs := references(msg); refs != "" {
		h.Set("References", refs)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateSingleInlineWriter failed: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("write body failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close writer failed: %w", err)
	}

	return buf.Bytes(), nil
}

// references returns the parent's References chain with its Message-ID
// appended.
func references(msg types.Message) string {
	ids := strings.Fields(msg.References)
	if msg.MessageID != "" && !slices.Contains(ids, msg.MessageID) {
		ids = append(ids, msg.MessageID)
	}
	return strings.Join(ids, " ")
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
