package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
)

// sendMessage persists a message inquiry against one of the profile's
// active services.
func (r *Registry) sendMessage(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error) {
	var a sendMessageArgs
	if msg := decodeArgs(args, &a); msg != "" {
		return errorResult("%s", msg), nil
	}
	if msg := a.validate(); msg != "" {
		return errorResult("%s", msg), nil
	}

	return r.submitInquiry(ctx, call, inquiryInput{
		serviceID:   a.ServiceID,
		senderName:  a.SenderName,
		senderEmail: a.SenderEmail,
		body:        a.Message,
		kind:        models.InquiryMessage,
	})
}

// requestQuote persists a quote-request inquiry.
func (r *Registry) requestQuote(ctx context.Context, call *rpc.Call, args json.RawMessage) (*models.ToolResult, error) {
	var a requestQuoteArgs
	if msg := decodeArgs(args, &a); msg != "" {
		return errorResult("%s", msg), nil
	}
	if msg := a.validate(); msg != "" {
		return errorResult("%s", msg), nil
	}

	return r.submitInquiry(ctx, call, inquiryInput{
		serviceID:   a.ServiceID,
		senderName:  a.SenderName,
		senderEmail: a.SenderEmail,
		body:        a.ProjectDescription,
		kind:        models.InquiryQuote,
	})
}

type inquiryInput struct {
	serviceID   string
	senderName  string
	senderEmail string
	body        string
	kind        models.InquiryKind
}

func (r *Registry) submitInquiry(ctx context.Context, call *rpc.Call, in inquiryInput) (*models.ToolResult, error) {
	profile, result, err := r.resolveProfile(ctx, call.Username)
	if profile == nil {
		return result, err
	}

	// The sandbox profile acknowledges without persisting anything.
	if strings.EqualFold(call.Username, r.demoUsername) {
		return textResult("This is the demo profile. Your %s was received but not delivered.", kindNoun(in.kind)), nil
	}

	service, err := r.store.GetService(ctx, in.serviceID)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			return errorResult("Service not found or inactive."), nil
		}
		return nil, fmt.Errorf("resolve service: %w", err)
	}
	if service.ProfileID != profile.ID || !service.Active {
		return errorResult("Service not found or inactive."), nil
	}

	inquiry := &models.Inquiry{
		ID:          uuid.NewString(),
		ServiceID:   service.ID,
		ProfileID:   profile.ID,
		SenderName:  in.senderName,
		SenderEmail: in.senderEmail,
		Message:     in.body,
		Kind:        in.kind,
		Source:      models.SourceAgent,
		AgentName:   agentName(call),
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.CreateInquiry(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}

	verb := "Message sent"
	if in.kind == models.InquiryQuote {
		verb = "Quote request submitted"
	}
	return textResult("%s successfully. Inquiry ID: %s (received %s).",
		verb, inquiry.ID, inquiry.CreatedAt.Format(time.RFC3339)), nil
}

func agentName(call *rpc.Call) string {
	if call.Auth != nil {
		return call.Auth.KeyName
	}
	return ""
}

func kindNoun(k models.InquiryKind) string {
	if k == models.InquiryQuote {
		return "quote request"
	}
	return "message"
}
