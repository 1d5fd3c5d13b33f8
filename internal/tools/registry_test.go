package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/rpc"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/internal/tools"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *store.MemoryStore
	registry *tools.Registry
	profile  *models.Profile
	service  *models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := store.NewMemoryStore()
	profile := &models.Profile{
		ID:          uuid.NewString(),
		Username:    "alice",
		DisplayName: "Alice Example",
		Bio:         "Freelance designer",
		Verified:    true,
		Links: []models.Link{
			{ID: uuid.NewString(), Title: "Portfolio", URL: "https://alice.example", Position: 1, Active: true},
			{ID: uuid.NewString(), Title: "Old blog", URL: "https://old.example", Position: 2, Active: false},
		},
		Socials: []models.SocialAccount{
			{ID: uuid.NewString(), Platform: "github", Handle: "alice"},
		},
	}
	require.NoError(t, s.CreateProfile(context.Background(), profile))

	service := &models.Service{
		ID:        uuid.NewString(),
		ProfileID: profile.ID,
		Name:      "Logo design",
		Price:     "$500",
		Active:    true,
	}
	require.NoError(t, s.CreateService(context.Background(), service))

	return &fixture{
		store:    s,
		registry: tools.NewRegistry(s, "demo"),
		profile:  profile,
		service:  service,
	}
}

func authedCall(username string, scopes ...string) *rpc.Call {
	return &rpc.Call{
		Username: username,
		Auth: &models.AuthContext{
			KeyID:   uuid.NewString(),
			KeyName: "test agent",
			Scopes:  scopes,
		},
	}
}

func callTool(t *testing.T, f *fixture, call *rpc.Call, name string, args any) (*models.ToolResult, *models.RPCError) {
	t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	result, rpcErr := f.registry.HandleCall(context.Background(), call, raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tr, ok := result.(*models.ToolResult)
	require.True(t, ok, "tools/call result should be a ToolResult")
	return tr, nil
}

func resultText(t *testing.T, tr *models.ToolResult) string {
	t.Helper()
	require.Len(t, tr.Content, 1)
	require.Equal(t, "text", tr.Content[0].Type)
	return tr.Content[0].Text
}

func TestHandleList_IsStable(t *testing.T) {
	f := newFixture(t)

	first, rpcErr := f.registry.HandleList(context.Background(), &rpc.Call{Username: "alice"}, nil)
	require.Nil(t, rpcErr)
	second, rpcErr := f.registry.HandleList(context.Background(), &rpc.Call{Username: "bob"}, nil)
	require.Nil(t, rpcErr)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	var listed struct {
		Tools []models.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(a, &listed))
	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"get_profile", "list_links", "list_services", "send_message", "request_quote"}, names)
}

func TestHandleCall_UnknownTool(t *testing.T) {
	f := newFixture(t)

	_, rpcErr := callTool(t, f, &rpc.Call{Username: "alice"}, "delete_profile", nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
}

func TestHandleCall_MissingName(t *testing.T) {
	f := newFixture(t)

	_, rpcErr := f.registry.HandleCall(context.Background(), &rpc.Call{Username: "alice"}, json.RawMessage(`{}`))
	require.NotNil(t, rpcErr)
	assert.Equal(t, rpc.CodeInvalidParams, rpcErr.Code)
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, &rpc.Call{Username: "alice"}, "get_profile", nil)
	require.Nil(t, rpcErr)
	require.False(t, tr.IsError)

	text := resultText(t, tr)
	assert.Contains(t, text, "Username: alice")
	assert.Contains(t, text, "Verified: yes")
	// Only the active link counts.
	assert.Contains(t, text, "Links: 1 | Social accounts: 1 | Services: 1")
}

func TestGetProfile_NotFound(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, &rpc.Call{Username: "nobody"}, "get_profile", nil)
	require.Nil(t, rpcErr)
	assert.True(t, tr.IsError)
	assert.Contains(t, resultText(t, tr), "Profile 'nobody' not found.")
}

func TestListLinks(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, &rpc.Call{Username: "alice"}, "list_links", nil)
	require.Nil(t, rpcErr)

	text := resultText(t, tr)
	assert.Equal(t, "1. Portfolio (https://alice.example)", text)
	assert.NotContains(t, text, "Old blog")
}

func TestListLinks_Empty(t *testing.T) {
	f := newFixture(t)
	bare := &models.Profile{ID: uuid.NewString(), Username: "bob", DisplayName: "Bob"}
	require.NoError(t, f.store.CreateProfile(context.Background(), bare))

	tr, rpcErr := callTool(t, f, &rpc.Call{Username: "bob"}, "list_links", nil)
	require.Nil(t, rpcErr)
	assert.Equal(t, "No links found.", resultText(t, tr))
}

func TestListServices(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, &rpc.Call{Username: "alice"}, "list_services", nil)
	require.Nil(t, rpcErr)

	text := resultText(t, tr)
	assert.Contains(t, text, "Logo design")
	assert.Contains(t, text, "[id: "+f.service.ID+"]")
	assert.Contains(t, text, "($500)")
}

func TestSendMessage_RequiresInquireScope(t *testing.T) {
	f := newFixture(t)

	args := map[string]any{
		"service_id":   f.service.ID,
		"sender_name":  "Carol",
		"sender_email": "carol@example.com",
		"message":      "Interested in a logo.",
	}

	// No auth at all.
	_, rpcErr := callTool(t, f, &rpc.Call{Username: "alice"}, "send_message", args)
	require.NotNil(t, rpcErr)
	assert.Equal(t, rpc.CodeAuthRequired, rpcErr.Code)

	// Authenticated but missing the inquire scope.
	_, rpcErr = callTool(t, f, authedCall("alice", models.ScopeRead), "send_message", args)
	require.NotNil(t, rpcErr)
	assert.Equal(t, rpc.CodeAuthRequired, rpcErr.Code)

	// The gate runs before the handler; nothing was persisted.
	assert.Empty(t, f.store.Inquiries())
}

func TestSendMessage_Success(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   f.service.ID,
		"sender_name":  "Carol",
		"sender_email": "carol@example.com",
		"message":      "Interested in a logo.",
	})
	require.Nil(t, rpcErr)
	require.False(t, tr.IsError)
	assert.Contains(t, resultText(t, tr), "Message sent successfully. Inquiry ID: ")

	inquiries := f.store.Inquiries()
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryMessage, inquiries[0].Kind)
	assert.Equal(t, models.SourceAgent, inquiries[0].Source)
	assert.Equal(t, "test agent", inquiries[0].AgentName)
	assert.Equal(t, f.service.ID, inquiries[0].ServiceID)
}

func TestSendMessage_MissingField(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   f.service.ID,
		"sender_email": "carol@example.com",
		"message":      "hello",
	})
	require.Nil(t, rpcErr)
	assert.True(t, tr.IsError)
	assert.Equal(t, "Missing required field: sender_name.", resultText(t, tr))
	assert.Empty(t, f.store.Inquiries())
}

func TestSendMessage_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   f.service.ID,
		"sender_name":  "Carol",
		"sender_email": "not-an-email",
		"message":      "hello",
	})
	require.Nil(t, rpcErr)
	assert.True(t, tr.IsError)
	assert.Equal(t, "Invalid email format.", resultText(t, tr))
	assert.Empty(t, f.store.Inquiries())
}

func TestSendMessage_ServiceOwnedByAnotherProfile(t *testing.T) {
	f := newFixture(t)

	other := &models.Profile{ID: uuid.NewString(), Username: "bob", DisplayName: "Bob"}
	require.NoError(t, f.store.CreateProfile(context.Background(), other))
	foreign := &models.Service{ID: uuid.NewString(), ProfileID: other.ID, Name: "Copywriting", Active: true}
	require.NoError(t, f.store.CreateService(context.Background(), foreign))

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   foreign.ID,
		"sender_name":  "Carol",
		"sender_email": "carol@example.com",
		"message":      "hello",
	})
	require.Nil(t, rpcErr)
	assert.True(t, tr.IsError)
	assert.Equal(t, "Service not found or inactive.", resultText(t, tr))
	assert.Empty(t, f.store.Inquiries())
}

func TestSendMessage_InactiveService(t *testing.T) {
	f := newFixture(t)

	inactive := &models.Service{ID: uuid.NewString(), ProfileID: f.profile.ID, Name: "Retired", Active: false}
	require.NoError(t, f.store.CreateService(context.Background(), inactive))

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   inactive.ID,
		"sender_name":  "Carol",
		"sender_email": "carol@example.com",
		"message":      "hello",
	})
	require.Nil(t, rpcErr)
	assert.True(t, tr.IsError)
	assert.Equal(t, "Service not found or inactive.", resultText(t, tr))
}

func TestRequestQuote_Success(t *testing.T) {
	f := newFixture(t)

	tr, rpcErr := callTool(t, f, authedCall("alice", models.ScopeInquire), "request_quote", map[string]any{
		"service_id":          f.service.ID,
		"sender_name":         "Carol",
		"sender_email":        "carol@example.com",
		"project_description": "Full brand identity for a bakery.",
	})
	require.Nil(t, rpcErr)
	require.False(t, tr.IsError)
	assert.Contains(t, resultText(t, tr), "Quote request submitted successfully.")

	inquiries := f.store.Inquiries()
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryQuote, inquiries[0].Kind)
	assert.Equal(t, "Full brand identity for a bakery.", inquiries[0].Message)
}

func TestDemoProfile_AcknowledgesWithoutPersisting(t *testing.T) {
	f := newFixture(t)

	demo := &models.Profile{ID: uuid.NewString(), Username: "demo", DisplayName: "Demo"}
	require.NoError(t, f.store.CreateProfile(context.Background(), demo))

	tr, rpcErr := callTool(t, f, authedCall("demo", models.ScopeInquire), "send_message", map[string]any{
		"service_id":   uuid.NewString(),
		"sender_name":  "Carol",
		"sender_email": "carol@example.com",
		"message":      "hello",
	})
	require.Nil(t, rpcErr)
	require.False(t, tr.IsError)
	assert.Equal(t, "This is the demo profile. Your message was received but not delivered.", resultText(t, tr))
	assert.Empty(t, f.store.Inquiries())
}
