package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	requestmodel "github.com/approvalflow/workflow-client/internal/request/model"
	sessionmodel "github.com/approvalflow/workflow-client/internal/session/model"
	"github.com/approvalflow/workflow-client/internal/system/utils"
)

// flexString accepts a JSON string, number or null
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

type requestPayload struct {
	ID          flexString      `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Priority    json.RawMessage `json:"priority"`
	Status      json.RawMessage `json:"status"`
	CreateBy    flexString      `json:"create_by"`
	CreatedBy   flexString      `json:"createdBy"`
	CreatedAt   flexString      `json:"created_at"`
	CreatedAtV2 flexString      `json:"createdAt"`
	UpdatedAt   flexString      `json:"updated_at"`
	UpdatedAtV2 flexString      `json:"updatedAt"`
}

type historyPayload struct {
	ID          flexString `json:"id"`
	RequestID   flexString `json:"requestId"`
	Action      flexString `json:"action"`
	Description flexString `json:"description"`
	UserID      flexString `json:"userId"`
	CreatedAt   flexString `json:"createdAt"`
	OldValue    flexString `json:"oldValue"`
	NewValue    flexString `json:"newValue"`
}

type userPayload struct {
	ID       flexString      `json:"id"`
	UserName string          `json:"userName"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	IsActive *bool           `json:"isActive"`
	Roles    json.RawMessage `json:"roles"`
}

type loginPayload struct {
	Token string       `json:"token"`
	User  *userPayload `json:"user"`
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeEnum reads a name or an ordinal from raw
func decodeEnum(raw json.RawMessage) (name string, ordinal int, isOrdinal bool, err error) {
	if isNull(raw) {
		return "", 0, false, fmt.Errorf("value is missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return "", n, true, nil
		}
		return s, 0, false, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", 0, false, fmt.Errorf("unsupported value %s", raw)
	}
	return "", n, true, nil
}

func decodePriority(raw json.RawMessage) (requestmodel.Priority, error) {
	name, ordinal, isOrdinal, err := decodeEnum(raw)
	if err != nil {
		return "", fmt.Errorf("priority: %w", err)
	}
	var (
		p  requestmodel.Priority
		ok bool
	)
	if isOrdinal {
		p, ok = requestmodel.PriorityFromOrdinal(ordinal)
	} else {
		p, ok = requestmodel.ParsePriority(name)
	}
	if !ok {
		return "", fmt.Errorf("priority: unknown value %s", raw)
	}
	return p, nil
}

func decodeStatus(raw json.RawMessage) (requestmodel.Status, error) {
	name, ordinal, isOrdinal, err := decodeEnum(raw)
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	var (
		s  requestmodel.Status
		ok bool
	)
	if isOrdinal {
		s, ok = requestmodel.StatusFromOrdinal(ordinal)
	} else {
		s, ok = requestmodel.ParseStatus(name)
	}
	if !ok {
		return "", fmt.Errorf("status: unknown value %s", raw)
	}
	return s, nil
}

func (p requestPayload) toRecord() (requestmodel.RequestRecord, error) {
	id := firstNonEmpty(p.ID)
	if id == "" {
		return requestmodel.RequestRecord{}, fmt.Errorf("%w: request without id", ErrDecode)
	}

	priority, err := decodePriority(p.Priority)
	if err != nil {
		return requestmodel.RequestRecord{}, fmt.Errorf("%w: request %s: %v", ErrDecode, id, err)
	}
	status, err := decodeStatus(p.Status)
	if err != nil {
		return requestmodel.RequestRecord{}, fmt.Errorf("%w: request %s: %v", ErrDecode, id, err)
	}
	createdAt, err := utils.ParseTimestamp(firstNonEmpty(p.CreatedAt, p.CreatedAtV2))
	if err != nil {
		return requestmodel.RequestRecord{}, fmt.Errorf("%w: request %s: created_at: %v", ErrDecode, id, err)
	}

	record := requestmodel.RequestRecord{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Priority:    priority,
		Status:      status,
		CreatorID:   firstNonEmpty(p.CreateBy, p.CreatedBy),
		CreatedAt:   createdAt,
	}

	if updated := firstNonEmpty(p.UpdatedAt, p.UpdatedAtV2); updated != "" {
		updatedAt, err := utils.ParseTimestamp(updated)
		if err != nil {
			return requestmodel.RequestRecord{}, fmt.Errorf("%w: request %s: updated_at: %v", ErrDecode, id, err)
		}
		record.UpdatedAt = &updatedAt
	}

	return record, nil
}

// toEntry never fails; unreadable timestamps become the zero time
func (p historyPayload) toEntry() requestmodel.HistoryEntry {
	entry := requestmodel.HistoryEntry{
		ID:          string(p.ID),
		RequestID:   string(p.RequestID),
		Action:      string(p.Action),
		Description: string(p.Description),
		ActorID:     string(p.UserID),
		OldValue:    string(p.OldValue),
		NewValue:    string(p.NewValue),
	}
	if ts, err := utils.ParseTimestamp(string(p.CreatedAt)); err == nil {
		entry.Timestamp = ts
	}
	return entry
}

// decodeRoles accepts a single label, an array of labels or null
func decodeRoles(raw json.RawMessage) (sessionmodel.RoleSet, error) {
	if isNull(raw) {
		return sessionmodel.NewRoleSet(), nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return sessionmodel.NewRoleSet(single), nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("%w: roles: unsupported value %s", ErrDecode, raw)
	}
	return sessionmodel.NewRoleSet(many...), nil
}

func (p userPayload) toIdentity() (sessionmodel.Identity, error) {
	roles, err := decodeRoles(p.Roles)
	if err != nil {
		return sessionmodel.Identity{}, err
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return sessionmodel.Identity{
		ID:       string(p.ID),
		Name:     p.Name,
		UserName: p.UserName,
		Email:    p.Email,
		Roles:    roles,
		Active:   active,
	}, nil
}

// unwrapObject returns the value under the first present key among keys,
// or nil when body is not an object or none of the keys is set.
func unwrapObject(body []byte, keys ...string) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	for _, key := range keys {
		if value, ok := envelope[key]; ok && !isNull(value) {
			return value
		}
	}
	return nil
}

func isArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeRequestList reads the list envelope: a bare array, {result: [...]}
// or {items: [...], totalCount, totalPages}.
func decodeRequestList(body []byte) ([]requestmodel.RequestRecord, error) {
	raw := json.RawMessage(body)
	if !isArray(body) {
		raw = unwrapObject(body, "result", "items", "data")
		if raw == nil || !isArray(raw) {
			return nil, fmt.Errorf("%w: unexpected list envelope", ErrDecode)
		}
	}

	var payloads []requestPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	records := make([]requestmodel.RequestRecord, 0, len(payloads))
	for _, p := range payloads {
		record, err := p.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// decodeRequest reads a single record, either bare or under "result"
func decodeRequest(body []byte) (requestmodel.RequestRecord, error) {
	raw := json.RawMessage(body)
	if wrapped := unwrapObject(body, "result", "data"); wrapped != nil {
		raw = wrapped
	}
	var p requestPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return requestmodel.RequestRecord{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return p.toRecord()
}

// decodeHistory reads {data: [...]}, a bare array or {result: [...]}.
// Any other shape is an empty history.
func decodeHistory(body []byte) []requestmodel.HistoryEntry {
	raw := json.RawMessage(body)
	if !isArray(body) {
		raw = unwrapObject(body, "data", "result")
	}
	entries := []requestmodel.HistoryEntry{}
	if raw == nil || !isArray(raw) {
		return entries
	}

	var payloads []historyPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return entries
	}
	for _, p := range payloads {
		entries = append(entries, p.toEntry())
	}
	return entries
}

func decodeLogin(body []byte) (*LoginResult, error) {
	raw := json.RawMessage(body)
	if wrapped := unwrapObject(body, "result"); wrapped != nil {
		raw = wrapped
	}
	var p loginPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if p.Token == "" || p.User == nil {
		return nil, fmt.Errorf("%w: login response without token or user", ErrDecode)
	}
	identity, err := p.User.toIdentity()
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: p.Token, Identity: identity}, nil
}

// orderByParam upper-cases the first letter, e.g. created_at becomes Created_at
func orderByParam(field requestmodel.OrderField) string {
	s := string(field)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
