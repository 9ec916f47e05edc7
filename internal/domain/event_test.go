package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLifecycleEvent_Unmarshal(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
	}{
		{"rfc3339 string", `{"eventType":"UserCreated","userId":"u1","timestamp":"2024-05-01T12:30:00Z"}`},
		{"epoch millis", `{"eventType":"UserCreated","userId":"u1","timestamp":1714566600000}`},
		{"epoch millis as string", `{"eventType":"UserCreated","userId":"u1","timestamp":"1714566600000"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev UserLifecycleEvent
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &ev))
			assert.Equal(t, EventUserCreated, ev.EventType)
			assert.Equal(t, "u1", ev.UserID)
			ts, err := ev.EventTime()
			require.NoError(t, err)
			assert.True(t, want.Equal(ts), "got %s", ts)
			assert.NoError(t, ev.Validate())
		})
	}
}

func TestUserLifecycleEvent_MissingTimestampIsAllowed(t *testing.T) {
	var ev UserLifecycleEvent
	require.NoError(t, json.Unmarshal([]byte(`{"eventType":"UserDeleted","userId":"u2"}`), &ev))
	ts, err := ev.EventTime()
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
	assert.NoError(t, ev.Validate())
}

func TestUserLifecycleEvent_Validate(t *testing.T) {
	assert.Error(t, (&UserLifecycleEvent{UserID: "u1"}).Validate())
	assert.Error(t, (&UserLifecycleEvent{EventType: EventUserCreated}).Validate())
}

func TestEventTime_BadTimestampDoesNotRejectEvent(t *testing.T) {
	payloads := []string{
		`{"eventType":"UserDeleted","userId":"u1","timestamp":"yesterday"}`,
		`{"eventType":"UserDeleted","userId":"u1","timestamp":"2024-01-01 10:00:00"}`,
		`{"eventType":"UserDeleted","userId":"u1","timestamp":1700000000.5}`,
		`{"eventType":"UserDeleted","userId":"u1","timestamp":{"seconds":1}}`,
	}

	for _, payload := range payloads {
		var ev UserLifecycleEvent
		require.NoError(t, json.Unmarshal([]byte(payload), &ev), payload)
		assert.NoError(t, ev.Validate(), payload)

		ts, err := ev.EventTime()
		assert.Error(t, err, payload)
		assert.True(t, ts.IsZero(), payload)
	}
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageLimit, Offset: 0}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 5}, Page{Limit: 1000, Offset: 5}.Normalize())
	assert.Equal(t, Page{Limit: 10, Offset: 0}, Page{Limit: 10, Offset: -3}.Normalize())
}

func TestNewPostCreatedEvent(t *testing.T) {
	now := time.Now()
	p := &Post{ID: "p1", UserID: "u1", Title: "T", Content: "C", CreatedAt: now, UpdatedAt: now}

	ev := NewPostCreatedEvent(p, now)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PostCreated", decoded["eventType"])
	post := decoded["post"].(map[string]interface{})
	assert.Equal(t, "p1", post["postId"])
	assert.Equal(t, float64(0), post["likeCount"])
	assert.Equal(t, false, post["hasLiked"])
}
