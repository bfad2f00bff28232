package activitymap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := auth.ActivityEvent{
		ID:        "evt-1",
		EventType: auth.ActivityEventLoginSuccess,
		UserID:    "42",
		Metadata: map[string]any{
			"identifier": "ada@example.com",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.EventID != "evt-1" {
		t.Fatalf("expected event_id evt-1, got %q", out.EventID)
	}
	if out.ActorID != "42" {
		t.Fatalf("expected actor_id 42, got %q", out.ActorID)
	}
	if out.Verb != string(auth.ActivityEventLoginSuccess) {
		t.Fatalf("expected verb %q, got %q", auth.ActivityEventLoginSuccess, out.Verb)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "42" {
		t.Fatalf("expected object_id 42, got %q", out.ObjectID)
	}
	if out.Channel != "session" {
		t.Fatalf("expected channel session, got %q", out.Channel)
	}
	if out.Outcome != "success" {
		t.Fatalf("expected outcome success, got %q", out.Outcome)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata["identifier"] != "ada@example.com" {
		t.Fatalf("expected metadata identifier, got %#v", out.Metadata["identifier"])
	}

	out.Metadata["identifier"] = "changed"
	if event.Metadata["identifier"] != "ada@example.com" {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	event := auth.ActivityEvent{
		EventType: auth.ActivityEventCredentialPurged,
		Metadata: map[string]any{
			activitymap.MetadataKeyReason: "expired",
			"origin":                      "https://api.example.com",
		},
	}

	out := activitymap.Normalize(
		event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("credential"),
		activitymap.WithClock(func() time.Time { return now }),
		activitymap.WithObjectIDResolver(func(e auth.ActivityEvent) string {
			if v, ok := e.Metadata["origin"].(string); ok {
				return v
			}
			return ""
		}),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "credential" {
		t.Fatalf("expected object_type credential, got %q", out.ObjectType)
	}
	if out.ObjectID != "https://api.example.com" {
		t.Fatalf("expected object_id origin, got %q", out.ObjectID)
	}
	if out.Outcome != "" {
		t.Fatalf("expected no outcome for purge, got %q", out.Outcome)
	}
	if !out.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at from clock, got %v", out.OccurredAt)
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  auth.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses user id when present",
			event:  auth.ActivityEvent{UserID: " user-2 "},
			expect: "user-2",
		},
		{
			name:   "uses default fallback when user missing",
			event:  auth.ActivityEvent{},
			expect: "anonymous",
		},
		{
			name:   "uses configured fallback when user missing",
			event:  auth.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("cli")},
			expect: "cli",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	cases := map[auth.ActivityEventType]string{
		auth.ActivityEventLoginSuccess:     "success",
		auth.ActivityEventRegisterSuccess:  "success",
		auth.ActivityEventLoginFailure:     "failure",
		auth.ActivityEventRegisterFailure:  "failure",
		auth.ActivityEventLogout:           "",
		auth.ActivityEventIdentityResolved: "",
	}
	for eventType, want := range cases {
		if got := activitymap.Outcome(eventType); got != want {
			t.Fatalf("outcome(%s): expected %q, got %q", eventType, want, got)
		}
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(auth.ActivityEvent{
		ID:        "evt-9",
		EventType: auth.ActivityEventLoginFailure,
		Metadata:  map[string]any{activitymap.MetadataKeyError: "bad password", "identifier": "ada"},
	})

	fields := out.Fields()
	if len(fields)%2 != 0 {
		t.Fatalf("expected key/value pairs, got %v", fields)
	}

	got := map[any]any{}
	for i := 0; i < len(fields); i += 2 {
		got[fields[i]] = fields[i+1]
	}
	if got["outcome"] != "failure" {
		t.Fatalf("expected outcome failure, got %#v", got["outcome"])
	}
	if got["error"] != "bad password" {
		t.Fatalf("expected error field, got %#v", got["error"])
	}
	if _, ok := got["identifier"]; ok {
		t.Fatalf("expected identifier to stay out of log fields")
	}
	if _, ok := got["object_id"]; ok {
		t.Fatalf("expected no object_id for anonymous events")
	}
}

func TestSinkFunc(t *testing.T) {
	t.Parallel()

	var seen activitymap.Normalized
	sink := activitymap.SinkFunc(func(n activitymap.Normalized) error {
		seen = n
		return errors.New("forwarded")
	}, activitymap.WithDefaultChannel("cli"))

	err := sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLogout})
	if err == nil || err.Error() != "forwarded" {
		t.Fatalf("expected handler error to surface, got %v", err)
	}
	if seen.Verb != string(auth.ActivityEventLogout) || seen.Channel != "cli" {
		t.Fatalf("unexpected normalized record %+v", seen)
	}
}
