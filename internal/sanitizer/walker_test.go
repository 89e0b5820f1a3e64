package sanitizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge-io/ticketwash/internal/ner"
)

func ticketDetector() *fakeDetector {
	return &fakeDetector{detections: []ner.Detection{
		{Text: "Jane Smith", Category: ner.Person},
		{Text: "Jane", Category: ner.Person},
		{Text: "Bob Lee", Category: ner.Person},
		{Text: "Initech", Category: ner.Org},
		{Text: "Toronto", Category: ner.GPE},
	}}
}

func TestSanitizeEndToEnd(t *testing.T) {
	s := New(ticketDetector())

	doc := Document{
		"ticket": Document{
			"id":      float64(8842),
			"subject": "VPN outage at Initech",
			"description": "Contact Jane Smith at jane@corp.com or 192.168.1.5/24, " +
				"see https://my.auvik.com/corp/dashboard#entity/42,\nregards, Jane",
			"requester": Document{
				"name":  "Jane Smith",
				"email": "jane@corp.com",
			},
		},
	}

	out, stats, err := s.Sanitize(context.Background(), doc)
	require.NoError(t, err)

	ticket := out["ticket"].(Document)
	assert.Equal(t, "VPN outage at Organization_1", ticket["subject"])
	assert.Equal(t, "Contact Person_1 at [EMAIL] or Subnet 1, see Entity 42",
		ticket["description"])

	// The requester is the same person as the description mention, so the
	// direct name substitution reuses the pseudonym.
	requester := ticket["requester"].(Document)
	assert.Equal(t, "Person_1", requester["name"])
	assert.Equal(t, "[EMAIL]", requester["email"])

	// Fields outside the sensitive set keep their values and types.
	assert.Equal(t, float64(8842), ticket["id"])

	assert.Equal(t, 2, stats.Fields)
	assert.Equal(t, 1, stats.Subnets)
	assert.Equal(t, 0, stats.DeviceIPs)
	assert.Equal(t, 1, stats.Organizations)
}

func TestSanitizeComments(t *testing.T) {
	s := New(ticketDetector())

	doc := Document{
		"ticket": Document{
			"subject": "Link flapping",
			"assignee": Document{
				"name":  "Bob Lee",
				"email": "bob@msp.example",
			},
		},
		"comments": Document{
			"comments": []any{
				Document{
					"body": "Bob Lee checked 10.0.0.1 from Toronto",
					"author": Document{
						"name":  "Bob Lee",
						"email": "bob@msp.example",
					},
				},
				"not a comment object",
				Document{
					"body": "same device 10.0.0.1 is fine now.\nThanks,\nBob",
				},
			},
		},
	}

	out, stats, err := s.Sanitize(context.Background(), doc)
	require.NoError(t, err)

	assignee := out["ticket"].(Document)["assignee"].(Document)
	assert.Equal(t, "Person_1", assignee["name"])

	list := out["comments"].(Document)["comments"].([]any)
	first := list[0].(Document)
	assert.Equal(t, "Person_1 checked Device IP 1 from [GPE]", first["body"])
	assert.Equal(t, "Person_1", first["author"].(Document)["name"])
	assert.Equal(t, "[EMAIL]", first["author"].(Document)["email"])

	// Non-mapping entries pass through untouched.
	assert.Equal(t, "not a comment object", list[1])

	// The same address maps to the same placeholder across comments, and
	// the sign-off line is stripped.
	second := list[2].(Document)
	assert.Equal(t, "same device Device IP 1 is fine now.", second["body"])

	assert.Equal(t, 3, stats.Fields) // subject + two bodies
	assert.Equal(t, 1, stats.DeviceIPs)
	assert.Equal(t, 1, stats.Persons)
}

func TestSanitizeFreshStateAcrossDocuments(t *testing.T) {
	s := New(ticketDetector())

	d1 := Document{"ticket": Document{"description": "Jane Smith reported it"}}
	d2 := Document{"ticket": Document{"description": "Jane Smith reported it again"}}

	out1, _, err := s.Sanitize(context.Background(), d1)
	require.NoError(t, err)
	out2, _, err := s.Sanitize(context.Background(), d2)
	require.NoError(t, err)

	// Counters restart for every document; no cross-document leakage.
	assert.Equal(t, "Person_1 reported it", out1["ticket"].(Document)["description"])
	assert.Equal(t, "Person_1 reported it again", out2["ticket"].(Document)["description"])
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	s := New(ticketDetector())

	doc := Document{
		"ticket": Document{
			"description": "Jane Smith at 10.0.0.1",
			"requester":   Document{"name": "Jane Smith", "email": "jane@corp.com"},
		},
	}
	snapshot := deepCopy(doc).(Document)

	out, _, err := s.Sanitize(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, snapshot, doc, "caller's document must stay untouched")
	assert.NotEqual(t, doc["ticket"].(Document)["description"],
		out["ticket"].(Document)["description"])
}

func TestSanitizeMissingFieldsAreSkipped(t *testing.T) {
	s := New(ticketDetector())

	tests := []struct {
		name string
		doc  Document
	}{
		{"empty document", Document{}},
		{"ticket without text fields", Document{"ticket": Document{"id": float64(1)}}},
		{"comments block without list", Document{"comments": Document{"count": float64(0)}}},
		{"requester without email", Document{"ticket": Document{"requester": Document{"name": "Jane Smith"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := s.Sanitize(context.Background(), tt.doc)
			require.NoError(t, err)
			assert.NotNil(t, out)
		})
	}
}

func TestSanitizeMalformedDocument(t *testing.T) {
	s := New(ticketDetector())

	tests := []struct {
		name string
		doc  Document
	}{
		{"ticket is a string", Document{"ticket": "not an object"}},
		{"subject is a number", Document{"ticket": Document{"subject": float64(5)}}},
		{"requester is a list", Document{"ticket": Document{"requester": []any{}}}},
		{"requester name is a number", Document{"ticket": Document{"requester": Document{"name": float64(7)}}}},
		{"comments is a list", Document{"comments": []any{}}},
		{"comments list is an object", Document{"comments": Document{"comments": Document{}}}},
		{"comment body is a number", Document{"comments": Document{"comments": []any{Document{"body": float64(1)}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := s.Sanitize(context.Background(), tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDocument)
			assert.Nil(t, out, "no partial output on malformed input")
		})
	}
}
