package leadform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt_EmbedsFieldsVerbatim(t *testing.T) {
	lead := Lead{
		Name:    "Zoë O'Brien",
		Email:   "zoe+leads@example.com",
		Phone:   "+1 (555) 010-9999",
		Message: "Need a quote for 3 rooms.\nAlso: do you work weekends?",
	}

	p := Prompt(lead)

	assert.Contains(t, p, "Customer Name: "+lead.Name)
	assert.Contains(t, p, "Customer Email: "+lead.Email)
	assert.Contains(t, p, "Customer Phone: "+lead.Phone)
	assert.Contains(t, p, "Their Message: "+lead.Message)
	assert.Contains(t, p, "2-3 sentences")
	assert.Contains(t, p, "24 hours")
}

func TestPrompt_EmptyFields(t *testing.T) {
	p := Prompt(Lead{Name: "Bob"})

	assert.Contains(t, p, "Customer Name: Bob\n")
	assert.Contains(t, p, "Customer Phone: \n")
	assert.Contains(t, p, "Their Message: ")
}

func TestEntry_Row(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	e := NewEntry(Lead{Name: "Alice", Email: "a@x.com", Phone: "555", Message: "Hi"}, ts)

	assert.Equal(t, []string{"Alice", "a@x.com", "555", "Hi", "2024-03-09 14:05:07", "New Lead"}, e.Row())
}

func TestLead_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Lead
	}{
		{
			name: "strings",
			body: `{"name":"Alice","email":"a@x.com","phone":"555","message":"Hi"}`,
			want: Lead{Name: "Alice", Email: "a@x.com", Phone: "555", Message: "Hi"},
		},
		{
			name: "scalars keep their json text",
			body: `{"name":"Al","phone":5551234,"message":true}`,
			want: Lead{Name: "Al", Phone: "5551234", Message: "true"},
		},
		{
			name: "null fields",
			body: `{"name":null,"email":"a@x.com"}`,
			want: Lead{Email: "a@x.com"},
		},
		{
			name: "unknown fields ignored",
			body: `{"name":"Bo","company":"Acme"}`,
			want: Lead{Name: "Bo"},
		},
		{
			name: "null body",
			body: `null`,
			want: Lead{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Lead
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLead_UnmarshalJSON_NotAnObject(t *testing.T) {
	var l Lead
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &l))
	assert.Error(t, json.Unmarshal([]byte(`{"name":`), &l))
}
