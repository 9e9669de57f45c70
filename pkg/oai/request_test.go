package oai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestURL(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		want    string
		wantErr error
	}{
		{
			name:    "list sets",
			request: Request{Endpoint: "http://example.com/oai", Verb: "ListSets"},
			want:    "http://example.com/oai?verb=ListSets",
		},
		{
			name: "list identifiers with set and prefix",
			request: Request{
				Endpoint:       "http://example.com/oai",
				Verb:           "ListIdentifiers",
				MetadataPrefix: "ddb",
				Set:            "abc123",
			},
			want: "http://example.com/oai?metadataPrefix=ddb&set=abc123&verb=ListIdentifiers",
		},
		{
			name: "get record",
			request: Request{
				Endpoint:       "http://example.com/oai",
				Verb:           "GetRecord",
				MetadataPrefix: "ddb",
				Identifier:     "oai:example:1",
			},
			want: "http://example.com/oai?identifier=oai%3Aexample%3A1&metadataPrefix=ddb&verb=GetRecord",
		},
		{
			name: "resumption token excludes other arguments",
			request: Request{
				Endpoint:        "http://example.com/oai",
				Verb:            "ListRecords",
				MetadataPrefix:  "ddb",
				Set:             "abc123",
				ResumptionToken: "token-1",
			},
			want: "http://example.com/oai?resumptionToken=token-1&verb=ListRecords",
		},
		{
			name:    "missing endpoint",
			request: Request{Verb: "ListSets"},
			wantErr: ErrNoEndpoint,
		},
		{
			name:    "missing verb",
			request: Request{Endpoint: "http://example.com/oai"},
			wantErr: ErrNoVerb,
		},
		{
			name:    "bad verb",
			request: Request{Endpoint: "http://example.com/oai", Verb: "StealRecords"},
			wantErr: ErrBadVerb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.URL()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValuesAddIfExists(t *testing.T) {
	vals := NewValues()
	vals.AddIfExists("set", "abc")
	vals.AddIfExists("identifier", "")

	assert.Equal(t, "abc", vals.Get("set"))
	_, ok := vals.Values["identifier"]
	assert.False(t, ok)
}
