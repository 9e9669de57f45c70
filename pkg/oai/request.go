package oai

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNoEndpoint = errors.New("oai: an endpoint is required")
	ErrNoVerb     = errors.New("oai: no verb")
	ErrBadVerb    = errors.New("oai: bad verb")
)

// verbs lists the protocol requests this client can issue
// (4. Protocol Requests and Responses)
var verbs = map[string]bool{
	"Identify":            true,
	"ListIdentifiers":     true,
	"ListSets":            true,
	"ListMetadataFormats": true,
	"ListRecords":         true,
	"GetRecord":           true,
}

// Values is a thin wrapper around url.Values.
type Values struct {
	url.Values
}

// NewValues returns a new empty struct.
func NewValues() Values {
	return Values{url.Values{}}
}

// AddIfExists adds a key value pair only if value is nonempty.
func (v Values) AddIfExists(key, value string) {
	if value != "" {
		v.Add(key, value)
	}
}

// Request holds the parameters of a single OAI-PMH request
type Request struct {
	Endpoint        string
	Verb            string
	MetadataPrefix  string
	Set             string
	Identifier      string
	ResumptionToken string
}

// URL returns the absolute URL for the request. When a resumption token is
// present it is the only argument sent besides the verb; the protocol
// forbids combining it with other arguments.
func (r Request) URL() (string, error) {
	if r.Endpoint == "" {
		return "", ErrNoEndpoint
	}
	if r.Verb == "" {
		return "", ErrNoVerb
	}
	if !verbs[r.Verb] {
		return "", fmt.Errorf("%w: %s", ErrBadVerb, r.Verb)
	}

	vals := NewValues()
	vals.Add("verb", r.Verb)

	if r.ResumptionToken != "" {
		vals.Add("resumptionToken", r.ResumptionToken)
		return r.Endpoint + "?" + vals.Encode(), nil
	}

	vals.AddIfExists("metadataPrefix", r.MetadataPrefix)
	vals.AddIfExists("set", r.Set)
	vals.AddIfExists("identifier", r.Identifier)

	return r.Endpoint + "?" + vals.Encode(), nil
}
