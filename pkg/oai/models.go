package oai

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Response is the OAI-PMH response envelope. Only one of the verb payloads
// is set per response.
type Response struct {
	XMLName xml.Name    `xml:"http://www.openarchives.org/OAI/2.0/ OAI-PMH"`
	Date    string      `xml:"responseDate"`
	Request RequestEcho `xml:"request"`

	Error           *ProtocolError   `xml:"error"`
	ListSets        *ListSets        `xml:"ListSets"`
	ListIdentifiers *ListIdentifiers `xml:"ListIdentifiers"`
	ListRecords     *ListRecords     `xml:"ListRecords"`
	GetRecord       *GetRecord       `xml:"GetRecord"`
	Identify        *Identify        `xml:"Identify"`
}

// RequestEcho is the request element the endpoint echoes back
type RequestEcho struct {
	BaseURL string `xml:",chardata"`
	Verb    string `xml:"verb,attr"`
}

// ProtocolError is an error element inside the envelope
type ProtocolError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// Identify describes the repository
type Identify struct {
	RepositoryName    string `xml:"repositoryName"`
	BaseURL           string `xml:"baseURL"`
	ProtocolVersion   string `xml:"protocolVersion"`
	AdminEmail        string `xml:"adminEmail"`
	EarliestDatestamp string `xml:"earliestDatestamp"`
	DeletedRecord     string `xml:"deletedRecord"`
	Granularity       string `xml:"granularity"`
}

// ListSets is the payload of a ListSets response
type ListSets struct {
	Sets            []Set           `xml:"set"`
	ResumptionToken ResumptionToken `xml:"resumptionToken"`
}

// Set is a single set in a ListSets response
type Set struct {
	Spec string `xml:"setSpec"`
	Name string `xml:"setName"`
}

// IsTopLevel reports whether the set is a top-level set. The DDB repository
// exposes sub-collections as colon-separated setSpecs; harvesting only the
// top level avoids fetching the same record through multiple sets.
func (s Set) IsTopLevel() bool {
	return !strings.Contains(s.Spec, ":")
}

// ListIdentifiers is the payload of a ListIdentifiers response
type ListIdentifiers struct {
	Headers         []Header        `xml:"header"`
	ResumptionToken ResumptionToken `xml:"resumptionToken"`
}

// Header is a record header
type Header struct {
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpec    []string `xml:"setSpec"`
	Status     string   `xml:"status,attr"`
}

// IsDeleted reports whether the header marks a deleted record
func (h Header) IsDeleted() bool {
	return h.Status == "deleted"
}

// ListRecords is the payload of a ListRecords response
type ListRecords struct {
	Records         []Record        `xml:"record"`
	ResumptionToken ResumptionToken `xml:"resumptionToken"`
}

// GetRecord is the payload of a GetRecord response
type GetRecord struct {
	Record Record `xml:"record"`
}

// Record is a single record. Raw holds the verbatim inner XML of the record
// element; the metadata payload is never interpreted.
type Record struct {
	XMLName xml.Name `xml:"record"`
	Header  Header   `xml:"header"`
	Raw     string   `xml:",innerxml"`
}

// XML returns the record element as a self-contained XML fragment
func (r Record) XML() string {
	var b strings.Builder
	b.WriteString(`<record xmlns="http://www.openarchives.org/OAI/2.0/">`)
	b.WriteString(r.Raw)
	b.WriteString(`</record>`)
	return b.String()
}

// ResumptionToken is the pagination marker of a listing response. An absent
// element or an element with empty text both mean the listing is complete.
type ResumptionToken struct {
	Value            string `xml:",chardata"`
	Cursor           string `xml:"cursor,attr"`
	CompleteListSize string `xml:"completeListSize,attr"`
}

// Empty reports whether the token terminates pagination
func (t ResumptionToken) Empty() bool {
	return strings.TrimSpace(t.Value) == ""
}

// Size returns the advertised complete list size, or 0 if the endpoint did
// not advertise one. The value is advisory only.
func (t ResumptionToken) Size() int {
	n, err := strconv.Atoi(t.CompleteListSize)
	if err != nil {
		return 0
	}
	return n
}
