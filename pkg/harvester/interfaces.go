package harvester

import (
	"context"

	"github.com/twphl/ddb-harvester/pkg/oai"
)

// Client is the slice of the OAI-PMH client the harvester depends on.
// Narrowing it to an interface keeps the orchestration testable against a
// fake endpoint.
type Client interface {
	Identify(ctx context.Context) (*oai.Identify, error)
	ListSets(ctx context.Context) ([]oai.Set, error)
	ListIdentifiers(ctx context.Context, set string) ([]oai.Header, int, error)
	ListRecordsPage(ctx context.Context, set, token string) (*oai.ListRecords, error)
	GetRecord(ctx context.Context, identifier string) (*oai.Record, []byte, error)
}
