package supersoniks

import (
	_ "embed"
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var schemaSDL string

const meQuery = `query Me { me { id name } }`

const eventsQuery = `query Events($page: Int!, $perPage: Int!, $updatedSince: DateTime) {
  events(page: $page, perPage: $perPage, updatedSince: $updatedSince) {
    page
    totalPages
    items {
      id
      title
      currency
      country
      sessions { id startsAt endsAt }
      rates { id name description price vatRate }
    }
  }
}`

const ticketsQuery = `query Tickets($eventId: ID!, $page: Int!, $perPage: Int!) {
  tickets(eventId: $eventId, page: $page, perPage: $perPage) {
    page
    totalPages
    items { id sessionId rateId status purchasedAt }
  }
}`

// schema is the subset of the remote API the client relies on.
var schema = mustLoadSchema()

func mustLoadSchema() *ast.Schema {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
	if err != nil {
		panic(fmt.Sprintf("supersoniks: invalid schema: %v", err))
	}
	return s
}

// validateQuery checks a document against the embedded schema.
func validateQuery(query string) error {
	if _, errs := gqlparser.LoadQuery(schema, query); len(errs) > 0 {
		return fmt.Errorf("supersoniks: invalid query: %w", errs)
	}
	return nil
}

func init() {
	for _, q := range []string{meQuery, eventsQuery, ticketsQuery} {
		if err := validateQuery(q); err != nil {
			panic(err)
		}
	}
}
