package network

import (
	"context"
	"fmt"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
)

// findProcessQuery locates the most recent process spawned by an owner under
// a given logical name.
const findProcessQuery = `query FindProcess($owners: [String!]!, $names: [String!]!) {
  transactions(
    first: 1
    owners: $owners
    tags: [
      { name: "Data-Protocol", values: ["ao"] }
      { name: "Type", values: ["Process"] }
      { name: "Name", values: $names }
    ]
  ) {
    edges {
      node {
        id
        tags {
          name
          value
        }
      }
    }
  }
}`

// processIndexedQuery checks whether the gateway has indexed a transaction
// identifier yet.
const processIndexedQuery = `query ProcessIndexed($ids: [ID!]!) {
  transactions(first: 1, ids: $ids) {
    edges {
      node {
        id
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Transactions struct {
			Edges []struct {
				Node struct {
					ID   string `json:"id"`
					Tags []Tag  `json:"tags"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"transactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// graphql posts one query to the gateway and returns the decoded response.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any) (*graphqlResponse, error) {
	var out graphqlResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{Query: query, Variables: variables}).
		SetResult(&out).
		Post(c.services.GatewayURL + "/graphql")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("gateway returned %s: %s", res.Status(), res.String())
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("gateway query failed: %s", out.Errors[0].Message)
	}
	return &out, nil
}

// FindProcess returns the identifier of the newest process owned by owner
// with the given logical name, or "" when none is indexed.
func (c *Client) FindProcess(ctx context.Context, name, owner string) (string, error) {
	out, err := c.graphql(ctx, findProcessQuery, map[string]any{
		"owners": []string{owner},
		"names":  []string{name},
	})
	if err != nil {
		return "", err
	}
	edges := out.Data.Transactions.Edges
	if len(edges) == 0 {
		return "", nil
	}
	ctxlog.FromContext(ctx).Debug("Found existing process.", "name", name, "processId", edges[0].Node.ID)
	return edges[0].Node.ID, nil
}

// ProcessIndexed reports whether the gateway has indexed the given process
// identifier yet. Freshly spawned processes take a while to appear.
func (c *Client) ProcessIndexed(ctx context.Context, processID string) (bool, error) {
	out, err := c.graphql(ctx, processIndexedQuery, map[string]any{
		"ids": []string{processID},
	})
	if err != nil {
		return false, err
	}
	return len(out.Data.Transactions.Edges) > 0, nil
}
