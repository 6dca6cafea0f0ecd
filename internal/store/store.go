// Package store holds the client-side view models for the storefront: the
// product catalogue, the signed-in user's cart and the chatbot conversation.
// Every store talks to the backend through the shared API client, so bearer
// credentials and the refresh-and-retry behaviour apply uniformly.
package store

import (
	"context"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
)

// Doer is the part of *apiclient.Client the stores call.
type Doer interface {
	Do(ctx context.Context, call apiclient.Call) (*apiclient.Response, error)
}
