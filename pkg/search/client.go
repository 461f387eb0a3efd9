package search

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"
)

// NewClient connects to the search cluster. Sniffing is off because the
// cluster typically sits behind a single reverse-proxied URL.
func NewClient(urls ...string) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(urls...),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, fmt.Errorf("connect search cluster: %w", err)
	}
	return client, nil
}

// ensureIndex creates the named index with the given mapping unless it
// already exists.
func ensureIndex(ctx context.Context, client *elastic.Client, name, mapping string) error {
	exists, err := client.IndexExists(name).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if _, err := client.CreateIndex(name).BodyString(mapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}
