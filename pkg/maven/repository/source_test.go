package repository

import (
	"context"
	"sync"

	"github.com/matzehuels/mvnresolve/pkg/future"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
)

// parsingLoader parses documents directly, recording each location it is asked for.
type parsingLoader struct {
	mu        sync.Mutex
	locations []string
	stores    []pom.ArtifactStore
}

func (l *parsingLoader) LoadDocument(ctx context.Context, location string, store pom.ArtifactStore, open OpenFunc) *future.Future[*pom.Descriptor] {
	l.mu.Lock()
	l.locations = append(l.locations, location)
	l.stores = append(l.stores, store)
	l.mu.Unlock()
	return future.Go(func() (*pom.Descriptor, error) {
		rc, err := open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		d, err := pom.Parse(rc, location)
		if err != nil {
			return nil, err
		}
		d.FromRepository = true
		d.SetArtifactStore(store)
		return d, nil
	})
}

func pomDoc(g, a, v string) string {
	return `<project><groupId>` + g + `</groupId><artifactId>` + a + `</artifactId><version>` + v + `</version></project>`
}
