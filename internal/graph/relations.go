// Package graph stores character relationships in Neo4j, where edge
// queries stay cheap as the cast grows.
package graph

import (
	"context"
	"fmt"

	"github.com/inkfall/storyloom/internal/bible"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// RelationGraph manages directed character relationships in Neo4j. It
// implements bible.RelationRepo, so the assembly engine's relationship
// scoper can run against it unchanged.
type RelationGraph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New connects to Neo4j and verifies connectivity.
func New(uri, user, password string, logger *zap.Logger) (*RelationGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	logger.Info("Neo4j connected")
	return &RelationGraph{driver: driver, logger: logger}, nil
}

var _ bible.RelationRepo = (*RelationGraph)(nil)

// SaveRelation creates or updates the edge from source to target. One
// edge per directed pair; re-saving replaces type and description.
func (g *RelationGraph) SaveRelation(ctx context.Context, rel *bible.Relation) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Character {id: $source})
		 MERGE (b:Character {id: $target})
		 MERGE (a)-[r:RELATES_TO]->(b)
		 SET r.rel_id = $id, r.type = $type, r.description = $description, r.updated_at = datetime()`,
		map[string]any{
			"id":          rel.ID,
			"source":      rel.SourceID,
			"target":      rel.TargetID,
			"type":        rel.Type,
			"description": rel.Description,
		})
	if err != nil {
		return fmt.Errorf("save relation %s: %w", rel.ID, err)
	}
	return nil
}

// FindBetween returns the relation from source to target, or nil.
func (g *RelationGraph) FindBetween(ctx context.Context, sourceID, targetID string) (*bible.Relation, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Character {id: $source})-[r:RELATES_TO]->(b:Character {id: $target})
		 RETURN r.rel_id, r.type, r.description`,
		map[string]any{"source": sourceID, "target": targetID})
	if err != nil {
		return nil, fmt.Errorf("find relation %s->%s: %w", sourceID, targetID, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()
	relID, _ := rec.Get("r.rel_id")
	relType, _ := rec.Get("r.type")
	description, _ := rec.Get("r.description")

	rel := &bible.Relation{
		SourceID: sourceID,
		TargetID: targetID,
	}
	if s, ok := relID.(string); ok {
		rel.ID = s
	}
	if s, ok := relType.(string); ok {
		rel.Type = s
	}
	if s, ok := description.(string); ok {
		rel.Description = s
	}
	return rel, nil
}

// DeleteRelation removes the edge carrying the given relation ID.
func (g *RelationGraph) DeleteRelation(ctx context.Context, id string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH ()-[r:RELATES_TO {rel_id: $id}]->() DELETE r`,
		map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete relation %s: %w", id, err)
	}
	return nil
}

// Close shuts down the driver.
func (g *RelationGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
