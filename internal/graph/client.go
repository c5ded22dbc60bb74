// Package graph mirrors users, constraints, actions and violations into a
// Neo4j property graph and answers the explainability query. The memory
// service stays authoritative for which constraints exist; this graph is
// authoritative for why an action was flagged.
//
// Every write keys on a stable identifier and uses MERGE, so re-applying a
// write is a no-op and concurrent duplicate writes converge.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wardenhq/warden/internal/constraint"
	wardenotel "github.com/wardenhq/warden/internal/otel"
	"github.com/wardenhq/warden/internal/policy"
)

var tracer = wardenotel.Tracer("github.com/wardenhq/warden/internal/graph")

// Client is the Neo4j-backed fact store. Sessions are short-lived: one per
// logical write, each committing as its own transaction.
type Client struct {
	driver  neo4j.DriverWithContext
	timeout time.Duration
}

// NewClient connects a driver to the given bolt URI. The timeout bounds
// every individual statement; past it the call fails rather than hanging.
func NewClient(uri, user, password string, timeout time.Duration) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver for %s: %w", uri, err)
	}
	return &Client{driver: driver, timeout: timeout}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// schemaStatements are idempotent and safe to re-run on every startup.
var schemaStatements = []string{
	"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT constraint_id_unique IF NOT EXISTS FOR (c:Constraint) REQUIRE c.id IS UNIQUE",
	"CREATE CONSTRAINT action_id_unique IF NOT EXISTS FOR (a:Action) REQUIRE a.id IS UNIQUE",
	"CREATE CONSTRAINT timewindow_id_unique IF NOT EXISTS FOR (t:TimeWindow) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT resource_id_unique IF NOT EXISTS FOR (r:Resource) REQUIRE r.id IS UNIQUE",
}

// EnsureSchema creates uniqueness constraints for all node labels.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "graph.ensure_schema")
	defer span.End()

	for _, stmt := range schemaStatements {
		if err := c.write(ctx, stmt, nil); err != nil {
			span.RecordError(err)
			return fmt.Errorf("applying graph schema: %w", err)
		}
	}
	return nil
}

// UpsertUser creates the user node if it does not exist yet.
func (c *Client) UpsertUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "graph.upsert_user",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	err := c.write(ctx, "MERGE (u:User {id:$user_id})", map[string]any{"user_id": userID})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upserting user %s: %w", userID, err)
	}
	return nil
}

// UpsertConstraint mirrors a constraint node, links it to the user, and
// materializes the type-conditional satellite: a TimeWindow [0, hour) for a
// meeting curfew, a Resource for a sharing ban. Satellites are keyed by
// parameter value, so constraints with equal params share one node.
func (c *Client) UpsertConstraint(ctx context.Context, userID string, con constraint.Constraint) error {
	ctx, span := tracer.Start(ctx, "graph.upsert_constraint",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("constraint.id", con.ID),
			attribute.String("constraint.type", string(con.Kind)),
		))
	defer span.End()

	paramsJSON, err := json.Marshal(con.Record().Params)
	if err != nil {
		return fmt.Errorf("encoding params for constraint %s: %w", con.ID, err)
	}

	err = c.write(ctx, `
		MERGE (u:User {id:$user_id})
		MERGE (c:Constraint {id:$cid})
		SET c.type=$ctype,
		    c.severity=$severity,
		    c.text=$text,
		    c.params_json=$params_json
		MERGE (u)-[:HAS_CONSTRAINT]->(c)`,
		map[string]any{
			"user_id":     userID,
			"cid":         con.ID,
			"ctype":       string(con.Kind),
			"severity":    string(con.Severity),
			"text":        con.Text,
			"params_json": string(paramsJSON),
		})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upserting constraint %s: %w", con.ID, err)
	}

	switch p := con.Params.(type) {
	case constraint.MeetingCurfew:
		err = c.write(ctx, `
			MATCH (c:Constraint {id:$cid})
			MERGE (tw:TimeWindow {id:$tw_id})
			SET tw.startHour=0, tw.endHour=$hour
			MERGE (c)-[:REQUIRES_TIMEWINDOW]->(tw)`,
			map[string]any{
				"cid":   con.ID,
				"tw_id": timeWindowID(p.Hour),
				"hour":  p.Hour,
			})
	case constraint.SharingBan:
		name := strings.ToLower(p.BannedParty)
		err = c.write(ctx, `
			MATCH (c:Constraint {id:$cid})
			MERGE (r:Resource {id:$rid})
			SET r.kind='party', r.name=$name
			MERGE (c)-[:BANS_RESOURCE]->(r)`,
			map[string]any{
				"cid":  con.ID,
				"rid":  resourceID(name),
				"name": name,
			})
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("materializing satellite for constraint %s: %w", con.ID, err)
	}
	return nil
}

// RecordAction persists the action node and its REQUESTED edge. Called for
// every evaluated request, approved or blocked.
func (c *Client) RecordAction(ctx context.Context, userID string, action policy.Action) error {
	ctx, span := tracer.Start(ctx, "graph.record_action",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("action.id", action.ID),
		))
	defer span.End()

	var ts any
	if !action.Timestamp.IsZero() {
		ts = action.Timestamp.UTC().Format(time.RFC3339)
	}

	err := c.write(ctx, `
		MERGE (u:User {id:$user_id})
		MERGE (a:Action {id:$aid})
		SET a.type=$atype,
		    a.text=$text
		FOREACH (_ IN CASE WHEN $ts IS NULL THEN [] ELSE [1] END |
		    SET a.ts = $ts
		)
		MERGE (u)-[:REQUESTED]->(a)`,
		map[string]any{
			"user_id": userID,
			"aid":     action.ID,
			"atype":   string(action.Type),
			"text":    action.Text,
			"ts":      ts,
		})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("recording action %s: %w", action.ID, err)
	}
	return nil
}

// RecordViolation appends a VIOLATES edge carrying the reason. Both
// endpoints must already exist; referencing an unknown action or constraint
// id is a contract breach and fails instead of creating partial state.
func (c *Client) RecordViolation(ctx context.Context, actionID, constraintID, reason string) error {
	ctx, span := tracer.Start(ctx, "graph.record_violation",
		trace.WithAttributes(
			attribute.String("action.id", actionID),
			attribute.String("constraint.id", constraintID),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:Action {id:$aid})
		MATCH (c:Constraint {id:$cid})
		MERGE (a)-[v:VIOLATES]->(c)
		SET v.reason=$reason
		RETURN c.id`,
		map[string]any{"aid": actionID, "cid": constraintID, "reason": reason})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("recording violation %s -> %s: %w", actionID, constraintID, err)
	}
	if _, err := result.Single(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("recording violation: action %s or constraint %s does not exist: %w",
			actionID, constraintID, err)
	}
	return nil
}

// ExplainViolations returns every constraint the user holds that the given
// action violates, each joined with its optional TimeWindow or Resource.
func (c *Client) ExplainViolations(ctx context.Context, userID, actionID string) ([]policy.Explanation, error) {
	ctx, span := tracer.Start(ctx, "graph.explain_violations",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("action.id", actionID),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {id:$user_id})-[:HAS_CONSTRAINT]->(c:Constraint),
		      (a:Action {id:$action_id})-[:VIOLATES]->(c)
		OPTIONAL MATCH (c)-[:REQUIRES_TIMEWINDOW]->(tw:TimeWindow)
		OPTIONAL MATCH (c)-[:BANS_RESOURCE]->(r:Resource)
		RETURN c.id AS constraint_id,
		       c.type AS type,
		       c.severity AS severity,
		       c.text AS text,
		       c.params_json AS params_json,
		       tw.startHour AS startHour,
		       tw.endHour AS endHour,
		       r.kind AS bannedKind,
		       r.name AS bannedName`,
		map[string]any{"user_id": userID, "action_id": actionID})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("explaining violations for action %s: %w", actionID, err)
	}

	var out []policy.Explanation
	for result.Next(ctx) {
		out = append(out, explanationFromRow(result.Record().AsMap()))
	}
	if err := result.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reading explanation rows for action %s: %w", actionID, err)
	}
	span.SetAttributes(attribute.Int("graph.explanations", len(out)))
	return out, nil
}

// write runs one statement in its own short-lived write session.
func (c *Client) write(ctx context.Context, cypher string, params map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}
