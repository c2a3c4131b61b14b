// ABOUTME: SurrealDB client implementing the backend API
// ABOUTME: Owns the authenticated connection, session events and SurrealQL CRUD
package backend

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// SessionEvent notifies subscribers of a session change. On sign-in Token
// carries the new session JWT; on sign-out it is empty.
type SessionEvent struct {
	SignedIn bool
	Token    string
}

type cborCodec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dst any) error
}

// Client wraps the SurrealDB SDK behind the API interface plus the
// authentication operations the session layer drives. All records are CBOR
// on the wire; the surrealcbor codec keeps time.Time round-trips intact.
type Client struct {
	cfg   *Config
	db    *surrealdb.DB
	codec cborCodec
	log   zerolog.Logger

	mu      sync.Mutex
	subs    map[int]func(SessionEvent)
	nextSub int
}

// Connect opens a WebSocket connection to the configured endpoint and
// selects the configured namespace and database. No identity is attached
// until SignIn, SignUp or Resume succeeds.
func Connect(ctx context.Context, cfg *Config, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid backend endpoint %q: %w", cfg.Endpoint, err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	db, err := surrealdb.FromConnection(ctx, gws.New(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to backend: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	log.Debug().Str("endpoint", cfg.Endpoint).Str("device", cfg.DeviceID).Msg("backend connected")

	return &Client{
		cfg:   cfg,
		db:    db,
		codec: codec,
		log:   log,
		subs:  map[int]func(SessionEvent){},
	}, nil
}

// Close terminates the connection.
func (c *Client) Close(ctx context.Context) error {
	return c.db.Close(ctx)
}

// Subscribe registers a session-change listener and returns an
// unsubscribe function. Listeners run synchronously, in subscription
// order, on the goroutine performing the sign-in or sign-out.
func (c *Client) Subscribe(fn func(SessionEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Client) publish(ev SessionEvent) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(SessionEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SignUp registers a new creator via the configured record access method
// and starts a session for it.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	token, err := c.db.SignUp(ctx, surrealdb.Auth{
		Namespace: c.cfg.Namespace,
		Database:  c.cfg.Database,
		Access:    c.cfg.Access,
		Username:  email,
		Password:  password,
	})
	if err != nil {
		return "", fmt.Errorf("sign-up failed: %w", err)
	}
	c.publish(SessionEvent{SignedIn: true, Token: token})
	return token, nil
}

// SignIn authenticates an existing creator and starts a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	token, err := c.db.SignIn(ctx, surrealdb.Auth{
		Namespace: c.cfg.Namespace,
		Database:  c.cfg.Database,
		Access:    c.cfg.Access,
		Username:  email,
		Password:  password,
	})
	if err != nil {
		return "", fmt.Errorf("sign-in failed: %w", err)
	}
	c.publish(SessionEvent{SignedIn: true, Token: token})
	return token, nil
}

// Resume re-attaches a previously issued session token to this connection.
func (c *Client) Resume(ctx context.Context, token string) error {
	if err := c.db.Authenticate(ctx, token); err != nil {
		return fmt.Errorf("session resume failed: %w", err)
	}
	c.publish(SessionEvent{SignedIn: true, Token: token})
	return nil
}

// SignOut invalidates the session on the server and notifies subscribers.
// Subscribers discard local state immediately regardless of in-flight
// operations.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.db.Invalidate(ctx)
	c.publish(SessionEvent{SignedIn: false})
	if err != nil {
		return fmt.Errorf("sign-out failed: %w", err)
	}
	return nil
}

// query runs a SurrealQL statement and decodes the final statement's
// result into out when out is non-nil.
func (c *Client) query(ctx context.Context, sql string, vars map[string]any, out any) error {
	res, err := surrealdb.Query[cbor.RawMessage](ctx, c.db, sql, vars)
	if err != nil {
		return mapBackendError(err)
	}
	if out == nil || res == nil || len(*res) == 0 {
		return nil
	}
	last := (*res)[len(*res)-1]
	if err := c.codec.Unmarshal(last.Result, out); err != nil {
		return fmt.Errorf("failed to decode backend result: %w", err)
	}
	return nil
}

// mapBackendError normalizes SurrealDB error strings the data layer cares
// about. Unique index violations surface as ErrConflict so get-or-create
// races and duplicate invoice numbers are recognizable.
func mapBackendError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "already contains") || strings.Contains(msg, "Database index") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// The select projection rewrites the record id into its plain string key so
// rows decode into models with string ids.
const selectCols = "*, record::id(id) AS id"

func (c *Client) ListOwned(ctx context.Context, table, userID string, limit int, out any) error {
	sql := fmt.Sprintf("SELECT %s FROM type::table($tb) WHERE user_id = $user ORDER BY created_at DESC", selectCols)
	vars := map[string]any{
		"tb":   table,
		"user": userID,
	}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}
	return c.query(ctx, sql, vars, out)
}

func (c *Client) ListMatching(ctx context.Context, table, userID string, filters map[string]any, out any) error {
	sql := fmt.Sprintf("SELECT %s FROM type::table($tb) WHERE user_id = $user", selectCols)
	vars := map[string]any{
		"tb":   table,
		"user": userID,
	}

	// Deterministic clause order keeps queries cache-friendly and testable.
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for i, f := range fields {
		p := fmt.Sprintf("f%d", i)
		// Callers filter on the plain string key, not the record id value.
		if f == "id" {
			sql += fmt.Sprintf(" AND record::id(id) = $%s", p)
		} else {
			sql += fmt.Sprintf(" AND %s = $%s", f, p)
		}
		vars[p] = filters[f]
	}
	sql += " ORDER BY created_at DESC"

	return c.query(ctx, sql, vars, out)
}

func (c *Client) Insert(ctx context.Context, table, id string, row any) error {
	return c.query(ctx, "CREATE type::thing($tb, $id) CONTENT $content", map[string]any{
		"tb":      table,
		"id":      id,
		"content": row,
	}, nil)
}

func (c *Client) Merge(ctx context.Context, table, id string, patch map[string]any) error {
	return c.query(ctx, "UPDATE type::thing($tb, $id) MERGE $patch", map[string]any{
		"tb":    table,
		"id":    id,
		"patch": patch,
	}, nil)
}

func (c *Client) Remove(ctx context.Context, table, id string) error {
	return c.query(ctx, "DELETE type::thing($tb, $id)", map[string]any{
		"tb": table,
		"id": id,
	}, nil)
}

// Define applies the schema the data layer relies on: the record access
// method for creator sign-up/sign-in and the uniqueness constraints that
// back singleton get-or-create and invoice number allocation. It must run
// under a database-level (admin) session.
func (c *Client) Define(ctx context.Context) error {
	stmts := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMALESS;
		DEFINE ACCESS IF NOT EXISTS %[2]s ON DATABASE TYPE RECORD
			SIGNIN (
				SELECT * FROM %[1]s WHERE email = $user AND crypto::argon2::compare(password, $pass)
			)
			SIGNUP (
				CREATE %[1]s CONTENT {
					email: $user,
					password: crypto::argon2::generate($pass)
				}
			);
		DEFINE INDEX IF NOT EXISTS %[1]s_email ON %[1]s FIELDS email UNIQUE;
		DEFINE INDEX IF NOT EXISTS user_profile_owner ON user_profile FIELDS user_id UNIQUE;
		DEFINE INDEX IF NOT EXISTS user_settings_owner ON user_settings FIELDS user_id UNIQUE;
		DEFINE INDEX IF NOT EXISTS invoice_number_per_user ON invoices FIELDS user_id, invoice_number UNIQUE;
	`, "creator_account", c.cfg.Access)

	if err := c.query(ctx, stmts, nil, nil); err != nil {
		return fmt.Errorf("schema definition failed: %w", err)
	}
	return nil
}

// AdminSignIn authenticates with database-level credentials, used only to
// run Define during provisioning.
func (c *Client) AdminSignIn(ctx context.Context, username, password string) error {
	_, err := c.db.SignIn(ctx, surrealdb.Auth{
		Namespace: c.cfg.Namespace,
		Database:  c.cfg.Database,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return fmt.Errorf("admin sign-in failed: %w", err)
	}
	return nil
}
