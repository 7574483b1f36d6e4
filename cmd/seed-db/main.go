package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/session"
	"github.com/xenking/storefront-api/internal/storage/postgres"
)

// sessionTTL is how long seeded sessions stay valid.
const sessionTTL = 365 * 24 * time.Hour

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type fixtures struct {
	Users []userFixture `json:"users"`
}

type userFixture struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	SessionToken string         `json:"session_token"`
	Orders       []orderFixture `json:"orders"`
}

type orderFixture struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	Currency string        `json:"currency"`
	Items    []itemFixture `json:"items"`
}

type itemFixture struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func main() {
	var (
		databaseURL  string
		fixturesFile string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixturesFile, "fixtures-file", "db/seed/fixtures.json", "path to fixtures JSON file")
	flag.StringVar(&pepper, "session-pepper", "", "HMAC pepper for session tokens (or STOREFRONT_SESSION_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}
	if pepper == "" {
		pepper = os.Getenv("STOREFRONT_SESSION_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, fixturesFile, []byte(pepper)); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}

	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, fixturesFile string, pepper []byte) error {
	data, err := os.ReadFile(fixturesFile)
	if err != nil {
		return errors.Wrap(err, "read fixtures file")
	}
	var fx fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, "parse fixtures")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, u := range fx.Users {
			if err := seedUser(ctx, tx, u, pepper); err != nil {
				return errors.Wrapf(err, "seed user %s", u.Email)
			}
			lg.Info("Seeded user",
				zap.String("email", u.Email),
				zap.Int("orders", len(u.Orders)),
			)
		}
		return nil
	})
}

func exec(ctx context.Context, tx pgx.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build query")
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func seedUser(ctx context.Context, tx pgx.Tx, u userFixture, pepper []byte) error {
	if err := exec(ctx, tx, psql.Insert("users").
		Columns("id", "email").
		Values(u.ID, u.Email).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email"),
	); err != nil {
		return errors.Wrap(err, "upsert user")
	}

	if u.SessionToken != "" {
		if err := exec(ctx, tx, psql.Insert("sessions").
			Columns("id", "user_id", "token_hash", "expires_at").
			Values(u.ID, u.ID, session.HashToken(pepper, u.SessionToken), time.Now().Add(sessionTTL)).
			Suffix("ON CONFLICT (id) DO UPDATE SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, revoked_at = NULL"),
		); err != nil {
			return errors.Wrap(err, "upsert session")
		}
	}

	for _, o := range u.Orders {
		if err := seedOrder(ctx, tx, u.ID, o); err != nil {
			return errors.Wrapf(err, "seed order %s", o.ID)
		}
	}
	return nil
}

func seedOrder(ctx context.Context, tx pgx.Tx, userID string, o orderFixture) error {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if err := exec(ctx, tx, psql.Insert("orders").
		Columns("id", "user_id", "status", "total_amount", "currency").
		Values(o.ID, userID, o.Status, total.Round(2), o.Currency).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, total_amount = EXCLUDED.total_amount, updated_at = now()"),
	); err != nil {
		return errors.Wrap(err, "upsert order")
	}

	if err := exec(ctx, tx, psql.Delete("order_items").Where(sq.Eq{"order_id": o.ID})); err != nil {
		return errors.Wrap(err, "clear order items")
	}
	if len(o.Items) == 0 {
		return nil
	}

	insert := psql.Insert("order_items").
		Columns("id", "order_id", "position", "product_id", "name", "quantity", "unit_price")
	for i, it := range o.Items {
		insert = insert.Values(it.ID, o.ID, i, it.ProductID, it.Name, it.Quantity, it.UnitPrice)
	}
	if err := exec(ctx, tx, insert); err != nil {
		return errors.Wrap(err, "insert order items")
	}
	return nil
}
