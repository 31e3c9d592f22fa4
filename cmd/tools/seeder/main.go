package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

type seedProduct struct {
	Name      string
	Price     string
	Category  string
	Inventory int32
}

var (
	globalCategories = []string{"Beverages", "Snacks", "Household"}
	ownCategories    = []string{"Bakery", "Specials"}

	products = []seedProduct{
		{"Espresso", "2.50", "Beverages", 120},
		{"Cafe Latte", "3.75", "Beverages", 80},
		{"Iced Tea", "2.00", "Beverages", 60},
		{"Croissant", "2.25", "Bakery", 30},
		{"Blueberry Muffin", "2.80", "Bakery", 24},
		{"Potato Chips", "1.50", "Snacks", 50},
		{"Chocolate Bar", "1.20", "Snacks", 75},
		{"Dish Soap", "3.10", "Household", 12},
		{"Daily Soup", "4.50", "Specials", 10},
	}
)

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	q := dbgen.New(pool)
	owner, created, err := seedOwner(ctx, q)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed operator")
	}
	if !created {
		logger.Info().Int64("user_id", owner.ID).Msg("operator already seeded, nothing to do")
		return
	}
	if err := seedCatalog(ctx, q, owner.ID, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int64("user_id", owner.ID).Str("email", owner.Email).Msg("seeding completed")
}

func seedOwner(ctx context.Context, q *dbgen.Queries) (dbgen.User, bool, error) {
	email := envOrDefault("SEED_OWNER_EMAIL", "owner@kasir.local")
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return dbgen.User{}, false, err
	}
	hash, err := argon2id.CreateHash(envOrDefault("SEED_OWNER_PASSWORD", "password123"), argon2id.DefaultParams)
	if err != nil {
		return dbgen.User{}, false, err
	}
	user, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		Name:         "Store Owner",
		Email:        email,
		PasswordHash: hash,
		CurrencyCode: "USD",
		TaxRate:      decimal.RequireFromString("8"),
	})
	return user, err == nil, err
}

func seedCatalog(ctx context.Context, q *dbgen.Queries, ownerID int64, logger zerolog.Logger) error {
	for _, name := range globalCategories {
		if _, err := q.CreateCategory(ctx, dbgen.CreateCategoryParams{Name: name}); err != nil {
			// Global categories survive reseeding of a fresh owner.
			logger.Warn().Err(err).Str("category", name).Msg("skip global category")
		}
	}
	for _, name := range ownCategories {
		if _, err := q.CreateCategory(ctx, dbgen.CreateCategoryParams{Name: name, UserID: common.Int8(ownerID)}); err != nil {
			return err
		}
	}
	for _, p := range products {
		_, err := q.CreateProduct(ctx, dbgen.CreateProductParams{
			Name:      p.Name,
			Price:     decimal.RequireFromString(p.Price),
			Category:  common.Text(p.Category),
			Inventory: p.Inventory,
			UserID:    ownerID,
		})
		if err != nil {
			return err
		}
	}
	logger.Info().Int("products", len(products)).Msg("catalog seeded")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
