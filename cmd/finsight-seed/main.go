// Command finsight-seed fills the database with a demo user and a few months
// of generated expenses and budgets.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/auth"
	"finsight/internal/cli"
	"finsight/internal/core"
	applog "finsight/internal/log"
	"finsight/internal/services"

	"github.com/brianvoe/gofakeit/v6"
)

// Typical price band per category, in currency units.
var priceBands = map[core.Category][2]float64{
	core.CategoryFood:          {4, 80},
	core.CategoryTravel:        {15, 400},
	core.CategoryRent:          {600, 1200},
	core.CategoryShopping:      {10, 250},
	core.CategoryEntertainment: {8, 90},
	core.CategoryHealthcare:    {20, 200},
	core.CategoryBills:         {30, 180},
	core.CategoryEducation:     {10, 300},
	core.CategoryOthers:        {1, 60},
}

func main() {
	email := flag.String("email", "demo@finsight.local", "demo user email")
	password := flag.String("password", "demo-password", "demo user password")
	months := flag.Int("months", 6, "months of history to generate, current month included")
	perMonth := flag.Int("per-month", 40, "expenses per month")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentSeed)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := context.Background()
	tokens := auth.NewTokens(auth.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})
	authService := auth.NewService(repo, tokens, cfg.BcryptCost)

	user, _, err := authService.Register(ctx, auth.RegisterInput{Name: "Demo User", Email: *email, Password: *password})
	if errors.Is(err, core.ErrConflict) {
		user, err = repo.UserByEmail(ctx, *email)
	}
	if err != nil {
		logger.Error("Failed to prepare demo user", applog.FieldError, err, "email", *email)
		os.Exit(1)
	}

	faker := gofakeit.New(*seed)
	expenses := services.NewExpenseService(repo, nil, nil)
	budgets := services.NewBudgetService(repo, analytics.NewEngine(repo), nil)

	now := time.Now().UTC()
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(*months - 1), 0)
	created := 0
	for m := 0; m < *months; m++ {
		start := firstMonth.AddDate(0, m, 0)
		end := start.AddDate(0, 1, 0).Add(-time.Second)
		if end.After(now) {
			end = now
		}
		for i := 0; i < *perMonth; i++ {
			category := core.Categories[faker.Number(0, len(core.Categories)-1)]
			band := priceBands[category]
			date := faker.DateRange(start, end)
			_, err := expenses.Create(ctx, user.ID, services.ExpenseInput{
				Amount:      core.MoneyFromFloat(faker.Price(band[0], band[1])),
				Category:    category,
				Description: faker.Sentence(5),
				Date:        &date,
			})
			if err != nil {
				logger.Error("Failed to create expense", applog.FieldError, err)
				os.Exit(1)
			}
			created++
		}
	}

	month := core.MonthKey(now)
	for _, category := range []core.Category{core.CategoryFood, core.CategoryShopping, core.CategoryEntertainment, core.CategoryTravel} {
		band := priceBands[category]
		limit := core.MoneyFromFloat(float64(faker.Number(int(band[1]), int(band[1])*4)))
		if _, _, err := budgets.Set(ctx, user.ID, services.BudgetInput{Category: category, MonthlyLimit: limit, Month: month}); err != nil {
			logger.Error("Failed to set budget", applog.FieldError, err, "category", category)
			os.Exit(1)
		}
	}

	logger.Info("Seed complete", applog.FieldUserID, user.ID, "email", *email, "expenses", created, "month", month)
}
