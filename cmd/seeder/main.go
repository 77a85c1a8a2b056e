//cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/unclebandit/customer-publisher/internal/config"
	"github.com/unclebandit/customer-publisher/internal/db"
	"github.com/unclebandit/customer-publisher/internal/logging"
	"github.com/unclebandit/customer-publisher/internal/model"
	"github.com/unclebandit/customer-publisher/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "seeder:", err)
		os.Exit(1)
	}
}

// run applies the schema, then upserts every customer found in the given JSON files.
func run(configPath string, seedFiles []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.Log, "seeder")
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}
	log.Info("schema applied")

	repo := &repository.CustomerRepository{DB: conn}
	for _, file := range seedFiles {
		n, err := seedFile(ctx, repo, file)
		if err != nil {
			return err
		}
		log.Info("seeded", "file", file, "customers", n)
	}

	log.Info("database seeding completed")
	return nil
}

func seedFile(ctx context.Context, repo repository.CustomerRepositoryInterface, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	customers, err := model.DecodeCustomerList(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	for i := range customers {
		if err := repo.Save(ctx, &customers[i]); err != nil {
			return i, err
		}
	}
	return len(customers), nil
}
