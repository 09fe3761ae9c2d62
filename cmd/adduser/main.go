package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/formkeeper/internal/admin"
	"github.com/dmitrijs2005/formkeeper/internal/server/config"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/formkeeper/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	m := repomanager.NewPostgresRepositoryManager()
	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN, m)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	us := services.NewUserService(db, m, cfg)
	if _, err := admin.NewAddUser(us, os.Stdin, os.Stdout).Run(ctx, ""); err != nil {
		log.Printf("%v", err)
		db.Close()
		os.Exit(1)
	}

}
