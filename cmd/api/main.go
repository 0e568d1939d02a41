package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZRnown/ChineseLearning/internal/auth"
	"github.com/ZRnown/ChineseLearning/internal/catalog"
	"github.com/ZRnown/ChineseLearning/internal/config"
	"github.com/ZRnown/ChineseLearning/internal/httpapi"
	"github.com/ZRnown/ChineseLearning/internal/obs"
	"github.com/ZRnown/ChineseLearning/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Stores: PostgreSQL when a DSN is configured, otherwise in-memory with
	// sample content for local development.
	var (
		db      *sql.DB
		users   auth.UserStore
		content catalog.Store
	)
	if cfg.DatabaseDSN != "" {
		pgStore, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pgStore.DB()
		users = auth.NewPGUsers(db)
		content = pgStore
	} else {
		users = auth.NewInMemoryUsers()
		mem := catalog.NewInMemory()
		seedSampleClassics(mem)
		content = mem
		log.Print("CL_PG_DSN not set, using in-memory stores")
	}

	tokens, err := auth.NewTokens([]byte(cfg.AuthSecret), cfg.AuthIssuer)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	authSvc := auth.NewService(users, tokens, auth.WithLoginTTL(cfg.AccessTokenTTL))

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, content)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting classics-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func seedSampleClassics(store *catalog.InMemory) {
	ctx := context.Background()
	for _, c := range []catalog.Classic{
		{
			Title:       "道德经",
			Author:      "老子",
			Dynasty:     "春秋",
			Content:     "道可道，非常道。名可名，非常名。",
			Explanation: "开篇言道不可尽述。",
		},
		{
			Title:       "论语·学而",
			Author:      "孔子",
			Dynasty:     "春秋",
			Content:     "学而时习之，不亦说乎？有朋自远方来，不亦乐乎？",
			Explanation: "学习与交友之乐。",
		},
		{
			Title:       "静夜思",
			Author:      "李白",
			Dynasty:     "唐",
			Content:     "床前明月光，疑是地上霜。举头望明月，低头思故乡。",
			Explanation: "游子望月思乡。",
		},
	} {
		classic := c
		if err := store.CreateClassic(ctx, &classic); err != nil {
			log.Printf("seed classic %q: %v", c.Title, err)
		}
	}
}
