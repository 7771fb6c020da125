// Command quizimport loads a markdown question bank into the quiz database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/importer"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func main() {
	cfg := config.Load()
	file := flag.String("file", "README.md", "markdown file with the questions")
	images := flag.String("images", "", "directory holding images referenced by questions (optional)")
	flag.Parse()

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	f, err := os.Open(*file)
	if err != nil {
		lg.Fatal("open questions", zap.Error(err))
	}
	defer f.Close()
	questions, err := importer.Parse(f)
	if err != nil {
		lg.Fatal("parse questions", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	drv, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		lg.Fatal("db driver", zap.Error(err))
	}
	dbh, err := db.Open(ctx, drv, cfg.DBDSN)
	if err != nil {
		lg.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	res, err := importer.Import(ctx, quiz.NewSQLStore(dbh), questions)
	if err != nil {
		lg.Fatal("import", zap.Error(err))
	}

	if *images != "" {
		bs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			lg.Fatal("blob store", zap.Error(err))
		}
		for _, q := range res.Inserted {
			if q.Image == "" || bs.Exists(q.Image) {
				continue
			}
			if err := copyImage(bs, *images, q.Image); err != nil {
				lg.Warn("copy image", zap.String("image", q.Image), zap.Error(err))
			}
		}
	}

	lg.Info("questions imported",
		zap.String("file", *file),
		zap.Int("parsed", len(questions)),
		zap.Int("inserted", len(res.Inserted)),
		zap.Int("skipped", res.Skipped))
}

func copyImage(bs storage.BlobStore, dir, key string) error {
	src, err := os.Open(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = bs.Put(key, src)
	return err
}
