// Command search runs midpoint hotel searches for place pairs without the
// HTTP API. Pairs come as "start|end" arguments or lines of a file.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"midway_hotel/internal/adapters/nominatim"
	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/adapters/rakuten"
	redisad "midway_hotel/internal/adapters/redis"
	"midway_hotel/internal/app"
	"midway_hotel/internal/session"
	"midway_hotel/internal/shared"
	mysqlrepo "midway_hotel/internal/storage/mysql"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the exit code so deferred cleanup happens before exiting.
func run(args []string, stdout io.Writer) int {
	cfg := shared.Load()

	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var (
		file    = fs.String("f", "", "file with one start|end pair per line (- for stdin)")
		lang    = fs.String("lang", "ja", "message language (ja|en)")
		workers = fs.Int("workers", cfg.Workers, "concurrent searches")
		refresh = fs.Bool("refresh", false, "evict cached results before searching")
		token   = fs.String("token", "", "bearer token; searches are logged under its user")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	items, err := readPairs(*file, fs.Args())
	if err != nil {
		log.Error().Err(err).Msg("read pairs failed")
		return 2
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "usage: search [-f pairs.txt] 'start|end' ...")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps := app.Deps{
		Geocoder:  nominatim.New(cfg.NominatimBase, cfg.NominatimUA, cfg.ExternalRPS, cfg.ExternalTimeout),
		Inventory: rakuten.New(cfg.RakutenBase, cfg.RakutenAppID, cfg.ExternalRPS, cfg.ExternalTimeout),
		CacheTTL:  cfg.CacheTTL,
	}
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Error().Err(err).Msg("sql.Open failed")
			return 1
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("db.Ping failed")
			return 1
		}
		deps.SearchLog = mysqlrepo.New(db)
	}
	if cfg.RedisAddr != "" {
		rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		deps.Cache = redisad.NewCache(rc, "midway:")
	}

	if *token != "" {
		if cfg.JWTSecret == "" {
			log.Error().Msg("-token needs JWT_SECRET")
			return 2
		}
		provider := session.NewTokenProvider(session.NewJWTVerifier(cfg.JWTSecret, "midway-hotel", time.Hour))
		sess := session.New()
		if err := sess.Init(provider); err != nil {
			log.Error().Err(err).Msg("session init failed")
			return 1
		}
		defer sess.Teardown()
		if err := provider.SignIn(*token); err != nil {
			log.Error().Err(err).Msg("sign-in failed")
			return 1
		}
		deps.Session = sess
	}

	log.Info().Int("pairs", len(items)).Int("workers", *workers).Msg("batch search starting")

	results, err := app.NewBatchService(app.NewOrchestrator(deps), *workers, *refresh).Run(ctx, items, *lang)
	if err != nil {
		log.Warn().Err(err).Msg("batch interrupted")
	}

	enc := json.NewEncoder(stdout)
	failed := 0
	for _, r := range results {
		if r.Search.Err != nil {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			log.Error().Err(err).Msg("write result failed")
		}
	}
	log.Info().Int("ok", len(results)-failed).Int("failed", failed).Msg("batch search completed")
	if failed > 0 || err != nil {
		return 1
	}
	return 0
}

func readPairs(file string, args []string) ([]app.BatchItem, error) {
	lines := append([]string(nil), args...)
	if file != "" {
		var r io.Reader = os.Stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}
	return parsePairs(lines)
}

// parsePairs skips blank and # lines.
func parsePairs(lines []string) ([]app.BatchItem, error) {
	var out []app.BatchItem
	for i, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		start, end, ok := strings.Cut(l, "|")
		if !ok {
			return nil, fmt.Errorf("line %d: want start|end, got %q", i+1, l)
		}
		out = append(out, app.BatchItem{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)})
	}
	return out, nil
}
