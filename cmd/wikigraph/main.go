package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/ebonicra/WikiGraphExplorer/internal/app"
	"github.com/ebonicra/WikiGraphExplorer/internal/config"
	"github.com/ebonicra/WikiGraphExplorer/internal/crawl"
	"github.com/ebonicra/WikiGraphExplorer/internal/graph"
	"github.com/ebonicra/WikiGraphExplorer/internal/logging"
	"github.com/ebonicra/WikiGraphExplorer/internal/pointer"
	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

const (
	defaultStart = "Welsh Corgi"
	defaultEnd   = "Python (programming language)"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "crawl":
			crawlMain(os.Args[2:])
			return
		case "path":
			pathMain(os.Args[2:])
			return
		}
	}
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: wikigraph crawl [-d depth] [-p page] [-m max] [-o file] [-neo4j]\n")
	fmt.Fprintf(os.Stderr, "       wikigraph path [-from title] [-to title] [-non-directed] [-v]\n")
}

func crawlMain(args []string) {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	depth := fs.Int("d", 3, "the parsing depth")
	page := fs.String("p", defaultStart, "the starting article")
	maxArticles := fs.Int("m", 1000, "the maximum number of articles")
	output := fs.String("o", snapshot.DefaultFile, "snapshot file to write")
	pointerPath := fs.String("pointer", pointer.DefaultPath, "file recording the latest snapshot location")
	loadNeo4j := fs.Bool("neo4j", false, "load links into the neo4j database (env: NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikigraph crawl [-d depth] [-p page] [-m max] [-o file] [-neo4j]\n\n")
		fmt.Fprintf(os.Stderr, "Crawl the article link graph around a starting page and save it.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	maxDepth, maxNodes, err := config.CrawlLimits(*depth, *maxArticles, cfg.Workers)
	if err != nil {
		log.Fatal(err)
	}
	if *loadNeo4j && !cfg.Neo4jEnabled() {
		log.Fatal(config.ErrNeo4jNotConfigured)
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source, release := app.NewSource(cfg, logger)
	defer release()

	fmt.Println(app.MsgStopHint)
	c := crawl.New(*page, source, crawl.Options{
		Workers: cfg.Workers,
		Logger:  logger,
		OnLevel: func(depth, _ int) {
			fmt.Println(levelBanner(depth))
		},
	})
	records := c.Run(ctx, maxDepth, maxNodes)
	stop()

	outcome := app.Judge(len(records), c.Cancelled())
	if outcome != app.Saved {
		fmt.Println(outcome.Message())
	} else {
		if err := app.Persist(records, *output, *pointerPath); err != nil {
			log.Fatalf("save graph: %v", err)
		}
		fmt.Printf("Saved %d articles to %s\n", len(records), *output)
	}

	if *loadNeo4j && len(records) > 0 {
		if err := app.LoadNeo4j(context.Background(), cfg, records, logger); err != nil {
			log.Fatalf("neo4j: %v", err)
		}
	}
}

func levelBanner(depth int) string {
	line := strings.Repeat("-", 25)
	return fmt.Sprintf("%s %d %s", line, depth, line)
}

func pathMain(args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	from := fs.String("from", defaultStart, "the starting article")
	to := fs.String("to", defaultEnd, "the target article")
	nonDirected := fs.Bool("non-directed", false, "treat links as undirected")
	showPath := fs.Bool("v", false, "display the path")
	pointerPath := fs.String("pointer", pointer.DefaultPath, "file recording the latest snapshot location")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wikigraph path [-from title] [-to title] [-non-directed] [-v]\n\n")
		fmt.Fprintf(os.Stderr, "Find the shortest distance between two articles of the saved graph.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	out, err := shortestPath(*pointerPath, *from, *to, !*nonDirected, *showPath)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}

// shortestPath answers one query and maps the lookup failures to their
// user-facing messages.
func shortestPath(pointerPath, from, to string, directed, showPath bool) (string, error) {
	g, err := app.LoadGraph(pointerPath, directed)
	if errors.Is(err, app.ErrDatabaseNotFound) {
		return app.MsgDatabaseNotFound, nil
	}
	if err != nil {
		return "", err
	}
	out, err := g.ShortestPath(from, to, showPath)
	if errors.Is(err, graph.ErrTitleNotFound) {
		return app.MsgTitleNotFound, nil
	}
	return out, err
}
